package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/ahjazly/unified-notifier/internal/fcm"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/rs/zerolog"
)

const fcmDefaultBaseURL = "https://fcm.googleapis.com/v1"

// PushNotifier delivers one push notification per registered device token
// through the FCM v1 HTTP API. The access token comes from the minter's
// cache, so all sends within a dispatch share one exchange.
type PushNotifier struct {
	minter  *fcm.TokenMinter
	baseURL string
	client  httpx.Client
	logger  zerolog.Logger
}

// NewPushNotifier creates a new instance of PushNotifier.
func NewPushNotifier(minter *fcm.TokenMinter, client httpx.Client, logger *zerolog.Logger) *PushNotifier {
	return &PushNotifier{
		minter:  minter,
		baseURL: fcmDefaultBaseURL,
		client:  client,
		logger:  logger.With().Str("component", "push_notifier").Logger(),
	}
}

// Configured reports whether a usable service-account credential was loaded.
func (n *PushNotifier) Configured() bool { return n.minter.ProjectID() != "" }

// EnsureToken warms the access-token cache before the per-token fan-out.
// A mint failure here means the whole push branch is skipped for this
// dispatch instead of producing one failed result per device.
func (n *PushNotifier) EnsureToken(ctx context.Context) error {
	_, err := n.minter.Token(ctx)
	return err
}

// SendToToken performs one send call for a single device token. Each token's
// outcome is independent; a stale token fails only its own result.
func (n *PushNotifier) SendToToken(ctx context.Context, deviceToken string, event *model.NotificationEvent) error {
	accessToken, err := n.minter.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(buildFCMPayload(deviceToken, event))
	if err != nil {
		return fmt.Errorf("push: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/messages:send", n.baseURL, n.minter.ProjectID())
	resp, err := n.client.Do(ctx, &httpx.Request{
		Method: "POST",
		URL:    url,
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		n.logger.Error().Err(err).Str("token", TruncateToken(deviceToken)).Msg("failed to send push")
		return fmt.Errorf("push: send request: %w", err)
	}
	if !resp.IsSuccess() {
		n.logger.Error().Int("status", resp.StatusCode).Str("token", TruncateToken(deviceToken)).Msg("push provider rejected send")
		return fmt.Errorf("push: provider returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	n.logger.Info().Str("token", TruncateToken(deviceToken)).Msg("push sent successfully")
	return nil
}

// TruncateToken shortens a device token for logs and results; full tokens
// are effectively credentials and never leave the process whole.
func TruncateToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}

func buildFCMPayload(deviceToken string, event *model.NotificationEvent) fcmSendRequest {
	data := map[string]string{
		"click_action": "FLUTTER_NOTIFICATION_CLICK",
		"type":         "notification",
	}
	if event.ActionURL != "" {
		data["action_url"] = event.ActionURL
	}

	return fcmSendRequest{
		Message: fcmMessage{
			Token: deviceToken,
			Notification: fcmNotification{
				Title: event.Title,
				Body:  event.Message,
			},
			Data: data,
			Android: fcmAndroid{
				Priority: "high",
				Notification: fcmAndroidNotification{
					ChannelID:             "high_importance_channel",
					Priority:              "high",
					NotificationPriority:  "PRIORITY_MAX",
					Sound:                 "default",
					DefaultSound:          true,
					DefaultVibrateTimings: true,
				},
			},
			APNS: fcmAPNS{
				Payload: fcmAPNSPayload{
					APS: fcmAPS{
						Alert:            fcmAPSAlert{Title: event.Title, Body: event.Message},
						Sound:            "default",
						Badge:            1,
						ContentAvailable: 1,
					},
				},
				Headers: map[string]string{"apns-priority": "10"},
			},
		},
	}
}

// fcmSendRequest matches the FCM v1 messages:send JSON schema.
type fcmSendRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
	APNS         fcmAPNS           `json:"apns"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority     string                 `json:"priority"`
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmAndroidNotification struct {
	ChannelID             string `json:"channel_id"`
	Priority              string `json:"priority"`
	NotificationPriority  string `json:"notification_priority"`
	Sound                 string `json:"sound"`
	DefaultSound          bool   `json:"default_sound"`
	DefaultVibrateTimings bool   `json:"default_vibrate_timings"`
}

type fcmAPNS struct {
	Payload fcmAPNSPayload    `json:"payload"`
	Headers map[string]string `json:"headers"`
}

type fcmAPNSPayload struct {
	APS fcmAPS `json:"aps"`
}

type fcmAPS struct {
	Alert            fcmAPSAlert `json:"alert"`
	Sound            string      `json:"sound"`
	Badge            int         `json:"badge"`
	ContentAvailable int         `json:"content-available"`
}

type fcmAPSAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
