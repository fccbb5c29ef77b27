package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/rs/zerolog"
)

const whapiDefaultEndpoint = "https://gate.whapi.cloud/messages/text"

// WhatsAppNotifier sends one plain-text WhatsApp message through the Whapi
// gateway. The phone number is expected in international form already.
type WhatsAppNotifier struct {
	token    string
	endpoint string
	client   httpx.Client
	logger   zerolog.Logger
}

// NewWhatsAppNotifier creates a new instance of WhatsAppNotifier.
func NewWhatsAppNotifier(cfg config.WhatsAppConfig, client httpx.Client, logger *zerolog.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		token:    cfg.Token,
		endpoint: whapiDefaultEndpoint,
		client:   client,
		logger:   logger.With().Str("component", "whatsapp_notifier").Logger(),
	}
}

func (n *WhatsAppNotifier) Channel() model.Channel { return model.ChannelWhatsApp }

func (n *WhatsAppNotifier) Configured() bool { return n.token != "" }

// Send implements the Notifier interface for WhatsApp.
func (n *WhatsAppNotifier) Send(ctx context.Context, contact *model.RecipientContact, event *model.NotificationEvent) error {
	if contact.PhoneNumber == "" {
		return fmt.Errorf("recipient has no phone number")
	}

	body, err := json.Marshal(whapiPayload{To: contact.PhoneNumber, Body: event.Message})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	resp, err := n.client.Do(ctx, &httpx.Request{
		Method: "POST",
		URL:    n.endpoint,
		Headers: map[string]string{
			"accept":        "application/json",
			"authorization": "Bearer " + n.token,
			"content-type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		n.logger.Error().Err(err).Str("recipient", contact.PhoneNumber).Msg("failed to send whatsapp message")
		return fmt.Errorf("whatsapp: send request: %w", err)
	}
	if !resp.IsSuccess() {
		n.logger.Error().Int("status", resp.StatusCode).Str("recipient", contact.PhoneNumber).Msg("whatsapp gateway rejected send")
		return fmt.Errorf("whatsapp: gateway returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	n.logger.Info().Str("recipient", contact.PhoneNumber).Msg("whatsapp message sent successfully")
	return nil
}

type whapiPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}
