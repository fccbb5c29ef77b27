package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

const brevoDefaultEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailNotifier sends one transactional email per dispatch. The primary
// transport is the Brevo HTTP API; when no API key is configured but an SMTP
// relay is, the same message goes out over SMTP instead.
type EmailNotifier struct {
	cfg      config.EmailConfig
	endpoint string
	client   httpx.Client
	dialer   *gomail.Dialer
	logger   zerolog.Logger
}

// NewEmailNotifier creates a new instance of EmailNotifier.
func NewEmailNotifier(cfg config.EmailConfig, client httpx.Client, logger *zerolog.Logger) *EmailNotifier {
	n := &EmailNotifier{
		cfg:      cfg,
		endpoint: brevoDefaultEndpoint,
		client:   client,
		logger:   logger.With().Str("component", "email_notifier").Logger(),
	}
	if cfg.APIKey == "" && cfg.SMTP.Host != "" {
		n.dialer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	}
	return n
}

func (n *EmailNotifier) Channel() model.Channel { return model.ChannelEmail }

// Configured reports whether either transport has a usable credential.
func (n *EmailNotifier) Configured() bool {
	return n.cfg.APIKey != "" || n.dialer != nil
}

// Send implements the Notifier interface for email.
func (n *EmailNotifier) Send(ctx context.Context, contact *model.RecipientContact, event *model.NotificationEvent) error {
	if contact.Email == "" {
		return fmt.Errorf("recipient has no email address")
	}

	if n.cfg.APIKey != "" {
		return n.sendViaAPI(ctx, contact, event)
	}
	if n.dialer != nil {
		return n.sendViaSMTP(contact, event)
	}
	return fmt.Errorf("email channel not configured")
}

// sendViaAPI performs one POST to the Brevo transactional send endpoint.
func (n *EmailNotifier) sendViaAPI(ctx context.Context, contact *model.RecipientContact, event *model.NotificationEvent) error {
	payload := brevoPayload{
		Sender:      brevoAddress{Name: n.cfg.SenderName, Email: n.cfg.SenderEmail},
		To:          []brevoAddress{{Email: contact.Email, Name: contact.DisplayName}},
		Subject:     event.Title,
		HTMLContent: renderHTMLBody(event.Title, event.Message),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	resp, err := n.client.Do(ctx, &httpx.Request{
		Method: "POST",
		URL:    n.endpoint,
		Headers: map[string]string{
			"accept":       "application/json",
			"api-key":      n.cfg.APIKey,
			"content-type": "application/json",
		},
		Body: body,
	})
	if err != nil {
		n.logger.Error().Err(err).Str("recipient", contact.Email).Msg("failed to send email")
		return fmt.Errorf("email: send request: %w", err)
	}
	if !resp.IsSuccess() {
		n.logger.Error().Int("status", resp.StatusCode).Str("recipient", contact.Email).Msg("email provider rejected send")
		return fmt.Errorf("email: provider returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	n.logger.Info().Str("recipient", contact.Email).Msg("email sent successfully")
	return nil
}

// sendViaSMTP is the fallback transport over a plain SMTP relay.
func (n *EmailNotifier) sendViaSMTP(contact *model.RecipientContact, event *model.NotificationEvent) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.cfg.SenderEmail, n.cfg.SenderName))
	m.SetHeader("To", m.FormatAddress(contact.Email, contact.DisplayName))
	m.SetHeader("Subject", event.Title)
	m.SetBody("text/html", renderHTMLBody(event.Title, event.Message))

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Error().Err(err).Str("recipient", contact.Email).Msg("failed to send email via smtp")
		return fmt.Errorf("email: smtp send: %w", err)
	}

	n.logger.Info().Str("recipient", contact.Email).Msg("email sent successfully via smtp")
	return nil
}

// renderHTMLBody wraps the message in the minimal right-to-left template the
// mobile clients expect.
func renderHTMLBody(title, message string) string {
	return fmt.Sprintf(
		`<html><body style="direction: rtl; font-family: sans-serif;"><h3>%s</h3><p>%s</p></body></html>`,
		html.EscapeString(title), html.EscapeString(message),
	)
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}
