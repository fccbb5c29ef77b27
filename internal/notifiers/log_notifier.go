package notifiers

import (
	"context"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/rs/zerolog"
)

// LogNotifier is a mock notifier that implements the Notifier interface.
// It simply logs the notification details to the console instead of sending
// them through a real provider. This is extremely useful for development.
type LogNotifier struct {
	channel model.Channel
	logger  zerolog.Logger
}

// NewLogNotifier creates a new instance of LogNotifier for the given channel.
func NewLogNotifier(channel model.Channel, logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		channel: channel,
		logger:  logger.With().Str("component", "log_notifier").Logger(),
	}
}

func (n *LogNotifier) Channel() model.Channel { return n.channel }

func (n *LogNotifier) Configured() bool { return true }

// Send implements the Notifier interface.
func (n *LogNotifier) Send(_ context.Context, contact *model.RecipientContact, event *model.NotificationEvent) error {
	var recipient string
	switch n.channel {
	case model.ChannelEmail:
		recipient = contact.Email
	case model.ChannelWhatsApp:
		recipient = contact.PhoneNumber
	}

	n.logger.Info().
		Stringer("event_id", event.ID).
		Str("channel", string(n.channel)).
		Str("recipient", recipient).
		Str("title", event.Title).
		Msg(">>> MOCK SEND: notification dispatched")

	return nil
}
