package notifiers

import (
	"context"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
)

// Notifier defines the interface for a single-call notification channel
// (email, whatsapp). Push fans out per device token and has its own type.
type Notifier interface {
	// Channel identifies which delivery channel this notifier serves.
	Channel() model.Channel

	// Configured reports whether the provider credential for this channel
	// is present. An unconfigured channel is skipped, not failed.
	Configured() bool

	// Send performs one outbound provider call for the recipient.
	Send(ctx context.Context, contact *model.RecipientContact, event *model.NotificationEvent) error
}
