package notifiers

import (
	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/ahjazly/unified-notifier/internal/fcm"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/rs/zerolog"
)

// Registry holds the channel senders for one process. Which of them actually
// fire for a given recipient is decided per dispatch, based on the contact
// data that exists.
type Registry struct {
	Email    Notifier
	WhatsApp Notifier
	Push     *PushNotifier
}

// NewRegistry builds channel-specific notifiers based on the application's
// configuration mode. In "log_only" mode the email and whatsapp senders are
// replaced with the LogNotifier; push always follows credential availability.
func NewRegistry(cfg *config.Config, client httpx.Client, minter *fcm.TokenMinter, logger *zerolog.Logger) *Registry {
	log := logger.With().Str("component", "notifier_registry").Logger()
	log.Info().Str("mode", cfg.Channels.Mode).Msg("initializing notifiers")

	reg := &Registry{
		Email:    NewEmailNotifier(cfg.Channels.Email, client, logger),
		WhatsApp: NewWhatsAppNotifier(cfg.Channels.WhatsApp, client, logger),
		Push:     NewPushNotifier(minter, client, logger),
	}

	if cfg.Channels.Mode == "log_only" {
		reg.Email = NewLogNotifier(model.ChannelEmail, logger)
		reg.WhatsApp = NewLogNotifier(model.ChannelWhatsApp, logger)
		log.Info().Msg("log-only mode, real email/whatsapp senders disabled")
		return reg
	}

	if reg.Email.Configured() {
		log.Info().Msg("email notifier enabled")
	}
	if reg.WhatsApp.Configured() {
		log.Info().Msg("whatsapp notifier enabled")
	}
	if reg.Push.Configured() {
		log.Info().Msg("push notifier enabled")
	}

	return reg
}
