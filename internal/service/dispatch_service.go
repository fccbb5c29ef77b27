package service

import (
	"context"
	"sync"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/internal/notifiers"
	"github.com/rs/zerolog"
)

// DispatchService is the single entry point for one dispatch cycle: it
// resolves routing data, fans the event out across the applicable channels,
// and aggregates one result per channel attempt. No channel's failure ever
// aborts a sibling channel; the only fatal condition is an unknown recipient.
type DispatchService struct {
	repo     repo.RecipientRepository
	registry *notifiers.Registry
	logger   zerolog.Logger
}

func NewDispatchService(
	repo repo.RecipientRepository,
	registry *notifiers.Registry,
	logger *zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		repo:     repo,
		registry: registry,
		logger:   logger.With().Str("layer", "service").Logger(),
	}
}

// Dispatch resolves the recipient and delivers the event on every channel
// for which contact data exists. It returns repo.ErrRecipientNotFound when
// the recipient key is unknown; every other failure is captured into the
// report instead of being returned.
func (s *DispatchService) Dispatch(ctx context.Context, event *model.NotificationEvent) (*model.DispatchReport, error) {
	log := s.logger.With().Stringer("event_id", event.ID).Str("recipient_id", event.RecipientID).Logger()

	contact, err := s.repo.GetContact(ctx, event.RecipientID)
	if err != nil {
		log.Warn().Err(err).Msg("recipient resolution failed")
		return nil, err
	}
	log.Info().Str("name", contact.DisplayName).Msg("recipient resolved")

	tokens, err := s.repo.GetDeviceTokens(ctx, event.RecipientID)
	if err != nil {
		// A token lookup failure only loses the push branch.
		log.Error().Err(err).Msg("device token lookup failed, push skipped")
		tokens = nil
	}

	return s.DispatchToContact(ctx, event, contact, tokens), nil
}

// DispatchToContact is the direct-dispatch path for callers that already
// hold the recipient's contact snapshot, bypassing the lookup.
func (s *DispatchService) DispatchToContact(
	ctx context.Context,
	event *model.NotificationEvent,
	contact *model.RecipientContact,
	tokens []model.DeviceToken,
) *model.DispatchReport {
	log := s.logger.With().Stringer("event_id", event.ID).Str("recipient_id", contact.RecipientID).Logger()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []model.DispatchResult
	)
	collect := func(res model.DispatchResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}

	runChannel := func(n notifiers.Notifier, target string) {
		defer wg.Done()
		res := model.DispatchResult{Channel: n.Channel(), Target: target, Success: true}
		if err := n.Send(ctx, contact, event); err != nil {
			res.Success = false
			res.Error = err.Error()
		}
		collect(res)
	}

	if contact.Email != "" && s.registry.Email.Configured() {
		wg.Add(1)
		go runChannel(s.registry.Email, contact.Email)
	} else {
		log.Debug().Msg("email skipped (no address or not configured)")
	}

	if contact.PhoneNumber != "" && s.registry.WhatsApp.Configured() {
		wg.Add(1)
		go runChannel(s.registry.WhatsApp, contact.PhoneNumber)
	} else {
		log.Debug().Msg("whatsapp skipped (no phone or not configured)")
	}

	if len(tokens) > 0 && s.registry.Push.Configured() {
		// One token exchange feeds every device send in this dispatch.
		if err := s.registry.Push.EnsureToken(ctx); err != nil {
			log.Error().Err(err).Msg("access token unavailable, push skipped")
		} else {
			for _, token := range tokens {
				wg.Add(1)
				go func(deviceToken string) {
					defer wg.Done()
					res := model.DispatchResult{
						Channel: model.ChannelPush,
						Target:  notifiers.TruncateToken(deviceToken),
						Success: true,
					}
					if err := s.registry.Push.SendToToken(ctx, deviceToken, event); err != nil {
						res.Success = false
						res.Error = err.Error()
					}
					collect(res)
				}(token.Token)
			}
		}
	} else if len(tokens) == 0 {
		log.Debug().Msg("push skipped (no device tokens)")
	} else {
		log.Debug().Msg("push skipped (credential unavailable)")
	}

	wg.Wait()

	report := &model.DispatchReport{
		EventID:       event.ID,
		RecipientID:   contact.RecipientID,
		RecipientName: contact.DisplayName,
		Results:       results,
		CompletedAt:   time.Now().UTC(),
	}
	log.Info().
		Int("attempted", report.Attempted()).
		Int("succeeded", report.Succeeded()).
		Msg("dispatch completed")

	return report
}

// RegisterDevice stores a device token for the recipient. Re-registering an
// existing token is treated as success.
func (s *DispatchService) RegisterDevice(ctx context.Context, recipientID, token, platform string) error {
	deviceToken := &model.DeviceToken{
		RecipientID: recipientID,
		Token:       token,
		Platform:    platform,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.RegisterDeviceToken(ctx, deviceToken); err != nil {
		s.logger.Error().Err(err).Str("recipient_id", recipientID).Msg("failed to register device token")
		return err
	}
	s.logger.Info().Str("recipient_id", recipientID).Str("token", notifiers.TruncateToken(token)).Msg("device token registered")
	return nil
}
