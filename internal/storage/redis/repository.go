package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Ensure CachedRecipientRepository implements the interface
var _ repo.RecipientRepository = (*CachedRecipientRepository)(nil)

// CachedRecipientRepository is a decorator for a RecipientRepository that
// adds a cache-aside layer for contact snapshots. Device tokens are always
// read through: staleness there would mean pushing to revoked devices.
type CachedRecipientRepository struct {
	primaryRepo repo.RecipientRepository
	cache       repo.ContactCache
	logger      zerolog.Logger
	ttl         time.Duration
}

// NewCachedRecipientRepository creates a new instance of the cached repository.
// It takes the primary repository and the cache as dependencies.
func NewCachedRecipientRepository(
	primaryRepo repo.RecipientRepository,
	cache repo.ContactCache,
	logger *zerolog.Logger,
) *CachedRecipientRepository {
	return &CachedRecipientRepository{
		primaryRepo: primaryRepo,
		cache:       cache,
		logger:      logger.With().Str("layer", "cached_repository").Logger(),
		ttl:         time.Minute * 15,
	}
}

// GetContact implements the cache-aside pattern. It first tries the cache;
// on a miss it fetches from the primary repository and caches the result.
func (r *CachedRecipientRepository) GetContact(ctx context.Context, recipientID string) (*model.RecipientContact, error) {
	cached, err := r.cache.Get(ctx, recipientID)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, repo.ErrNotFound) {
		r.logger.Error().Err(err).Str("recipient_id", recipientID).Msg("cache get error, falling back to primary repository")
	}

	primary, err := r.primaryRepo.GetContact(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, primary, r.ttl); err != nil {
		r.logger.Error().Err(err).Str("recipient_id", recipientID).Msg("failed to set cache after db fetch")
	}

	return primary, nil
}

// GetDeviceTokens always reads through to the primary repository.
func (r *CachedRecipientRepository) GetDeviceTokens(ctx context.Context, recipientID string) ([]model.DeviceToken, error) {
	return r.primaryRepo.GetDeviceTokens(ctx, recipientID)
}

// RegisterDeviceToken writes through to the primary repository. The contact
// cache is untouched because registration never changes contact data.
func (r *CachedRecipientRepository) RegisterDeviceToken(ctx context.Context, token *model.DeviceToken) error {
	return r.primaryRepo.RegisterDeviceToken(ctx, token)
}
