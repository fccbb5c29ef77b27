package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Ensure ContactCache implements the interface
var _ repo.ContactCache = (*ContactCache)(nil)

// ContactCache implements the domain.ContactCache interface using the
// standard go-redis client. Contact snapshots change rarely relative to how
// often notifications fire, so short-TTL caching saves a directory query per
// dispatch.
type ContactCache struct {
	redis  *goredis.Client
	logger zerolog.Logger
}

// NewContactCache creates a new instance of the ContactCache.
func NewContactCache(logger *zerolog.Logger, redis *goredis.Client) *ContactCache {
	return &ContactCache{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_cache").Logger(),
	}
}

// Get retrieves a contact snapshot from the cache.
func (c *ContactCache) Get(ctx context.Context, recipientID string) (*model.RecipientContact, error) {
	key := keybuilder.RedisContactKeyBuild(recipientID)
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.logger.Debug().Str("key", key).Str("cache", "miss").Msg("contact not found in cache")
			return nil, repo.ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("failed to get key from redis")
		return nil, err
	}

	var contact model.RecipientContact
	if err := json.Unmarshal([]byte(val), &contact); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to unmarshal contact from cache")
		return nil, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	c.logger.Debug().Str("key", key).Str("cache", "hit").Msg("contact found in cache")
	return &contact, nil
}

// Set adds a contact snapshot to the cache for a specified duration.
func (c *ContactCache) Set(ctx context.Context, contact *model.RecipientContact, expiration time.Duration) error {
	key := keybuilder.RedisContactKeyBuild(contact.RecipientID)
	cBytes, err := json.Marshal(contact)
	if err != nil {
		c.logger.Error().Err(err).Str("recipient_id", contact.RecipientID).Msg("failed to marshal contact for cache")
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	if err := c.redis.Set(ctx, key, cBytes, expiration).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set key in redis")
		return err
	}

	return nil
}

// Delete removes a contact snapshot from the cache.
func (c *ContactCache) Delete(ctx context.Context, recipientID string) error {
	key := keybuilder.RedisContactKeyBuild(recipientID)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
		return err
	}

	return nil
}
