package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
)

// ErrRecipientNotFound is returned when the recipient key resolves to no user.
// It is the only error that fails a whole dispatch: with no contact data there
// is nothing to send to.
var ErrRecipientNotFound = errors.New("recipient not found")

// ErrDuplicateToken is returned when a device token is already registered for
// the recipient. Registration treats it as an idempotent no-op.
var ErrDuplicateToken = errors.New("device token already registered")

// ErrNotFound is the generic cache/storage miss sentinel.
var ErrNotFound = errors.New("record not found")

// RecipientRepository defines the contract for resolving recipient routing
// data. The underlying user directory is owned by the booking system; this
// service only reads contact snapshots and manages device-token rows.
type RecipientRepository interface {
	// GetContact resolves the recipient key to a contact snapshot.
	// Returns ErrRecipientNotFound when the key is unknown.
	GetContact(ctx context.Context, recipientID string) (*model.RecipientContact, error)

	// GetDeviceTokens returns all registered device tokens for the recipient.
	// An empty slice is a valid result.
	GetDeviceTokens(ctx context.Context, recipientID string) ([]model.DeviceToken, error)

	// RegisterDeviceToken stores a device token for the recipient.
	// Re-registering the same token is not an error.
	RegisterDeviceToken(ctx context.Context, token *model.DeviceToken) error
}

// ContactCache defines the contract for a contact-snapshot caching layer.
type ContactCache interface {
	// Get retrieves a cached contact. Returns ErrNotFound on a miss.
	Get(ctx context.Context, recipientID string) (*model.RecipientContact, error)

	// Set caches a contact snapshot for the given duration.
	Set(ctx context.Context, contact *model.RecipientContact, expiration time.Duration) error

	// Delete removes a cached contact.
	Delete(ctx context.Context, recipientID string) error
}

// EventQueue defines the contract for the asynchronous trigger path.
// This abstracts the message broker between the API and the worker.
type EventQueue interface {
	// Publish hands a notification event to the worker pool.
	Publish(ctx context.Context, event *model.NotificationEvent) error
}
