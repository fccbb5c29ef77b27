package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Ensure RecipientRepository implements the interface
var _ repo.RecipientRepository = (*RecipientRepository)(nil)

const (
	getContactQuery = `
		SELECT email, phone_number, full_name
		FROM users
		WHERE auth_id = $1`

	getDeviceTokensQuery = `
		SELECT fcm_token, platform, created_at
		FROM user_device_tokens
		WHERE auth_id = $1`

	registerDeviceTokenQuery = `
		INSERT INTO user_device_tokens (auth_id, fcm_token, platform)
		VALUES ($1, $2, $3)`
)

// RecipientRepository implements the domain.repository.RecipientRepository
// interface against the booking system's PostgreSQL user directory. The
// users table is owned by the booking CRUD flows; this repository only
// reads contact snapshots and manages device-token rows.
type RecipientRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRecipientRepository creates a new instance of the RecipientRepository.
func NewRecipientRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *RecipientRepository {
	return &RecipientRepository{
		pool:   pool,
		logger: logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// GetContact resolves the recipient key into a contact snapshot.
func (r *RecipientRepository) GetContact(ctx context.Context, recipientID string) (*model.RecipientContact, error) {
	var email, phone pgtype.Text
	var fullName string

	err := r.pool.QueryRow(ctx, getContactQuery, recipientID).Scan(&email, &phone, &fullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Str("recipient_id", recipientID).Msg("recipient not found")
			return nil, repo.ErrRecipientNotFound
		}
		r.logger.Err(err).Str("method", "GetContact").Msg("cannot resolve recipient")
		return nil, fmt.Errorf("postgres: GetContact failed: %w", err)
	}

	return &model.RecipientContact{
		RecipientID: recipientID,
		Email:       email.String,
		PhoneNumber: phone.String,
		DisplayName: fullName,
	}, nil
}

// GetDeviceTokens returns all registered device tokens for the recipient.
func (r *RecipientRepository) GetDeviceTokens(ctx context.Context, recipientID string) ([]model.DeviceToken, error) {
	rows, err := r.pool.Query(ctx, getDeviceTokensQuery, recipientID)
	if err != nil {
		r.logger.Err(err).Str("method", "GetDeviceTokens").Msg("cannot query device tokens")
		return nil, fmt.Errorf("postgres: GetDeviceTokens failed: %w", err)
	}
	defer rows.Close()

	var tokens []model.DeviceToken
	for rows.Next() {
		var token model.DeviceToken
		var platform pgtype.Text
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&token.Token, &platform, &createdAt); err != nil {
			return nil, fmt.Errorf("postgres: scan device token: %w", err)
		}
		token.RecipientID = recipientID
		token.Platform = platform.String
		token.CreatedAt = createdAt.Time
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate device tokens: %w", err)
	}

	return tokens, nil
}

// RegisterDeviceToken stores a device token. A unique violation means the
// token is already registered for this recipient, which is not an error.
func (r *RecipientRepository) RegisterDeviceToken(ctx context.Context, token *model.DeviceToken) error {
	platform := pgtype.Text{String: token.Platform, Valid: token.Platform != ""}

	_, err := r.pool.Exec(ctx, registerDeviceTokenQuery, token.RecipientID, token.Token, platform)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.logger.Debug().Str("recipient_id", token.RecipientID).Msg("device token already registered")
			return nil
		}
		r.logger.Err(err).Str("method", "RegisterDeviceToken").Msg("cannot register device token")
		return fmt.Errorf("postgres: RegisterDeviceToken failed: %w", err)
	}

	return nil
}
