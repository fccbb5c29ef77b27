package fcm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	oauthScope           = "https://www.googleapis.com/auth/cloud-platform"
	jwtBearerGrantType   = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// assertionLifetime is the exp-iat window requested in the JWT claims.
	assertionLifetime = time.Hour
	// tokenExpiryMargin expires cached tokens early to avoid races against
	// the provider-side expiry.
	tokenExpiryMargin = 60 * time.Second
)

// TokenMinter exchanges a signed JWT assertion for a short-lived bearer
// token that authorizes push-provider API calls. Tokens are cached and
// refreshed under expiry; the cache is safe for concurrent dispatches.
type TokenMinter struct {
	mu       sync.RWMutex
	cred     *ServiceAccountCredential
	credErr  error
	key      *rsa.PrivateKey
	endpoint string
	client   httpx.Client
	logger   zerolog.Logger

	accessToken string
	expiresAt   time.Time

	now func() time.Time
}

// NewTokenMinter parses the raw service-account secret exactly once and
// builds a minter around it. A malformed secret does not fail construction:
// the parse failure is cached and every Token call returns it, so push is
// skipped for the process lifetime while the other channels keep working.
func NewTokenMinter(rawServiceAccount string, client httpx.Client, logger *zerolog.Logger) *TokenMinter {
	log := logger.With().Str("component", "token_minter").Logger()

	m := &TokenMinter{
		endpoint: defaultTokenEndpoint,
		client:   client,
		logger:   log,
		now:      time.Now,
	}

	cred, err := ParseServiceAccount(rawServiceAccount)
	if err != nil {
		log.Warn().Err(err).Msg("push credential unavailable, push channel disabled")
		m.credErr = err
		return m
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cred.PrivateKeyPEM))
	if err != nil {
		log.Warn().Err(err).Msg("push credential private key unusable, push channel disabled")
		m.credErr = fmt.Errorf("%w: %s", ErrCredentialUnavailable, err)
		return m
	}

	m.cred = cred
	m.key = key
	log.Info().Str("project_id", cred.ProjectID).Msg("push credential loaded")
	return m
}

// ProjectID returns the project identifier of the loaded credential, or an
// empty string when the credential is unavailable.
func (m *TokenMinter) ProjectID() string {
	if m.cred == nil {
		return ""
	}
	return m.cred.ProjectID
}

// Token returns a valid access token, minting a new one when the cached
// token is missing or within the expiry margin.
func (m *TokenMinter) Token(ctx context.Context) (string, error) {
	if m.credErr != nil {
		return "", m.credErr
	}

	m.mu.RLock()
	if m.accessToken != "" && m.now().Before(m.expiresAt.Add(-tokenExpiryMargin)) {
		token := m.accessToken
		m.mu.RUnlock()
		return token, nil
	}
	m.mu.RUnlock()

	return m.refreshToken(ctx)
}

// refreshToken signs a fresh assertion and runs the JWT-bearer exchange.
func (m *TokenMinter) refreshToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if m.accessToken != "" && m.now().Before(m.expiresAt.Add(-tokenExpiryMargin)) {
		return m.accessToken, nil
	}

	assertion, err := m.signAssertion()
	if err != nil {
		return "", fmt.Errorf("token minter: sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	resp, err := m.client.Do(ctx, &httpx.Request{
		Method: "POST",
		URL:    m.endpoint,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return "", fmt.Errorf("token minter: token request: %w", err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("token minter: token endpoint returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(resp.Body, &tokenResp); err != nil {
		return "", fmt.Errorf("token minter: parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token minter: empty access token in response")
	}

	lifetime := time.Duration(tokenResp.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = assertionLifetime
	}

	m.accessToken = tokenResp.AccessToken
	m.expiresAt = m.now().Add(lifetime)
	m.logger.Debug().Time("expires_at", m.expiresAt).Msg("access token minted")

	return m.accessToken, nil
}

// signAssertion builds the RS256 JWT assertion for the JWT-bearer grant.
// Times are integer Unix seconds and exp-iat is exactly one hour.
func (m *TokenMinter) signAssertion() (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"iss":   m.cred.ClientEmail,
		"scope": oauthScope,
		"aud":   m.endpoint,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.key)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
