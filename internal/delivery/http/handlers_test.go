package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/internal/fcm"
	"github.com/ahjazly/unified-notifier/internal/notifiers"
	"github.com/ahjazly/unified-notifier/internal/service"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
)

type stubRepo struct {
	contacts map[string]*model.RecipientContact
}

func (r *stubRepo) GetContact(_ context.Context, recipientID string) (*model.RecipientContact, error) {
	contact, ok := r.contacts[recipientID]
	if !ok {
		return nil, repo.ErrRecipientNotFound
	}
	return contact, nil
}

func (r *stubRepo) GetDeviceTokens(context.Context, string) ([]model.DeviceToken, error) {
	return nil, nil
}

func (r *stubRepo) RegisterDeviceToken(context.Context, *model.DeviceToken) error {
	return nil
}

type stubQueue struct {
	mu        sync.Mutex
	published []*model.NotificationEvent
	err       error
}

func (q *stubQueue) Publish(_ context.Context, event *model.NotificationEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, event)
	return nil
}

func okClient() httpx.Client {
	return httpx.ClientFunc(func(_ context.Context, _ *httpx.Request) (*httpx.Response, error) {
		return &httpx.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
	})
}

func newTestRouter(t *testing.T, r repo.RecipientRepository, queue repo.EventQueue) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.Nop()
	cfg := &config.Config{
		Channels: config.ChannelsConfig{
			Mode: "production",
			Email: config.EmailConfig{
				APIKey:      "brevo-key",
				SenderEmail: "noreply@ahjazly.com",
			},
			WhatsApp: config.WhatsAppConfig{Token: "whapi-token"},
		},
	}
	client := okClient()
	minter := fcm.NewTokenMinter("", client, &logger)
	registry := notifiers.NewRegistry(cfg, client, minter, &logger)
	svc := service.NewDispatchService(r, registry, &logger)

	router := gin.New()
	NewHandlers(svc, queue, &logger).RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNotify_QueuesEvent(t *testing.T) {
	queue := &stubQueue{}
	router := newTestRouter(t, &stubRepo{}, queue)

	rec := doJSON(router, "POST", "/api/v1/notify",
		`{"auth_id": "user-1", "title": "عنوان", "message": "رسالة"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.published, 1)
	assert.Equal(t, "user-1", queue.published[0].RecipientID)
	assert.Equal(t, "عنوان", queue.published[0].Title)

	var resp QueuedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, queue.published[0].ID, resp.EventID)
}

func TestNotify_LegacyFormat(t *testing.T) {
	queue := &stubQueue{}
	router := newTestRouter(t, &stubRepo{}, queue)

	rec := doJSON(router, "POST", "/api/v1/notify",
		`{"table": "notifications", "record": {"user_id": 7, "message": "m"}}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.published, 1)
	assert.Equal(t, "7", queue.published[0].RecipientID)
}

func TestNotify_DefaultTitle(t *testing.T) {
	queue := &stubQueue{}
	router := newTestRouter(t, &stubRepo{}, queue)

	rec := doJSON(router, "POST", "/api/v1/notify",
		`{"auth_id": "user-1", "message": "m"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.published, 1)
	assert.Equal(t, model.DefaultTitle, queue.published[0].Title)
}

func TestNotify_UnknownFormatAcknowledged(t *testing.T) {
	queue := &stubQueue{}
	router := newTestRouter(t, &stubRepo{}, queue)

	rec := doJSON(router, "POST", "/api/v1/notify", `{"table": "bookings", "record": {"id": 1}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown format")
	assert.Empty(t, queue.published)
}

func TestNotify_QueueFailure(t *testing.T) {
	queue := &stubQueue{err: errors.New("broker down")}
	router := newTestRouter(t, &stubRepo{}, queue)

	rec := doJSON(router, "POST", "/api/v1/notify",
		`{"auth_id": "user-1", "message": "m"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNotify_InlineDispatchWithoutQueue(t *testing.T) {
	r := &stubRepo{contacts: map[string]*model.RecipientContact{
		"user-1": {RecipientID: "user-1", Email: "user@example.com", DisplayName: "Sara"},
	}}
	router := newTestRouter(t, r, nil)

	rec := doJSON(router, "POST", "/api/v1/notify",
		`{"auth_id": "user-1", "title": "t", "message": "m"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Sara", resp.Recipient.Name)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.ChannelEmail, resp.Results[0].Channel)
}

func TestDispatchSync_RecipientNotFound(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/dispatch",
		`{"recipient_id": "missing", "message": "m"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestDispatchSync_InlineContact(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/dispatch",
		`{"contact": {"phone_number": "966501234567"}, "message": "m"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.ChannelWhatsApp, resp.Results[0].Channel)
	assert.True(t, resp.Results[0].Success)
}

func TestDispatchSync_MissingMessage(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/dispatch", `{"recipient_id": "user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchSync_MissingRecipientAndContact(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/dispatch", `{"message": "m"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDevice(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/devices",
		`{"auth_id": "user-1", "token": "device-token-aaaaaaaa", "platform": "android"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(router, "POST", "/api/v1/devices", `{"token": "device-token-aaaaaaaa"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, "POST", "/api/v1/devices", `{"auth_id": "user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotify_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, nil)

	rec := doJSON(router, "POST", "/api/v1/notify", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
