package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handlers struct {
	service *service.DispatchService
	queue   repo.EventQueue // nil when no broker is configured; notify then dispatches inline.
	logger  zerolog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *service.DispatchService, queue repo.EventQueue, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		queue:   queue,
		logger:  logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the notification API.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/notify", h.Notify)
		api.POST("/dispatch", h.DispatchSync)
		api.POST("/devices", h.RegisterDevice)
	}
}

// Notify handles the webhook trigger. It accepts both upstream payload
// formats and hands the event to the worker queue; when no broker is
// configured it dispatches inline instead.
func (h *Handlers) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	record, ok := req.resolveRecord()
	if !ok {
		// Unknown webhook shapes are acknowledged, not failed, so upstream
		// triggers with unrelated tables don't see errors.
		h.logger.Warn().Msg("unknown payload format, ignoring")
		c.JSON(http.StatusOK, gin.H{"message": "unknown format"})
		return
	}

	event := model.NewNotificationEvent(record.recipientID(), record.Title, record.Message, record.ActionURL)

	if h.queue != nil {
		if err := h.queue.Publish(c.Request.Context(), event); err != nil {
			h.logger.Error().Err(err).Stringer("event_id", event.ID).Msg("failed to publish event")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to queue notification"})
			return
		}
		c.JSON(http.StatusAccepted, QueuedResponse{EventID: event.ID, QueuedAt: time.Now().UTC()})
		return
	}

	h.dispatchAndRespond(c, event)
}

// DispatchSync handles the synchronous dispatch request and returns the full
// per-channel report.
func (h *Handlers) DispatchSync(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event := model.NewNotificationEvent(string(req.RecipientID), req.Title, req.Message, req.ActionURL)

	if req.Contact != nil {
		// Direct-dispatch path: the caller already holds the contact data,
		// so no recipient lookup (and no device tokens) is involved.
		contact := &model.RecipientContact{
			RecipientID: string(req.RecipientID),
			Email:       req.Contact.Email,
			PhoneNumber: req.Contact.PhoneNumber,
			DisplayName: req.Contact.DisplayName,
		}
		report := h.service.DispatchToContact(c.Request.Context(), event, contact, nil)
		c.JSON(http.StatusOK, toReportResponse(report))
		return
	}

	if req.RecipientID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "recipient_id or contact is required"})
		return
	}

	h.dispatchAndRespond(c, event)
}

// RegisterDevice handles device-token registration.
func (h *Handlers) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.recipientID() == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "auth_id is required"})
		return
	}

	if err := h.service.RegisterDevice(c.Request.Context(), req.recipientID(), req.Token, req.Platform); err != nil {
		h.logger.Error().Err(err).Msg("failed to register device")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to register device"})
		return
	}

	c.Status(http.StatusNoContent)
}

// dispatchAndRespond runs one dispatch cycle and writes the report.
func (h *Handlers) dispatchAndRespond(c *gin.Context, event *model.NotificationEvent) {
	report, err := h.service.Dispatch(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, repo.ErrRecipientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.logger.Error().Err(err).Stringer("event_id", event.ID).Msg("dispatch failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "dispatch failed"})
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}
