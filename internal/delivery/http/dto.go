package http

import (
	"encoding/json"
	"time"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/google/uuid"
)

// FlexID accepts a recipient key serialized as either a JSON string or a
// JSON number. The upstream triggers disagree on this, so we take both.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// notificationRecord is the notification payload shared by both webhook
// formats. The recipient key arrives as auth_id or, from the older trigger,
// as user_id.
type notificationRecord struct {
	NotificationID FlexID `json:"notification_id"`
	AuthID         FlexID `json:"auth_id"`
	UserID         FlexID `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	ActionURL      string `json:"action_url"`
}

// recipientID picks whichever recipient key is present.
func (r *notificationRecord) recipientID() string {
	if r.AuthID != "" {
		return string(r.AuthID)
	}
	return string(r.UserID)
}

// NotifyRequest covers both webhook formats: the enhanced trigger puts the
// notification fields at the top level, the old one nests them in "record"
// alongside a "table" discriminator.
type NotifyRequest struct {
	notificationRecord
	Table  string              `json:"table"`
	Record *notificationRecord `json:"record"`
}

// resolveRecord returns the effective notification payload, or false when
// the request matches neither format.
func (r *NotifyRequest) resolveRecord() (*notificationRecord, bool) {
	if r.recipientID() != "" {
		return &r.notificationRecord, true
	}
	if r.Record != nil && r.Table == "notifications" && r.Record.recipientID() != "" {
		return r.Record, true
	}
	return nil, false
}

// DispatchRequest is the synchronous dispatch API. Either a recipient key or
// an inline contact must be supplied.
type DispatchRequest struct {
	RecipientID FlexID          `json:"recipient_id"`
	Contact     *ContactPayload `json:"contact,omitempty"`
	Title       string          `json:"title"`
	Message     string          `json:"message" binding:"required"`
	ActionURL   string          `json:"action_url"`
}

// ContactPayload is an inline, pre-resolved contact for the direct-dispatch path.
type ContactPayload struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
}

// RegisterDeviceRequest registers one device token for a recipient.
type RegisterDeviceRequest struct {
	AuthID   FlexID `json:"auth_id"`
	UserID   FlexID `json:"user_id"`
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

func (r *RegisterDeviceRequest) recipientID() string {
	if r.AuthID != "" {
		return string(r.AuthID)
	}
	return string(r.UserID)
}

// QueuedResponse acknowledges an event accepted for asynchronous dispatch.
type QueuedResponse struct {
	EventID  uuid.UUID `json:"event_id"`
	QueuedAt time.Time `json:"queued_at"`
}

// ReportResponse is the synchronous dispatch result.
type ReportResponse struct {
	Success   bool                   `json:"success"`
	Recipient RecipientPayload       `json:"recipient"`
	Results   []model.DispatchResult `json:"results"`
}

// RecipientPayload identifies the resolved recipient in a report.
type RecipientPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// toReportResponse maps the domain report to the API DTO.
func toReportResponse(report *model.DispatchReport) ReportResponse {
	results := report.Results
	if results == nil {
		results = []model.DispatchResult{}
	}
	return ReportResponse{
		Success: true,
		Recipient: RecipientPayload{
			ID:   report.RecipientID,
			Name: report.RecipientName,
		},
		Results: results,
	}
}
