package model

import (
	"github.com/google/uuid"
	"time"
)

// Channel represents one of the outbound delivery channels.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPush     Channel = "push"
)

// DefaultTitle is used when an event arrives without a title.
const DefaultTitle = "إشعار جديد"

// NotificationEvent is the single logical notification consumed by the
// dispatch service. It is immutable and never persisted here; the event is
// produced by an external trigger (a table webhook or a direct API call).
type NotificationEvent struct {
	ID          uuid.UUID
	RecipientID string // Opaque recipient key (auth_id or user_id upstream).
	Title       string
	Message     string
	ActionURL   string
	CreatedAt   time.Time
}

// NewNotificationEvent is a factory function for a notification event.
// An empty title is replaced with the default one.
func NewNotificationEvent(recipientID, title, message, actionURL string) *NotificationEvent {
	if title == "" {
		title = DefaultTitle
	}
	return &NotificationEvent{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		ActionURL:   actionURL,
		CreatedAt:   time.Now().UTC(),
	}
}

// RecipientContact is a read-only snapshot of the recipient's contact data.
// Which channels are attempted depends entirely on which fields are set.
type RecipientContact struct {
	RecipientID string
	Email       string
	PhoneNumber string // Already normalized to international form upstream.
	DisplayName string
}

// DeviceToken identifies one installed mobile client instance. Lifecycle
// (registration and invalidation) is owned externally; a stale token only
// ever turns into a failed per-device result.
type DeviceToken struct {
	RecipientID string
	Token       string
	Platform    string
	CreatedAt   time.Time
}

// DispatchResult records the outcome of one delivery attempt on one channel,
// or one device for the push channel. Results are collected into the final
// report and never retried.
type DispatchResult struct {
	Channel Channel `json:"service"`
	Target  string  `json:"target,omitempty"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// DispatchReport is the aggregate returned by one dispatch cycle. A report
// is returned even when every individual channel attempt failed; the result
// list is the audit trail, not a retry signal.
type DispatchReport struct {
	EventID       uuid.UUID        `json:"event_id"`
	RecipientID   string           `json:"recipient_id"`
	RecipientName string           `json:"recipient_name"`
	Results       []DispatchResult `json:"results"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// Attempted reports how many channel attempts were made.
func (r *DispatchReport) Attempted() int {
	return len(r.Results)
}

// Succeeded reports how many channel attempts succeeded.
func (r *DispatchReport) Succeeded() int {
	count := 0
	for _, res := range r.Results {
		if res.Success {
			count++
		}
	}
	return count
}
