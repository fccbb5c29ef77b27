package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotificationEvent(t *testing.T) {
	event := NewNotificationEvent("rec-1", "عنوان", "رسالة", "https://app.ahjazly.com/x")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "rec-1", event.RecipientID)
	assert.Equal(t, "عنوان", event.Title)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestNewNotificationEvent_DefaultTitle(t *testing.T) {
	event := NewNotificationEvent("rec-1", "", "رسالة", "")
	assert.Equal(t, DefaultTitle, event.Title)
}

func TestDispatchReport_Counters(t *testing.T) {
	report := &DispatchReport{
		Results: []DispatchResult{
			{Channel: ChannelEmail, Success: true},
			{Channel: ChannelWhatsApp, Success: false, Error: "status 500"},
			{Channel: ChannelPush, Success: true},
		},
	}

	assert.Equal(t, 3, report.Attempted())
	assert.Equal(t, 2, report.Succeeded())
}

func TestDispatchResult_JSONShape(t *testing.T) {
	raw, err := json.Marshal(DispatchResult{Channel: ChannelPush, Target: "abcdefghij...", Success: true})
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"service":"push"`)
	assert.NotContains(t, string(raw), `"error"`)
}
