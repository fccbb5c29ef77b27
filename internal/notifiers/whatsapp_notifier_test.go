package notifiers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
)

func TestWhatsAppNotifier_Send(t *testing.T) {
	logger := zerolog.Nop()
	client := &mockHTTPClient{}
	n := NewWhatsAppNotifier(config.WhatsAppConfig{Token: "whapi-token"}, client, &logger)

	require.True(t, n.Configured())
	assert.Equal(t, model.ChannelWhatsApp, n.Channel())

	contact := &model.RecipientContact{PhoneNumber: "966501234567"}
	event := model.NewNotificationEvent("rec-1", "عنوان", "نص الرسالة", "")

	require.NoError(t, n.Send(context.Background(), contact, event))
	require.Equal(t, 1, client.calls())

	req := client.requests[0]
	assert.Equal(t, "https://gate.whapi.cloud/messages/text", req.URL)
	assert.Equal(t, "Bearer whapi-token", req.Headers["authorization"])

	var payload whapiPayload
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	assert.Equal(t, "966501234567", payload.To)
	assert.Equal(t, "نص الرسالة", payload.Body)
}

func TestWhatsAppNotifier_GatewayRejection(t *testing.T) {
	logger := zerolog.Nop()
	client := &mockHTTPClient{respond: func(*httpx.Request) (*httpx.Response, error) {
		return &httpx.Response{StatusCode: 403, Body: []byte(`{"error":"channel expired"}`)}, nil
	}}
	n := NewWhatsAppNotifier(config.WhatsAppConfig{Token: "whapi-token"}, client, &logger)

	contact := &model.RecipientContact{PhoneNumber: "966501234567"}
	event := model.NewNotificationEvent("rec-1", "t", "m", "")

	err := n.Send(context.Background(), contact, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestWhatsAppNotifier_NoPhoneNumber(t *testing.T) {
	logger := zerolog.Nop()
	client := &mockHTTPClient{}
	n := NewWhatsAppNotifier(config.WhatsAppConfig{Token: "whapi-token"}, client, &logger)

	event := model.NewNotificationEvent("rec-1", "t", "m", "")
	err := n.Send(context.Background(), &model.RecipientContact{}, event)
	require.Error(t, err)
	assert.Equal(t, 0, client.calls())
}

func TestWhatsAppNotifier_Unconfigured(t *testing.T) {
	logger := zerolog.Nop()
	n := NewWhatsAppNotifier(config.WhatsAppConfig{}, &mockHTTPClient{}, &logger)
	assert.False(t, n.Configured())
}
