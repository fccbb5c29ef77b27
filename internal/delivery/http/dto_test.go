package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	"github.com/google/uuid"
)

func TestFlexID_Unmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"abc-123"`, "abc-123"},
		{"integer", `42`, "42"},
		{"large integer", `9007199254740993`, "9007199254740993"},
		{"uuid string", `"b2f9f3a0-0000-4000-8000-000000000000"`, "b2f9f3a0-0000-4000-8000-000000000000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var id FlexID
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &id))
			assert.Equal(t, tc.want, string(id))
		})
	}

	var id FlexID
	assert.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &id))
}

func TestNotifyRequest_ResolveRecord(t *testing.T) {
	t.Run("enhanced format at top level", func(t *testing.T) {
		var req NotifyRequest
		raw := `{"auth_id": "user-1", "title": "t", "message": "m"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &req))

		record, ok := req.resolveRecord()
		require.True(t, ok)
		assert.Equal(t, "user-1", record.recipientID())
		assert.Equal(t, "t", record.Title)
	})

	t.Run("legacy nested record", func(t *testing.T) {
		var req NotifyRequest
		raw := `{"table": "notifications", "record": {"user_id": 7, "message": "m"}}`
		require.NoError(t, json.Unmarshal([]byte(raw), &req))

		record, ok := req.resolveRecord()
		require.True(t, ok)
		assert.Equal(t, "7", record.recipientID())
	})

	t.Run("auth_id wins over user_id", func(t *testing.T) {
		var req NotifyRequest
		raw := `{"auth_id": "auth-1", "user_id": "legacy-1", "message": "m"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &req))

		record, ok := req.resolveRecord()
		require.True(t, ok)
		assert.Equal(t, "auth-1", record.recipientID())
	})

	t.Run("wrong table is ignored", func(t *testing.T) {
		var req NotifyRequest
		raw := `{"table": "bookings", "record": {"user_id": 7, "message": "m"}}`
		require.NoError(t, json.Unmarshal([]byte(raw), &req))

		_, ok := req.resolveRecord()
		assert.False(t, ok)
	})

	t.Run("no recipient key anywhere", func(t *testing.T) {
		var req NotifyRequest
		raw := `{"title": "t", "message": "m"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &req))

		_, ok := req.resolveRecord()
		assert.False(t, ok)
	})
}

func TestToReportResponse_EmptyResults(t *testing.T) {
	report := &model.DispatchReport{
		EventID:     uuid.New(),
		RecipientID: "rec-1",
	}

	resp := toReportResponse(report)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)

	// The empty report must serialize results as [], not null.
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"results":[]`)
}
