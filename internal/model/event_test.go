package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"message":{"type":"status-update","status":"in-progress","call":{"id":"call-1","customer":{"number":"+15125550143"},"metadata":{"organizationId":"org-1"}},"unknownField":42}}`)

	msg, err := ParseWebhook(body)
	require.NoError(t, err)

	assert.Equal(t, EventStatusUpdate, msg.Kind)
	assert.Equal(t, "call-1", msg.Call.ID)
	assert.Equal(t, "org-1", msg.Call.Metadata.OrganizationID)
	assert.Equal(t, "+15125550143", msg.Call.CallerNumber())

	var evt StatusUpdateEvent
	require.NoError(t, json.Unmarshal(msg.Raw, &evt))
	assert.Equal(t, "in-progress", evt.Status)
}

func TestParseWebhookPartialTranscriptIsNoise(t *testing.T) {
	msg, err := ParseWebhook([]byte(`{"message":{"type":"transcript","transcriptType":"partial","transcript":"hel"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventTranscriptPartial, msg.Kind)
	assert.True(t, msg.Kind.IsNoise())

	msg, err = ParseWebhook([]byte(`{"message":{"type":"transcript","transcriptType":"final","transcript":"hello"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventTranscript, msg.Kind)
	assert.False(t, msg.Kind.IsNoise())
}

func TestParseWebhookMalformed(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"message":null}`, `{"message":"text"}`, `{"message":{"call":"nope"}}`} {
		_, err := ParseWebhook([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, body)
	}
}

func TestParseWebhookUnknownKind(t *testing.T) {
	msg, err := ParseWebhook([]byte(`{"message":{"type":"brand-new-thing"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventKind("brand-new-thing"), msg.Kind)
	assert.False(t, msg.Kind.IsNoise())

	msg, err = ParseWebhook([]byte(`{"message":{}}`))
	require.NoError(t, err)
	assert.Equal(t, EventKind(""), msg.Kind)
}

func TestParseWebhookDialedNumber(t *testing.T) {
	msg, err := ParseWebhook([]byte(`{"message":{"type":"assistant-request","phoneNumber":{"number":"+15125550100"},"call":{"id":"c"}}}`))
	require.NoError(t, err)
	require.NotNil(t, msg.PhoneNumber)
	assert.Equal(t, "+15125550100", msg.PhoneNumber.Number)

	msg, err = ParseWebhook([]byte(`{"message":{"type":"assistant-request","call":{"id":"c","phoneNumber":{"number":"+15125550101"}}}}`))
	require.NoError(t, err)
	require.NotNil(t, msg.PhoneNumber)
	assert.Equal(t, "+15125550101", msg.PhoneNumber.Number)
}

func TestEndOfCallReportPreferences(t *testing.T) {
	evt := EndOfCallReportEvent{
		Transcript:   "message transcript",
		Summary:      "message summary",
		RecordingURL: "https://rec/1",
	}
	assert.Equal(t, "message transcript", evt.FinalTranscript())
	assert.Equal(t, "message summary", evt.FinalSummary())
	assert.Equal(t, "https://rec/1", evt.FinalRecordingURL())

	evt.Artifact = Artifact{Transcript: "artifact transcript", RecordingURL: "https://rec/2"}
	evt.Analysis = Analysis{Summary: "analysis summary"}
	assert.Equal(t, "artifact transcript", evt.FinalTranscript())
	assert.Equal(t, "analysis summary", evt.FinalSummary())
	assert.Equal(t, "https://rec/2", evt.FinalRecordingURL())
}

func TestToolCallsEventCalls(t *testing.T) {
	evt := ToolCallsEvent{ToolCalls: []ToolCall{{ID: "a"}}}
	assert.Equal(t, "a", evt.Calls()[0].ID)

	evt.ToolCallList = []ToolCall{{ID: "b"}}
	assert.Equal(t, "b", evt.Calls()[0].ID)
}

func TestFakeCallScriptProducesParsableDeliveries(t *testing.T) {
	script := NewFakeCallScript("org-1")
	for _, body := range [][]byte{
		script.StatusUpdate("ringing"),
		script.Transcript("hello"),
		script.BookingToolCalls(),
		script.EndOfCallReport(0),
	} {
		msg, err := ParseWebhook(body)
		require.NoError(t, err)
		assert.Equal(t, script.CallID, msg.Call.ID)
		assert.Equal(t, "org-1", msg.Call.Metadata.OrganizationID)
	}
}
