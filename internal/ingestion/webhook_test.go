package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

func TestWebhookRejectsUndecodableBody(t *testing.T) {
	srv := newTestServer(t, NewRouter(), SignatureConfig{Secret: testSecret})

	for _, body := range []string{`not json`, `{}`, `{"message":null}`} {
		w := post(t, srv.Handler(), "/webhooks/voice", []byte(body), signed([]byte(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"invalid payload"}`, w.Body.String(), body)
	}
}

func TestWebhookAcknowledgesNoiseAndUnknownKinds(t *testing.T) {
	srv := newTestServer(t, NewRouter(), SignatureConfig{Secret: testSecret})

	for _, kind := range []string{"speech-update", "conversation-update", "something-new"} {
		body := []byte(fmt.Sprintf(`{"message":{"type":%q,"call":{"id":"call_1"}}}`, kind))
		w := post(t, srv.Handler(), "/webhooks/voice", body, signed(body))
		assert.Equal(t, http.StatusOK, w.Code, kind)
		assert.JSONEq(t, `{"success":true}`, w.Body.String(), kind)
	}
}

func TestWebhookReturnsHandlerResponse(t *testing.T) {
	r := NewRouter()
	r.Register(model.EventToolCalls, func(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
		return &model.ToolCallResponse{Results: []model.ToolCallResponseItem{{ToolCallID: "tc_1", Result: `{"available":true}`}}}, nil
	})
	srv := newTestServer(t, r, SignatureConfig{Secret: testSecret})

	body := []byte(`{"message":{"type":"tool-calls","call":{"id":"call_1"},"toolCallList":[]}}`)
	w := post(t, srv.Handler(), "/webhooks/voice", body, signed(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"toolCallId":"tc_1","result":"{\"available\":true}"}]}`, w.Body.String())
}

func TestWebhookMapsHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"fatal", apperrors.NewFatal(apperrors.ErrMalformedPayload, "bad status-update"), http.StatusBadRequest, `{"error":"invalid payload"}`},
		{"not found", fmt.Errorf("%w: organization", apperrors.ErrNotFound), http.StatusNotFound, `{"error":"not found"}`},
		{"database", fmt.Errorf("%w: connection reset", apperrors.ErrDatabase), http.StatusInternalServerError, `{"error":"internal error"}`},
		{"unauthorized stays internal", apperrors.ErrUnauthorized, http.StatusInternalServerError, `{"error":"internal error"}`},
		{"plain", errors.New("boom"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter()
			r.Register(model.EventStatusUpdate, func(context.Context, *model.WebhookMessage) (interface{}, error) {
				return nil, tc.err
			})
			srv := newTestServer(t, r, SignatureConfig{Secret: testSecret})

			body := []byte(statusBody)
			w := post(t, srv.Handler(), "/webhooks/voice", body, signed(body))

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestWebhookPanicIsInternalError(t *testing.T) {
	r := NewRouter()
	r.Register(model.EventStatusUpdate, func(context.Context, *model.WebhookMessage) (interface{}, error) {
		var m map[string]int
		m["x"] = 1
		return nil, nil
	})
	srv := newTestServer(t, r, SignatureConfig{Secret: testSecret})

	body := []byte(statusBody)
	w := post(t, srv.Handler(), "/webhooks/voice", body, signed(body))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestAssistantRequestPathForcesKind(t *testing.T) {
	r := NewRouter()
	var gotKind model.EventKind
	r.Register(model.EventAssistantRequest, func(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
		gotKind = msg.Kind
		return &model.AssistantResponse{Assistant: &model.Assistant{Name: "Receptionist"}}, nil
	})
	srv := newTestServer(t, r, SignatureConfig{Secret: testSecret})

	body := []byte(`{"message":{"call":{"id":"call_1"},"phoneNumber":{"number":"+15550100"}}}`)
	w := post(t, srv.Handler(), "/webhooks/voice/assistant-request", body, signed(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.EventAssistantRequest, gotKind)
	assert.Contains(t, w.Body.String(), `"name":"Receptionist"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, NewRouter(), SignatureConfig{})
	body := []byte(statusBody)

	w := post(t, srv.Handler(), "/webhooks/voice", body, map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = post(t, srv.Handler(), "/webhooks/voice", body, nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
