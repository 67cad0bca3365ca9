package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

func TestRouteDispatchesWithCallContext(t *testing.T) {
	r := NewRouter()
	var gotCall, gotOrg string
	r.Register(model.EventTranscript, func(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
		gotCall, _ = tenant.FromCallIDContext(ctx)
		gotOrg, _ = tenant.FromContext(ctx)
		return "ok", nil
	})

	msg := &model.WebhookMessage{
		Kind: model.EventTranscript,
		Call: model.ProviderCall{ID: "call_9", Metadata: model.CallMetadata{OrganizationID: "org_1"}},
	}
	resp, handled, err := r.Route(context.Background(), msg)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "call_9", gotCall)
	assert.Equal(t, "org_1", gotOrg)
}

func TestRouteSkipsNoiseAndUnknownKinds(t *testing.T) {
	r := NewRouter()
	r.Register(model.EventSpeechUpdate, func(context.Context, *model.WebhookMessage) (interface{}, error) {
		t.Fatal("noise must not reach a handler")
		return nil, nil
	})

	for _, kind := range []model.EventKind{model.EventSpeechUpdate, model.EventTranscriptPartial, "brand-new-kind"} {
		resp, handled, err := r.Route(context.Background(), &model.WebhookMessage{Kind: kind})
		assert.NoError(t, err, kind)
		assert.False(t, handled, kind)
		assert.Nil(t, resp, kind)
	}
}

func TestRouteReturnsHandlerError(t *testing.T) {
	r := NewRouter()
	boom := errors.New("boom")
	r.Register(model.EventHangup, func(context.Context, *model.WebhookMessage) (interface{}, error) {
		return nil, boom
	})

	_, handled, err := r.Route(context.Background(), &model.WebhookMessage{Kind: model.EventHangup})
	assert.True(t, handled)
	assert.ErrorIs(t, err, boom)
}

func TestRouteRecoversPanics(t *testing.T) {
	r := NewRouter()
	r.Register(model.EventHangup, func(context.Context, *model.WebhookMessage) (interface{}, error) {
		panic("nil map")
	})

	resp, handled, err := r.Route(context.Background(), &model.WebhookMessage{Kind: model.EventHangup})
	assert.True(t, handled)
	assert.Nil(t, resp)
	var panicErr *utils.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "nil map", panicErr.Value)
}
