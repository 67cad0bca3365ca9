package logger

import (
	"context"
	"testing"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextAddsIdentifiers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = tenant.WithRequestID(ctx, "req-42")
	ctx = tenant.WithOrganizationID(ctx, "org-7")
	ctx = tenant.WithCallID(ctx, "call-9")

	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "org-7", fields["organization_id"])
	assert.Equal(t, "call-9", fields["call_id"])
}

func TestFromContextWithoutValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	scoped := zap.New(core)
	ctx := WithLogger(context.Background(), scoped)

	FromContext(ctx).Info("plain")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
	assert.Same(t, scoped, FromContextOr(ctx, nil))
	assert.Same(t, Log, FromContextOr(context.Background(), nil))
}

func TestInitializeFallsBackToInfo(t *testing.T) {
	previous := Log
	t.Cleanup(func() { Log = previous })

	require.NoError(t, Initialize("not-a-level"))
	assert.False(t, Log.Core().Enabled(zap.DebugLevel))
	assert.True(t, Log.Core().Enabled(zap.InfoLevel))
}
