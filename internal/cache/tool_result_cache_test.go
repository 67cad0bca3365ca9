package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

func newTestCache(t *testing.T) (*RedisToolResultCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisToolResultCache(client, time.Hour), server
}

func TestRedisToolResultCache_RoundTrip(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "call-1", "tc-1")
	require.NoError(t, err)
	assert.False(t, found)

	result := model.ToolResult{
		ToolCallID: "tc-1",
		Name:       model.ToolBookAppointment,
		Value:      map[string]interface{}{"success": true, "jobId": "job-9"},
	}
	require.NoError(t, c.Set(ctx, "call-1", result))

	cached, found, err := c.Get(ctx, "call-1", "tc-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.ToolBookAppointment, cached.Name)
	assert.JSONEq(t, result.PayloadString(), cached.PayloadString())

	ttl := server.TTL(toolResultKey("call-1", "tc-1"))
	assert.Equal(t, time.Hour, ttl)

	server.FastForward(2 * time.Hour)
	_, found, err = c.Get(ctx, "call-1", "tc-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisToolResultCache_SkipsFailedAndUncorrelated(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "call-1", model.ToolResult{ToolCallID: "tc-2", Name: "x", Error: "unknown tool"}))
	require.NoError(t, c.Set(ctx, "call-1", model.ToolResult{Name: model.ToolCheckAvailability, Value: "ok"}))

	assert.Empty(t, server.Keys())
}

func TestRedisToolResultCache_Unavailable(t *testing.T) {
	c, server := newTestCache(t)
	server.Close()

	_, _, err := c.Get(context.Background(), "call-1", "tc-1")
	assert.ErrorIs(t, err, apperrors.ErrCache)
}

func TestRedisToolResultCache_CorruptEntry(t *testing.T) {
	c, server := newTestCache(t)
	require.NoError(t, server.Set(toolResultKey("call-1", "tc-3"), "{not json"))

	_, found, err := c.Get(context.Background(), "call-1", "tc-3")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://nope")
	assert.ErrorIs(t, err, apperrors.ErrMisconfigured)
}

func TestNoopToolResultCache(t *testing.T) {
	var c ToolResultStore = NoopToolResultCache{}
	require.NoError(t, c.Set(context.Background(), "call-1", model.ToolResult{ToolCallID: "tc", Value: 1}))
	_, found, err := c.Get(context.Background(), "call-1", "tc")
	assert.NoError(t, err)
	assert.False(t, found)
}
