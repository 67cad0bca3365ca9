package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const (
	toolResultKeyPrefix = "voice:tool_result:"
	pingTimeout         = 2 * time.Second
)

// ToolResultStore remembers completed tool results so a redelivered tool-call
// event does not run side-effecting handlers twice.
type ToolResultStore interface {
	Get(ctx context.Context, callID, toolCallID string) (*model.ToolResult, bool, error)
	Set(ctx context.Context, callID string, result model.ToolResult) error
}

// RedisToolResultCache stores tool results in Redis with a fixed TTL.
type RedisToolResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ToolResultStore = (*RedisToolResultCache)(nil)

// NewRedisClient parses a redis:// URL and verifies the server answers PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redis url: %w", apperrors.ErrMisconfigured, err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %w", apperrors.ErrCache, err)
	}
	return client, nil
}

// NewRedisToolResultCache creates a cache over an existing client.
func NewRedisToolResultCache(client *redis.Client, ttl time.Duration) *RedisToolResultCache {
	return &RedisToolResultCache{client: client, ttl: ttl}
}

func toolResultKey(callID, toolCallID string) string {
	return toolResultKeyPrefix + callID + ":" + toolCallID
}

// Get returns the stored result for a correlation id, if any.
func (c *RedisToolResultCache) Get(ctx context.Context, callID, toolCallID string) (*model.ToolResult, bool, error) {
	data, err := c.client.Get(ctx, toolResultKey(callID, toolCallID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get tool result: %w", apperrors.ErrCache, err)
	}

	var result model.ToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.FromContext(ctx).Warn("Discarding undecodable cached tool result",
			zap.String("tool_call_id", toolCallID), zap.Error(err))
		return nil, false, nil
	}
	return &result, true, nil
}

// Set stores a successful result. Failed results are not cached so a retry can run the tool again.
func (c *RedisToolResultCache) Set(ctx context.Context, callID string, result model.ToolResult) error {
	if result.ToolCallID == "" || result.Failed() {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: encode tool result: %w", apperrors.ErrCache, err)
	}
	if err := c.client.Set(ctx, toolResultKey(callID, result.ToolCallID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set tool result: %w", apperrors.ErrCache, err)
	}
	return nil
}

// NoopToolResultCache is used when no Redis URL is configured.
type NoopToolResultCache struct{}

var _ ToolResultStore = NoopToolResultCache{}

func (NoopToolResultCache) Get(context.Context, string, string) (*model.ToolResult, bool, error) {
	return nil, false, nil
}

func (NoopToolResultCache) Set(context.Context, string, model.ToolResult) error {
	return nil
}
