package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/cache"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

var errInvalidToolArguments = fmt.Errorf("%w: invalid tool arguments", apperrors.ErrValidation)

// ToolThrottlerConfig bounds tool execution.
type ToolThrottlerConfig struct {
	PoolSize    int           // Process-wide executor goroutines
	Concurrency int           // Max invocations in flight per event
	Timeout     time.Duration // Per-invocation deadline
}

// ToolThrottler runs the tool invocations of one event in sequential batches of
// at most Concurrency items. Every invocation yields exactly one result, in input order.
type ToolThrottler struct {
	pool        *ants.Pool
	registry    *ToolRegistry
	results     cache.ToolResultStore
	concurrency int
	timeout     time.Duration
	baseLogger  *zap.Logger
}

// NewToolThrottler creates the executor pool shared by all events.
func NewToolThrottler(cfg ToolThrottlerConfig, registry *ToolRegistry, results cache.ToolResultStore, baseLogger *zap.Logger) (*ToolThrottler, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("tool concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.PoolSize < cfg.Concurrency {
		cfg.PoolSize = cfg.Concurrency
	}
	if results == nil {
		results = cache.NoopToolResultCache{}
	}

	t := &ToolThrottler{
		registry:    registry,
		results:     results,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		baseLogger:  baseLogger.Named("tool_throttler"),
	}

	pool, err := ants.NewPool(cfg.PoolSize,
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(p interface{}) {
			t.baseLogger.Error("Panic recovered in tool pool", zap.Any("panic_error", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool pool: %w", err)
	}
	t.pool = pool
	return t, nil
}

// Release stops the executor pool.
func (t *ToolThrottler) Release() {
	t.pool.Release()
}

// Run executes invocations under exec and returns one result per invocation.
func (t *ToolThrottler) Run(ctx context.Context, exec model.ToolExecContext, invocations []model.ToolInvocation) []model.ToolResult {
	results := make([]model.ToolResult, len(invocations))

	for start := 0; start < len(invocations); start += t.concurrency {
		end := start + t.concurrency
		if end > len(invocations) {
			end = len(invocations)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			err := t.pool.Submit(func() {
				defer wg.Done()
				results[i] = t.runOne(ctx, exec, invocations[i])
			})
			if err != nil {
				wg.Done()
				logger.FromContextOr(ctx, t.baseLogger).Error("Failed to submit tool invocation",
					zap.String("tool", invocations[i].Name), zap.Error(err))
				results[i] = errorResult(invocations[i], "tool executor unavailable")
			}
		}
		wg.Wait()
	}
	return results
}

func (t *ToolThrottler) runOne(ctx context.Context, exec model.ToolExecContext, inv model.ToolInvocation) model.ToolResult {
	log := logger.FromContextOr(ctx, t.baseLogger).With(
		zap.String("tool", inv.Name),
		zap.String("tool_call_id", inv.ID),
	)
	start := time.Now()

	cacheable := inv.ID != "" && exec.CallID != ""
	if cacheable {
		cached, ok, err := t.results.Get(ctx, exec.CallID, inv.ID)
		if err != nil {
			log.Warn("Tool result cache lookup failed", zap.Error(err))
		} else if ok {
			log.Info("Replaying cached tool result")
			observer.ObserveToolInvocation(inv.Name, "cached", time.Since(start))
			return *cached
		}
	}

	value, err := t.execute(ctx, exec, inv)
	if err != nil {
		outcome := "error"
		switch {
		case apperrors.IsTimeoutError(err):
			outcome = "timeout"
		case errors.Is(err, apperrors.ErrUnknownTool):
			outcome = "unknown"
		}
		log.Error("Tool invocation failed", zap.String("outcome", outcome), zap.Error(err))
		observer.ObserveToolInvocation(inv.Name, outcome, time.Since(start))
		return errorResult(inv, toolErrorMessage(inv.Name, err))
	}

	result := model.ToolResult{ToolCallID: inv.ID, Name: inv.Name, Value: value}
	observer.ObserveToolInvocation(inv.Name, "success", time.Since(start))

	if cacheable {
		if err := t.results.Set(ctx, exec.CallID, result); err != nil {
			log.Warn("Failed to cache tool result", zap.Error(err))
		}
	}
	return result
}

type toolOutcome struct {
	value interface{}
	err   error
}

// execute runs the handler on its own goroutine so the deadline is reported as soon as it fires.
// The handler still occupies its batch slot until it returns, so a handler ignoring
// cancellation cannot push the event past its concurrency bound.
func (t *ToolThrottler) execute(ctx context.Context, exec model.ToolExecContext, inv model.ToolInvocation) (interface{}, error) {
	handler, ok := t.registry.Lookup(inv.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTool, inv.Name)
	}
	args, err := inv.ParseArguments()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToolArguments, err)
	}

	callCtx := ctx
	cancel := func() {}
	if t.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
	}
	defer cancel()

	done := make(chan toolOutcome, 1)
	go func() {
		var value interface{}
		run := utils.WrapWithContextRecovery(func(ctx context.Context) error {
			var handleErr error
			value, handleErr = handler.Handle(ctx, exec, args)
			return handleErr
		})
		err := run(callCtx)
		done <- toolOutcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		// A handler that gave up because of the deadline still counts as a timeout.
		if out.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, t.timeoutError()
		}
		return out.value, out.err
	case <-callCtx.Done():
		cause := callCtx.Err()
		cancel()
		waitStart := time.Now()
		<-done
		logger.FromContextOr(ctx, t.baseLogger).Warn("Tool handler returned after cancellation",
			zap.String("tool", inv.Name),
			zap.String("tool_call_id", inv.ID),
			zap.Duration("overran", time.Since(waitStart)),
		)
		if errors.Is(cause, context.DeadlineExceeded) {
			return nil, t.timeoutError()
		}
		return nil, cause
	}
}

func (t *ToolThrottler) timeoutError() error {
	return fmt.Errorf("%w after %s", apperrors.ErrTimeout, t.timeout)
}

func toolErrorMessage(name string, err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnknownTool) && name == "":
		return "unknown tool"
	case errors.Is(err, apperrors.ErrUnknownTool):
		return fmt.Sprintf("unknown tool: %s", name)
	case errors.Is(err, errInvalidToolArguments):
		return fmt.Sprintf("invalid arguments for %s", name)
	case apperrors.IsTimeoutError(err):
		return fmt.Sprintf("%s timed out", name)
	default:
		return fmt.Sprintf("%s failed", name)
	}
}

func errorResult(inv model.ToolInvocation, message string) model.ToolResult {
	return model.ToolResult{ToolCallID: inv.ID, Name: inv.Name, Error: message}
}
