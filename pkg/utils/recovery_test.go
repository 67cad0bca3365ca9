package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// setupTestLogger sets up a test logger and returns a function to restore the original logger
func setupTestLogger(t *testing.T) func() {
	originalLogger := logger.Log
	logger.Log = zaptest.NewLogger(t)
	return func() {
		logger.Log = originalLogger
	}
}

func TestSafeGo(t *testing.T) {
	cleanup := setupTestLogger(t)
	defer cleanup()

	done := make(chan struct{})
	SafeGo(func() { close(done) }, nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function did not run")
	}

	recovered := make(chan interface{}, 1)
	SafeGo(func() {
		panic("test panic")
	}, func(r interface{}, stack []byte) {
		recovered <- r
	})
	select {
	case r := <-recovered:
		assert.Equal(t, "test panic", r)
	case <-time.After(time.Second):
		t.Fatal("panic was not recovered")
	}
}

func TestWrapWithRecovery(t *testing.T) {
	cleanup := setupTestLogger(t)
	defer cleanup()

	assert.NoError(t, WrapWithRecovery(func() error { return nil })())

	err := WrapWithRecovery(func() error { return errors.New("test error") })()
	assert.EqualError(t, err, "test error")

	err = WrapWithRecovery(func() error { panic("test panic") })()
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "test panic", panicErr.Value)
	assert.EqualError(t, err, "panic recovered: test panic")
}

func TestWrapWithContextRecovery(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	assert.NoError(t, WrapWithContextRecovery(func(ctx context.Context) error { return nil })(ctx))

	err := WrapWithContextRecovery(func(ctx context.Context) error {
		return errors.New("test error with context")
	})(ctx)
	assert.EqualError(t, err, "test error with context")

	err = WrapWithContextRecovery(func(ctx context.Context) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})(ctx)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestRecoverWithLog(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	assert.NotPanics(t, func() {
		defer RecoverWithLog(ctx, "test")
		panic("swallowed")
	})
}
