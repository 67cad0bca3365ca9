package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

func init() {
	logger.Log = zaptest.NewLogger(nil).Named("test")
}

func testContext(t *testing.T) context.Context {
	return logger.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func observedContext(level zapcore.LevelEnabler) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logger.WithLogger(context.Background(), zap.New(core)), logs
}

// memoryCallRepo keeps calls in memory and applies the same rank guard as the SQL update.
type memoryCallRepo struct {
	mu      sync.Mutex
	calls   map[string]*model.Call
	applied []model.CallStatus
}

func newMemoryCallRepo(calls ...*model.Call) *memoryCallRepo {
	r := &memoryCallRepo{calls: make(map[string]*model.Call)}
	for _, c := range calls {
		r.calls[c.ExternalCallID] = c
	}
	return r
}

func (r *memoryCallRepo) get(externalCallID string) (*model.Call, error) {
	c, ok := r.calls[externalCallID]
	if !ok {
		return nil, fmt.Errorf("%w: call %s", apperrors.ErrNotFound, externalCallID)
	}
	return c, nil
}

func (r *memoryCallRepo) snapshot(externalCallID string) model.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.calls[externalCallID]
}

func (r *memoryCallRepo) FindByExternalID(_ context.Context, externalCallID string) (*model.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return nil, err
	}
	copied := *c
	return &copied, nil
}

func (r *memoryCallRepo) ApplyStatus(_ context.Context, externalCallID string, status model.CallStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return false, nil
	}
	if c.Status.Rank() > status.Rank() {
		return false, nil
	}
	c.Status = status
	c.AIHandled = true
	r.applied = append(r.applied, status)
	return true, nil
}

func (r *memoryCallRepo) UpdateTranscript(_ context.Context, externalCallID, transcript string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return err
	}
	c.Transcript = transcript
	return nil
}

func (r *memoryCallRepo) MarkAIHandled(_ context.Context, externalCallID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return err
	}
	c.AIHandled = true
	return nil
}

func (r *memoryCallRepo) AppendSummaryNote(_ context.Context, externalCallID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return err
	}
	if c.Summary == "" {
		c.Summary = note
	} else {
		c.Summary += "\n" + note
	}
	return nil
}

func (r *memoryCallRepo) Finalize(_ context.Context, externalCallID string, fin model.CallFinalization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.get(externalCallID)
	if err != nil {
		return err
	}
	c.Status = model.CallStatusCompleted
	c.DurationSeconds = fin.DurationSeconds
	c.Transcript = fin.Transcript
	c.Summary = fin.Summary
	c.RecordingURL = fin.RecordingURL
	c.AIHandled = true
	if c.EndedAt == nil {
		endedAt := fin.EndedAt
		c.EndedAt = &endedAt
	}
	return nil
}

// recordingEmitter collects emitted events, optionally failing every Emit.
type recordingEmitter struct {
	mu     sync.Mutex
	events []model.DomainEvent
	err    error
}

func (e *recordingEmitter) Emit(_ context.Context, event model.DomainEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) emitted() []model.DomainEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.DomainEvent(nil), e.events...)
}
