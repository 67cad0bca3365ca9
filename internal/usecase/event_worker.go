package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/config"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// EventEmitter accepts domain events for asynchronous delivery.
type EventEmitter interface {
	Emit(ctx context.Context, event model.DomainEvent) error
}

// DomainEventPublisher delivers one domain event to the message bus.
type DomainEventPublisher interface {
	Publish(ctx context.Context, event model.DomainEvent) error
	Subject(eventType string) string
}

// eventTask holds the data for one publish task.
type eventTask struct {
	ctx   context.Context // Detached from the request so publishing outlives the webhook
	event model.DomainEvent
}

// EventWorker publishes domain events on a bounded worker pool, retrying with
// exponential backoff and recording events that exhaust their retry budget.
type EventWorker struct {
	pool       *ants.PoolWithFunc
	publisher  DomainEventPublisher
	exhausted  storage.ExhaustedEventRepo
	maxElapsed time.Duration
	baseLogger *zap.Logger

	newBackOff func() backoff.BackOff
}

// Ensure EventWorker implements EventEmitter
var _ EventEmitter = (*EventWorker)(nil)

// NewEventWorker creates and initializes the domain event worker pool.
func NewEventWorker(
	cfg config.WorkerPoolConfig,
	maxElapsed time.Duration,
	publisher DomainEventPublisher,
	exhausted storage.ExhaustedEventRepo,
	baseLogger *zap.Logger,
) (*EventWorker, error) {
	worker := &EventWorker{
		publisher:  publisher,
		exhausted:  exhausted,
		maxElapsed: maxElapsed,
		baseLogger: baseLogger.Named("event_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		task, ok := i.(eventTask)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processEventTask(task)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(p interface{}) {
			worker.baseLogger.Error("Panic recovered in event worker", zap.Any("panic_error", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Event worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("max_elapsed", maxElapsed),
	)
	return worker, nil
}

// Emit queues an event for publishing. It returns once the event is handed to the pool.
func (w *EventWorker) Emit(ctx context.Context, event model.DomainEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = utils.Now()
	}

	observer.IncEventTasksSubmitted(event.OrganizationID)
	observer.SetEventQueueLength(w.pool.Waiting())

	err := w.pool.Invoke(eventTask{ctx: context.WithoutCancel(ctx), event: event})
	if err != nil {
		logger.FromContextOr(ctx, w.baseLogger).Warn("Failed to submit domain event to pool",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		observer.IncEventTasksProcessed(event.OrganizationID, "submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("event pool overload: %w", err)
		}
		return fmt.Errorf("failed to submit domain event: %w", err)
	}
	return nil
}

// Stop waits up to timeout for queued events, then releases the pool.
func (w *EventWorker) Stop(timeout time.Duration) {
	if err := w.pool.ReleaseTimeout(timeout); err != nil {
		w.baseLogger.Warn("Event worker did not drain before timeout", zap.Error(err))
		return
	}
	w.baseLogger.Info("Event worker stopped")
}

func (w *EventWorker) retryPolicy(ctx context.Context) backoff.BackOffContext {
	if w.newBackOff != nil {
		return backoff.WithContext(w.newBackOff(), ctx)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = w.maxElapsed
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// processEventTask publishes one event, retrying transient failures.
func (w *EventWorker) processEventTask(task eventTask) {
	defer utils.RecoverWithLog(task.ctx, "publish domain event")
	event := task.event
	log := logger.FromContextOr(task.ctx, w.baseLogger).With(
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
		zap.String("aggregate_id", event.AggregateID),
	)

	start := time.Now()
	attempts := 0
	operation := func() error {
		attempts++
		err := w.publisher.Publish(task.ctx, event)
		if err != nil && apperrors.IsFatal(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, d time.Duration) {
		log.Warn("Retrying domain event publish", zap.Int("attempt", attempts), zap.Duration("after", d), zap.Error(err))
	}

	err := backoff.RetryNotify(operation, w.retryPolicy(task.ctx), notify)
	observer.ObserveEventPublishDuration(event.OrganizationID, time.Since(start))
	if err == nil {
		log.Debug("Domain event published", zap.Int("attempts", attempts))
		observer.IncEventTasksProcessed(event.OrganizationID, "success")
		return
	}

	log.Error("Domain event publish exhausted retries", zap.Int("attempts", attempts), zap.Error(err))
	observer.IncEventTasksProcessed(event.OrganizationID, "exhausted")
	w.recordExhausted(task.ctx, event, attempts, err)
}

func (w *EventWorker) recordExhausted(ctx context.Context, event model.DomainEvent, attempts int, lastErr error) {
	payload, err := json.Marshal(event)
	if err != nil {
		payload = []byte(`{}`)
	}

	exhausted := model.ExhaustedEvent{
		OrganizationID: event.OrganizationID,
		Subject:        w.publisher.Subject(event.Type),
		EventType:      event.Type,
		AggregateID:    event.AggregateID,
		LastError:      lastErr.Error(),
		Attempts:       attempts,
		OccurredAt:     event.OccurredAt,
		Payload:        datatypes.JSON(payload),
	}
	if err := w.exhausted.Save(ctx, exhausted); err != nil {
		logger.FromContextOr(ctx, w.baseLogger).Error("Failed to record exhausted domain event",
			zap.String("event_id", event.ID), zap.Error(err))
		observer.IncSideEffectFailure("exhausted_event", err)
	}
}

// DiscardPublisher drops events. Used when no message bus is configured.
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(ctx context.Context, event model.DomainEvent) error {
	logger.FromContext(ctx).Debug("Message bus disabled, discarding domain event",
		zap.String("event_type", event.Type), zap.String("aggregate_id", event.AggregateID))
	return nil
}

func (DiscardPublisher) Subject(eventType string) string {
	return eventType
}
