package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// SaveExhaustedEvent stores a domain event that could not be published.
func (r *PostgresRepo) SaveExhaustedEvent(ctx context.Context, event model.ExhaustedEvent) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&event)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveExhaustedEvent Commit", operation)
	observer.ObserveDbOperationDuration("save", "exhausted_event", event.OrganizationID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save exhausted event after retries",
			zap.String("subject", event.Subject),
			zap.String("organization_id", event.OrganizationID),
			zap.Error(commitErr))
		return commitErr
	}

	logger.FromContext(ctx).Info("Saved exhausted event", zap.Uint("event_id", event.ID), zap.String("subject", event.Subject))
	return nil
}
