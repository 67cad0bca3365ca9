package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// SaveJob inserts a new job.
func (r *PostgresRepo) SaveJob(ctx context.Context, job *model.Job) error {
	if err := tenant.ValidateOrganization(ctx, job.OrganizationID); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(job)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveJob Commit", operation)
	observer.ObserveDbOperationDuration("insert", "job", job.OrganizationID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save job after retries",
			zap.String("customer_id", job.CustomerID), zap.Error(err))
		return err
	}
	return nil
}
