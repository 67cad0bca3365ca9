package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// SaveAttribution records how a call was recovered.
func (r *PostgresRepo) SaveAttribution(ctx context.Context, attribution *model.Attribution) error {
	if attribution.ID == "" {
		attribution.ID = uuid.NewString()
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(attribution)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveAttribution Commit", operation)
	observer.ObserveDbOperationDuration("insert", "attribution", attribution.OrganizationID, time.Since(startTime), err)
	return err
}
