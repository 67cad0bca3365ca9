package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// FindCallByExternalID loads a call by the provider's call id.
// Calls are looked up across organizations since the provider id is globally unique.
func (r *PostgresRepo) FindCallByExternalID(ctx context.Context, externalCallID string) (*model.Call, error) {
	var call model.Call

	operation := func() error {
		result := r.db.WithContext(ctx).Where("external_call_id = ?", externalCallID).First(&call)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindCallByExternalID", operation)
	observer.ObserveDbOperationDuration("find", "call", organizationLabel(ctx), time.Since(startTime), err)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// ApplyCallStatus moves a call to status unless it already holds a higher-ranked one.
// The rank guard is part of the UPDATE so concurrent deliveries cannot regress the record.
// It reports whether a row changed.
func (r *PostgresRepo) ApplyCallStatus(ctx context.Context, externalCallID string, status model.CallStatus) (bool, error) {
	allowed := model.StatusesAtOrBelow(status)
	if len(allowed) == 0 {
		return false, fmt.Errorf("%w: unknown call status %q", apperrors.ErrValidation, status)
	}
	from := make([]string, 0, len(allowed))
	for _, s := range allowed {
		from = append(from, string(s))
	}

	var applied bool
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Call{}).
			Where("external_call_id = ? AND status IN ?", externalCallID, from).
			Updates(map[string]interface{}{
				"status":     string(status),
				"ai_handled": true,
				"updated_at": utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		applied = result.RowsAffected > 0
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "ApplyCallStatus Commit", operation)
	observer.ObserveDbOperationDuration("update_status", "call", organizationLabel(ctx), time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to apply call status after retries",
			zap.String("status", string(status)), zap.Error(err))
		return false, err
	}
	return applied, nil
}

// UpdateCallTranscript replaces the stored transcript.
func (r *PostgresRepo) UpdateCallTranscript(ctx context.Context, externalCallID, transcript string) error {
	return r.updateCallColumns(ctx, "update_transcript", externalCallID, map[string]interface{}{
		"transcript": transcript,
	})
}

// MarkCallAIHandled flags the call as handled by the assistant.
func (r *PostgresRepo) MarkCallAIHandled(ctx context.Context, externalCallID string) error {
	return r.updateCallColumns(ctx, "mark_ai_handled", externalCallID, map[string]interface{}{
		"ai_handled": true,
	})
}

// AppendCallSummaryNote appends a line to the call summary.
func (r *PostgresRepo) AppendCallSummaryNote(ctx context.Context, externalCallID, note string) error {
	return r.updateCallColumns(ctx, "append_summary", externalCallID, map[string]interface{}{
		"summary": gorm.Expr("CONCAT_WS(?, NULLIF(summary, ''), ?)", "\n", note),
	})
}

// FinalizeCall writes the end-of-call values. ended_at keeps its first value on replays.
func (r *PostgresRepo) FinalizeCall(ctx context.Context, externalCallID string, fin model.CallFinalization) error {
	return r.updateCallColumns(ctx, "finalize", externalCallID, map[string]interface{}{
		"status":           string(model.CallStatusCompleted),
		"duration_seconds": fin.DurationSeconds,
		"transcript":       fin.Transcript,
		"summary":          fin.Summary,
		"recording_url":    fin.RecordingURL,
		"ai_handled":       true,
		"ended_at":         gorm.Expr("COALESCE(ended_at, ?)", fin.EndedAt),
	})
}

func (r *PostgresRepo) updateCallColumns(ctx context.Context, opName, externalCallID string, columns map[string]interface{}) error {
	columns["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Call{}).
			Where("external_call_id = ?", externalCallID).
			Updates(columns)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: call %s", apperrors.ErrNotFound, externalCallID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, opName, operation)
	observer.ObserveDbOperationDuration(opName, "call", organizationLabel(ctx), time.Since(startTime), err)
	if err != nil && !apperrors.IsNotFoundError(err) {
		logger.FromContext(ctx).Error("Failed to update call after retries",
			zap.String("operation", opName), zap.Error(err))
	}
	return err
}
