package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// HandleStatusUpdate applies a provider status change unless it would move the call backwards.
func (s *CallService) HandleStatusUpdate(ctx context.Context, event *model.StatusUpdateEvent) error {
	status := model.MapProviderStatus(event.Status)
	_, err := s.transition(ctx, event.Call.ID, status, event.Status)
	return err
}

// HandleHangup marks the call ended. A call already finalized by its end-of-call report is left alone.
func (s *CallService) HandleHangup(ctx context.Context, event *model.HangupEvent) error {
	log := logger.FromContext(ctx)

	call, err := s.calls.FindByExternalID(ctx, event.Call.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Warn("Hangup for unknown call, ignoring")
		observer.IncCallStatusTransition("hangup", "missing")
		return nil
	}
	if err != nil {
		return err
	}
	if call.IsFinalized() {
		log.Info("Call already finalized, ignoring hangup", zap.String("status", string(call.Status)))
		return nil
	}

	status := model.StatusForEndedReason(event.EndedReason)
	_, err = s.transitionFrom(ctx, call, status, event.EndedReason)
	return err
}

// transition loads the call and applies status through the rank guard.
// It reports whether the stored status changed.
func (s *CallService) transition(ctx context.Context, externalCallID string, status model.CallStatus, providerValue string) (bool, error) {
	call, err := s.calls.FindByExternalID(ctx, externalCallID)
	if errors.Is(err, apperrors.ErrNotFound) {
		logger.FromContext(ctx).Warn("Status update for unknown call, ignoring",
			zap.String("status", string(status)))
		observer.IncCallStatusTransition(string(status), "missing")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.transitionFrom(ctx, call, status, providerValue)
}

func (s *CallService) transitionFrom(ctx context.Context, call *model.Call, status model.CallStatus, providerValue string) (bool, error) {
	log := logger.FromContext(ctx).With(
		zap.String("current_status", string(call.Status)),
		zap.String("new_status", string(status)),
		zap.String("provider_value", providerValue),
	)

	if !model.CanTransition(call.Status, status) {
		log.Info("Dropping stale status update")
		observer.IncCallStatusTransition(string(status), "dropped")
		return false, nil
	}

	// The guard is re-checked in the UPDATE itself; a concurrent writer may have advanced the call.
	applied, err := s.calls.ApplyStatus(ctx, call.ExternalCallID, status)
	if err != nil {
		return false, err
	}
	if !applied {
		log.Info("Status update lost to a concurrent higher-ranked update")
		observer.IncCallStatusTransition(string(status), "dropped")
		return false, nil
	}

	log.Info("Call status updated")
	observer.IncCallStatusTransition(string(status), "applied")
	return true, nil
}
