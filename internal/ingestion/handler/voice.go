package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// VoiceHandler decodes call lifecycle messages and hands them to the call service.
// Every method acknowledges with a nil response body on success.
type VoiceHandler struct {
	service CallEventService
}

// NewVoiceHandler creates a new call lifecycle handler
func NewVoiceHandler(service CallEventService) *VoiceHandler {
	return &VoiceHandler{service: service}
}

// HandleStatusUpdate processes status-update messages
func (h *VoiceHandler) HandleStatusUpdate(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.StatusUpdateEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("Processing status update", zap.String("provider_status", event.Status))
	return nil, h.service.HandleStatusUpdate(ctx, &event)
}

// HandleTranscript processes final transcript messages
func (h *VoiceHandler) HandleTranscript(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.TranscriptEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	return nil, h.service.HandleTranscript(ctx, &event)
}

// HandleEndOfCallReport processes the final report of a call
func (h *VoiceHandler) HandleEndOfCallReport(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.EndOfCallReportEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Processing end-of-call report",
		zap.String("ended_reason", event.EndedReason),
		zap.Int("messages", len(event.Artifact.Messages)),
	)
	return nil, h.service.HandleEndOfCallReport(ctx, &event)
}

// HandleHangup processes hang and hangup messages
func (h *VoiceHandler) HandleHangup(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.HangupEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	return nil, h.service.HandleHangup(ctx, &event)
}
