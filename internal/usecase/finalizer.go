package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// HandleEndOfCallReport writes the final call record, then records attribution and
// announces call.completed. Neither side effect can fail the report.
func (s *CallService) HandleEndOfCallReport(ctx context.Context, event *model.EndOfCallReportEvent) error {
	log := logger.FromContext(ctx)

	call, err := s.calls.FindByExternalID(ctx, event.Call.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Warn("End-of-call report for unknown call, ignoring")
		return nil
	}
	if err != nil {
		return err
	}
	ctx = withCallOrganization(ctx, call)
	log = logger.FromContext(ctx)

	messages := event.Artifact.Messages
	fin := model.CallFinalization{
		Transcript:      finalTranscript(call.Transcript, event),
		Summary:         MergeSummary(call.Summary, event.FinalSummary()),
		RecordingURL:    event.FinalRecordingURL(),
		DurationSeconds: CallDurationSeconds(messages),
		EndedAt:         utils.Now(),
	}
	if fin.RecordingURL == "" {
		fin.RecordingURL = call.RecordingURL
	}

	if err := s.calls.Finalize(ctx, call.ExternalCallID, fin); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn("Call disappeared before finalization")
			return nil
		}
		return err
	}
	log.Info("Call finalized",
		zap.Int("duration_seconds", fin.DurationSeconds),
		zap.String("ended_reason", event.EndedReason),
		zap.Bool("replay", call.IsFinalized()),
	)

	s.recordAttribution(ctx, call, messages)
	s.emitCallCompleted(ctx, call, fin, messages)
	return nil
}

// recordAttribution credits the call to the assistant. Failures are logged only.
func (s *CallService) recordAttribution(ctx context.Context, call *model.Call, messages []model.ArtifactMessage) {
	attribution := &model.Attribution{
		CallID:         call.ID,
		OrganizationID: call.OrganizationID,
		CustomerID:     call.CustomerID,
		RecoveryMethod: model.RecoveryMethodAIAnswered,
		ResponseTimeMs: ResponseTimeMs(messages),
	}
	if err := s.attributions.Save(ctx, attribution); err != nil {
		logger.FromContext(ctx).Warn("Failed to record call attribution", zap.Error(err))
		observer.IncSideEffectFailure("attribution", err)
	}
}

// emitCallCompleted hands call.completed to the event emitter. Failures are logged only.
func (s *CallService) emitCallCompleted(ctx context.Context, call *model.Call, fin model.CallFinalization, messages []model.ArtifactMessage) {
	data := map[string]interface{}{
		"callId":          call.ID,
		"externalCallId":  call.ExternalCallID,
		"durationSeconds": fin.DurationSeconds,
		"aiHandled":       true,
		"summary":         fin.Summary,
		"endedAt":         utils.FormatISO8601(fin.EndedAt),
	}
	if startedAt, ok := firstMessageTime(messages); ok {
		data["startedAt"] = utils.FormatISO8601(startedAt)
	}
	if call.CustomerID != nil {
		data["customerId"] = *call.CustomerID
	} else {
		data["customerId"] = nil
	}

	event := model.DomainEvent{
		Type:           model.DomainEventCallCompleted,
		OrganizationID: call.OrganizationID,
		AggregateType:  model.AggregateCall,
		AggregateID:    call.ID,
		Data:           data,
		OccurredAt:     fin.EndedAt,
	}
	if err := s.events.Emit(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("Failed to emit call.completed", zap.Error(err))
		observer.IncSideEffectFailure("domain_event", err)
	}
}

func finalTranscript(stored string, event *model.EndOfCallReportEvent) string {
	if event.Artifact.Transcript != "" {
		return event.Artifact.Transcript
	}
	if event.Transcript != "" {
		return MergeTranscript(stored, event.Transcript)
	}
	return stored
}

// MergeSummary combines the provider's summary with notes already on the call,
// such as transfer requests recorded mid-call.
func MergeSummary(existing, incoming string) string {
	existing = strings.TrimSpace(existing)
	incoming = strings.TrimSpace(incoming)
	switch {
	case incoming == "":
		return existing
	case existing == "":
		return incoming
	case strings.Contains(existing, incoming):
		return existing
	default:
		return incoming + "\n\n" + existing
	}
}

// CallDurationSeconds is the span between the first and last timestamped message.
// Fewer than two timestamps yield 0.
func CallDurationSeconds(messages []model.ArtifactMessage) int {
	first, last := math.Inf(1), math.Inf(-1)
	count := 0
	for _, m := range messages {
		if m.Time <= 0 {
			continue
		}
		count++
		first = math.Min(first, m.Time)
		last = math.Max(last, m.Time)
	}
	if count < 2 {
		return 0
	}
	return utils.MillisToSeconds(last - first)
}

func firstMessageTime(messages []model.ArtifactMessage) (time.Time, bool) {
	first := math.Inf(1)
	for _, m := range messages {
		if m.Time > 0 {
			first = math.Min(first, m.Time)
		}
	}
	if math.IsInf(first, 1) {
		return time.Time{}, false
	}
	return utils.UnixToTimeWithMilliseconds(int64(first)), true
}

// ResponseTimeMs is the delay between the first message of the call and the assistant's first reply.
func ResponseTimeMs(messages []model.ArtifactMessage) *int64 {
	first, firstAssistant := math.Inf(1), math.Inf(1)
	for _, m := range messages {
		if m.Time <= 0 {
			continue
		}
		first = math.Min(first, m.Time)
		if isAssistantRole(m.Role) {
			firstAssistant = math.Min(firstAssistant, m.Time)
		}
	}
	if math.IsInf(first, 1) || math.IsInf(firstAssistant, 1) {
		return nil
	}
	ms := int64(math.Round(firstAssistant - first))
	return &ms
}

func isAssistantRole(role string) bool {
	switch strings.ToLower(role) {
	case "assistant", "bot":
		return true
	default:
		return false
	}
}
