package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// TranscriptSegmentSeparator joins fragments that share no common prefix.
const TranscriptSegmentSeparator = "\n--- segment ---\n"

// MergeTranscript combines a stored transcript with a newly delivered fragment.
//
// Providers usually resend the growing transcript, so a fragment that is not shorter
// than the prior text replaces it. A shorter fragment that does not continue the
// prior text is appended as a separate segment. Merging a fragment already present
// is a no-op. This is a heuristic: a longer unrelated fragment still wins outright.
func MergeTranscript(prior, fragment string) string {
	switch {
	case prior == "":
		return fragment
	case fragment == "":
		return prior
	case strings.HasPrefix(fragment, prior):
		return fragment
	case strings.Contains(prior, fragment):
		return prior
	case len(fragment) >= len(prior):
		return fragment
	default:
		return prior + TranscriptSegmentSeparator + fragment
	}
}

// HandleTranscript merges a final transcript fragment into the call.
func (s *CallService) HandleTranscript(ctx context.Context, event *model.TranscriptEvent) error {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(event.Transcript) == "" {
		log.Debug("Ignoring empty transcript fragment")
		return nil
	}

	call, err := s.calls.FindByExternalID(ctx, event.Call.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Warn("Transcript for unknown call, ignoring")
		return nil
	}
	if err != nil {
		return err
	}

	merged := MergeTranscript(call.Transcript, event.Transcript)
	if merged == call.Transcript {
		log.Debug("Transcript fragment already present")
		return nil
	}

	if err := s.calls.UpdateTranscript(ctx, event.Call.ID, merged); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn("Call disappeared before transcript update")
			return nil
		}
		return err
	}

	log.Debug("Transcript merged",
		zap.String("role", event.Role),
		zap.Int("previous_length", len(call.Transcript)),
		zap.Int("merged_length", len(merged)),
	)
	return nil
}
