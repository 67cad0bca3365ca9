package model

import "strings"

// CallStatus is the lifecycle status of a Call.
type CallStatus string

const (
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusNoAnswer   CallStatus = "no_answer"
)

// Rank orders statuses so a call never moves backwards. Both terminal statuses share the top rank.
func (s CallStatus) Rank() int {
	switch s {
	case CallStatusRinging:
		return 1
	case CallStatusInProgress:
		return 2
	case CallStatusCompleted, CallStatusNoAnswer:
		return 3
	default:
		return 0
	}
}

// IsTerminal reports whether the status ends the call lifecycle.
func (s CallStatus) IsTerminal() bool {
	return s.Rank() == CallStatusCompleted.Rank()
}

// CanTransition reports whether a call currently in from may be moved to to.
// Equal ranks are accepted so re-deliveries and terminal swaps apply.
func CanTransition(from, to CallStatus) bool {
	return to.Rank() >= from.Rank()
}

// StatusesAtOrBelow lists every known status whose rank does not exceed that of s.
// Used as the guard set of a compare-and-set status update.
func StatusesAtOrBelow(s CallStatus) []CallStatus {
	all := []CallStatus{CallStatusRinging, CallStatusInProgress, CallStatusCompleted, CallStatusNoAnswer}
	out := make([]CallStatus, 0, len(all))
	for _, candidate := range all {
		if candidate.Rank() <= s.Rank() {
			out = append(out, candidate)
		}
	}
	return out
}

// MapProviderStatus translates a provider status string into a CallStatus.
// Unrecognized values are treated as a finished call.
func MapProviderStatus(providerStatus string) CallStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "queued", "ringing":
		return CallStatusRinging
	case "in-progress", "forwarding":
		return CallStatusInProgress
	case "ended":
		return CallStatusCompleted
	default:
		return CallStatusCompleted
	}
}

// EndedReasonCustomerHangup is the provider's ended reason for a caller who finished the call normally.
const EndedReasonCustomerHangup = "customer-ended-call"

// StatusForEndedReason maps a hangup's ended reason to the terminal status it implies.
func StatusForEndedReason(reason string) CallStatus {
	if strings.EqualFold(strings.TrimSpace(reason), EndedReasonCustomerHangup) {
		return CallStatusCompleted
	}
	return CallStatusNoAnswer
}
