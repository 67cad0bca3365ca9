package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventKind is the discriminator of a provider webhook message.
type EventKind string

const (
	EventStatusUpdate      EventKind = "status-update"
	EventTranscript        EventKind = "transcript"
	EventFunctionCall      EventKind = "function-call"
	EventToolCalls         EventKind = "tool-calls"
	EventEndOfCallReport   EventKind = "end-of-call-report"
	EventHang              EventKind = "hang"
	EventHangup            EventKind = "hangup"
	EventAssistantRequest  EventKind = "assistant-request"
	EventTranscriptPartial EventKind = "transcript-partial"

	EventSpeechUpdate       EventKind = "speech-update"
	EventModelOutput        EventKind = "model-output"
	EventUserInterrupted    EventKind = "user-interrupted"
	EventVoiceInput         EventKind = "voice-input"
	EventConversationUpdate EventKind = "conversation-update"
)

var noiseKinds = map[EventKind]struct{}{
	EventSpeechUpdate:       {},
	EventModelOutput:        {},
	EventUserInterrupted:    {},
	EventVoiceInput:         {},
	EventConversationUpdate: {},
	EventTranscriptPartial:  {},
}

// IsNoise reports whether the kind is live chatter that carries nothing to persist.
func (k EventKind) IsNoise() bool {
	_, ok := noiseKinds[k]
	return ok
}

// ErrMalformedEnvelope is returned when a webhook body cannot be decoded into an envelope.
var ErrMalformedEnvelope = errors.New("malformed webhook envelope")

// Envelope is the outer shape of every provider delivery.
type Envelope struct {
	Message json.RawMessage `json:"message"`
}

// PhoneNumberRef identifies a provider phone number.
type PhoneNumberRef struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

// CallMetadata is the application context attached to a call when it was provisioned.
type CallMetadata struct {
	OrganizationID string `json:"organizationId,omitempty"`
	CustomerID     string `json:"customerId,omitempty"`
}

// ProviderCall is the call object the provider embeds in every message.
type ProviderCall struct {
	ID          string          `json:"id"`
	Type        string          `json:"type,omitempty"`
	Customer    *PhoneNumberRef `json:"customer,omitempty"`
	PhoneNumber *PhoneNumberRef `json:"phoneNumber,omitempty"`
	Metadata    CallMetadata    `json:"metadata"`
}

// CallerNumber returns the caller's phone number when the provider supplied one.
func (c ProviderCall) CallerNumber() string {
	if c.Customer == nil {
		return ""
	}
	return c.Customer.Number
}

// DialedNumber returns the business number the caller dialed.
func (c ProviderCall) DialedNumber() string {
	if c.PhoneNumber == nil {
		return ""
	}
	return c.PhoneNumber.Number
}

// WebhookMessage is a normalized delivery: its kind, the call it refers to and the raw message for variant decoding.
type WebhookMessage struct {
	Kind        EventKind
	Call        ProviderCall
	PhoneNumber *PhoneNumberRef
	Raw         json.RawMessage
}

type messageHeader struct {
	Type           string          `json:"type"`
	TranscriptType string          `json:"transcriptType"`
	Call           ProviderCall    `json:"call"`
	PhoneNumber    *PhoneNumberRef `json:"phoneNumber"`
}

// ParseWebhook decodes a raw webhook body into a WebhookMessage.
func ParseWebhook(body []byte) (*WebhookMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	trimmed := strings.TrimSpace(string(env.Message))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: message is missing", ErrMalformedEnvelope)
	}

	var header messageHeader
	if err := json.Unmarshal(env.Message, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	kind := EventKind(strings.TrimSpace(header.Type))
	if kind == EventTranscript && strings.EqualFold(header.TranscriptType, "partial") {
		kind = EventTranscriptPartial
	}

	phone := header.PhoneNumber
	if phone == nil {
		phone = header.Call.PhoneNumber
	}

	return &WebhookMessage{
		Kind:        kind,
		Call:        header.Call,
		PhoneNumber: phone,
		Raw:         env.Message,
	}, nil
}

// --- Variants ---

// StatusUpdateEvent reports a provider-side call status change.
type StatusUpdateEvent struct {
	Call        ProviderCall `json:"call"`
	Status      string       `json:"status" validate:"required"`
	EndedReason string       `json:"endedReason,omitempty"`
}

// TranscriptEvent carries a final transcript fragment.
type TranscriptEvent struct {
	Call       ProviderCall `json:"call"`
	Role       string       `json:"role,omitempty"`
	Transcript string       `json:"transcript"`
}

// FunctionCall is the legacy single tool request.
// A missing name is answered with an unknown-tool result, not a rejected delivery.
type FunctionCall struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// FunctionCallEvent is the legacy tool-request message.
type FunctionCallEvent struct {
	Call         ProviderCall `json:"call"`
	FunctionCall FunctionCall `json:"functionCall"`
}

// ToolCallFunction names a tool and carries its arguments as a JSON string or object.
type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolCall is one entry of a batched tool request. The id is required since a
// result cannot be correlated without it.
type ToolCall struct {
	ID       string           `json:"id" validate:"required"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallsEvent is the current tool-request message.
type ToolCallsEvent struct {
	Call         ProviderCall `json:"call"`
	ToolCalls    []ToolCall   `json:"toolCalls,omitempty" validate:"omitempty,dive"`
	ToolCallList []ToolCall   `json:"toolCallList,omitempty" validate:"omitempty,dive"`
}

// Calls returns the tool calls, whichever field the provider used.
func (e *ToolCallsEvent) Calls() []ToolCall {
	if len(e.ToolCallList) > 0 {
		return e.ToolCallList
	}
	return e.ToolCalls
}

// ArtifactMessage is one timestamped utterance of the call.
type ArtifactMessage struct {
	Role             string  `json:"role"`
	Message          string  `json:"message,omitempty"`
	Time             float64 `json:"time,omitempty"` // epoch milliseconds
	SecondsFromStart float64 `json:"secondsFromStart,omitempty"`
}

// Artifact is the provider's record of a finished call.
type Artifact struct {
	Transcript   string            `json:"transcript,omitempty"`
	RecordingURL string            `json:"recordingUrl,omitempty"`
	Messages     []ArtifactMessage `json:"messages,omitempty"`
}

// Analysis holds the provider's post-call analysis.
type Analysis struct {
	Summary string `json:"summary,omitempty"`
}

// EndOfCallReportEvent is the provider's final report for a call.
type EndOfCallReportEvent struct {
	Call         ProviderCall `json:"call"`
	EndedReason  string       `json:"endedReason,omitempty"`
	Transcript   string       `json:"transcript,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	RecordingURL string       `json:"recordingUrl,omitempty"`
	Analysis     Analysis     `json:"analysis"`
	Artifact     Artifact     `json:"artifact"`
}

// FinalTranscript prefers the artifact transcript over the message-level one.
func (e *EndOfCallReportEvent) FinalTranscript() string {
	if e.Artifact.Transcript != "" {
		return e.Artifact.Transcript
	}
	return e.Transcript
}

// FinalSummary prefers the analysis summary over the message-level one.
func (e *EndOfCallReportEvent) FinalSummary() string {
	if e.Analysis.Summary != "" {
		return e.Analysis.Summary
	}
	return e.Summary
}

// FinalRecordingURL prefers the artifact recording over the message-level one.
func (e *EndOfCallReportEvent) FinalRecordingURL() string {
	if e.Artifact.RecordingURL != "" {
		return e.Artifact.RecordingURL
	}
	return e.RecordingURL
}

// HangupEvent signals the provider hung up the call.
type HangupEvent struct {
	Call        ProviderCall `json:"call"`
	EndedReason string       `json:"endedReason,omitempty"`
}

// AssistantRequestEvent asks for the assistant that should answer an inbound call.
type AssistantRequestEvent struct {
	Call        ProviderCall    `json:"call"`
	PhoneNumber *PhoneNumberRef `json:"phoneNumber,omitempty"`
}
