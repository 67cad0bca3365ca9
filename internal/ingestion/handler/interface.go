package handler

import (
	"context"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/usecase"
)

// CallEventService reconciles call lifecycle events into the stored call.
type CallEventService interface {
	HandleStatusUpdate(ctx context.Context, event *model.StatusUpdateEvent) error
	HandleTranscript(ctx context.Context, event *model.TranscriptEvent) error
	HandleEndOfCallReport(ctx context.Context, event *model.EndOfCallReportEvent) error
	HandleHangup(ctx context.Context, event *model.HangupEvent) error
}

// ToolCallService answers tool requests from the assistant.
type ToolCallService interface {
	HandleToolCalls(ctx context.Context, event *model.ToolCallsEvent) (*model.ToolCallResponse, error)
	HandleFunctionCall(ctx context.Context, event *model.FunctionCallEvent) (*model.FunctionCallResponse, error)
}

// AssistantRequestService builds the assistant for an inbound call.
type AssistantRequestService interface {
	HandleAssistantRequest(ctx context.Context, event *model.AssistantRequestEvent) (*model.AssistantResponse, error)
}

var (
	_ CallEventService        = (*usecase.CallService)(nil)
	_ ToolCallService         = (*usecase.ToolService)(nil)
	_ AssistantRequestService = (*usecase.AssistantService)(nil)
)
