package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// MockCallEventService is a mock for the CallEventService interface
type MockCallEventService struct {
	mock.Mock
}

// HandleStatusUpdate mocks the HandleStatusUpdate method
func (m *MockCallEventService) HandleStatusUpdate(ctx context.Context, event *model.StatusUpdateEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// HandleTranscript mocks the HandleTranscript method
func (m *MockCallEventService) HandleTranscript(ctx context.Context, event *model.TranscriptEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// HandleEndOfCallReport mocks the HandleEndOfCallReport method
func (m *MockCallEventService) HandleEndOfCallReport(ctx context.Context, event *model.EndOfCallReportEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// HandleHangup mocks the HandleHangup method
func (m *MockCallEventService) HandleHangup(ctx context.Context, event *model.HangupEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockToolCallService is a mock for the ToolCallService interface
type MockToolCallService struct {
	mock.Mock
}

// HandleToolCalls mocks the HandleToolCalls method
func (m *MockToolCallService) HandleToolCalls(ctx context.Context, event *model.ToolCallsEvent) (*model.ToolCallResponse, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ToolCallResponse), args.Error(1)
}

// HandleFunctionCall mocks the HandleFunctionCall method
func (m *MockToolCallService) HandleFunctionCall(ctx context.Context, event *model.FunctionCallEvent) (*model.FunctionCallResponse, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FunctionCallResponse), args.Error(1)
}

// MockAssistantRequestService is a mock for the AssistantRequestService interface
type MockAssistantRequestService struct {
	mock.Mock
}

// HandleAssistantRequest mocks the HandleAssistantRequest method
func (m *MockAssistantRequestService) HandleAssistantRequest(ctx context.Context, event *model.AssistantRequestEvent) (*model.AssistantResponse, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssistantResponse), args.Error(1)
}
