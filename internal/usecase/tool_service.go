package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const missingOrganizationMessage = "organization context unavailable"

var errMissingOrganization = errors.New("no organization for call")

// ToolRunner executes a batch of invocations, one result per invocation.
type ToolRunner interface {
	Run(ctx context.Context, exec model.ToolExecContext, invocations []model.ToolInvocation) []model.ToolResult
}

// ToolService answers tool-call and function-call events.
type ToolService struct {
	calls  storage.CallRepo
	runner ToolRunner
}

// NewToolService creates a new tool service
func NewToolService(calls storage.CallRepo, runner ToolRunner) *ToolService {
	return &ToolService{calls: calls, runner: runner}
}

// HandleToolCalls runs every requested tool call and encodes each result as a JSON string.
func (s *ToolService) HandleToolCalls(ctx context.Context, event *model.ToolCallsEvent) (*model.ToolCallResponse, error) {
	calls := event.Calls()
	invocations := make([]model.ToolInvocation, 0, len(calls))
	for _, tc := range calls {
		invocations = append(invocations, model.ToolInvocation{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		})
	}

	results := s.run(ctx, event.Call, invocations)

	resp := &model.ToolCallResponse{Results: make([]model.ToolCallResponseItem, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, model.ToolCallResponseItem{
			ToolCallID: r.ToolCallID,
			Result:     r.PayloadString(),
		})
	}
	return resp, nil
}

// HandleFunctionCall runs the single legacy function call and returns its raw result.
func (s *ToolService) HandleFunctionCall(ctx context.Context, event *model.FunctionCallEvent) (*model.FunctionCallResponse, error) {
	inv := model.ToolInvocation{
		Name:         event.FunctionCall.Name,
		RawArguments: event.FunctionCall.Parameters,
	}
	results := s.run(ctx, event.Call, []model.ToolInvocation{inv})
	return &model.FunctionCallResponse{Result: results[0].Payload()}, nil
}

func (s *ToolService) run(ctx context.Context, call model.ProviderCall, invocations []model.ToolInvocation) []model.ToolResult {
	if len(invocations) == 0 {
		return nil
	}

	exec, err := s.resolveExecContext(ctx, call)
	if err != nil {
		logger.FromContext(ctx).Warn("No organization for tool invocations",
			zap.Int("invocations", len(invocations)), zap.Error(err))
		results := make([]model.ToolResult, len(invocations))
		for i, inv := range invocations {
			results[i] = errorResult(inv, missingOrganizationMessage)
		}
		return results
	}

	ctx = tenant.WithOrganizationID(ctx, exec.OrganizationID)
	return s.runner.Run(ctx, exec, invocations)
}

// resolveExecContext derives the execution context once per event: call metadata first, then the stored call.
func (s *ToolService) resolveExecContext(ctx context.Context, call model.ProviderCall) (model.ToolExecContext, error) {
	exec := model.ToolExecContext{
		OrganizationID: call.Metadata.OrganizationID,
		CustomerID:     call.Metadata.CustomerID,
		CallID:         call.ID,
		CallerNumber:   call.CallerNumber(),
	}
	if exec.OrganizationID != "" {
		return exec, nil
	}
	if call.ID == "" {
		return exec, errMissingOrganization
	}

	stored, err := s.calls.FindByExternalID(ctx, call.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return exec, errMissingOrganization
		}
		return exec, err
	}
	if stored.OrganizationID == "" {
		return exec, errMissingOrganization
	}

	exec.OrganizationID = stored.OrganizationID
	if exec.CustomerID == "" && stored.CustomerID != nil {
		exec.CustomerID = *stored.CustomerID
	}
	if exec.CallerNumber == "" {
		exec.CallerNumber = stored.FromNumber
	}
	return exec, nil
}
