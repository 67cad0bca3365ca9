package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	storagemock "github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage/mock"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
)

// fakeRunner answers every invocation with its tool name and records the context it ran under.
type fakeRunner struct {
	exec        model.ToolExecContext
	invocations []model.ToolInvocation
	scopedOrg   string
}

func (f *fakeRunner) Run(ctx context.Context, exec model.ToolExecContext, invocations []model.ToolInvocation) []model.ToolResult {
	f.exec = exec
	f.invocations = invocations
	f.scopedOrg, _ = tenant.FromContext(ctx)
	results := make([]model.ToolResult, len(invocations))
	for i, inv := range invocations {
		results[i] = model.ToolResult{ToolCallID: inv.ID, Name: inv.Name, Value: map[string]interface{}{"tool": inv.Name}}
	}
	return results
}

func TestHandleToolCallsUsesMetadataContext(t *testing.T) {
	runner := &fakeRunner{}
	calls := new(storagemock.CallRepoMock)
	svc := NewToolService(calls, runner)

	event := &model.ToolCallsEvent{
		Call: model.ProviderCall{
			ID:       "call_1",
			Customer: &model.PhoneNumberRef{Number: testCaller},
			Metadata: model.CallMetadata{OrganizationID: "org-1", CustomerID: "cust-1"},
		},
		ToolCallList: []model.ToolCall{
			{ID: "tc_1", Function: model.ToolCallFunction{Name: model.ToolCheckAvailability, Arguments: json.RawMessage(`"{\"date\":\"today\"}"`)}},
			{ID: "tc_2", Function: model.ToolCallFunction{Name: model.ToolTransferToHuman}},
		},
	}

	resp, err := svc.HandleToolCalls(testContext(t), event)

	require.NoError(t, err)
	assert.Equal(t, model.ToolExecContext{OrganizationID: "org-1", CallID: "call_1", CallerNumber: testCaller, CustomerID: "cust-1"}, runner.exec)
	assert.Equal(t, "org-1", runner.scopedOrg)
	require.Len(t, runner.invocations, 2)
	assert.JSONEq(t, `"{\"date\":\"today\"}"`, string(runner.invocations[0].RawArguments))

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "tc_1", resp.Results[0].ToolCallID)
	assert.Equal(t, `{"tool":"check_availability"}`, resp.Results[0].Result)
	assert.Equal(t, `{"tool":"transfer_to_human"}`, resp.Results[1].Result)
	calls.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything)
}

func TestHandleToolCallsFallsBackToStoredCall(t *testing.T) {
	customerID := "cust-9"
	stored := model.NewCall(&model.Call{ExternalCallID: "call_1", OrganizationID: "org-9", CustomerID: &customerID})
	calls := new(storagemock.CallRepoMock)
	calls.On("FindByExternalID", mock.Anything, "call_1").Return(stored, nil)
	runner := &fakeRunner{}
	svc := NewToolService(calls, runner)

	_, err := svc.HandleToolCalls(testContext(t), &model.ToolCallsEvent{
		Call:      model.ProviderCall{ID: "call_1"},
		ToolCalls: []model.ToolCall{{ID: "tc_1", Function: model.ToolCallFunction{Name: model.ToolCheckAvailability}}},
	})

	require.NoError(t, err)
	assert.Equal(t, "org-9", runner.exec.OrganizationID)
	assert.Equal(t, "cust-9", runner.exec.CustomerID)
	assert.Equal(t, stored.FromNumber, runner.exec.CallerNumber)
}

func TestHandleToolCallsWithoutOrganization(t *testing.T) {
	calls := new(storagemock.CallRepoMock)
	calls.On("FindByExternalID", mock.Anything, "call_1").Return(nil, apperrors.ErrNotFound)
	runner := &fakeRunner{}
	svc := NewToolService(calls, runner)

	resp, err := svc.HandleToolCalls(testContext(t), &model.ToolCallsEvent{
		Call: model.ProviderCall{ID: "call_1"},
		ToolCallList: []model.ToolCall{
			{ID: "tc_1", Function: model.ToolCallFunction{Name: model.ToolBookAppointment}},
			{ID: "tc_2", Function: model.ToolCallFunction{Name: model.ToolCheckAvailability}},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.JSONEq(t, `{"success":false,"error":"organization context unavailable"}`, r.Result)
	}
	assert.Nil(t, runner.invocations)
}

func TestHandleFunctionCallReturnsRawResult(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewToolService(new(storagemock.CallRepoMock), runner)

	resp, err := svc.HandleFunctionCall(testContext(t), &model.FunctionCallEvent{
		Call: model.ProviderCall{ID: "call_1", Metadata: model.CallMetadata{OrganizationID: "org-1"}},
		FunctionCall: model.FunctionCall{
			Name:       model.ToolCheckAvailability,
			Parameters: json.RawMessage(`{"date":"friday"}`),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"tool": model.ToolCheckAvailability}, resp.Result)
	require.Len(t, runner.invocations, 1)
	assert.Empty(t, runner.invocations[0].ID)
}

func TestHandleToolCallsEndToEnd(t *testing.T) {
	calls := new(storagemock.CallRepoMock)
	calls.On("AppendSummaryNote", mock.Anything, "call_1", "Transfer requested: wants a person").Return(nil)
	throttler := newTestThrottler(t, 0, nil, AvailabilityTool{}, NewTransferTool(calls))
	svc := NewToolService(calls, throttler)

	resp, err := svc.HandleToolCalls(testContext(t), &model.ToolCallsEvent{
		Call: model.ProviderCall{ID: "call_1", Metadata: model.CallMetadata{OrganizationID: "org-1"}},
		ToolCallList: []model.ToolCall{
			{ID: "tc_1", Function: model.ToolCallFunction{Name: model.ToolTransferToHuman, Arguments: json.RawMessage(`{"reason":"wants a person"}`)}},
			{ID: "tc_2", Function: model.ToolCallFunction{Name: "send_invoice"}},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.JSONEq(t, `{"success":true,"message":"`+transferHoldMessage+`"}`, resp.Results[0].Result)
	assert.JSONEq(t, `{"success":false,"error":"unknown tool: send_invoice"}`, resp.Results[1].Result)
	calls.AssertExpectations(t)
}

func TestHandleToolCallsNamelessEntryDoesNotSinkSiblings(t *testing.T) {
	throttler := newTestThrottler(t, 0, nil, AvailabilityTool{})
	svc := NewToolService(new(storagemock.CallRepoMock), throttler)

	resp, err := svc.HandleToolCalls(testContext(t), &model.ToolCallsEvent{
		Call: model.ProviderCall{ID: "call_1", Metadata: model.CallMetadata{OrganizationID: "org-1"}},
		ToolCallList: []model.ToolCall{
			{ID: "tc_ok", Function: model.ToolCallFunction{Name: model.ToolCheckAvailability, Arguments: json.RawMessage(`{"date":"tomorrow"}`)}},
			{ID: "tc_bad"},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "tc_ok", resp.Results[0].ToolCallID)
	assert.Contains(t, resp.Results[0].Result, `"available":true`)
	assert.Equal(t, "tc_bad", resp.Results[1].ToolCallID)
	assert.JSONEq(t, `{"success":false,"error":"unknown tool"}`, resp.Results[1].Result)
}
