package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// ToolsHandler decodes tool requests. Its responses are returned to the provider as-is.
type ToolsHandler struct {
	service ToolCallService
}

// NewToolsHandler creates a new tool request handler
func NewToolsHandler(service ToolCallService) *ToolsHandler {
	return &ToolsHandler{service: service}
}

// HandleToolCalls processes batched tool-calls messages
func (h *ToolsHandler) HandleToolCalls(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.ToolCallsEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Processing tool calls", zap.Int("count", len(event.Calls())))

	resp, err := h.service.HandleToolCalls(ctx, &event)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// HandleFunctionCall processes the legacy single function-call message
func (h *ToolsHandler) HandleFunctionCall(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.FunctionCallEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Processing function call", zap.String("tool", event.FunctionCall.Name))

	resp, err := h.service.HandleFunctionCall(ctx, &event)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
