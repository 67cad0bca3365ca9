package handler

import (
	"context"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// AssistantHandler answers assistant-request messages.
type AssistantHandler struct {
	service AssistantRequestService
}

// NewAssistantHandler creates a new assistant request handler
func NewAssistantHandler(service AssistantRequestService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// HandleAssistantRequest returns the assistant for the dialed organization
func (h *AssistantHandler) HandleAssistantRequest(ctx context.Context, msg *model.WebhookMessage) (interface{}, error) {
	var event model.AssistantRequestEvent
	if err := decodeVariant(ctx, msg, &event); err != nil {
		return nil, err
	}
	if event.PhoneNumber == nil {
		event.PhoneNumber = msg.PhoneNumber
	}

	resp, err := h.service.HandleAssistantRequest(ctx, &event)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
