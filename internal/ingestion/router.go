package ingestion

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion/handler"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// EventHandler processes one webhook message. A nil response is acknowledged with {success: true}.
type EventHandler func(ctx context.Context, msg *model.WebhookMessage) (interface{}, error)

// Router routes webhook messages to the handler registered for their kind
type Router struct {
	handlers map[model.EventKind]EventHandler
}

// NewRouter creates a new event router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[model.EventKind]EventHandler),
	}
}

// Register registers a handler for an event kind
func (r *Router) Register(kind model.EventKind, handler EventHandler) {
	r.handlers[kind] = handler
}

// Route runs the handler for msg.Kind. handled is false for noise and unknown kinds,
// which are acknowledged without doing anything. A panicking handler yields an error.
func (r *Router) Route(ctx context.Context, msg *model.WebhookMessage) (resp interface{}, handled bool, err error) {
	if msg.Kind.IsNoise() {
		return nil, false, nil
	}

	if msg.Call.ID != "" {
		ctx = tenant.WithCallID(ctx, msg.Call.ID)
	}
	if orgID := msg.Call.Metadata.OrganizationID; orgID != "" {
		ctx = tenant.WithOrganizationID(ctx, orgID)
	}
	// Scope the undecorated logger; FromContext adds the identifiers on every call.
	ctx = logger.WithLogger(ctx, logger.FromContextOr(ctx, nil).With(zap.String("kind", string(msg.Kind))))
	log := logger.FromContext(ctx)

	handler, ok := r.handlers[msg.Kind]
	if !ok {
		log.Debug("No handler registered for event kind")
		return nil, false, nil
	}

	log.Info("Event received", zap.Int("payload_bytes", len(msg.Raw)))

	run := utils.WrapWithContextRecovery(func(ctx context.Context) error {
		var handlerErr error
		resp, handlerErr = handler(ctx, msg)
		return handlerErr
	})
	if err := run(ctx); err != nil {
		return nil, true, err
	}
	return resp, true, nil
}

// RegisterVoiceHandlers wires every provider message kind to its handler.
func RegisterVoiceHandlers(r *Router, voice *handler.VoiceHandler, tools *handler.ToolsHandler, assistant *handler.AssistantHandler) {
	r.Register(model.EventStatusUpdate, voice.HandleStatusUpdate)
	r.Register(model.EventTranscript, voice.HandleTranscript)
	r.Register(model.EventEndOfCallReport, voice.HandleEndOfCallReport)
	r.Register(model.EventHang, voice.HandleHangup)
	r.Register(model.EventHangup, voice.HandleHangup)
	r.Register(model.EventToolCalls, tools.HandleToolCalls)
	r.Register(model.EventFunctionCall, tools.HandleFunctionCall)
	r.Register(model.EventAssistantRequest, assistant.HandleAssistantRequest)
}
