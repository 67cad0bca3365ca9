package ingestion

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const unknownKindLabel = "unknown"

// WebhookHandler parses provider deliveries and dispatches them through the router.
type WebhookHandler struct {
	router *Router
}

// NewWebhookHandler creates a new webhook HTTP handler
func NewWebhookHandler(router *Router) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// HandleVoice serves the main webhook; the message type selects the handler.
func (h *WebhookHandler) HandleVoice(c *gin.Context) {
	h.handle(c, "")
}

// HandleAssistantRequest serves the dedicated assistant-request path.
func (h *WebhookHandler) HandleAssistantRequest(c *gin.Context) {
	h.handle(c, model.EventAssistantRequest)
}

func (h *WebhookHandler) handle(c *gin.Context, kind model.EventKind) {
	start := time.Now()
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		h.reject(c, unknownKindLabel, "invalid_payload", http.StatusBadRequest)
		return
	}

	msg, err := model.ParseWebhook(body)
	if err != nil {
		log.Warn("Rejecting undecodable webhook payload", zap.Error(err))
		h.reject(c, unknownKindLabel, "invalid_payload", http.StatusBadRequest)
		return
	}
	if kind != "" {
		msg.Kind = kind
	}

	label := string(msg.Kind)
	resp, handled, err := h.router.Route(ctx, msg)
	if !handled && err == nil && !msg.Kind.IsNoise() {
		label = unknownKindLabel
	}
	observer.ObserveWebhookDuration(label, time.Since(start))

	if err != nil {
		status := webhookErrorStatus(err)
		log.Error("Webhook handler failed",
			zap.String("kind", string(msg.Kind)),
			zap.Int("status", status),
			zap.Error(err),
		)
		h.reject(c, label, "error", status)
		return
	}

	switch {
	case !handled && msg.Kind.IsNoise():
		observer.IncWebhookEvent(label, "noise")
	case !handled:
		observer.IncWebhookEvent(label, "ignored")
	default:
		observer.IncWebhookEvent(label, "success")
	}

	if resp == nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) reject(c *gin.Context, label, outcome string, status int) {
	observer.IncWebhookEvent(label, outcome)
	c.AbortWithStatusJSON(status, gin.H{"error": webhookErrorMessage(status)})
}

// webhookErrorStatus maps a handler error to the status returned to the provider.
// Fatal errors get a 4xx so the provider stops redelivering them. Authentication
// happens before dispatch, so a handler never answers 401.
func webhookErrorStatus(err error) int {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusUnauthorized {
		return http.StatusInternalServerError
	}
	return status
}

func webhookErrorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid payload"
	case http.StatusNotFound:
		return "not found"
	default:
		return "internal error"
	}
}
