package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/validator"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

// decodeVariant unmarshals the message into its variant struct and checks required fields.
// Both failures are fatal: redelivering the same body cannot succeed.
func decodeVariant(ctx context.Context, msg *model.WebhookMessage, target interface{}) error {
	log := logger.FromContext(ctx)

	if err := json.Unmarshal(msg.Raw, target); err != nil {
		log.Error("Failed to unmarshal webhook message", zap.String("kind", string(msg.Kind)), zap.Error(err))
		return apperrors.NewFatal(apperrors.ErrMalformedPayload, "failed to unmarshal %s payload: %v", msg.Kind, err)
	}
	if err := validator.Validate(target); err != nil {
		log.Error("Webhook message failed validation", zap.String("kind", string(msg.Kind)), zap.Error(err))
		return apperrors.NewFatal(apperrors.ErrMalformedPayload, "invalid %s payload: %v", msg.Kind, err)
	}
	return nil
}
