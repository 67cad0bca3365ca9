package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const transferHoldMessage = "Of course. Please hold while I connect you with a member of our team."

// TransferTool records a transfer request on the call summary.
type TransferTool struct {
	calls storage.CallRepo
}

// NewTransferTool creates the transfer_to_human handler.
func NewTransferTool(calls storage.CallRepo) *TransferTool {
	return &TransferTool{calls: calls}
}

type transferArgs struct {
	Reason string `json:"reason"`
}

func (t *TransferTool) Name() string { return model.ToolTransferToHuman }

func (t *TransferTool) Definition() model.ToolDefinition {
	return functionTool(model.ToolTransferToHuman,
		"Transfer the caller to a human when they ask for one or the request is out of scope.",
		map[string]interface{}{
			"reason": stringProperty("Why the caller wants to speak with a person."),
		},
	)
}

// Handle always reports success; failing to record the note must not strand the caller.
func (t *TransferTool) Handle(ctx context.Context, exec model.ToolExecContext, args model.ToolArguments) (interface{}, error) {
	var in transferArgs
	if err := args.Decode(&in); err != nil {
		logger.FromContext(ctx).Warn("Transfer reason has an unexpected type", zap.Error(err))
		if raw, ok := args["reason"]; ok && raw != nil {
			in.Reason = fmt.Sprint(raw)
		}
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "not specified"
	}

	if exec.CallID != "" {
		note := "Transfer requested: " + reason
		if err := t.calls.AppendSummaryNote(ctx, exec.CallID, note); err != nil {
			logger.FromContext(ctx).Warn("Failed to record transfer request on call", zap.Error(err))
			observer.IncSideEffectFailure("transfer_note", err)
		}
	}

	return map[string]interface{}{
		"success": true,
		"message": transferHoldMessage,
	}, nil
}
