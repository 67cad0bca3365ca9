package usecase

import (
	"context"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
)

// CallService reconciles call lifecycle events into the stored Call record.
type CallService struct {
	calls        storage.CallRepo
	attributions storage.AttributionRepo
	events       EventEmitter
}

// NewCallService creates a new call service
func NewCallService(
	calls storage.CallRepo,
	attributions storage.AttributionRepo,
	events EventEmitter,
) *CallService {
	return &CallService{
		calls:        calls,
		attributions: attributions,
		events:       events,
	}
}

// withCallOrganization scopes ctx to the call's organization unless the event already named one.
func withCallOrganization(ctx context.Context, call *model.Call) context.Context {
	if _, err := tenant.FromContext(ctx); err == nil || call.OrganizationID == "" {
		return ctx
	}
	return tenant.WithOrganizationID(ctx, call.OrganizationID)
}
