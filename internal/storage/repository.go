package storage

import (
	"context"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// CallRepo defines call storage operations. Every method addresses the call by the provider's call id.
type CallRepo interface {
	FindByExternalID(ctx context.Context, externalCallID string) (*model.Call, error)
	ApplyStatus(ctx context.Context, externalCallID string, status model.CallStatus) (bool, error)
	UpdateTranscript(ctx context.Context, externalCallID, transcript string) error
	MarkAIHandled(ctx context.Context, externalCallID string) error
	AppendSummaryNote(ctx context.Context, externalCallID, note string) error
	Finalize(ctx context.Context, externalCallID string, fin model.CallFinalization) error
}

// CustomerRepo defines customer storage operations
type CustomerRepo interface {
	FindByPhone(ctx context.Context, organizationID, phone string) (*model.Customer, error)
	Save(ctx context.Context, customer *model.Customer) error
}

// JobRepo defines job storage operations
type JobRepo interface {
	Save(ctx context.Context, job *model.Job) error
}

// OrganizationRepo defines organization lookups
type OrganizationRepo interface {
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Organization, error)
}

// AttributionRepo records call attributions
type AttributionRepo interface {
	Save(ctx context.Context, attribution *model.Attribution) error
}

// ExhaustedEventRepo defines exhausted event storage operations
type ExhaustedEventRepo interface {
	Save(ctx context.Context, event model.ExhaustedEvent) error
}
