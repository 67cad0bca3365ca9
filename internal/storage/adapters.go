package storage

import (
	"context"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// CallRepoAdapter adapts the PostgresRepo to the CallRepo interface
type CallRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCallRepoAdapter creates a new call repository adapter
func NewCallRepoAdapter(postgres *PostgresRepo) CallRepo {
	return &CallRepoAdapter{postgres: postgres}
}

func (a *CallRepoAdapter) FindByExternalID(ctx context.Context, externalCallID string) (*model.Call, error) {
	return a.postgres.FindCallByExternalID(ctx, externalCallID)
}

func (a *CallRepoAdapter) ApplyStatus(ctx context.Context, externalCallID string, status model.CallStatus) (bool, error) {
	return a.postgres.ApplyCallStatus(ctx, externalCallID, status)
}

func (a *CallRepoAdapter) UpdateTranscript(ctx context.Context, externalCallID, transcript string) error {
	return a.postgres.UpdateCallTranscript(ctx, externalCallID, transcript)
}

func (a *CallRepoAdapter) MarkAIHandled(ctx context.Context, externalCallID string) error {
	return a.postgres.MarkCallAIHandled(ctx, externalCallID)
}

func (a *CallRepoAdapter) AppendSummaryNote(ctx context.Context, externalCallID, note string) error {
	return a.postgres.AppendCallSummaryNote(ctx, externalCallID, note)
}

func (a *CallRepoAdapter) Finalize(ctx context.Context, externalCallID string, fin model.CallFinalization) error {
	return a.postgres.FinalizeCall(ctx, externalCallID, fin)
}

// CustomerRepoAdapter adapts the PostgresRepo to the CustomerRepo interface
type CustomerRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCustomerRepoAdapter creates a new customer repository adapter
func NewCustomerRepoAdapter(postgres *PostgresRepo) CustomerRepo {
	return &CustomerRepoAdapter{postgres: postgres}
}

func (a *CustomerRepoAdapter) FindByPhone(ctx context.Context, organizationID, phone string) (*model.Customer, error) {
	return a.postgres.FindCustomerByPhone(ctx, organizationID, phone)
}

func (a *CustomerRepoAdapter) Save(ctx context.Context, customer *model.Customer) error {
	return a.postgres.SaveCustomer(ctx, customer)
}

// JobRepoAdapter adapts the PostgresRepo to the JobRepo interface
type JobRepoAdapter struct {
	postgres *PostgresRepo
}

// NewJobRepoAdapter creates a new job repository adapter
func NewJobRepoAdapter(postgres *PostgresRepo) JobRepo {
	return &JobRepoAdapter{postgres: postgres}
}

func (a *JobRepoAdapter) Save(ctx context.Context, job *model.Job) error {
	return a.postgres.SaveJob(ctx, job)
}

// OrganizationRepoAdapter adapts the PostgresRepo to the OrganizationRepo interface
type OrganizationRepoAdapter struct {
	postgres *PostgresRepo
}

// NewOrganizationRepoAdapter creates a new organization repository adapter
func NewOrganizationRepoAdapter(postgres *PostgresRepo) OrganizationRepo {
	return &OrganizationRepoAdapter{postgres: postgres}
}

func (a *OrganizationRepoAdapter) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	return a.postgres.FindOrganizationByID(ctx, id)
}

func (a *OrganizationRepoAdapter) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Organization, error) {
	return a.postgres.FindOrganizationByPhoneNumber(ctx, phoneNumber)
}

// AttributionRepoAdapter adapts the PostgresRepo to the AttributionRepo interface
type AttributionRepoAdapter struct {
	postgres *PostgresRepo
}

// NewAttributionRepoAdapter creates a new attribution repository adapter
func NewAttributionRepoAdapter(postgres *PostgresRepo) AttributionRepo {
	return &AttributionRepoAdapter{postgres: postgres}
}

func (a *AttributionRepoAdapter) Save(ctx context.Context, attribution *model.Attribution) error {
	return a.postgres.SaveAttribution(ctx, attribution)
}

// ExhaustedEventRepoAdapter adapts the PostgresRepo to the ExhaustedEventRepo interface
type ExhaustedEventRepoAdapter struct {
	postgres *PostgresRepo
}

// NewExhaustedEventRepoAdapter creates a new exhausted event repository adapter
func NewExhaustedEventRepoAdapter(postgres *PostgresRepo) ExhaustedEventRepo {
	return &ExhaustedEventRepoAdapter{postgres: postgres}
}

func (a *ExhaustedEventRepoAdapter) Save(ctx context.Context, event model.ExhaustedEvent) error {
	return a.postgres.SaveExhaustedEvent(ctx, event)
}

var (
	_ CallRepo           = (*CallRepoAdapter)(nil)
	_ CustomerRepo       = (*CustomerRepoAdapter)(nil)
	_ JobRepo            = (*JobRepoAdapter)(nil)
	_ OrganizationRepo   = (*OrganizationRepoAdapter)(nil)
	_ AttributionRepo    = (*AttributionRepoAdapter)(nil)
	_ ExhaustedEventRepo = (*ExhaustedEventRepoAdapter)(nil)
)
