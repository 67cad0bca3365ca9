package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// --- CallRepo Mock ---

// CallRepoMock mocks the CallRepo interface
type CallRepoMock struct {
	mock.Mock
}

func (m *CallRepoMock) FindByExternalID(ctx context.Context, externalCallID string) (*model.Call, error) {
	args := m.Called(ctx, externalCallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Call), args.Error(1)
}

func (m *CallRepoMock) ApplyStatus(ctx context.Context, externalCallID string, status model.CallStatus) (bool, error) {
	args := m.Called(ctx, externalCallID, status)
	return args.Bool(0), args.Error(1)
}

func (m *CallRepoMock) UpdateTranscript(ctx context.Context, externalCallID, transcript string) error {
	args := m.Called(ctx, externalCallID, transcript)
	return args.Error(0)
}

func (m *CallRepoMock) MarkAIHandled(ctx context.Context, externalCallID string) error {
	args := m.Called(ctx, externalCallID)
	return args.Error(0)
}

func (m *CallRepoMock) AppendSummaryNote(ctx context.Context, externalCallID, note string) error {
	args := m.Called(ctx, externalCallID, note)
	return args.Error(0)
}

func (m *CallRepoMock) Finalize(ctx context.Context, externalCallID string, fin model.CallFinalization) error {
	args := m.Called(ctx, externalCallID, fin)
	return args.Error(0)
}

// --- CustomerRepo Mock ---

// CustomerRepoMock mocks the CustomerRepo interface
type CustomerRepoMock struct {
	mock.Mock
}

func (m *CustomerRepoMock) FindByPhone(ctx context.Context, organizationID, phone string) (*model.Customer, error) {
	args := m.Called(ctx, organizationID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *CustomerRepoMock) Save(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// --- JobRepo Mock ---

// JobRepoMock mocks the JobRepo interface
type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Save(ctx context.Context, job *model.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// --- OrganizationRepo Mock ---

// OrganizationRepoMock mocks the OrganizationRepo interface
type OrganizationRepoMock struct {
	mock.Mock
}

func (m *OrganizationRepoMock) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *OrganizationRepoMock) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Organization, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

// --- AttributionRepo Mock ---

// AttributionRepoMock mocks the AttributionRepo interface
type AttributionRepoMock struct {
	mock.Mock
}

func (m *AttributionRepoMock) Save(ctx context.Context, attribution *model.Attribution) error {
	args := m.Called(ctx, attribution)
	return args.Error(0)
}

// --- ExhaustedEventRepo Mock ---

// ExhaustedEventRepoMock mocks the ExhaustedEventRepo interface
type ExhaustedEventRepoMock struct {
	mock.Mock
}

func (m *ExhaustedEventRepoMock) Save(ctx context.Context, event model.ExhaustedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
