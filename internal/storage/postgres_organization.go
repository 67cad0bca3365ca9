package storage

import (
	"context"
	"time"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// FindOrganizationByID loads an organization.
func (r *PostgresRepo) FindOrganizationByID(ctx context.Context, id string) (*model.Organization, error) {
	return r.findOrganization(ctx, "FindOrganizationByID", "id = ?", id)
}

// FindOrganizationByPhoneNumber loads the organization that owns a dialed number.
func (r *PostgresRepo) FindOrganizationByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Organization, error) {
	return r.findOrganization(ctx, "FindOrganizationByPhoneNumber", "phone_number = ?", phoneNumber)
}

func (r *PostgresRepo) findOrganization(ctx context.Context, opName, query string, arg interface{}) (*model.Organization, error) {
	var org model.Organization
	operation := func() error {
		result := r.db.WithContext(ctx).Where(query, arg).First(&org)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, opName, operation)
	observer.ObserveDbOperationDuration("find", "organization", organizationLabel(ctx), time.Since(startTime), err)
	if err != nil {
		return nil, err
	}
	return &org, nil
}
