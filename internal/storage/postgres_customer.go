package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/tenant"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// FindCustomerByPhone looks up a customer of an organization by E.164 phone number.
func (r *PostgresRepo) FindCustomerByPhone(ctx context.Context, organizationID, phone string) (*model.Customer, error) {
	if err := tenant.ValidateOrganization(ctx, organizationID); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	var customer model.Customer
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("organization_id = ? AND phone = ?", organizationID, phone).
			First(&customer)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindCustomerByPhone", operation)
	observer.ObserveDbOperationDuration("find", "customer", organizationID, time.Since(startTime), err)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// SaveCustomer inserts a new customer, assigning an id when missing.
func (r *PostgresRepo) SaveCustomer(ctx context.Context, customer *model.Customer) error {
	if err := tenant.ValidateOrganization(ctx, customer.OrganizationID); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(customer)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveCustomer Commit", operation)
	observer.ObserveDbOperationDuration("insert", "customer", customer.OrganizationID, time.Since(startTime), err)
	if err != nil {
		if !apperrors.IsDuplicateError(err) {
			logger.FromContext(ctx).Error("Failed to save customer after retries", zap.Error(err))
		}
		return err
	}
	return nil
}
