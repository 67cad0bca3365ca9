package tenant

import (
	"context"
	"errors"
	"fmt"
)

// Key for tenant values in context
type contextKey string

const (
	organizationIDKey contextKey = "organizationID"
	requestIDKey      contextKey = "requestID"
	callIDKey         contextKey = "callID"
)

// ErrOrganizationIDNotFound is returned when no organization ID is found in context
var ErrOrganizationIDNotFound = errors.New("organization ID not found in context")

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// ErrNoCallIDInContext is returned when no provider call ID is found in context
var ErrNoCallIDInContext = errors.New("no call ID found in context")

// WithOrganizationID adds an organization ID to the context
func WithOrganizationID(ctx context.Context, organizationID string) context.Context {
	return context.WithValue(ctx, organizationIDKey, organizationID)
}

// FromContext extracts the organization ID from the context
func FromContext(ctx context.Context) (string, error) {
	organizationID, ok := ctx.Value(organizationIDKey).(string)
	if !ok || organizationID == "" {
		return "", ErrOrganizationIDNotFound
	}
	return organizationID, nil
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromRequestIDContext extracts the request ID from the context
func FromRequestIDContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

// WithCallID adds the provider's external call ID to the context
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// FromCallIDContext extracts the provider call ID from the context
func FromCallIDContext(ctx context.Context) (string, error) {
	callID, ok := ctx.Value(callIDKey).(string)
	if !ok || callID == "" {
		return "", ErrNoCallIDInContext
	}
	return callID, nil
}

// ValidateOrganization checks that a record's organization matches the one scoped in context.
// Records without an organization and contexts without one are not checked.
func ValidateOrganization(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return nil
	}

	scoped, err := FromContext(ctx)
	if err != nil {
		return nil
	}

	if scoped != organizationID {
		return fmt.Errorf("organization (%s) does not match scoped organization (%s)", organizationID, scoped)
	}

	return nil
}
