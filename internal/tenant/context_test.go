package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	_, err := FromContext(ctx)
	assert.ErrorIs(t, err, ErrOrganizationIDNotFound)

	ctx = WithOrganizationID(ctx, "org-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCallID(ctx, "call-1")

	org, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-1", org)

	req, err := FromRequestIDContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", req)

	call, err := FromCallIDContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "call-1", call)
}

func TestValidateOrganization(t *testing.T) {
	ctx := WithOrganizationID(context.Background(), "org-1")

	assert.NoError(t, ValidateOrganization(ctx, "org-1"))
	assert.NoError(t, ValidateOrganization(ctx, ""))
	assert.NoError(t, ValidateOrganization(context.Background(), "org-2"))
	assert.Error(t, ValidateOrganization(ctx, "org-2"))
}
