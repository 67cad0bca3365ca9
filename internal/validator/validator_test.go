package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Kind  string   `json:"kind" validate:"omitempty,oneof=a b"`
	Items []string `json:"items" validate:"omitempty,dive,required"`
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(sample{Name: "x", Kind: "a", Items: []string{"one"}}))
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(sample{Kind: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "sample.name is required")
	assert.Contains(t, err.Error(), "sample.kind must be one of: a b")
}

func TestValidateDivesIntoSlices(t *testing.T) {
	err := Validate(sample{Name: "x", Items: []string{"ok", ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items[1]")
}
