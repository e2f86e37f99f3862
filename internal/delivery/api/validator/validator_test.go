package validator

import (
	"testing"

	domainerrors "storefront/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email     string `json:"email" validate:"required,email"`
	AdminType string `json:"adminType" validate:"required,oneof=admin subAdmin"`
	Note      string `json:"note,omitempty" validate:"max=5"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&sample{Email: "a@b.co", AdminType: "admin"}))

	err := v.Validate(&sample{Email: "nope", Note: "too long"})
	require.Error(t, err)

	appErr, ok := domainerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "email must be a valid email address")
	assert.Contains(t, appErr.Details(), "adminType is required")
	assert.Contains(t, appErr.Details(), "note must be at most 5 characters")
}
