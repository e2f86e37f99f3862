package auth

import (
	"testing"

	"storefront/config"
	domainerrors "storefront/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *bcryptHasher {
	cfg := &config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		PasswordStrength: &config.PasswordStrengthConfig{
			MinLength:        8,
			MaxLength:        64,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   true,
		},
	}

	return NewBcryptHasher(cfg).(*bcryptHasher)
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := newTestHasher()

	hash, err := hasher.Hash("StrongPass123!")
	require.NoError(t, err)
	assert.NotEqual(t, "StrongPass123!", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.True(t, hasher.Check("StrongPass123!", hash))
	assert.False(t, hasher.Check("WrongPassword123!", hash))
	assert.False(t, hasher.Check("", hash))
}

func TestBcryptHasher_InvalidCostFallsBackToDefault(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{Auth: &config.AuthConfig{BcryptCost: 99}}).(*bcryptHasher)

	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)
}

func TestBcryptHasher_ValidatePasswordStrength(t *testing.T) {
	hasher := newTestHasher()

	assert.NoError(t, hasher.ValidatePasswordStrength("StrongPass123!"))

	weak := []string{
		"Sh0rt!",       // too short
		"PASSWORD123!", // no lowercase
		"password123!", // no uppercase
		"PasswordABC!", // no numbers
		"Password1234", // no special characters
	}
	for _, password := range weak {
		err := hasher.ValidatePasswordStrength(password)
		require.Error(t, err, password)
		assert.True(t, errors.Is(err, domainerrors.ErrWeakPassword), password)
	}
}

func TestBcryptHasher_ValidatePasswordStrength_ReportsEveryRule(t *testing.T) {
	hasher := newTestHasher()

	err := hasher.ValidatePasswordStrength("abc")

	var appErr *domainerrors.BaseError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details(), "too short")
	assert.Contains(t, appErr.Details(), "needs an uppercase letter")
	assert.Contains(t, appErr.Details(), "needs a number")
}
