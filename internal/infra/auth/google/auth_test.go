package google

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"storefront/config"
	"storefront/internal/domain/entity"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func newTestAuthService(validate validateFunc) *AuthServiceImpl {
	cfg := &config.Config{GoogleOAuth: &config.GoogleOAuthConfig{ClientID: "test_client_id"}}
	svc := NewAuthService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).(*AuthServiceImpl)
	svc.validate = validate

	return svc
}

func TestAuthService_VerifyIDToken(t *testing.T) {
	svc := newTestAuthService(func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "raw-token", token)
		assert.Equal(t, "test_client_id", audience)

		return &idtoken.Payload{
			Issuer:  "https://accounts.google.com",
			Subject: "google-sub-1",
			Claims: map[string]any{
				"email":          "jane@example.com",
				"email_verified": true,
				"given_name":     "Jane",
				"family_name":    "Doe",
			},
		}, nil
	})

	user, err := svc.VerifyIDToken(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Jane", user.GivenName)
	assert.Equal(t, entity.ProviderTypeGoogle, user.Provider)
}

func TestAuthService_VerifyIDToken_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload *idtoken.Payload
		err     error
	}{
		{name: "validation error", err: errors.New("bad signature")},
		{name: "foreign issuer", payload: &idtoken.Payload{Issuer: "https://evil.example", Claims: map[string]any{"email": "a@b.c", "email_verified": true}}},
		{name: "unverified email", payload: &idtoken.Payload{Issuer: "accounts.google.com", Claims: map[string]any{"email": "a@b.c", "email_verified": false}}},
		{name: "missing email", payload: &idtoken.Payload{Issuer: "accounts.google.com", Claims: map[string]any{"email_verified": true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(func(context.Context, string, string) (*idtoken.Payload, error) {
				return tt.payload, tt.err
			})

			user, err := svc.VerifyIDToken(context.Background(), "raw-token")
			assert.Error(t, err)
			assert.Nil(t, user)
		})
	}
}

func TestAuthService_NotConfigured(t *testing.T) {
	svc := NewAuthService(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.VerifyIDToken(context.Background(), "raw-token")
	assert.Error(t, err)
	assert.Equal(t, entity.ProviderTypeGoogle, svc.GetProvider())
}
