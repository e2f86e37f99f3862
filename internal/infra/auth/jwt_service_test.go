package auth

import (
	"testing"
	"time"

	"storefront/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, secret string) *jwtService {
	t.Helper()

	cfg := &config.Config{Session: &config.SessionConfig{AccessTokenTTL: time.Hour}}
	cfg.SecretKey.Access = secret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func TestJWTService_IssueAndParse(t *testing.T) {
	svc := newTestJWTService(t, "test_access_secret_key_very_long_for_testing")
	issuedAt := time.Now().Truncate(time.Second)

	token, expiresAt, err := svc.IssueAccessToken("ext-1", "01HSESSION", map[string]any{"role": "customer"}, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", claims.Subject)
	assert.Equal(t, "01HSESSION", claims.SessionHandle)
	assert.Equal(t, "customer", claims.Payload["role"])
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	issuer := newTestJWTService(t, "secret-a-secret-a-secret-a")
	verifier := newTestJWTService(t, "secret-b-secret-b-secret-b")

	token, _, err := issuer.IssueAccessToken("ext-1", "h1", nil, time.Now())
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestJWTService(t, "test_access_secret_key_very_long_for_testing")

	token, _, err := svc.IssueAccessToken("ext-1", "h1", nil, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_RejectsTokenWithoutSession(t *testing.T) {
	svc := newTestJWTService(t, "test_access_secret_key_very_long_for_testing")

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ext-1",
		Issuer:    accessTokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})

	assert.Error(t, err)
}
