package auth

import (
	"time"

	"storefront/config"
	"storefront/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const accessTokenIssuer = "storefront-identity"

// jwtService signs session access tokens with HS256.
type jwtService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	ttl := time.Hour
	if cfg.Session != nil && cfg.Session.AccessTokenTTL > 0 {
		ttl = cfg.Session.AccessTokenTTL
	}

	return &jwtService{
		secret:    []byte(cfg.SecretKey.Access),
		accessTTL: ttl,
	}, nil
}

// IssueAccessToken signs a token for subject bound to sessionHandle.
func (s *jwtService) IssueAccessToken(subject, sessionHandle string, payload map[string]any, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.accessTTL)
	claims := &service.AccessTokenClaims{
		SessionHandle: sessionHandle,
		Payload:       payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    accessTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign access token")
	}

	return token, expiresAt, nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func (s *jwtService) ParseAccessToken(tokenString string) (*service.AccessTokenClaims, error) {
	claims := &service.AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithIssuer(accessTokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if claims.SessionHandle == "" || claims.Subject == "" {
		return nil, errors.New("access token is missing session claims")
	}

	return claims, nil
}
