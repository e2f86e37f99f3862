package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims of a session access token.
// Payload holds the enrichment written at session creation.
type AccessTokenClaims struct {
	SessionHandle string         `json:"sid"`
	Payload       map[string]any `json:"payload,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and parses session access tokens.
type TokenService interface {
	IssueAccessToken(subject, sessionHandle string, payload map[string]any, issuedAt time.Time) (token string, expiresAt time.Time, err error)
	ParseAccessToken(token string) (*AccessTokenClaims, error)
}
