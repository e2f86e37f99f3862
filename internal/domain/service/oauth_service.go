package service

import (
	"context"
)

// OAuthUser represents a verified third-party identity.
type OAuthUser struct {
	ID            string // subject at the third party
	Email         string
	Provider      string
	Name          string
	GivenName     string
	FamilyName    string
	AvatarURL     string
	EmailVerified bool
}

// OAuthAuthService verifies third-party ID tokens.
type OAuthAuthService interface {
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)
	GetProvider() string
}
