package service

import (
	"context"

	"storefront/internal/domain/entity"
)

// SignUpForm carries the local-only fields submitted alongside credentials.
type SignUpForm struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// SignUpHook records a newly created identity in the local store.
type SignUpHook interface {
	AfterSignUp(ctx context.Context, identity *entity.IdentityUser, form SignUpForm) (*entity.User, error)
}

// SignInHook observes a successful sign-in.
type SignInHook interface {
	AfterSignIn(ctx context.Context, identity *entity.IdentityUser) error
}

// EmailVerificationHook applies a provider-validated verification to the local store.
type EmailVerificationHook interface {
	AfterEmailVerified(ctx context.Context, result *VerifyEmailResult) (*entity.User, error)
}

// PasswordResetHook observes a credential change.
type PasswordResetHook interface {
	AfterPasswordChanged(ctx context.Context, identityRef string) error
}

// IdentityHooks groups the callbacks registered on the identity provider client.
type IdentityHooks struct {
	SignUp            SignUpHook
	SignIn            SignInHook
	EmailVerification EmailVerificationHook
	PasswordReset     PasswordResetHook
}
