package service

import (
	"context"

	"storefront/internal/domain/entity"
)

// ProviderStatus is the outcome code returned by identity provider primitives.
type ProviderStatus string

const (
	StatusOK                     ProviderStatus = "OK"
	StatusEmailAlreadyExists     ProviderStatus = "EMAIL_ALREADY_EXISTS"
	StatusWrongCredentials       ProviderStatus = "WRONG_CREDENTIALS"
	StatusEmailAlreadyVerified   ProviderStatus = "EMAIL_ALREADY_VERIFIED_ERROR"
	StatusInvalidToken           ProviderStatus = "INVALID_TOKEN"
	StatusUnknownUser            ProviderStatus = "UNKNOWN_USER_ID_ERROR"
	StatusPasswordPolicyViolated ProviderStatus = "PASSWORD_POLICY_VIOLATED_ERROR"
)

// SignUpResult is returned by SignUp. User is set when Status is OK.
type SignUpResult struct {
	Status ProviderStatus
	User   *entity.IdentityUser
}

// SignInResult is returned by SignIn. User is set when Status is OK.
type SignInResult struct {
	Status ProviderStatus
	User   *entity.IdentityUser
}

// ThirdPartyResult is returned by ThirdPartySignInUp.
type ThirdPartyResult struct {
	Status         ProviderStatus
	CreatedNewUser bool
	User           *entity.IdentityUser
	// LocalUser is the reconciled local record produced by the registered hook.
	LocalUser *entity.User
}

// VerificationTokenResult is returned by CreateEmailVerificationToken.
type VerificationTokenResult struct {
	Status ProviderStatus
	Token  string
}

// VerifyEmailResult is returned by VerifyEmailUsingToken. UserID may be empty when only the email is known.
type VerifyEmailResult struct {
	Status ProviderStatus
	UserID string
	Email  string
	// LocalUser is the reconciled local record produced by the registered hook.
	LocalUser *entity.User
}

// ResetPasswordResult is returned by ResetPasswordUsingToken.
type ResetPasswordResult struct {
	Status ProviderStatus
	UserID string
}

// IdentityProvider owns credentials, verification tokens and sessions.
// Provider errors are transport or storage failures; business outcomes travel in Status.
type IdentityProvider interface {
	SignUp(ctx context.Context, tenant, email, password string) (*SignUpResult, error)
	SignIn(ctx context.Context, tenant, email, password string) (*SignInResult, error)
	// ThirdPartySignInUp creates the identity on first use and runs the registered sign-up or sign-in hook.
	ThirdPartySignInUp(ctx context.Context, tenant string, claims *OAuthUser) (*ThirdPartyResult, error)

	CreateEmailVerificationToken(ctx context.Context, tenant, identityRef, email string) (*VerificationTokenResult, error)
	VerifyEmailUsingToken(ctx context.Context, tenant, token string) (*VerifyEmailResult, error)
	IsEmailVerified(ctx context.Context, identityRef, email string) (bool, error)

	// SendResetPasswordEmail issues a reset token and dispatches it. Unknown emails report StatusUnknownUser.
	SendResetPasswordEmail(ctx context.Context, tenant, email string) (ProviderStatus, error)
	ResetPasswordUsingToken(ctx context.Context, tenant, token, newPassword string) (*ResetPasswordResult, error)
	UpdateEmailOrPassword(ctx context.Context, identityRef string, email, password *string) (ProviderStatus, error)

	CreateNewSession(ctx context.Context, tenant, userID string, payload map[string]any) (*entity.Session, error)
	// VerifySession validates an access token and returns its live session.
	VerifySession(ctx context.Context, accessToken string) (*entity.SessionInfo, error)
	GetAllSessionHandlesForUser(ctx context.Context, userID string) ([]string, error)
	// GetSessionInformation returns nil, nil for unknown, revoked or expired handles.
	GetSessionInformation(ctx context.Context, handle string) (*entity.SessionInfo, error)
	// RevokeSession reports whether a live session was revoked. Unknown handles are not an error.
	RevokeSession(ctx context.Context, handle string) (bool, error)
	RevokeAllSessionsForUser(ctx context.Context, userID string) ([]string, error)

	// GetUser returns nil, nil when the identity does not exist.
	GetUser(ctx context.Context, userID string) (*entity.IdentityUser, error)
	// ListUsers pages through identities ordered by id; an empty next cursor ends the listing.
	ListUsers(ctx context.Context, cursor string, limit int) (users []*entity.IdentityUser, next string, err error)
	DeleteUser(ctx context.Context, userID string) error
}
