package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// --- Input DTOs ---

// ClientInfo is the request metadata written into a new session's payload.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// SignUpInput defines the data required to register a customer.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// SignInInput defines the data required for a user to sign in.
type SignInInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

// ChangePasswordInput carries the password change form.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// --- Output DTOs ---

// AuthOutput is returned after a successful sign-in.
type AuthOutput struct {
	User    *entity.User // nil when the identity has no local record yet
	Session *entity.Session
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User    *entity.User
	Session *entity.SessionInfo
}

// ExternalID returns the identity provider user id of the session.
func (p *Principal) ExternalID() string {
	return p.Session.UserID
}

// SessionHandle returns the handle of the calling session.
func (p *Principal) SessionHandle() string {
	return p.Session.Handle
}

// AuthUsecase covers credential flows that span the identity provider and the local store.
type AuthUsecase interface {
	SignUp(ctx context.Context, input SignUpInput) (*entity.User, error)
	SignIn(ctx context.Context, input SignInInput) (*AuthOutput, error)
	GoogleSignIn(ctx context.Context, idToken string, client ClientInfo) (*AuthOutput, error)

	// Authenticate verifies an access token and loads the active local user behind it.
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
	GetCurrentUser(ctx context.Context, externalRef string) (*entity.User, error)

	VerifyEmail(ctx context.Context, token, email string) (*entity.User, error)
	ResendVerification(ctx context.Context, externalRef string) error

	// RequestPasswordReset never reports whether the email exists.
	RequestPasswordReset(ctx context.Context, email string) error
	SubmitPasswordReset(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, externalRef string, input ChangePasswordInput) error

	// DeleteAccount confirms the password, ends every session, removes the identity and soft-deletes locally.
	DeleteAccount(ctx context.Context, externalRef, password string) error
}
