// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
)

// IdentityReconciler keeps local user records consistent with facts established by the identity provider.
// It implements every provider hook so the email/password and third-party flows share one path.
type IdentityReconciler interface {
	service.SignUpHook
	service.SignInHook
	service.EmailVerificationHook
	service.PasswordResetHook

	// RegisterLocalUser records a new identity locally. A failed insert returns a *domainerrors.ReconciliationError.
	RegisterLocalUser(ctx context.Context, identity *entity.IdentityUser, form service.SignUpForm) (*entity.User, error)
	// RecordSignIn stamps the sign-in locally; a missing local user is logged, never returned.
	RecordSignIn(ctx context.Context, externalRef string) error
	// CompleteEmailVerification applies a provider-validated verification. Repeating it is a no-op.
	CompleteEmailVerification(ctx context.Context, result *service.VerifyEmailResult) (*entity.User, error)
	// ReconcileEmailVerification re-reads verification state from the provider for email and reapplies it locally.
	ReconcileEmailVerification(ctx context.Context, email string) (*entity.User, error)
	// RecordPasswordChanged stamps passwordChangedAt. No password material is stored locally.
	RecordPasswordChanged(ctx context.Context, externalRef string) error
}
