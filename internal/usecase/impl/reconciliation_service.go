package impl

import (
	"context"
	"log/slog"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"
	"storefront/internal/util"

	"go.uber.org/fx"
)

// Reconciliation operation names, used in logs, metrics and ReconciliationError.
const (
	opSignUp        = "signup"
	opSignIn        = "signin"
	opVerifyEmail   = "verify_email"
	opPasswordReset = "password_changed"
	opAdminCreate   = "admin_create"
	opVendorSignUp  = "vendor_signup"
)

const backgroundTimeout = 30 * time.Second

type reconciliationService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	permissions usecase.PermissionUsecase
	provider    service.IdentityProvider
	mailer      *verificationMailer
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now   func() time.Time
	async func(func())
}

// ReconciliationServiceParams holds dependencies for the reconciliation service, injected by Fx.
type ReconciliationServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	Permissions usecase.PermissionUsecase
	Provider    service.IdentityProvider
	Notifier    service.NotificationSender
	Config      *config.Config
	Metrics     *metrics.Metrics `optional:"true"`
	Logger      *slog.Logger
}

// NewReconciliationService is the constructor for reconciliationService.
func NewReconciliationService(params ReconciliationServiceParams) usecase.IdentityReconciler {
	return &reconciliationService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		permissions: params.Permissions,
		provider:    params.Provider,
		mailer: &verificationMailer{
			provider: params.Provider,
			notifier: params.Notifier,
			frontend: frontendConfig(params.Config),
			metrics:  params.Metrics,
			logger:   params.Logger,
		},
		metrics: params.Metrics,
		logger:  params.Logger,
		now:     time.Now,
		async:   func(f func()) { go f() },
	}
}

func (srv *reconciliationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// AfterSignUp implements service.SignUpHook.
func (srv *reconciliationService) AfterSignUp(ctx context.Context, identity *entity.IdentityUser, form service.SignUpForm) (*entity.User, error) {
	return srv.RegisterLocalUser(ctx, identity, form)
}

// AfterSignIn implements service.SignInHook.
func (srv *reconciliationService) AfterSignIn(ctx context.Context, identity *entity.IdentityUser) error {
	return srv.RecordSignIn(ctx, identity.ID)
}

// AfterEmailVerified implements service.EmailVerificationHook.
func (srv *reconciliationService) AfterEmailVerified(ctx context.Context, result *service.VerifyEmailResult) (*entity.User, error) {
	return srv.CompleteEmailVerification(ctx, result)
}

// AfterPasswordChanged implements service.PasswordResetHook.
func (srv *reconciliationService) AfterPasswordChanged(ctx context.Context, identityRef string) error {
	return srv.RecordPasswordChanged(ctx, identityRef)
}

func (srv *reconciliationService) RegisterLocalUser(ctx context.Context, identity *entity.IdentityUser, form service.SignUpForm) (*entity.User, error) {
	email := entity.NormalizeEmail(form.Email)
	if email == "" {
		email = entity.NormalizeEmail(identity.Email)
	}

	role, err := srv.permissions.RoleByName(ctx, entity.RoleCustomer)
	if err != nil {
		return nil, srv.reconciliationFailed(ctx, opSignUp, identity.ID, email, err)
	}

	now := srv.now()
	user := &entity.User{
		ExternalIdentityRef: identity.ID,
		Email:               email,
		RoleID:              role.ID,
		Role:                role,
		Permissions:         entity.Permissions{},
		IsActive:            true,
		IsEmailVerified:     false,
		Profile:             entity.DefaultProfile(form.FirstName, form.LastName, now),
		Preferences:         entity.DefaultPreferences(),
	}
	user.Profile.Phone = util.SanitizePhone(form.Phone)

	if err := srv.userRepo.Create(ctx, user); err != nil {
		return nil, srv.reconciliationFailed(ctx, opSignUp, identity.ID, email, err)
	}

	srv.log(ctx).Info("Local user registered",
		slog.String("external_id", identity.ID), slog.Any("userID", user.ID))

	srv.sendVerificationInBackground(ctx, user)

	return user, nil
}

func (srv *reconciliationService) RecordSignIn(ctx context.Context, externalRef string) error {
	found, err := srv.userRepo.TouchSignIn(ctx, externalRef, srv.now())
	if err != nil {
		srv.log(ctx).Error("Failed to record sign-in", slog.String("external_id", externalRef), slog.Any("error", err))

		return errors.Wrap(err, "failed to record sign-in")
	}
	if !found {
		srv.metrics.ReconciliationFailed(opSignIn)
		srv.log(ctx).Warn("Orphan identity signed in without a local user",
			slog.String("external_id", externalRef), slog.String("operation", opSignIn))
	}

	return nil
}

func (srv *reconciliationService) CompleteEmailVerification(ctx context.Context, result *service.VerifyEmailResult) (*entity.User, error) {
	if result == nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidOrExpiredToken, "missing verification result")
	}

	user, err := srv.applyVerification(ctx, result.UserID, result.Email)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		srv.metrics.ReconciliationFailed(opVerifyEmail)
		srv.log(ctx).Error("Verified identity has no local user",
			slog.String("external_id", result.UserID), slog.String("email", result.Email),
			slog.String("operation", opVerifyEmail))

		return nil, errors.Wrap(err, "no local user for verified identity")
	}

	// The provider has already consumed the token, so the user cannot retry. Re-derive by email.
	srv.log(ctx).Warn("Local verification write failed, re-deriving by email",
		slog.String("external_id", result.UserID), slog.String("email", result.Email), slog.Any("error", err))

	if result.Email != "" {
		user, retryErr := srv.applyVerification(ctx, "", result.Email)
		if retryErr == nil {
			return user, nil
		}
		err = retryErr
	}

	return nil, srv.reconciliationFailed(ctx, opVerifyEmail, result.UserID, result.Email, err)
}

func (srv *reconciliationService) ReconcileEmailVerification(ctx context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user for verification")
	}
	if user.IsEmailVerified && user.ActivityLog.EmailVerifiedAt != nil {
		return user, nil
	}

	verified, err := srv.provider.IsEmailVerified(ctx, user.ExternalIdentityRef, email)
	if err != nil {
		return nil, domainerrors.ErrIdentityProvider.WrapMessage("is email verified: " + err.Error())
	}
	if !verified {
		return user, nil
	}

	return srv.CompleteEmailVerification(ctx, &service.VerifyEmailResult{
		Status: service.StatusOK,
		UserID: user.ExternalIdentityRef,
		Email:  email,
	})
}

func (srv *reconciliationService) RecordPasswordChanged(ctx context.Context, externalRef string) error {
	found, err := srv.userRepo.SetPasswordChangedAt(ctx, externalRef, srv.now())
	if err != nil {
		return errors.Wrap(err, "failed to record password change")
	}
	if !found {
		srv.metrics.ReconciliationFailed(opPasswordReset)
		srv.log(ctx).Warn("Password changed for identity without a local user",
			slog.String("external_id", externalRef), slog.String("operation", opPasswordReset))
	}

	return nil
}

// applyVerification looks the user up by external ref, falling back to email, and marks it verified.
func (srv *reconciliationService) applyVerification(ctx context.Context, externalRef, email string) (*entity.User, error) {
	var verified *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		user, err := findByRefOrEmail(ctx, userRepo, externalRef, email)
		if err != nil {
			return err
		}

		if user.MarkEmailVerified(srv.now()) {
			if err := userRepo.Update(ctx, user); err != nil {
				return errors.Wrap(err, "failed to save verification")
			}
		}
		verified = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	return verified, nil
}

func findByRefOrEmail(ctx context.Context, userRepo repository.UserRepository, externalRef, email string) (*entity.User, error) {
	if externalRef != "" {
		user, err := userRepo.FindByExternalRef(ctx, externalRef)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domainerrors.ErrUserNotFound) {
			return nil, err
		}
	}

	if email = entity.NormalizeEmail(email); email != "" {
		return userRepo.FindByEmail(ctx, email)
	}

	return nil, domainerrors.ErrUserNotFound
}

func (srv *reconciliationService) reconciliationFailed(ctx context.Context, operation, externalID, email string, err error) error {
	return reconciliationFailure(srv.log(ctx), srv.metrics, operation, externalID, email, err)
}

// sendVerificationInBackground never reports back to the caller; failures are logged.
func (srv *reconciliationService) sendVerificationInBackground(ctx context.Context, user *entity.User) {
	srv.mailer.sendInBackground(ctx, user, srv.async)
}
