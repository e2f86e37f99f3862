package impl

import (
	"context"
	"log/slog"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
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

const opDeleteAccount = "delete_account"

// authService implements the AuthUsecase interface.
type authService struct {
	provider    service.IdentityProvider
	reconciler  usecase.IdentityReconciler
	userRepo    repository.UserRepository
	hasher      service.PasswordHasher
	oauth       service.OAuthAuthService
	notifier    service.NotificationSender
	frontend    *config.FrontendConfig
	maxAttempts int
	lockFor     time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Provider          service.IdentityProvider
	Reconciler        usecase.IdentityReconciler
	UserRepo          repository.UserRepository
	Hasher            service.PasswordHasher
	GoogleAuthService service.OAuthAuthService
	Notifier          service.NotificationSender
	Config            *config.Config
	Metrics           *metrics.Metrics `optional:"true"`
	Logger            *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	srv := &authService{
		provider:   params.Provider,
		reconciler: params.Reconciler,
		userRepo:   params.UserRepo,
		hasher:     params.Hasher,
		oauth:      params.GoogleAuthService,
		notifier:   params.Notifier,
		frontend:   frontendConfig(params.Config),
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        time.Now,
	}

	if cfg := params.Config; cfg != nil && cfg.Auth != nil {
		srv.maxAttempts = cfg.Auth.MaxLoginAttempts
		srv.lockFor = cfg.Auth.LockDuration
	}

	return srv
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *authService) SignUp(ctx context.Context, input usecase.SignUpInput) (*entity.User, error) {
	email := entity.NormalizeEmail(input.Email)

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	exists, err := srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email")
	}
	if exists {
		return nil, domainerrors.ErrUserAlreadyExists
	}

	res, err := srv.provider.SignUp(ctx, constants.DefaultTenant, email, input.Password)
	if err != nil {
		return nil, providerError("sign up", err)
	}
	if err := signUpStatusError(res.Status); err != nil {
		return nil, err
	}

	// Logged before the local write so an orphan can always be traced back.
	srv.log(ctx).Info("Identity created, recording local user",
		slog.String("external_id", res.User.ID), slog.String("email", util.MaskEmail(email)))

	return srv.reconciler.RegisterLocalUser(ctx, res.User, service.SignUpForm{
		Email:     email,
		FirstName: util.SanitizeText(input.FirstName),
		LastName:  util.SanitizeText(input.LastName),
		Phone:     input.Phone,
	})
}

func signUpStatusError(status service.ProviderStatus) error {
	switch status {
	case service.StatusOK:
		return nil
	case service.StatusEmailAlreadyExists:
		return domainerrors.ErrUserAlreadyExists
	case service.StatusPasswordPolicyViolated:
		return domainerrors.ErrWeakPassword
	default:
		return domainerrors.ErrIdentityProvider.WithDetails("unexpected sign up status " + string(status))
	}
}

func (srv *authService) SignIn(ctx context.Context, input usecase.SignInInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	now := srv.now()

	local, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domainerrors.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if local != nil && local.IsLocked(now) {
		return nil, domainerrors.ErrAccountLocked
	}

	res, err := srv.provider.SignIn(ctx, constants.DefaultTenant, email, input.Password)
	if err != nil {
		return nil, providerError("sign in", err)
	}
	switch res.Status {
	case service.StatusOK:
	case service.StatusWrongCredentials:
		srv.recordFailedSignIn(ctx, local, now)

		return nil, domainerrors.ErrInvalidCredentials
	default:
		return nil, domainerrors.ErrIdentityProvider.WithDetails("unexpected sign in status " + string(res.Status))
	}

	if local == nil || local.ExternalIdentityRef != res.User.ID {
		local, err = srv.findLocal(ctx, res.User.ID)
		if err != nil {
			return nil, err
		}
	}
	if local != nil && !local.IsActive {
		return nil, domainerrors.ErrAccountDeactivated
	}

	session, err := srv.issueSession(ctx, res.User.ID, local, input.Client)
	if err != nil {
		return nil, err
	}

	if err := srv.reconciler.RecordSignIn(ctx, res.User.ID); err != nil {
		srv.log(ctx).Warn("Sign-in not recorded locally", slog.String("external_id", res.User.ID), slog.Any("error", err))
	}

	return &usecase.AuthOutput{User: local, Session: session}, nil
}

func (srv *authService) GoogleSignIn(ctx context.Context, idToken string, client usecase.ClientInfo) (*usecase.AuthOutput, error) {
	claims, err := srv.oauth.VerifyIDToken(ctx, idToken)
	if err != nil {
		srv.log(ctx).Warn("Google ID token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage(err.Error())
	}

	res, err := srv.provider.ThirdPartySignInUp(ctx, constants.DefaultTenant, claims)
	if err != nil {
		return nil, providerError("third-party sign in", err)
	}

	local := res.LocalUser
	if local == nil {
		if local, err = srv.findLocal(ctx, res.User.ID); err != nil {
			return nil, err
		}
	}
	if local == nil {
		// Google sign-in doubles as sign-up, so an orphaned identity is recorded now
		// rather than handed a session that no request could authenticate.
		srv.log(ctx).Warn("Orphan identity on Google sign-in, recording local user", slog.String("external_id", res.User.ID))

		local, err = srv.reconciler.RegisterLocalUser(ctx, res.User, service.SignUpForm{
			Email:     claims.Email,
			FirstName: util.SanitizeText(claims.GivenName),
			LastName:  util.SanitizeText(claims.FamilyName),
		})
		if err != nil {
			return nil, err
		}
	}
	if !local.IsActive {
		return nil, domainerrors.ErrAccountDeactivated
	}

	if claims.EmailVerified && !local.IsEmailVerified {
		verified, err := srv.reconciler.CompleteEmailVerification(ctx, &service.VerifyEmailResult{
			Status: service.StatusOK,
			UserID: res.User.ID,
			Email:  local.Email,
		})
		if err != nil {
			srv.log(ctx).Warn("Could not apply provider-verified email", slog.String("external_id", res.User.ID), slog.Any("error", err))
		} else {
			local = verified
		}
	}

	session, err := srv.issueSession(ctx, res.User.ID, local, client)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthOutput{User: local, Session: session}, nil
}

func (srv *authService) Authenticate(ctx context.Context, accessToken string) (*usecase.Principal, error) {
	if accessToken == "" {
		return nil, domainerrors.ErrUnauthorized
	}

	info, err := srv.provider.VerifySession(ctx, accessToken)
	if err != nil {
		if _, ok := domainerrors.AsAppError(err); ok {
			return nil, err
		}

		return nil, domainerrors.ErrUnauthorized.WrapMessage(err.Error())
	}

	user, err := srv.userRepo.FindByExternalRef(ctx, info.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session user")
	}
	if !user.IsActive {
		return nil, domainerrors.ErrAccountDeactivated
	}

	return &usecase.Principal{User: user, Session: info}, nil
}

func (srv *authService) GetCurrentUser(ctx context.Context, externalRef string) (*entity.User, error) {
	user, err := srv.userRepo.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load current user")
	}

	return user, nil
}

func (srv *authService) VerifyEmail(ctx context.Context, token, email string) (*entity.User, error) {
	if token == "" {
		return nil, domainerrors.ErrInvalidOrExpiredToken
	}
	email = entity.NormalizeEmail(email)

	res, err := srv.provider.VerifyEmailUsingToken(ctx, constants.DefaultTenant, token)
	if err != nil {
		return nil, providerError("verify email", err)
	}

	if res.Status != service.StatusOK {
		// A consumed token can still belong to a verification whose local write was lost.
		if email != "" {
			user, reErr := srv.reconciler.ReconcileEmailVerification(ctx, email)
			if reErr == nil && user.IsEmailVerified {
				return user, nil
			}
		}

		return nil, domainerrors.ErrInvalidOrExpiredToken
	}

	return res.LocalUser, nil
}

func (srv *authService) ResendVerification(ctx context.Context, externalRef string) error {
	user, err := srv.userRepo.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return errors.Wrap(err, "failed to load user")
	}
	if user.IsEmailVerified {
		return domainerrors.ErrAlreadyVerified
	}

	res, err := srv.provider.CreateEmailVerificationToken(ctx, constants.DefaultTenant, externalRef, user.Email)
	if err != nil {
		return providerError("create verification token", err)
	}
	if res.Status == service.StatusEmailAlreadyVerified {
		if _, err := srv.reconciler.ReconcileEmailVerification(ctx, user.Email); err != nil {
			srv.log(ctx).Warn("Failed to reconcile verified email", slog.String("external_id", externalRef), slog.Any("error", err))
		}

		return domainerrors.ErrAlreadyVerified
	}
	if res.Status != service.StatusOK {
		return domainerrors.ErrIdentityProvider.WithDetails("unexpected verification token status " + string(res.Status))
	}

	if err := srv.notifier.SendVerificationEmail(ctx, user.Email, user.FullName(), verificationLink(srv.frontend, res.Token, user.Email)); err != nil {
		srv.metrics.NotificationFailed(string(service.NotificationVerifyEmail))
		srv.log(ctx).Warn("Failed to resend verification email", slog.String("external_id", externalRef), slog.Any("error", err))
	}

	return nil
}

func (srv *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = entity.NormalizeEmail(email)

	status, err := srv.provider.SendResetPasswordEmail(ctx, constants.DefaultTenant, email)
	switch {
	case err != nil:
		srv.log(ctx).Error("Password reset request failed", slog.String("email", util.MaskEmail(email)), slog.Any("error", err))
	case status != service.StatusOK:
		srv.log(ctx).Info("Password reset requested for unknown email", slog.String("email", util.MaskEmail(email)))
	}

	return nil
}

func (srv *authService) SubmitPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := srv.hasher.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	res, err := srv.provider.ResetPasswordUsingToken(ctx, constants.DefaultTenant, token, newPassword)
	if err != nil {
		return providerError("reset password", err)
	}

	switch res.Status {
	case service.StatusOK:
	case service.StatusPasswordPolicyViolated:
		return domainerrors.ErrWeakPassword
	default:
		return domainerrors.ErrInvalidOrExpiredToken
	}

	return nil
}

func (srv *authService) ChangePassword(ctx context.Context, externalRef string, input usecase.ChangePasswordInput) error {
	if input.NewPassword != input.ConfirmPassword {
		return domainerrors.ErrPasswordMismatch
	}

	identity, err := srv.passwordIdentity(ctx, externalRef, input.CurrentPassword)
	if err != nil {
		return err
	}

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}

	status, err := srv.provider.UpdateEmailOrPassword(ctx, identity.ID, nil, &input.NewPassword)
	if err != nil {
		return providerError("update password", err)
	}
	switch status {
	case service.StatusOK:
	case service.StatusPasswordPolicyViolated:
		return domainerrors.ErrWeakPassword
	case service.StatusUnknownUser:
		return domainerrors.ErrNoPasswordSet
	default:
		return domainerrors.ErrIdentityProvider.WithDetails("unexpected update status " + string(status))
	}

	return srv.reconciler.RecordPasswordChanged(ctx, externalRef)
}

func (srv *authService) DeleteAccount(ctx context.Context, externalRef, password string) error {
	user, err := srv.userRepo.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return errors.Wrap(err, "failed to load user")
	}

	if _, err := srv.passwordIdentity(ctx, externalRef, password); err != nil {
		return err
	}

	if _, err := srv.provider.RevokeAllSessionsForUser(ctx, externalRef); err != nil {
		return providerError("revoke sessions", err)
	}
	if err := srv.provider.DeleteUser(ctx, externalRef); err != nil {
		return providerError("delete identity", err)
	}

	originalEmail := user.Email
	user.SoftDelete(srv.now())
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return reconciliationFailure(srv.log(ctx), srv.metrics, opDeleteAccount, externalRef, originalEmail, err)
	}

	srv.log(ctx).Info("Account deleted", slog.String("external_id", externalRef), slog.Any("userID", user.ID))

	return nil
}

// passwordIdentity confirms password against the identity's email/password login method.
func (srv *authService) passwordIdentity(ctx context.Context, externalRef, password string) (*entity.IdentityUser, error) {
	identity, err := srv.provider.GetUser(ctx, externalRef)
	if err != nil {
		return nil, providerError("get user", err)
	}
	if identity == nil {
		return nil, domainerrors.ErrUserNotFound
	}
	if !identity.HasEmailPassword() {
		return nil, domainerrors.ErrNoPasswordSet
	}

	res, err := srv.provider.SignIn(ctx, constants.DefaultTenant, identity.Email, password)
	if err != nil {
		return nil, providerError("confirm password", err)
	}
	if res.Status != service.StatusOK || res.User == nil || res.User.ID != identity.ID {
		return nil, domainerrors.ErrIncorrectPassword
	}

	return identity, nil
}

// findLocal returns nil, nil for an orphan identity.
func (srv *authService) findLocal(ctx context.Context, externalRef string) (*entity.User, error) {
	user, err := srv.userRepo.FindByExternalRef(ctx, externalRef)
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	return user, nil
}

func (srv *authService) recordFailedSignIn(ctx context.Context, user *entity.User, now time.Time) {
	if user == nil {
		return
	}

	lockedUntil, err := srv.userRepo.RecordFailedSignIn(ctx, user.ID, now, srv.maxAttempts, srv.lockFor)
	if err != nil {
		srv.log(ctx).Warn("Failed to record failed sign-in", slog.Any("userID", user.ID), slog.Any("error", err))

		return
	}
	if lockedUntil != nil {
		srv.log(ctx).Warn("Account locked after repeated failed sign-ins",
			slog.Any("userID", user.ID), slog.Time("lockedUntil", *lockedUntil))
	}
}

// issueSession creates a provider session whose payload carries the authorisation snapshot.
func (srv *authService) issueSession(ctx context.Context, externalRef string, user *entity.User, client usecase.ClientInfo) (*entity.Session, error) {
	payload := map[string]any{
		entity.PayloadDeviceInfo: util.DeviceInfo(client.UserAgent),
		entity.PayloadIPAddress:  nonEmpty(client.IPAddress, util.Unknown),
		entity.PayloadUserAgent:  client.UserAgent,
	}

	if user != nil {
		payload[entity.PayloadLocalUserID] = user.ID.String()
		payload[entity.PayloadEmailVerified] = user.IsEmailVerified

		perms := append(entity.Permissions{}, user.Permissions...)
		if role := user.Role; role != nil {
			payload[entity.PayloadRole] = role.Name.String()
			perms = append(perms, role.Permissions...)
		}
		payload[entity.PayloadPermissions] = []string(perms.Normalize())
	}

	session, err := srv.provider.CreateNewSession(ctx, constants.DefaultTenant, externalRef, payload)
	if err != nil {
		return nil, providerError("create session", err)
	}

	return session, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
