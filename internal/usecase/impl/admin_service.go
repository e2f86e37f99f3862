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

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type adminService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	permissions usecase.PermissionUsecase
	reconciler  usecase.IdentityReconciler
	provider    service.IdentityProvider
	hasher      service.PasswordHasher
	notifier    service.NotificationSender
	mailer      *verificationMailer
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// AdminServiceParams holds dependencies for the admin provisioning service, injected by Fx.
type AdminServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	Permissions usecase.PermissionUsecase
	Reconciler  usecase.IdentityReconciler
	Provider    service.IdentityProvider
	Hasher      service.PasswordHasher
	Notifier    service.NotificationSender
	Config      *config.Config
	Metrics     *metrics.Metrics `optional:"true"`
	Logger      *slog.Logger
}

// NewAdminService is the constructor for adminService.
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	return &adminService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		permissions: params.Permissions,
		reconciler:  params.Reconciler,
		provider:    params.Provider,
		hasher:      params.Hasher,
		notifier:    params.Notifier,
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
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateAdmin provisions an admin or sub-admin. The provider sign-up runs first inside the local
// transaction callback; any later failure leaves an orphan identity that is logged for the sweep.
func (srv *adminService) CreateAdmin(ctx context.Context, actor *entity.User, input usecase.CreateAdminInput) (*usecase.CreateAdminOutput, error) {
	if err := srv.permissions.RequireRole(ctx, actor, entity.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if !input.AdminType.IsAdminType() {
		return nil, domainerrors.ErrInvalidAdminType
	}

	email := entity.NormalizeEmail(input.Email)
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	var (
		admin      *entity.User
		externalID string
		token      string
	)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()
		roleRepo := repoFactory.NewRoleRepository()

		exists, err := userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "failed to check email")
		}
		if exists {
			return domainerrors.ErrUserAlreadyExists
		}

		role, err := roleRepo.FindByName(ctx, input.AdminType)
		if errors.Is(err, domainerrors.ErrRoleNotFound) {
			role, err = srv.permissions.RoleByName(ctx, input.AdminType)
		}
		if err != nil {
			return errors.Wrap(err, "failed to resolve admin role")
		}

		res, err := srv.provider.SignUp(ctx, constants.DefaultTenant, email, input.Password)
		if err != nil {
			return providerError("admin sign up", err)
		}
		if err := signUpStatusError(res.Status); err != nil {
			return err
		}
		externalID = res.User.ID
		srv.log(ctx).Info("Admin identity created, recording local user",
			slog.String("external_id", externalID), slog.String("admin_type", input.AdminType.String()))

		admin = &entity.User{
			ExternalIdentityRef: externalID,
			Email:               email,
			RoleID:              role.ID,
			Role:                role,
			IsActive:            false,
			Profile:             entity.DefaultProfile(util.SanitizeText(input.FirstName), util.SanitizeText(input.LastName), srv.now()),
			Preferences:         entity.DefaultPreferences(),
		}

		token = srv.mailer.token(ctx, admin)

		if err := userRepo.Create(ctx, admin); err != nil {
			return errors.Wrap(err, "failed to save admin")
		}

		return nil
	})
	if err != nil {
		if externalID == "" {
			return nil, err
		}

		return nil, reconciliationFailure(srv.log(ctx), srv.metrics, opAdminCreate, externalID, email, err,
			slog.String("admin_type", input.AdminType.String()))
	}

	out := &usecase.CreateAdminOutput{
		User:   admin,
		Status: usecase.AdminStatusPendingVerification,
	}
	out.EmailVerificationSent = srv.sendActivation(ctx, admin, input.AdminType, token)

	return out, nil
}

// sendActivation mails the activation link after commit and records delivery on the user.
func (srv *adminService) sendActivation(ctx context.Context, admin *entity.User, adminType entity.RoleName, token string) bool {
	if token == "" {
		return false
	}

	link := srv.mailer.link(token, admin.Email)
	if err := srv.notifier.SendAdminActivationEmail(ctx, admin.Email, admin.FullName(), adminType.String(), link); err != nil {
		srv.metrics.NotificationFailed(string(service.NotificationAdminActivation))
		srv.log(ctx).Warn("Failed to send admin activation email", slog.Any("userID", admin.ID), slog.Any("error", err))

		return false
	}

	admin.EmailVerificationSent = true
	if err := srv.userRepo.Update(ctx, admin); err != nil {
		srv.log(ctx).Warn("Failed to record activation email delivery", slog.Any("userID", admin.ID), slog.Any("error", err))
	}

	return true
}

func (srv *adminService) ResetUserPassword(ctx context.Context, actor *entity.User, userID uuid.UUID, newPassword string) error {
	if err := srv.permissions.RequireRole(ctx, actor, entity.RoleSuperAdmin); err != nil {
		return err
	}
	if err := srv.hasher.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to load user")
	}

	status, err := srv.provider.UpdateEmailOrPassword(ctx, user.ExternalIdentityRef, nil, &newPassword)
	if err != nil {
		return providerError("admin reset password", err)
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

	srv.log(ctx).Info("Password reset by super admin", slog.Any("userID", user.ID), slog.Any("actorID", actor.ID))

	return srv.reconciler.RecordPasswordChanged(ctx, user.ExternalIdentityRef)
}
