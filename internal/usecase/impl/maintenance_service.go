package impl

import (
	"context"
	"log/slog"
	"slices"
	"strings"
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

	"go.uber.org/fx"
)

const (
	opBootstrap = "bootstrap_super_admin"

	providerPageSize = 100
)

type maintenanceService struct {
	userRepo    repository.UserRepository
	permissions usecase.PermissionUsecase
	reconciler  usecase.IdentityReconciler
	provider    service.IdentityProvider
	bootstrap   *config.BootstrapConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// MaintenanceServiceParams holds dependencies for the maintenance service, injected by Fx.
type MaintenanceServiceParams struct {
	fx.In

	UserRepo    repository.UserRepository
	Permissions usecase.PermissionUsecase
	Reconciler  usecase.IdentityReconciler
	Provider    service.IdentityProvider
	Config      *config.Config
	Metrics     *metrics.Metrics `optional:"true"`
	Logger      *slog.Logger
}

// NewMaintenanceService is the constructor for maintenanceService.
func NewMaintenanceService(params MaintenanceServiceParams) usecase.MaintenanceUsecase {
	srv := &maintenanceService{
		userRepo:    params.UserRepo,
		permissions: params.Permissions,
		reconciler:  params.Reconciler,
		provider:    params.Provider,
		bootstrap:   &config.BootstrapConfig{},
		metrics:     params.Metrics,
		logger:      params.Logger,
		now:         time.Now,
	}
	if params.Config != nil && params.Config.Bootstrap != nil {
		srv.bootstrap = params.Config.Bootstrap
	}

	return srv
}

func (srv *maintenanceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *maintenanceService) Reconcile(ctx context.Context) (*usecase.ReconcileReport, error) {
	identities := make(map[string]string)

	cursor := ""
	for {
		users, next, err := srv.provider.ListUsers(ctx, cursor, providerPageSize)
		if err != nil {
			return nil, providerError("list identities", err)
		}
		for _, u := range users {
			identities[u.ID] = u.Email
		}
		if next == "" {
			break
		}
		cursor = next
	}

	refs, err := srv.userRepo.ExternalRefs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list local identity refs")
	}

	report := &usecase.ReconcileReport{
		GeneratedAt:     srv.now().UTC(),
		ProviderUsers:   len(identities),
		LocalUsers:      len(refs),
		ExternalOrphans: []usecase.OrphanRecord{},
		LocalOrphans:    []usecase.OrphanRecord{},
	}

	local := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		local[ref] = struct{}{}
		if _, ok := identities[ref]; ok {
			continue
		}

		orphan := usecase.OrphanRecord{ExternalID: ref}
		if user, err := srv.userRepo.FindByExternalRef(ctx, ref); err == nil {
			orphan.Email = user.Email
			orphan.LocalID = user.ID.String()
		}
		report.LocalOrphans = append(report.LocalOrphans, orphan)
	}

	for id, email := range identities {
		if _, ok := local[id]; !ok {
			report.ExternalOrphans = append(report.ExternalOrphans, usecase.OrphanRecord{ExternalID: id, Email: email})
		}
	}
	sortOrphans(report.ExternalOrphans)
	sortOrphans(report.LocalOrphans)

	srv.log(ctx).Info("Reconciliation sweep finished",
		slog.Int("provider_users", report.ProviderUsers),
		slog.Int("local_users", report.LocalUsers),
		slog.Int("external_orphans", len(report.ExternalOrphans)),
		slog.Int("local_orphans", len(report.LocalOrphans)))

	return report, nil
}

func (srv *maintenanceService) VerifySweep(ctx context.Context) (int, error) {
	users, err := srv.userRepo.ListUnverified(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list unverified users")
	}

	fixed := 0
	for _, user := range users {
		verified, err := srv.provider.IsEmailVerified(ctx, user.ExternalIdentityRef, user.Email)
		if err != nil {
			srv.log(ctx).Warn("Skipping user, provider check failed",
				slog.String("external_id", user.ExternalIdentityRef), slog.Any("error", err))

			continue
		}
		if !verified {
			continue
		}

		if _, err := srv.reconciler.CompleteEmailVerification(ctx, &service.VerifyEmailResult{
			Status: service.StatusOK,
			UserID: user.ExternalIdentityRef,
			Email:  user.Email,
		}); err != nil {
			srv.log(ctx).Error("Failed to apply provider verification",
				slog.String("external_id", user.ExternalIdentityRef), slog.Any("error", err))

			continue
		}
		fixed++
	}

	srv.log(ctx).Info("Verification sweep finished", slog.Int("checked", len(users)), slog.Int("fixed", fixed))

	return fixed, nil
}

// EnsureSuperAdmin is a no-op without bootstrap credentials or when the email is already registered locally.
func (srv *maintenanceService) EnsureSuperAdmin(ctx context.Context) error {
	email := entity.NormalizeEmail(srv.bootstrap.SuperAdminEmail)
	if email == "" || srv.bootstrap.SuperAdminPassword == "" {
		return nil
	}

	if _, err := srv.permissions.EnsureDefaultRoles(ctx); err != nil {
		return err
	}

	exists, err := srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return errors.Wrap(err, "failed to check super admin")
	}
	if exists {
		return nil
	}

	identity, err := srv.superAdminIdentity(ctx, email)
	if err != nil {
		return err
	}

	role, err := srv.permissions.RoleByName(ctx, entity.RoleSuperAdmin)
	if err != nil {
		return err
	}

	now := srv.now()
	admin := &entity.User{
		ExternalIdentityRef: identity.ID,
		Email:               email,
		RoleID:              role.ID,
		Role:                role,
		IsActive:            true,
		IsEmailVerified:     true,
		Profile:             entity.DefaultProfile("Super", "Admin", now),
		Preferences:         entity.DefaultPreferences(),
	}
	admin.ActivityLog.EmailVerifiedAt = &now

	if err := srv.userRepo.Create(ctx, admin); err != nil {
		return reconciliationFailure(srv.log(ctx), srv.metrics, opBootstrap, identity.ID, email, err)
	}

	srv.log(ctx).Info("Super admin provisioned", slog.String("external_id", identity.ID))

	return nil
}

// superAdminIdentity signs the bootstrap identity up, or signs in when a previous run already created it.
func (srv *maintenanceService) superAdminIdentity(ctx context.Context, email string) (*entity.IdentityUser, error) {
	res, err := srv.provider.SignUp(ctx, constants.DefaultTenant, email, srv.bootstrap.SuperAdminPassword)
	if err != nil {
		return nil, providerError("bootstrap sign up", err)
	}
	if res.Status == service.StatusOK {
		return res.User, nil
	}
	if res.Status != service.StatusEmailAlreadyExists {
		return nil, signUpStatusError(res.Status)
	}

	in, err := srv.provider.SignIn(ctx, constants.DefaultTenant, email, srv.bootstrap.SuperAdminPassword)
	if err != nil {
		return nil, providerError("bootstrap sign in", err)
	}
	if in.Status != service.StatusOK {
		return nil, domainerrors.ErrInvalidCredentials.WithDetails("bootstrap identity exists with a different password")
	}

	return in.User, nil
}

func (srv *maintenanceService) ResetSuperAdminPassword(ctx context.Context, email, newPassword string) error {
	user, err := srv.userRepo.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return errors.Wrap(err, "failed to load super admin")
	}
	if err := srv.permissions.RequireRole(ctx, user, entity.RoleSuperAdmin); err != nil {
		return err
	}

	status, err := srv.provider.UpdateEmailOrPassword(ctx, user.ExternalIdentityRef, nil, &newPassword)
	if err != nil {
		return providerError("reset super admin password", err)
	}
	switch status {
	case service.StatusOK:
	case service.StatusPasswordPolicyViolated:
		return domainerrors.ErrWeakPassword
	default:
		return domainerrors.ErrIdentityProvider.WithDetails("unexpected update status " + string(status))
	}

	return srv.reconciler.RecordPasswordChanged(ctx, user.ExternalIdentityRef)
}

func sortOrphans(orphans []usecase.OrphanRecord) {
	slices.SortFunc(orphans, func(a, b usecase.OrphanRecord) int {
		return strings.Compare(a.ExternalID, b.ExternalID)
	})
}
