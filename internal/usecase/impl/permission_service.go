// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type permissionService struct {
	roleRepo repository.RoleRepository
	byID     *ttlCache[uuid.UUID, *entity.Role]
	byName   *ttlCache[entity.RoleName, *entity.Role]
	logger   *slog.Logger
}

// PermissionServiceParams holds dependencies for the permission service, injected by Fx.
type PermissionServiceParams struct {
	fx.In

	RoleRepo repository.RoleRepository
	Config   *config.Config
	Logger   *slog.Logger
}

// NewPermissionService is the constructor for permissionService.
func NewPermissionService(params PermissionServiceParams) usecase.PermissionUsecase {
	ttl := 5 * time.Minute
	if params.Config != nil && params.Config.RoleCache != nil {
		ttl = params.Config.RoleCache.TTL
	}

	return &permissionService{
		roleRepo: params.RoleRepo,
		byID:     newTTLCache[uuid.UUID, *entity.Role](ttl, time.Now),
		byName:   newTTLCache[entity.RoleName, *entity.Role](ttl, time.Now),
		logger:   params.Logger,
	}
}

func (srv *permissionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ResolvePermission never writes. The role tier is consulted only when direct permissions do not grant.
func (srv *permissionService) ResolvePermission(ctx context.Context, user *entity.User, permission string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.Permissions.Grants(permission) {
		return true, nil
	}

	role, err := srv.roleFor(ctx, user)
	if err != nil {
		if errors.Is(err, domainerrors.ErrRoleNotFound) {
			return false, nil
		}

		return false, err
	}

	return user.HasPermission(role, permission), nil
}

func (srv *permissionService) RequirePermission(ctx context.Context, user *entity.User, permission string) error {
	ok, err := srv.ResolvePermission(ctx, user, permission)
	if err != nil {
		return errors.Wrap(err, "failed to resolve permission")
	}
	if !ok {
		srv.log(ctx).Warn("Permission denied", slog.String("permission", permission), slog.Any("userID", userID(user)))

		return domainerrors.ErrForbidden.WithDetails("missing permission: " + permission)
	}

	return nil
}

func (srv *permissionService) RequireRole(ctx context.Context, user *entity.User, names ...entity.RoleName) error {
	if user == nil {
		return domainerrors.ErrUnauthorized
	}

	role, err := srv.roleFor(ctx, user)
	if err != nil && !errors.Is(err, domainerrors.ErrRoleNotFound) {
		return errors.Wrap(err, "failed to resolve role")
	}
	if role == nil || !slices.Contains(names, role.Name) {
		srv.log(ctx).Warn("Role check failed", slog.Any("required", names), slog.Any("userID", user.ID))

		return domainerrors.ErrForbidden.WithDetails("insufficient role")
	}

	return nil
}

func (srv *permissionService) RoleByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	if role, ok := srv.byName.Get(name); ok {
		return role, nil
	}

	role, err := srv.roleRepo.FindByName(ctx, name)
	if errors.Is(err, domainerrors.ErrRoleNotFound) {
		def := defaultRole(name)
		if def == nil {
			return nil, err
		}

		srv.log(ctx).Info("Creating missing default role", slog.String("role", name.String()))
		role, err = srv.roleRepo.EnsureExists(ctx, def)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve role %s", name)
	}

	srv.remember(role)

	return role, nil
}

func (srv *permissionService) EnsureDefaultRoles(ctx context.Context) ([]*entity.Role, error) {
	defaults := entity.DefaultRoles()
	roles := make([]*entity.Role, 0, len(defaults))

	for _, def := range defaults {
		role, err := srv.roleRepo.EnsureExists(ctx, def)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to ensure role %s", def.Name)
		}
		srv.remember(role)
		roles = append(roles, role)
	}

	srv.log(ctx).Info("Default roles ensured", slog.Int("count", len(roles)))

	return roles, nil
}

// roleFor prefers the preloaded role, then the cache, then the store.
func (srv *permissionService) roleFor(ctx context.Context, user *entity.User) (*entity.Role, error) {
	if user.Role != nil {
		return user.Role, nil
	}
	if user.RoleID == uuid.Nil {
		return nil, domainerrors.ErrRoleNotFound
	}
	if role, ok := srv.byID.Get(user.RoleID); ok {
		return role, nil
	}

	role, err := srv.roleRepo.FindByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	srv.remember(role)

	return role, nil
}

func (srv *permissionService) remember(role *entity.Role) {
	if role == nil {
		return
	}
	srv.byID.Set(role.ID, role)
	srv.byName.Set(role.Name, role)
}

func defaultRole(name entity.RoleName) *entity.Role {
	for _, role := range entity.DefaultRoles() {
		if role.Name == name {
			return role
		}
	}

	return nil
}

func userID(user *entity.User) any {
	if user == nil {
		return nil
	}

	return user.ID
}
