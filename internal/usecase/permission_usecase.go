package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// PermissionUsecase resolves permissions against direct grants and the cached role set.
type PermissionUsecase interface {
	// ResolvePermission checks the user's direct permissions, then the role's. "*" in either tier grants everything.
	ResolvePermission(ctx context.Context, user *entity.User, permission string) (bool, error)
	// RequirePermission returns domainerrors.ErrForbidden when ResolvePermission is false.
	RequirePermission(ctx context.Context, user *entity.User, permission string) error
	// RequireRole returns domainerrors.ErrForbidden unless the user's role is one of names.
	RequireRole(ctx context.Context, user *entity.User, names ...entity.RoleName) error
	// RoleByName returns the named role, creating a default role on first use.
	RoleByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
	// EnsureDefaultRoles inserts the bootstrap roles that do not exist yet.
	EnsureDefaultRoles(ctx context.Context) ([]*entity.Role, error)
}
