package repository

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// RoleRepository persists roles. Lookups return domainerrors.ErrRoleNotFound when nothing matches.
type RoleRepository interface {
	FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
	// EnsureExists inserts role if no role with the same name exists and returns the stored role.
	EnsureExists(ctx context.Context, role *entity.Role) (*entity.Role, error)
}
