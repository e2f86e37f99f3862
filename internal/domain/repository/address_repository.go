package repository

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// AddressRepository persists user addresses. Lookups are always scoped to the owning user.
type AddressRepository interface {
	Create(ctx context.Context, address *entity.Address) error
	Update(ctx context.Context, address *entity.Address) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	FindByID(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error)
	// ClearDefault unsets isDefault on every address of the user.
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}
