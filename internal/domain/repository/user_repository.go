// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// UserFilter selects a page of users.
type UserFilter struct {
	StoreStatus     *entity.StoreStatus
	IsEmailVerified *bool
	Page            int // 1-based
	Limit           int
}

// Offset returns the row offset for the page.
func (f UserFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}

	return (f.Page - 1) * f.Limit
}

// UserRepository persists local user records.
// Lookups return domainerrors.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	StoreNameExists(ctx context.Context, storeName string) (bool, error)

	// Create inserts a user. Unique-index violations map to ErrUserAlreadyExists or ErrStoreNameTaken.
	Create(ctx context.Context, user *entity.User) error
	// Update saves every column of user.
	Update(ctx context.Context, user *entity.User) error

	// TouchSignIn stamps lastLogin and activity lastSeen for the user joined by externalRef.
	// It reports false when no local user matches.
	TouchSignIn(ctx context.Context, externalRef string, at time.Time) (bool, error)
	// SetPasswordChangedAt stamps activity passwordChangedAt for the user joined by externalRef.
	SetPasswordChangedAt(ctx context.Context, externalRef string, at time.Time) (bool, error)
	// RecordFailedSignIn atomically bumps the failed attempt counter. Reaching maxAttempts resets it
	// and locks the account for lockFor. It returns the lock expiry, nil when the account is not locked.
	RecordFailedSignIn(ctx context.Context, userID uuid.UUID, at time.Time, maxAttempts int, lockFor time.Duration) (*time.Time, error)

	// List returns one page of users matching filter, newest first, and the total match count.
	List(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error)
	// ListUnverified returns local users that have not verified their email.
	ListUnverified(ctx context.Context) ([]*entity.User, error)
	// ExternalRefs returns the join keys of every non-deleted local user.
	ExternalRefs(ctx context.Context) ([]string, error)
}
