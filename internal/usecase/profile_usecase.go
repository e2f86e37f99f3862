package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateProfileInput holds the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Avatar      *string
	DateOfBirth *time.Time
	Gender      *string
}

// UpdatePreferencesInput holds the editable preference fields. Nil fields are left unchanged.
type UpdatePreferencesInput struct {
	EmailNotifications *bool
	SMSNotifications   *bool
	PushNotifications  *bool
	Language           *string
	Currency           *string
}

// ProfileUsecase edits the local-only parts of a user record.
type ProfileUsecase interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*entity.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, input UpdatePreferencesInput) (*entity.User, error)

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error)
	// AddAddress clears the existing default first when the new address is flagged default.
	AddAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}
