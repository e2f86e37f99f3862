package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateAdminInput is the admin provisioning form.
type CreateAdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	AdminType entity.RoleName
}

// Admin provisioning status reported until the new admin verifies their email.
const AdminStatusPendingVerification = "pending_verification"

// CreateAdminOutput describes the provisioned account.
type CreateAdminOutput struct {
	User                  *entity.User
	Status                string
	EmailVerificationSent bool
}

// AdminUsecase provisions privileged accounts. Every operation requires a superAdmin actor.
type AdminUsecase interface {
	CreateAdmin(ctx context.Context, actor *entity.User, input CreateAdminInput) (*CreateAdminOutput, error)
	ResetUserPassword(ctx context.Context, actor *entity.User, userID uuid.UUID, newPassword string) error
}
