package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterVendorInput is the full onboarding form.
type RegisterVendorInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	Phone            string
	StoreName        string
	StoreDescription string
	BankAccount      *entity.BankAccount
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// VendorPage is one page of vendors.
type VendorPage struct {
	Vendors    []*entity.User
	Pagination Pagination
}

// VendorUsecase drives vendor onboarding. Decisions require approve_vendor.
type VendorUsecase interface {
	// Register validates every field before creating the identity and the pending local record.
	Register(ctx context.Context, input RegisterVendorInput) (*entity.User, error)
	Approve(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error)
	Reject(ctx context.Context, actor *entity.User, vendorID uuid.UUID, reason string) (*entity.User, error)
	// ListPending returns email-verified pending vendors, newest first.
	ListPending(ctx context.Context, actor *entity.User, page, limit int) (*VendorPage, error)
	Get(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error)
}
