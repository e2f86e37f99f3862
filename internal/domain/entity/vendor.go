package entity

import (
	"time"

	domainerrors "storefront/internal/domain/errors"

	"github.com/google/uuid"
)

// StoreStatus is the vendor onboarding state.
type StoreStatus string

const (
	StoreStatusPending   StoreStatus = "pending"
	StoreStatusApproved  StoreStatus = "approved"
	StoreStatusSuspended StoreStatus = "suspended"
	StoreStatusRejected  StoreStatus = "rejected"
)

// VendorDetails is the vendor sub-state embedded in a User.
type VendorDetails struct {
	StoreName             string
	StoreDescription      string
	StoreStatus           StoreStatus
	VerificationDocuments []VerificationDocument
	BankAccount           *BankAccount

	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectedBy      *uuid.UUID
	RejectionReason string
}

type VerificationDocument struct {
	Type       string
	URL        string
	UploadedAt time.Time
}

type BankAccount struct {
	BankName      string
	AccountNumber string
	AccountHolder string
	IBAN          string
}

// ApproveVendor moves a pending vendor to approved and activates the account.
// A repeat approval is a conflict and leaves the audit fields alone.
func (u *User) ApproveVendor(actorID uuid.UUID, now time.Time) error {
	if u.VendorDetails == nil {
		return domainerrors.ErrVendorNotFound
	}

	switch u.VendorDetails.StoreStatus {
	case StoreStatusPending:
	case StoreStatusApproved:
		return domainerrors.ErrVendorAlreadyApproved
	default:
		return domainerrors.ErrInvalidVendorTransition.WithDetails(
			"cannot approve a vendor in status " + string(u.VendorDetails.StoreStatus))
	}

	u.VendorDetails.StoreStatus = StoreStatusApproved
	u.VendorDetails.ApprovedAt = &now
	u.VendorDetails.ApprovedBy = &actorID
	u.IsActive = true

	return nil
}

// RejectVendor moves a pending vendor to rejected. The account stays inactive.
func (u *User) RejectVendor(actorID uuid.UUID, reason string, now time.Time) error {
	if u.VendorDetails == nil {
		return domainerrors.ErrVendorNotFound
	}

	switch u.VendorDetails.StoreStatus {
	case StoreStatusPending:
	case StoreStatusRejected:
		return domainerrors.ErrVendorAlreadyRejected
	default:
		return domainerrors.ErrInvalidVendorTransition.WithDetails(
			"cannot reject a vendor in status " + string(u.VendorDetails.StoreStatus))
	}

	u.VendorDetails.StoreStatus = StoreStatusRejected
	u.VendorDetails.RejectedAt = &now
	u.VendorDetails.RejectedBy = &actorID
	u.VendorDetails.RejectionReason = reason
	u.IsActive = false

	return nil
}
