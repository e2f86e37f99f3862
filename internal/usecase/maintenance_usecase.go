package usecase

import (
	"context"
	"time"
)

// OrphanRecord is one side of a divergence between the two stores.
type OrphanRecord struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	LocalID    string `json:"localId,omitempty"`
}

// ReconcileReport summarises a reconciliation sweep.
type ReconcileReport struct {
	GeneratedAt     time.Time      `json:"generatedAt"`
	ProviderUsers   int            `json:"providerUsers"`
	LocalUsers      int            `json:"localUsers"`
	ExternalOrphans []OrphanRecord `json:"externalOrphans"` // identity without a local record
	LocalOrphans    []OrphanRecord `json:"localOrphans"`    // local record whose identity is gone
}

// MaintenanceUsecase backs the operational CLI.
type MaintenanceUsecase interface {
	// Reconcile joins every provider identity against the local store.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
	// VerifySweep reapplies provider-side verification to unverified local users and returns how many changed.
	VerifySweep(ctx context.Context) (int, error)
	// EnsureSuperAdmin provisions the configured super admin if it does not exist.
	EnsureSuperAdmin(ctx context.Context) error
	ResetSuperAdminPassword(ctx context.Context, email, newPassword string) error
}
