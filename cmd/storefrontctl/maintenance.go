package main

import (
	"context"
	"log/slog"
	"os"

	"storefront/internal/errors"
	"storefront/internal/infra/report"
	"storefront/internal/usecase"

	"github.com/spf13/cobra"
)

var (
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert missing default roles and provision the configured super admin",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Report identities without a local record and local records without an identity",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}
	reconcileReportURL string

	verifySweepCmd = &cobra.Command{
		Use:   "verify-sweep",
		Short: "Reapply provider-side email verification to unverified local users",
		Args:  cobra.NoArgs,
		RunE:  runVerifySweep,
	}

	resetSuperAdminPasswordCmd = &cobra.Command{
		Use:   "reset-superadmin-password",
		Short: "Set a new password for a super admin account",
		Args:  cobra.NoArgs,
		RunE:  runResetSuperAdminPassword,
	}
	resetEmail    string
	resetPassword string
)

func init() {
	reconcileCmd.Flags().StringVar(&reconcileReportURL, "report-url", "",
		"bucket URL or directory for the JSON report (file:///var/reports, gs://bucket)")

	resetSuperAdminPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "super admin email")
	resetSuperAdminPasswordCmd.Flags().StringVar(&resetPassword, "password", "",
		"new password (defaults to $STOREFRONT_NEW_PASSWORD)")
	_ = resetSuperAdminPasswordCmd.MarkFlagRequired("email")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	var (
		logger      *slog.Logger
		permissions usecase.PermissionUsecase
		maintenance usecase.MaintenanceUsecase
	)

	return withApp(cmd.Context(), func(ctx context.Context) error {
		roles, err := permissions.EnsureDefaultRoles(ctx)
		if err != nil {
			return err
		}
		logger.Info("Default roles ensured", slog.Int("count", len(roles)))

		return maintenance.EnsureSuperAdmin(ctx)
	}, &logger, &permissions, &maintenance)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	var (
		logger      *slog.Logger
		maintenance usecase.MaintenanceUsecase
	)

	return withApp(cmd.Context(), func(ctx context.Context) error {
		rep, err := maintenance.Reconcile(ctx)
		if err != nil {
			return err
		}

		logger.Info("Reconciliation finished",
			slog.Int("provider_users", rep.ProviderUsers),
			slog.Int("local_users", rep.LocalUsers),
			slog.Int("external_orphans", len(rep.ExternalOrphans)),
			slog.Int("local_orphans", len(rep.LocalOrphans)),
		)

		if reconcileReportURL == "" {
			return nil
		}

		key, err := report.NewWriter(logger).Write(ctx, reconcileReportURL, rep)
		if err != nil {
			return err
		}
		cmd.Printf("report written to %s/%s\n", reconcileReportURL, key)

		return nil
	}, &logger, &maintenance)
}

func runVerifySweep(cmd *cobra.Command, _ []string) error {
	var (
		logger      *slog.Logger
		maintenance usecase.MaintenanceUsecase
	)

	return withApp(cmd.Context(), func(ctx context.Context) error {
		updated, err := maintenance.VerifySweep(ctx)
		if err != nil {
			return err
		}
		logger.Info("Verification sweep finished", slog.Int("updated", updated))

		return nil
	}, &logger, &maintenance)
}

func runResetSuperAdminPassword(cmd *cobra.Command, _ []string) error {
	password := resetPassword
	if password == "" {
		password = os.Getenv("STOREFRONT_NEW_PASSWORD")
	}
	if password == "" {
		return errors.New("a new password is required (--password or STOREFRONT_NEW_PASSWORD)")
	}

	var (
		logger      *slog.Logger
		maintenance usecase.MaintenanceUsecase
	)

	return withApp(cmd.Context(), func(ctx context.Context) error {
		if err := maintenance.ResetSuperAdminPassword(ctx, resetEmail, password); err != nil {
			return err
		}
		logger.Info("Super admin password reset", slog.String("email", resetEmail))

		return nil
	}, &logger, &maintenance)
}
