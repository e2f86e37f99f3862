package main

import (
	"log/slog"

	"storefront/config"
	"storefront/internal/errors"
	logs "storefront/internal/infra/log"
	"storefront/internal/infra/persistence/migrations"
	"storefront/internal/infra/persistence/postgres"

	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status|version|redo|reset]",
		Short:     "Apply the embedded SQL migrations to one of the two stores",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
		RunE:      runMigration,
	}
	migrateStore string
)

func init() {
	migrateCmd.Flags().StringVarP(&migrateStore, "store", "s", string(migrations.StoreLocal), "store to migrate: local or identity")
}

func runMigration(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		return err
	}

	store := migrations.Store(migrateStore)
	conn := cfg.Postgres
	switch store {
	case migrations.StoreLocal:
	case migrations.StoreIdentity:
		conn = cfg.IdentityPostgres
	default:
		return errors.Errorf("unknown store %q, want local or identity", migrateStore)
	}

	db, err := postgres.Connect(conn, logger, migrateStore, cfg.Env.Debug)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	defer sqlDB.Close()

	if err := migrations.Run(cmd.Context(), sqlDB, store, command); err != nil {
		return err
	}

	logger.Info("Migrations applied", slog.String("store", migrateStore), slog.String("command", command))

	return nil
}
