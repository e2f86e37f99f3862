// Package migrations embeds the SQL schemas of both stores and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"storefront/internal/errors"

	"github.com/pressly/goose/v3"
)

// Store selects which schema set to apply.
type Store string

const (
	StoreLocal    Store = "local"
	StoreIdentity Store = "identity"

	versionTable = "schema_migrations"
)

//go:embed local/*.sql identity/*.sql
var embedded embed.FS

// Source returns the migration files for store.
func Source(store Store) (fs.FS, error) {
	switch store {
	case StoreLocal, StoreIdentity:
		return fs.Sub(embedded, string(store))
	default:
		return nil, errors.Errorf("unknown migration store %q", store)
	}
}

// Run executes a goose command ("up", "down", "status", "version", ...) against db for store.
func Run(ctx context.Context, db *sql.DB, store Store, command string, args ...string) error {
	source, err := Source(store)
	if err != nil {
		return err
	}

	goose.SetBaseFS(source)
	defer goose.SetBaseFS(nil)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose: set dialect")
	}

	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return errors.Wrapf(err, "goose %s (%s)", command, store)
	}

	return nil
}
