package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/gormlog"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond

	storeUsers    = "users"
	storeIdentity = "identity"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the local user record store.
func New(params Params) (*gorm.DB, error) {
	return Open(params.Lifecycle, params.Config.Postgres, params.Logger, storeUsers, params.Config.Env.Debug)
}

// NewIdentity opens the identity provider's store. Bound parameters are redacted from its SQL logs.
func NewIdentity(params Params) (*gorm.DB, error) {
	return Open(params.Lifecycle, params.Config.IdentityPostgres, params.Logger, storeIdentity, params.Config.Env.Debug,
		gormlog.WithRedactedParams())
}

// Connect opens conn with the slog gorm logger installed. The caller owns closing it.
// Additional logger options apply to stores that need them, such as parameter redaction.
func Connect(conn *pgLib.DBConn, logger *slog.Logger, store string, debug bool, opts ...gormlog.Option) (*gorm.DB, error) {
	if conn == nil {
		return nil, errors.Errorf("postgres connection for %s store is not configured", store)
	}

	db, err := pgLib.New(conn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create PostgreSQL client for %s store", store)
	}

	return db.Session(&gorm.Session{
		// Multi-step atomic work goes through TransactionManager.Execute.
		SkipDefaultTransaction: true,
		Logger:                 gormlog.New(logger, store, debug, opts...),
	}), nil
}

// Open connects to conn and registers ping/close hooks on lc.
func Open(lc fx.Lifecycle, conn *pgLib.DBConn, logger *slog.Logger, store string, debug bool, opts ...gormlog.Option) (*gorm.DB, error) {
	db, err := Connect(conn, logger, store, debug, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	storeLogger := logger.With(slog.String("store", store))

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrapf(err, "failed to ping PostgreSQL %s store", store)
			}

			go monitorDBPool(monitorCtx, storeLogger, sqlDB, dbPoolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()

			return sqlDB.Close()
		},
	})

	return db, nil
}

func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			waitDelta := cur.WaitCount - prev.WaitCount
			waitDurationDelta := cur.WaitDuration - prev.WaitDuration

			if waitDelta > 0 {
				attrs := []slog.Attr{
					slog.Int64("waitCountDelta", waitDelta),
					slog.Duration("waitDurationDelta", waitDurationDelta),
					slog.Duration("avgWait", waitDurationDelta/time.Duration(waitDelta)),
					slog.Int("maxOpenConns", cur.MaxOpenConnections),
					slog.Int("openConns", cur.OpenConnections),
					slog.Int("inUseConns", cur.InUse),
				}
				if waitDurationDelta >= dbPoolWarnDurationThreshold {
					logger.LogAttrs(ctx, slog.LevelWarn, "Postgres pool wait detected", attrs...)
				} else {
					logger.LogAttrs(ctx, slog.LevelDebug, "Postgres pool wait observed", attrs...)
				}
			}

			prev = cur
		}
	}
}
