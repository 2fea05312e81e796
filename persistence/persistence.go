package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	auth "github.com/goliatone/go-ems-auth"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open
type Options struct {
	Driver string
	DSN    string
	// Debug logs every query
	Debug  bool
	Logger *slog.Logger
}

// Open connects to the configured database and returns a bun handle with
// the matching dialect
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "persistence")
	}

	var db *bun.DB
	switch opts.Driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, opts.DSN)
		if err != nil {
			return nil, oops.Code("DB_OPEN_FAILED").With("driver", DriverSQLite).Wrap(err)
		}
		// a single connection keeps in-memory databases shared and
		// serializes SQLite writers
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())

	case DriverPostgres:
		cfg, err := pgx.ParseConfig(opts.DSN)
		if err != nil {
			return nil, oops.Code("DB_OPEN_FAILED").With("driver", DriverPostgres).Wrapf(err, "invalid dsn")
		}
		db = bun.NewDB(stdlib.OpenDB(*cfg), pgdialect.New())

	default:
		return nil, oops.Code("DB_UNSUPPORTED_DRIVER").
			With("driver", opts.Driver).
			Errorf("unsupported driver %q", opts.Driver)
	}

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_PING_FAILED").With("driver", opts.Driver).Wrap(err)
	}

	logger.Info("database connected", "driver", db.Dialect().Name().String())
	return db, nil
}

// Migrate creates the schema when missing
func Migrate(ctx context.Context, db *bun.DB) error {
	if db.Dialect().Name().String() == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return oops.Code("DB_PRAGMA_FAILED").Wrap(err)
		}
	}
	return auth.CreateSchema(ctx, db)
}
