// Package sqlassets embeds the SQL migrations for the directory database and
// the per-tenant CRM schema, and exposes goose-backed runners for both sets.
package sqlassets

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver for database/sql (needed by goose)
	"github.com/pressly/goose/v3"
)

//go:embed migrations/directory/*.sql
var directoryFS embed.FS

//go:embed migrations/tenantschema/*.sql
var tenantSchemaFS embed.FS

// MigrateDirectory applies all pending directory migrations (tenant registry
// and user identity tables) to the shared platform database.
func MigrateDirectory(ctx context.Context, dsn string) error {
	return up(ctx, dsn, directoryFS, "migrations/directory")
}

// MigrateTenant applies all pending CRM schema migrations to one tenant
// database. It is idempotent: a freshly created database receives the full
// schema, an existing one only the pending increments.
func MigrateTenant(ctx context.Context, dsn string) error {
	return up(ctx, dsn, tenantSchemaFS, "migrations/tenantschema")
}

// TenantSchemaVersion returns the current migration version of a tenant database.
func TenantSchemaVersion(ctx context.Context, dsn string) (int64, error) {
	sub, err := fs.Sub(tenantSchemaFS, "migrations/tenantschema")
	if err != nil {
		return 0, fmt.Errorf("sub fs: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("open db for version: %w", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return 0, fmt.Errorf("create goose provider: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// up runs pending migrations from one embedded set against dsn. A goose
// provider per call keeps concurrent tenant provisioning free of shared state.
func up(ctx context.Context, dsn string, fsys embed.FS, root string) error {
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		return fmt.Errorf("sub fs: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
