package provisioning

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	sqlassets "github.com/corelinehq/coreline-crm/database"
	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/persistence"
	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

// MigrateFunc applies the CRM schema migrations to one tenant database.
type MigrateFunc func(ctx context.Context, dsn string) error

// VersionFunc reports the current schema version of one tenant database.
type VersionFunc func(ctx context.Context, dsn string) (int64, error)

// DBProvisioner creates, migrates, opens and drops isolated per-tenant
// databases on the platform's Postgres server.
type DBProvisioner struct {
	adminDSN    string // maintenance database connection with CREATEDB rights
	templateDSN string // platform DSN whose database name is swapped per tenant
	migrate     MigrateFunc
	version     VersionFunc
	logger      *zap.Logger
}

type DBProvisionerConfig struct {
	AdminDSN    string
	TemplateDSN string
	// Migrate overrides the schema runner; nil uses the embedded CRM migrations.
	Migrate MigrateFunc
	// Version overrides the schema version reader; nil uses goose.
	Version VersionFunc
	Logger  *zap.Logger
}

func NewDBProvisioner(cfg DBProvisionerConfig) *DBProvisioner {
	if cfg.AdminDSN == "" {
		panic("db provisioner requires admin DSN")
	}
	if cfg.TemplateDSN == "" {
		panic("db provisioner requires template DSN")
	}
	if cfg.Logger == nil {
		panic("db provisioner requires logger")
	}
	migrate := cfg.Migrate
	if migrate == nil {
		migrate = sqlassets.MigrateTenant
	}
	version := cfg.Version
	if version == nil {
		version = sqlassets.TenantSchemaVersion
	}
	return &DBProvisioner{
		adminDSN:    cfg.AdminDSN,
		templateDSN: cfg.TemplateDSN,
		migrate:     migrate,
		version:     version,
		logger:      cfg.Logger,
	}
}

// CreateDatabase provisions the isolated database for a new tenant: derives a
// timestamped database name from the identifier, creates the database through
// an administrative connection, and immediately applies the full CRM schema so
// the database is query-ready. On schema failure the database is dropped
// best-effort so a retry starts clean; the caller must not persist a tenant
// record unless this returns successfully.
func (p *DBProvisioner) CreateDatabase(ctx context.Context, identifier string) (service.ProvisionedDatabase, error) {
	dbName := tenant.BuildDatabaseName(identifier, time.Now())

	dsn, err := swapDatabase(p.templateDSN, dbName)
	if err != nil {
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: derive dsn: %v", service.ErrDatabaseCreation, err)
	}

	admin, err := pgx.Connect(ctx, p.adminDSN)
	if err != nil {
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: admin connection: %v", service.ErrDatabaseCreation, err)
	}
	defer admin.Close(ctx)

	// A stale database with the same name must abort creation rather than be
	// silently reused.
	var exists bool
	if err := admin.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists); err != nil {
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: check database: %v", service.ErrDatabaseCreation, err)
	}
	if exists {
		p.logger.Warn("tenant database already exists, aborting creation", zap.String("database", dbName))
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: database %s already exists", service.ErrDatabaseCreation, dbName)
	}

	createSQL := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := admin.Exec(ctx, createSQL); err != nil {
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: create database: %v", service.ErrDatabaseCreation, err)
	}

	if err := p.migrate(ctx, dsn); err != nil {
		p.logger.Error("tenant schema initialization failed, dropping database",
			zap.String("database", dbName), zap.Error(err))
		if dropErr := p.dropWith(ctx, admin, dbName); dropErr != nil {
			p.logger.Warn("orphan tenant database left behind", zap.String("database", dbName), zap.Error(dropErr))
		}
		return service.ProvisionedDatabase{}, fmt.Errorf("%w: %v", service.ErrSchemaInit, err)
	}

	return service.ProvisionedDatabase{Name: dbName, DSN: dsn}, nil
}

// Open dials the tenant database for the duration of one request. No
// migration check happens here: schemas are made current at creation time and
// by the startup sweep, keeping the per-request hot path to a single dial.
func (p *DBProvisioner) Open(ctx context.Context, dsn string) (tenant.DataHandle, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tenant.ErrDatabaseUnreachable, err)
	}
	return conn, nil
}

// Drop removes a tenant database permanently, disconnecting any remaining
// sessions first. Not cancellable mid-flight; callers must not assume
// partial-delete recovery.
func (p *DBProvisioner) Drop(ctx context.Context, databaseName string) error {
	admin, err := pgx.Connect(ctx, p.adminDSN)
	if err != nil {
		return fmt.Errorf("admin connection: %w", err)
	}
	defer admin.Close(ctx)
	return p.dropWith(ctx, admin, databaseName)
}

func (p *DBProvisioner) dropWith(ctx context.Context, admin *pgx.Conn, databaseName string) error {
	_, err := admin.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`, databaseName)
	if err != nil {
		return fmt.Errorf("terminate backends: %w", err)
	}

	dropSQL := fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{databaseName}.Sanitize())
	if _, err := admin.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// SweepResult summarizes a startup migration sweep across all tenants.
type SweepResult struct {
	Migrated int
	Failed   int
}

// MigrateAll applies pending schema migrations to every registered tenant
// database. Each tenant's attempt is independent: a broken tenant database is
// logged and skipped so it never blocks platform startup or the other tenants.
func (p *DBProvisioner) MigrateAll(ctx context.Context, tenants []persistence.TenantRecord) SweepResult {
	var result SweepResult
	for _, rec := range tenants {
		if err := p.migrate(ctx, rec.ConnectionDSN); err != nil {
			result.Failed++
			p.logger.Error("tenant migration sweep failed",
				zap.String("tenant", rec.Identifier),
				zap.String("database", rec.DatabaseName),
				zap.Error(err))
			continue
		}
		result.Migrated++
		fields := []zap.Field{
			zap.String("tenant", rec.Identifier),
			zap.String("database", rec.DatabaseName),
		}
		if v, err := p.version(ctx, rec.ConnectionDSN); err == nil {
			fields = append(fields, zap.Int64("schema_version", v))
		}
		p.logger.Info("tenant schema current", fields...)
	}
	return result
}

// swapDatabase substitutes the database name in a Postgres URL, keeping host,
// credentials and options intact.
func swapDatabase(templateDSN, databaseName string) (string, error) {
	u, err := url.Parse(templateDSN)
	if err != nil {
		return "", fmt.Errorf("parse template dsn: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}
	u.Path = "/" + databaseName
	return u.String(), nil
}

var _ service.DatabaseProvisioner = (*DBProvisioner)(nil)
