package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a directory record is not found.
var ErrNotFound = errors.New("record not found")

// TenantRecord is one row of the tenant registry in the directory database.
// ConnectionDSN is a secret: it is never logged and never serialized over HTTP.
type TenantRecord struct {
	ID                    uuid.UUID  `db:"id"`
	Identifier            string     `db:"identifier"`
	Name                  string     `db:"name"`
	Description           *string    `db:"description"`
	IsActive              bool       `db:"is_active"`
	DatabaseName          string     `db:"database_name"`
	ConnectionDSN         string     `db:"connection_dsn"`
	Domain                *string    `db:"domain"`
	LogoURL               *string    `db:"logo_url"`
	Theme                 *string    `db:"theme"`
	SubscriptionPlan      *string    `db:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// TenantUpdate carries the mutable fields of a tenant record. Nil fields are
// left untouched. Identifier, database name and connection descriptor are
// immutable after creation and deliberately absent here.
type TenantUpdate struct {
	Name                  *string
	Description           *string
	IsActive              *bool
	Domain                *string
	LogoURL               *string
	Theme                 *string
	SubscriptionPlan      *string
	SubscriptionExpiresAt *time.Time
}

const tenantColumns = `id, identifier, name, description, is_active, database_name,
	connection_dsn, domain, logo_url, theme, subscription_plan,
	subscription_expires_at, created_at, updated_at`

// TenantStore provides access to the tenants table in the directory database.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes migrations already created the table.
func NewTenantStore(pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

// Insert persists a new tenant record. The unique constraints on identifier
// and database_name close the check-then-insert race between concurrent
// creations; callers map the resulting pg error to a conflict.
func (s *TenantStore) Insert(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.ID == uuid.Nil {
		return TenantRecord{}, errors.New("tenant id is required")
	}
	if rec.Identifier == "" {
		return TenantRecord{}, errors.New("tenant identifier is required")
	}
	if rec.DatabaseName == "" {
		return TenantRecord{}, errors.New("tenant database name is required")
	}

	query := fmt.Sprintf(`
		INSERT INTO tenants (
			id, identifier, name, description, is_active, database_name,
			connection_dsn, domain, logo_url, theme, subscription_plan,
			subscription_expires_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
		RETURNING %s`, tenantColumns)

	row := s.pool.QueryRow(ctx, query,
		rec.ID, rec.Identifier, rec.Name, rec.Description, rec.IsActive,
		rec.DatabaseName, rec.ConnectionDSN, rec.Domain, rec.LogoURL, rec.Theme,
		rec.SubscriptionPlan, rec.SubscriptionExpiresAt, rec.CreatedAt,
	)
	return scanTenantRecord(row)
}

// GetByIdentifier fetches a tenant by its slug.
func (s *TenantStore) GetByIdentifier(ctx context.Context, identifier string) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE identifier = $1`, tenantColumns)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, identifier))
}

// GetByID fetches a tenant by primary key.
func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE id = $1`, tenantColumns)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, id))
}

// Update applies the non-nil fields of upd to the tenant row.
func (s *TenantStore) Update(ctx context.Context, id uuid.UUID, upd TenantUpdate) (TenantRecord, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if upd.Domain != nil {
		add("domain", *upd.Domain)
	}
	if upd.LogoURL != nil {
		add("logo_url", *upd.LogoURL)
	}
	if upd.Theme != nil {
		add("theme", *upd.Theme)
	}
	if upd.SubscriptionPlan != nil {
		add("subscription_plan", *upd.SubscriptionPlan)
	}
	if upd.SubscriptionExpiresAt != nil {
		add("subscription_expires_at", *upd.SubscriptionExpiresAt)
	}

	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE id = $1 RETURNING %s`,
		joinSet(set), tenantColumns)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, args...))
}

// Delete removes the tenant record. The caller is responsible for dropping the
// tenant database first; removal here is irreversible.
func (s *TenantStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all tenant records ordered by creation time.
func (s *TenantStore) List(ctx context.Context) ([]TenantRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants ORDER BY created_at`, tenantColumns)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TenantRecord
	for rows.Next() {
		rec, err := scanTenantRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	err := row.Scan(
		&rec.ID, &rec.Identifier, &rec.Name, &rec.Description, &rec.IsActive,
		&rec.DatabaseName, &rec.ConnectionDSN, &rec.Domain, &rec.LogoURL,
		&rec.Theme, &rec.SubscriptionPlan, &rec.SubscriptionExpiresAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}

func joinSet(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
