package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord is one row of the identity table in the directory database. The
// tenant columns are nullable: a user may be unassigned, or may reference a
// tenant that has since been deleted.
type UserRecord struct {
	ID               uuid.UUID  `db:"id"`
	Email            string     `db:"email"`
	DisplayName      *string    `db:"display_name"`
	Roles            []string   `db:"roles"`
	TenantID         *uuid.UUID `db:"tenant_id"`
	TenantIdentifier *string    `db:"tenant_identifier"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// UserStore provides access to the users table in the directory database.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a store; assumes migrations already created the table.
func NewUserStore(pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

const userColumns = `id, email, display_name, roles, tenant_id, tenant_identifier, created_at, updated_at`

// FindTenantID returns the user's assigned tenant id, verified against the
// tenant registry: a dangling reference to a deleted tenant is reported as no
// assignment.
func (s *UserStore) FindTenantID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	query := `
		SELECT t.id
		FROM users u
		LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE u.id = $1`

	var tenantID *uuid.UUID
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tenantID, nil
}

// SetTenant assigns the user to a tenant, refreshing the denormalized
// identifier, or clears the assignment when tenantID is nil.
func (s *UserStore) SetTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID, tenantIdentifier *string) (UserRecord, error) {
	query := `
		UPDATE users
		SET tenant_id = $2, tenant_identifier = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUserRecord(s.pool.QueryRow(ctx, query, userID, tenantID, tenantIdentifier))
}

// ListByTenant returns the users currently assigned to a tenant.
func (s *UserStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY email`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []UserRecord
	for rows.Next() {
		rec, err := scanUserRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ClearTenant detaches every user assigned to the tenant; used when a tenant
// is deleted so identities do not keep routing claims to a dead database.
func (s *UserStore) ClearTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET tenant_id = NULL, tenant_identifier = NULL, updated_at = now()
		WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUserRecord(row pgx.Row) (UserRecord, error) {
	var rec UserRecord
	err := row.Scan(
		&rec.ID, &rec.Email, &rec.DisplayName, &rec.Roles,
		&rec.TenantID, &rec.TenantIdentifier, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrNotFound
		}
		return UserRecord{}, err
	}
	return rec, nil
}
