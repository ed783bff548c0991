package persistence

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	sqlassets "github.com/corelinehq/coreline-crm/database"
)

func mustTestPool(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	dsn, ok := os.LookupEnv("TEST_DATABASE_URL")
	if !ok {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	require.NoError(t, sqlassets.MigrateDirectory(ctx, dsn))

	pool, err := NewPool(ctx, PoolConfig{ConnString: dsn})
	require.NoError(t, err)
	return pool, func() { ClosePool(pool) }
}

func testRecord(identifier string) TenantRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return TenantRecord{
		ID:            uuid.New(),
		Identifier:    identifier,
		Name:          "Test " + identifier,
		IsActive:      true,
		DatabaseName:  fmt.Sprintf("%s_%s_db", identifier, now.Format("20060102150405")),
		ConnectionDSN: "postgres://localhost/" + identifier,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTenantStoreLifecycle(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	store, err := NewTenantStore(pool)
	require.NoError(t, err)

	identifier := "itest-" + uuid.NewString()[:8]
	rec := testRecord(identifier)

	inserted, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	defer func() { _ = store.Delete(ctx, inserted.ID) }()
	require.Equal(t, rec.Identifier, inserted.Identifier)
	require.True(t, inserted.IsActive)

	fetched, err := store.GetByIdentifier(ctx, identifier)
	require.NoError(t, err)
	require.Equal(t, inserted.ID, fetched.ID)
	require.Equal(t, rec.ConnectionDSN, fetched.ConnectionDSN)

	inactive := false
	name := "Renamed"
	updated, err := store.Update(ctx, inserted.ID, TenantUpdate{IsActive: &inactive, Name: &name})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "Renamed", updated.Name)

	require.NoError(t, store.Delete(ctx, inserted.ID))
	_, err = store.GetByID(ctx, inserted.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTenantStoreUniqueConstraints(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	store, err := NewTenantStore(pool)
	require.NoError(t, err)

	identifier := "itest-" + uuid.NewString()[:8]
	first := testRecord(identifier)
	inserted, err := store.Insert(ctx, first)
	require.NoError(t, err)
	defer func() { _ = store.Delete(ctx, inserted.ID) }()

	dup := testRecord(identifier)
	dup.DatabaseName = first.DatabaseName + "_other"
	_, err = store.Insert(ctx, dup)
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23505", pgErr.Code)
	require.Equal(t, "tenants_identifier_key", pgErr.ConstraintName)
}
