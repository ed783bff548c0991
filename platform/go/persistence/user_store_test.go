package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func insertTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, roles)
		VALUES ($1, $2, $3)`, id, id.String()+"@itest.example", []string{"member"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestUserStoreAssignmentLifecycle(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	tenants, err := NewTenantStore(pool)
	require.NoError(t, err)
	users, err := NewUserStore(pool)
	require.NoError(t, err)

	rec, err := tenants.Insert(ctx, testRecord("itest-"+uuid.NewString()[:8]))
	require.NoError(t, err)
	defer func() { _ = tenants.Delete(ctx, rec.ID) }()

	userID := insertTestUser(t, pool)

	assigned, err := users.SetTenant(ctx, userID, &rec.ID, &rec.Identifier)
	require.NoError(t, err)
	require.NotNil(t, assigned.TenantID)
	require.Equal(t, rec.ID, *assigned.TenantID)
	require.NotNil(t, assigned.TenantIdentifier)
	require.Equal(t, rec.Identifier, *assigned.TenantIdentifier)

	tenantID, err := users.FindTenantID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, tenantID)
	require.Equal(t, rec.ID, *tenantID)

	members, err := users.ListByTenant(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, userID, members[0].ID)

	unassigned, err := users.SetTenant(ctx, userID, nil, nil)
	require.NoError(t, err)
	require.Nil(t, unassigned.TenantID)
	require.Nil(t, unassigned.TenantIdentifier)

	tenantID, err = users.FindTenantID(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, tenantID)
}

func TestFindTenantIDToleratesDeletedTenant(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	tenants, err := NewTenantStore(pool)
	require.NoError(t, err)
	users, err := NewUserStore(pool)
	require.NoError(t, err)

	rec, err := tenants.Insert(ctx, testRecord("itest-"+uuid.NewString()[:8]))
	require.NoError(t, err)

	userID := insertTestUser(t, pool)
	_, err = users.SetTenant(ctx, userID, &rec.ID, &rec.Identifier)
	require.NoError(t, err)

	// Delete the tenant while the user row still references it. The stale
	// reference must read as no assignment, not as an error.
	require.NoError(t, tenants.Delete(ctx, rec.ID))

	tenantID, err := users.FindTenantID(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, tenantID)

	members, err := users.ListByTenant(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestClearTenantDetachesAllUsers(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	tenants, err := NewTenantStore(pool)
	require.NoError(t, err)
	users, err := NewUserStore(pool)
	require.NoError(t, err)

	rec, err := tenants.Insert(ctx, testRecord("itest-"+uuid.NewString()[:8]))
	require.NoError(t, err)
	defer func() { _ = tenants.Delete(ctx, rec.ID) }()

	first := insertTestUser(t, pool)
	second := insertTestUser(t, pool)
	for _, id := range []uuid.UUID{first, second} {
		_, err := users.SetTenant(ctx, id, &rec.ID, &rec.Identifier)
		require.NoError(t, err)
	}

	cleared, err := users.ClearTenant(ctx, rec.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, cleared)

	for _, id := range []uuid.UUID{first, second} {
		tenantID, err := users.FindTenantID(ctx, id)
		require.NoError(t, err)
		require.Nil(t, tenantID)
	}
}

func TestSetTenantUnknownUser(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	users, err := NewUserStore(pool)
	require.NoError(t, err)

	_, err = users.SetTenant(context.Background(), uuid.New(), nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}
