package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/repo"
	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

// fakeProvisioner records created and dropped databases without touching a
// real server. Failure modes are injected per call site.
type fakeProvisioner struct {
	mu        sync.Mutex
	created   []string
	dropped   []string
	createErr error
	dropErr   error
	seq       int
}

func (f *fakeProvisioner) CreateDatabase(ctx context.Context, identifier string) (service.ProvisionedDatabase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return service.ProvisionedDatabase{}, f.createErr
	}
	f.seq++
	name := fmt.Sprintf("%s_%014d_db", identifier, f.seq)
	f.created = append(f.created, name)
	return service.ProvisionedDatabase{Name: name, DSN: "postgres://localhost/" + name}, nil
}

func (f *fakeProvisioner) Drop(ctx context.Context, databaseName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropErr != nil {
		return f.dropErr
	}
	f.dropped = append(f.dropped, databaseName)
	return nil
}

type fakeUserDirectory struct {
	mu       sync.Mutex
	assigned map[uuid.UUID]*uuid.UUID
	cleared  []uuid.UUID
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{assigned: make(map[uuid.UUID]*uuid.UUID)}
}

func (f *fakeUserDirectory) SetTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID, tenantIdentifier *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned[userID] = tenantID
	return nil
}

func (f *fakeUserDirectory) ClearTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, tenantID)
	return 0, nil
}

func (f *fakeUserDirectory) ListAssigned(ctx context.Context, tenantID uuid.UUID) ([]service.AssignedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []service.AssignedUser
	for userID, assigned := range f.assigned {
		if assigned != nil && *assigned == tenantID {
			users = append(users, service.AssignedUser{ID: userID, Email: userID.String() + "@example.com"})
		}
	}
	return users, nil
}

func newService(t *testing.T) (*service.Service, *repo.MemoryRepository, *fakeProvisioner, *fakeUserDirectory) {
	t.Helper()
	r := repo.NewMemoryRepository()
	p := &fakeProvisioner{}
	u := newFakeUserDirectory()
	return service.New(r, p, u, zap.NewNop()), r, p, u
}

func TestCreateTenant(t *testing.T) {
	svc, _, prov, _ := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{
		Identifier: "acme-corp",
		Name:       "Acme Corp",
	})
	require.NoError(t, err)
	require.Equal(t, "acme-corp", created.Identifier)
	require.True(t, created.IsActive)
	require.NotEmpty(t, created.DatabaseName)
	require.NotEmpty(t, created.ConnectionDSN)
	require.Len(t, prov.created, 1)
	require.Empty(t, prov.dropped)
}

func TestCreateRejectsInvalidIdentifier(t *testing.T) {
	svc, _, prov, _ := newService(t)

	for _, identifier := range []string{"", "A", "Acme Corp", "-bad", "under_score"} {
		_, err := svc.Create(context.Background(), service.CreateInput{Identifier: identifier, Name: "X"})
		require.ErrorIs(t, err, service.ErrInvalidIdentifier)
	}
	require.Empty(t, prov.created, "no database may be provisioned for invalid input")
}

func TestCreateRejectsMissingName(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme"})
	require.ErrorIs(t, err, service.ErrInvalidIdentifier)
}

func TestCreateDuplicateIdentifier(t *testing.T) {
	svc, _, prov, _ := newService(t)

	_, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme Again"})
	require.ErrorIs(t, err, service.ErrDuplicateIdentifier)
	require.Len(t, prov.created, 1, "second create must fail before provisioning")
}

func TestCreateProvisioningFailureLeavesNoRecord(t *testing.T) {
	svc, memRepo, prov, _ := newService(t)
	prov.createErr = fmt.Errorf("%w: disk full", service.ErrSchemaInit)

	_, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.ErrorIs(t, err, service.ErrSchemaInit)

	_, err = memRepo.GetByIdentifier(context.Background(), "acme")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestRepositoryEnforcesIdentifierUniqueness(t *testing.T) {
	_, memRepo, _, _ := newService(t)

	_, err := memRepo.Insert(context.Background(), service.Tenant{ID: uuid.New(), Identifier: "acme", DatabaseName: "acme_1_db"})
	require.NoError(t, err)

	_, err = memRepo.Insert(context.Background(), service.Tenant{ID: uuid.New(), Identifier: "acme", DatabaseName: "acme_2_db"})
	require.ErrorIs(t, err, service.ErrDuplicateIdentifier)

	_, err = memRepo.Insert(context.Background(), service.Tenant{ID: uuid.New(), Identifier: "other", DatabaseName: "acme_1_db"})
	require.ErrorIs(t, err, service.ErrDuplicateIdentifier)
}

func TestConcurrentCreateSameIdentifierOneWinner(t *testing.T) {
	svc, memRepo, prov, _ := newService(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), service.CreateInput{
				Identifier: "contested",
				Name:       "Contested",
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, service.ErrDuplicateIdentifier)
		}
	}
	require.Equal(t, 1, winners)

	survivors, err := memRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, survivors, 1)

	// Every losing attempt that reached provisioning must have dropped its
	// orphan database again.
	prov.mu.Lock()
	defer prov.mu.Unlock()
	require.Equal(t, len(prov.created)-1, len(prov.dropped))
}

func TestSetActive(t *testing.T) {
	svc, _, _, _ := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	updated, err := svc.SetActive(context.Background(), created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	_, err = svc.Resolve(context.Background(), "acme")
	require.ErrorIs(t, err, tenant.ErrInactive)

	updated, err = svc.SetActive(context.Background(), created.ID, true)
	require.NoError(t, err)
	require.True(t, updated.IsActive)

	_, err = svc.Resolve(context.Background(), "acme")
	require.NoError(t, err)
}

func TestDeleteTenant(t *testing.T) {
	svc, _, prov, users := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.Equal(t, []string{created.DatabaseName}, prov.dropped)
	require.Equal(t, []uuid.UUID{created.ID}, users.cleared)

	_, err = svc.Resolve(context.Background(), "acme")
	require.ErrorIs(t, err, tenant.ErrNotFound)
}

func TestDeleteUnknownTenant(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteAbortsWhenDropFails(t *testing.T) {
	svc, memRepo, prov, _ := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	prov.dropErr = errors.New("server unreachable")
	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)

	// The record survives so the delete can be retried.
	_, err = memRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
}

func TestResolveUnknown(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, tenant.ErrNotFound)
}

func TestResolveReturnsDescriptor(t *testing.T) {
	svc, _, _, _ := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	desc, err := svc.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, created.ID, desc.TenantID)
	require.Equal(t, "acme", desc.Identifier)
	require.Equal(t, created.ConnectionDSN, desc.ConnectionDSN)
}

func TestAssignAndUnassignUser(t *testing.T) {
	svc, _, _, users := newService(t)

	created, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, svc.AssignUser(context.Background(), userID, created.ID))
	require.NotNil(t, users.assigned[userID])
	require.Equal(t, created.ID, *users.assigned[userID])

	require.NoError(t, svc.UnassignUser(context.Background(), userID))
	require.Nil(t, users.assigned[userID])
}

func TestAssignUserToUnknownTenant(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.AssignUser(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestListUsersReturnsAssignedOnly(t *testing.T) {
	svc, _, _, _ := newService(t)

	acme, err := svc.Create(context.Background(), service.CreateInput{Identifier: "acme", Name: "Acme"})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), service.CreateInput{Identifier: "globex", Name: "Globex"})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, svc.AssignUser(context.Background(), userID, acme.ID))
	require.NoError(t, svc.AssignUser(context.Background(), uuid.New(), other.ID))

	users, err := svc.ListUsers(context.Background(), acme.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, userID, users[0].ID)
}

func TestListUsersUnknownTenant(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.ListUsers(context.Background(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}
