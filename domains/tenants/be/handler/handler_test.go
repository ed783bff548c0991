package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/handler"
	"github.com/corelinehq/coreline-crm/domains/tenants/be/repo"
	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
)

type stubProvisioner struct {
	seq int
}

func (s *stubProvisioner) CreateDatabase(ctx context.Context, identifier string) (service.ProvisionedDatabase, error) {
	s.seq++
	name := fmt.Sprintf("%s_%d_db", identifier, s.seq)
	return service.ProvisionedDatabase{Name: name, DSN: "postgres://secret-host/" + name}, nil
}

func (s *stubProvisioner) Drop(ctx context.Context, databaseName string) error {
	return nil
}

type stubUsers struct{}

func (stubUsers) SetTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID, tenantIdentifier *string) error {
	return nil
}

func (stubUsers) ClearTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubUsers) ListAssigned(ctx context.Context, tenantID uuid.UUID) ([]service.AssignedUser, error) {
	return []service.AssignedUser{
		{ID: uuid.MustParse("6fa1e9d2-0a4b-4a57-9c3e-d7b4f2a6c001"), Email: "owner@acme.test", Roles: []string{"admin"}},
	}, nil
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(repo.NewMemoryRepository(), &stubProvisioner{}, stubUsers{}, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/tenants", handler.New(svc, nil).Routes())
	return r
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestCreateTenantEndpoint(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme-corp","name":"Acme Corp"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	var view map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.Equal(t, "acme-corp", view["identifier"])
	require.Equal(t, true, view["isActive"])
	require.NotEmpty(t, view["databaseName"])

	// The connection DSN must never appear in any HTTP representation.
	require.NotContains(t, resp.Body.String(), "secret-host")
	require.NotContains(t, resp.Body.String(), "connectionDsn")
}

func TestCreateTenantInvalidIdentifier(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"Bad Slug","name":"X"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateTenantDuplicate(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestTenantLifecycleEndpoints(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = doJSON(t, h, http.MethodPost, "/api/tenants/"+created.ID+"/deactivate", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"isActive":false`)

	resp = doJSON(t, h, http.MethodPost, "/api/tenants/"+created.ID+"/activate", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"isActive":true`)

	resp = doJSON(t, h, http.MethodDelete, "/api/tenants/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(t, h, http.MethodGet, "/api/tenants/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetTenantBadID(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodGet, "/api/tenants/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListTenantsHidesDSN(t *testing.T) {
	h := newServer(t)

	doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme","name":"Acme"}`)
	doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"globex","name":"Globex"}`)

	resp := doJSON(t, h, http.MethodGet, "/api/tenants", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.NotContains(t, resp.Body.String(), "secret-host")
}

func TestListTenantUsersEndpoint(t *testing.T) {
	h := newServer(t)

	resp := doJSON(t, h, http.MethodPost, "/api/tenants", `{"identifier":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/tenants/%s/users", created["id"]), "")
	require.Equal(t, http.StatusOK, resp.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &users))
	require.Len(t, users, 1)
	require.Equal(t, "owner@acme.test", users[0]["email"])

	resp = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/tenants/%s/users", uuid.NewString()), "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}
