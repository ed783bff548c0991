// Package handler exposes the tenant administration REST surface. These routes
// live on the public allow-list and never require a bound tenant database.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
	"github.com/corelinehq/coreline-crm/platform/go/logging"
	"github.com/corelinehq/coreline-crm/platform/go/metrics"
)

type Handler struct {
	svc     *service.Service
	metrics *metrics.Metrics
}

// New constructs the handler. metrics may be nil.
func New(svc *service.Service, m *metrics.Metrics) *Handler {
	if svc == nil {
		panic("tenants handler requires a service")
	}
	return &Handler{svc: svc, metrics: m}
}

// Routes mounts the tenant administration endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/activate", h.activate)
		r.Post("/deactivate", h.deactivate)
		r.Get("/users", h.listUsers)
		r.Post("/users/{userID}", h.assignUser)
		r.Delete("/users/{userID}", h.unassignUser)
	})

	return r
}

// tenantView is the HTTP representation of a tenant. The connection DSN is
// deliberately absent.
type tenantView struct {
	ID                    uuid.UUID  `json:"id"`
	Identifier            string     `json:"identifier"`
	Name                  string     `json:"name"`
	Description           *string    `json:"description,omitempty"`
	IsActive              bool       `json:"isActive"`
	DatabaseName          string     `json:"databaseName"`
	Domain                *string    `json:"domain,omitempty"`
	LogoURL               *string    `json:"logoUrl,omitempty"`
	Theme                 *string    `json:"theme,omitempty"`
	SubscriptionPlan      *string    `json:"subscriptionPlan,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func toView(t service.Tenant) tenantView {
	return tenantView{
		ID:                    t.ID,
		Identifier:            t.Identifier,
		Name:                  t.Name,
		Description:           t.Description,
		IsActive:              t.IsActive,
		DatabaseName:          t.DatabaseName,
		Domain:                t.Domain,
		LogoURL:               t.LogoURL,
		Theme:                 t.Theme,
		SubscriptionPlan:      t.SubscriptionPlan,
		SubscriptionExpiresAt: t.SubscriptionExpiresAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func toViews(ts []service.Tenant) []tenantView {
	out := make([]tenantView, 0, len(ts))
	for _, t := range ts {
		out = append(out, toView(t))
	}
	return out
}

type createPayload struct {
	Identifier       string  `json:"identifier"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	Domain           *string `json:"domain"`
	LogoURL          *string `json:"logoUrl"`
	Theme            *string `json:"theme"`
	SubscriptionPlan *string `json:"subscriptionPlan"`
}

type updatePayload struct {
	Name                  *string    `json:"name"`
	Description           *string    `json:"description"`
	Domain                *string    `json:"domain"`
	LogoURL               *string    `json:"logoUrl"`
	Theme                 *string    `json:"theme"`
	SubscriptionPlan      *string    `json:"subscriptionPlan"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toViews(tenants))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(t))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), service.CreateInput{
		Identifier:       payload.Identifier,
		Name:             payload.Name,
		Description:      payload.Description,
		Domain:           payload.Domain,
		LogoURL:          payload.LogoURL,
		Theme:            payload.Theme,
		SubscriptionPlan: payload.SubscriptionPlan,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.metrics.IncTenantCreated()
	httpx.WriteJSON(w, http.StatusCreated, toView(t))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		Name:                  payload.Name,
		Description:           payload.Description,
		Domain:                payload.Domain,
		LogoURL:               payload.LogoURL,
		Theme:                 payload.Theme,
		SubscriptionPlan:      payload.SubscriptionPlan,
		SubscriptionExpiresAt: payload.SubscriptionExpiresAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(t))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.metrics.IncTenantDeleted()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.SetActive(r.Context(), id, active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(t))
}

type userView struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName,omitempty"`
	Roles       []string  `json:"roles"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	users, err := h.svc.ListUsers(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Roles: u.Roles})
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) assignUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.svc.AssignUser(r.Context(), userID, tenantID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unassignUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := urlID(w, r, "id"); !ok {
		return
	}
	userID, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.svc.UnassignUser(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidIdentifier):
		httpx.WriteError(w, http.StatusBadRequest, "invalid tenant identifier")
	case errors.Is(err, service.ErrDuplicateIdentifier):
		httpx.WriteError(w, http.StatusConflict, "tenant identifier already exists")
	case errors.Is(err, service.ErrDatabaseCreation), errors.Is(err, service.ErrSchemaInit):
		logging.FromRequest(r, zap.NewNop()).Error("tenant provisioning failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "tenant provisioning failed")
	default:
		logging.FromRequest(r, zap.NewNop()).Error("tenant request failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
