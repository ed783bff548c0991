// Package handler exposes the CRM REST surface. Every route here runs behind
// tenant resolution, so requests arrive with a bound tenant database.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
	"github.com/corelinehq/coreline-crm/platform/go/logging"
	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("crm handler requires a service")
	}
	return &Handler{svc: svc}
}

// Routes mounts the CRM endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getCustomer)
			r.Put("/", h.updateCustomer)
			r.Delete("/", h.deleteCustomer)
		})
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.listContacts)
		r.Post("/", h.createContact)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getContact)
			r.Put("/", h.updateContact)
			r.Delete("/", h.deleteContact)
		})
	})

	r.Route("/deals", func(r chi.Router) {
		r.Get("/", h.listDeals)
		r.Post("/", h.createDeal)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getDeal)
			r.Put("/", h.updateDeal)
			r.Delete("/", h.deleteDeal)
		})
	})

	return r
}

// urlID parses the {id} route parameter. A malformed id is reported as a bad
// request before the service layer is touched.
func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// customerFilter reads the optional ?customerId= query parameter used by the
// contact and deal list endpoints.
func customerFilter(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("customerId")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid customerId")
		return nil, false
	}
	return &id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrNoTenantBound):
		httpx.WriteError(w, http.StatusBadRequest, "no tenant bound to request")
	default:
		logging.FromRequest(r, zap.NewNop()).Error("crm request failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
