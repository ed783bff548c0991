package handler

import (
	"encoding/json"
	"net/http"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
)

type customerPayload struct {
	Name    string                  `json:"name"`
	Company *string                 `json:"company"`
	Email   *string                 `json:"email"`
	Phone   *string                 `json:"phone"`
	Address *string                 `json:"address"`
	Status  *service.CustomerStatus `json:"status"`
}

func (p customerPayload) toInput() service.CustomerInput {
	return service.CustomerInput{
		Name:    p.Name,
		Company: p.Company,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
		Status:  p.Status,
	}
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if customers == nil {
		customers = []service.Customer{}
	}
	httpx.WriteJSON(w, http.StatusOK, customers)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	customer, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	customer, err := h.svc.UpdateCustomer(r.Context(), id, payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
