package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
)

type contactPayload struct {
	CustomerID uuid.UUID `json:"customerId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Position   *string   `json:"position"`
}

func (p contactPayload) toInput() service.ContactInput {
	return service.ContactInput{
		CustomerID: p.CustomerID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		Phone:      p.Phone,
		Position:   p.Position,
	}
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	filter, ok := customerFilter(w, r)
	if !ok {
		return
	}
	contacts, err := h.svc.ListContacts(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []service.Contact{}
	}
	httpx.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	contact, err := h.svc.GetContact(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	contact, err := h.svc.CreateContact(r.Context(), payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, contact)
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	contact, err := h.svc.UpdateContact(r.Context(), id, payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteContact(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
