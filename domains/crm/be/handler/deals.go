package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
)

type dealPayload struct {
	CustomerID        uuid.UUID          `json:"customerId"`
	Title             string             `json:"title"`
	Description       *string            `json:"description"`
	Value             *float64           `json:"value"`
	Stage             *service.DealStage `json:"stage"`
	ExpectedCloseDate *time.Time         `json:"expectedCloseDate"`
}

func (p dealPayload) toInput() service.DealInput {
	return service.DealInput{
		CustomerID:        p.CustomerID,
		Title:             p.Title,
		Description:       p.Description,
		Value:             p.Value,
		Stage:             p.Stage,
		ExpectedCloseDate: p.ExpectedCloseDate,
	}
}

func (h *Handler) listDeals(w http.ResponseWriter, r *http.Request) {
	filter, ok := customerFilter(w, r)
	if !ok {
		return
	}
	deals, err := h.svc.ListDeals(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if deals == nil {
		deals = []service.Deal{}
	}
	httpx.WriteJSON(w, http.StatusOK, deals)
}

func (h *Handler) getDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	deal, err := h.svc.GetDeal(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deal)
}

func (h *Handler) createDeal(w http.ResponseWriter, r *http.Request) {
	var payload dealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	deal, err := h.svc.CreateDeal(r.Context(), payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, deal)
}

func (h *Handler) updateDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var payload dealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	deal, err := h.svc.UpdateDeal(r.Context(), id, payload.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deal)
}

func (h *Handler) deleteDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDeal(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
