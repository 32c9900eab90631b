package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type LeadService interface {
	SubmitContact(ctx context.Context, in service.ContactInput) (*domain.Lead, error)
	SubmitWholesale(ctx context.Context, in service.WholesaleInput) (*domain.Lead, error)
	ListLeads(ctx context.Context, kind domain.LeadKind, page domain.Pagination) (*service.Page[*domain.Lead], error)
}

type LeadHandler struct {
	leads   LeadService
	timeout time.Duration
}

func NewLeadHandler(leads LeadService, timeout time.Duration) *LeadHandler {
	return &LeadHandler{leads: leads, timeout: timeout}
}

// POST /api/v1/leads/contact
func (h *LeadHandler) Contact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ContactInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	lead, err := h.leads.SubmitContact(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

// POST /api/v1/leads/wholesale
func (h *LeadHandler) Wholesale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.WholesaleInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	lead, err := h.leads.SubmitWholesale(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

// GET /api/v1/admin/leads?kind=&page=&limit=
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	leads, err := h.leads.ListLeads(ctx, domain.LeadKind(r.URL.Query().Get("kind")), page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, leads)
}
