package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sujith333333/redeemx-repo/internal/service"
)

type claimRequest struct {
	Points int64 `json:"points"`
}

// RequestClaim создаёт заявку текущего вендора на вывод баллов.
func (h *Handler) RequestClaim(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req claimRequest
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.service.RequestClaim(r.Context(), caller, req.Points)
	if err != nil {
		h.failWith(w, r, "request claim", err)
		return
	}

	h.respond(w, http.StatusCreated, claim, "claim request created successfully")
}

// GetVendorClaims возвращает заявки текущего вендора.
func (h *Handler) GetVendorClaims(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	claims, err := h.service.ListVendorClaims(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		h.failWith(w, r, "list vendor claims", err)
		return
	}

	h.respond(w, http.StatusOK, claims, "")
}

// GetClaimPoints возвращает накопленные и доступные к выводу баллы текущего вендора.
func (h *Handler) GetClaimPoints(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	points, err := h.service.VendorClaimPoints(r.Context(), caller)
	if err != nil {
		h.failWith(w, r, "vendor claim points", err)
		return
	}

	h.respond(w, http.StatusOK, points, "")
}

type approveRequest struct {
	ApprovedPoints         int64  `json:"approved_points"`
	TransactionReferenceID string `json:"transaction_reference_id"`
}

// ApproveClaim одобряет заявку полностью или частично.
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	claimID, ok := h.claimID(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.ApproveClaim(r.Context(), caller, claimID, service.ApproveRequest{
		ApprovedPoints:         req.ApprovedPoints,
		TransactionReferenceID: strings.TrimSpace(req.TransactionReferenceID),
	})
	if err != nil {
		h.failWith(w, r, "approve claim", err)
		return
	}

	h.respond(w, http.StatusOK, res, "claim approved successfully")
}

// RejectClaim отклоняет заявку.
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	claimID, ok := h.claimID(w, r)
	if !ok {
		return
	}

	res, err := h.service.RejectClaim(r.Context(), caller, claimID)
	if err != nil {
		h.failWith(w, r, "reject claim", err)
		return
	}

	h.respond(w, http.StatusOK, res, "claim rejected successfully")
}

// GetClaims возвращает заявки всех вендоров с отбором по статусу и имени вендора.
func (h *Handler) GetClaims(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	claims, err := h.service.ListClaims(r.Context(), caller, q.Get("status"), strings.TrimSpace(q.Get("vendor_name")))
	if err != nil {
		h.failWith(w, r, "list claims", err)
		return
	}

	h.respond(w, http.StatusOK, claims, "")
}

func (h *Handler) claimID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "claimID"))
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid claim id")
		return uuid.Nil, false
	}
	return id, true
}
