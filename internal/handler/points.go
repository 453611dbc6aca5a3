package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sujith333333/redeemx-repo/internal/service"
)

type transferRequest struct {
	VendorName  string `json:"vendor_name"`
	VendorID    string `json:"vendor_id"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

// Transfer переводит баллы текущего сотрудника вендору.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref := strings.TrimSpace(req.VendorID)
	if ref == "" {
		ref = strings.TrimSpace(req.VendorName)
	}

	entry, err := h.service.Transfer(r.Context(), caller, service.TransferRequest{
		VendorRef:   ref,
		Points:      req.Points,
		Description: req.Description,
	})
	if err != nil {
		h.failWith(w, r, "transfer", err)
		return
	}

	h.respond(w, http.StatusCreated, entry, "points transferred successfully")
}

type grantRequest struct {
	UserID      string `json:"user_id"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

// GrantPoints начисляет или списывает баллы сотрудника от имени администратора.
func (h *Handler) GrantPoints(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req grantRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid user id")
		return
	}

	entry, err := h.service.GrantPoints(r.Context(), caller, userID, req.Points, req.Description)
	if err != nil {
		h.failWith(w, r, "grant points", err)
		return
	}

	h.respond(w, http.StatusCreated, entry, "points granted successfully")
}

// GetOwnBalance возвращает баланс текущего сотрудника или вендора.
func (h *Handler) GetOwnBalance(w http.ResponseWriter, r *http.Request) {
	h.getBalance(w, r, "")
}

// GetPartyBalance возвращает баланс стороны, указанной в пути.
func (h *Handler) GetPartyBalance(w http.ResponseWriter, r *http.Request) {
	h.getBalance(w, r, chi.URLParam(r, "partyRef"))
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request, partyRef string) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	win, err := windowInput(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.service.GetBalance(r.Context(), caller, partyRef, win)
	if err != nil {
		h.failWith(w, r, "get balance", err)
		return
	}

	h.respond(w, http.StatusOK, balance, "")
}

// GetUserTransactions возвращает историю операций текущего сотрудника.
func (h *Handler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	hq, err := historyQuery(r, "kind")
	if err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListUserTransactions(r.Context(), caller, hq)
	if err != nil {
		h.failWith(w, r, "list user transactions", err)
		return
	}

	h.respond(w, http.StatusOK, page, "")
}

// GetVendorTransactions возвращает историю операций текущего вендора.
func (h *Handler) GetVendorTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	hq, err := historyQuery(r, "source")
	if err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListVendorTransactions(r.Context(), caller, hq)
	if err != nil {
		h.failWith(w, r, "list vendor transactions", err)
		return
	}

	h.respond(w, http.StatusOK, page, "")
}
