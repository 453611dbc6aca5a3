// Package handler содержит HTTP-обработчики API бонусного реестра redeemx.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/middleware"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/service"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Transfer(ctx context.Context, caller model.Identity, req service.TransferRequest) (*model.LedgerEntry, error)
	GrantPoints(ctx context.Context, caller model.Identity, userID uuid.UUID, points int64, description string) (*model.LedgerEntry, error)
	GetBalance(ctx context.Context, caller model.Identity, partyRef string, in validation.WindowInput) (*model.Balance, error)
	ListUserTransactions(ctx context.Context, caller model.Identity, hq service.HistoryQuery) (*service.EntryPage, error)
	ListVendorTransactions(ctx context.Context, caller model.Identity, hq service.HistoryQuery) (*service.EntryPage, error)

	RequestClaim(ctx context.Context, caller model.Identity, points int64) (*model.ClaimView, error)
	ApproveClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID, req service.ApproveRequest) (*service.ApproveResult, error)
	RejectClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID) (*service.RejectResult, error)
	VendorClaimPoints(ctx context.Context, caller model.Identity) (*model.VendorPoints, error)
	ListVendorClaims(ctx context.Context, caller model.Identity, status string) ([]model.ClaimView, error)
	ListClaims(ctx context.Context, caller model.Identity, status, vendorName string) ([]model.ClaimView, error)

	PointsReport(ctx context.Context, caller model.Identity, in validation.WindowInput) (*model.ReportTotals, error)
	ListSnapshots(ctx context.Context, caller model.Identity) ([]model.DailyReportSnapshot, error)
}

// Handler реализует HTTP-обработчики API бонусного реестра.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, data any, message string) {
	h.writeJSON(w, status, envelope{Data: data, Message: message})
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{Error: message})
}

// statusFor сопоставляет вид ошибки ядра с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// failWith пишет ответ об ошибке сервиса. Ошибки хранилища и внутренние ошибки
// логируются, а клиент получает только общий текст.
func (h *Handler) failWith(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error", zap.Error(err), zap.String("uri", r.RequestURI))
		h.fail(w, status, http.StatusText(status))
		return
	}
	h.fail(w, status, err.Error())
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return identity, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

var (
	errInvalidYear   = errors.New("invalid year")
	errInvalidNumber = errors.New("invalid numeric query parameter")
)

// windowInput собирает параметры периода из строки запроса.
func windowInput(r *http.Request) (validation.WindowInput, error) {
	q := r.URL.Query()
	in := validation.WindowInput{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Day:       q.Get("day"),
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return in, model.ErrInvalidMonth
		}
		in.Month = &m
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return in, errInvalidYear
		}
		in.Year = &y
	}
	return in, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errInvalidNumber
	}
	return n, nil
}

func historyQuery(r *http.Request, filterParam string) (service.HistoryQuery, error) {
	win, err := windowInput(r)
	if err != nil {
		return service.HistoryQuery{}, err
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		return service.HistoryQuery{}, err
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		return service.HistoryQuery{}, err
	}
	return service.HistoryQuery{
		Window: win,
		Filter: strings.TrimSpace(r.URL.Query().Get(filterParam)),
		Limit:  limit,
		Offset: offset,
	}, nil
}
