package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/middleware"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/service"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

type stubService struct {
	transferReq   service.TransferRequest
	transferEntry *model.LedgerEntry
	transferErr   error

	grantUserID uuid.UUID
	grantPoints int64
	grantErr    error

	balanceRef  string
	balanceWin  validation.WindowInput
	balanceResp *model.Balance
	balanceErr  error

	historyQuery service.HistoryQuery
	historyResp  *service.EntryPage
	historyErr   error

	claimResp *model.ClaimView
	claimErr  error

	approveID  uuid.UUID
	approveReq service.ApproveRequest
	approveErr error

	rejectErr error

	claimsStatus string
	claimsVendor string
	claimsResp   []model.ClaimView

	reportResp *model.ReportTotals

	snapshotsErr error
}

func (s *stubService) Transfer(ctx context.Context, caller model.Identity, req service.TransferRequest) (*model.LedgerEntry, error) {
	s.transferReq = req
	return s.transferEntry, s.transferErr
}

func (s *stubService) GrantPoints(ctx context.Context, caller model.Identity, userID uuid.UUID, points int64, description string) (*model.LedgerEntry, error) {
	s.grantUserID, s.grantPoints = userID, points
	return &model.LedgerEntry{ID: uuid.New(), Points: points}, s.grantErr
}

func (s *stubService) GetBalance(ctx context.Context, caller model.Identity, partyRef string, in validation.WindowInput) (*model.Balance, error) {
	s.balanceRef, s.balanceWin = partyRef, in
	return s.balanceResp, s.balanceErr
}

func (s *stubService) ListUserTransactions(ctx context.Context, caller model.Identity, hq service.HistoryQuery) (*service.EntryPage, error) {
	s.historyQuery = hq
	return s.historyResp, s.historyErr
}

func (s *stubService) ListVendorTransactions(ctx context.Context, caller model.Identity, hq service.HistoryQuery) (*service.EntryPage, error) {
	s.historyQuery = hq
	return s.historyResp, s.historyErr
}

func (s *stubService) RequestClaim(ctx context.Context, caller model.Identity, points int64) (*model.ClaimView, error) {
	return s.claimResp, s.claimErr
}

func (s *stubService) ApproveClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID, req service.ApproveRequest) (*service.ApproveResult, error) {
	s.approveID, s.approveReq = claimID, req
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &service.ApproveResult{ClaimID: claimID, ApprovedPoints: req.ApprovedPoints, TransactionReferenceID: req.TransactionReferenceID}, nil
}

func (s *stubService) RejectClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID) (*service.RejectResult, error) {
	if s.rejectErr != nil {
		return nil, s.rejectErr
	}
	return &service.RejectResult{ClaimID: claimID, UpdatedAt: time.Now()}, nil
}

func (s *stubService) VendorClaimPoints(ctx context.Context, caller model.Identity) (*model.VendorPoints, error) {
	return &model.VendorPoints{Total: 500, Pending: 200, Usable: 300}, nil
}

func (s *stubService) ListVendorClaims(ctx context.Context, caller model.Identity, status string) ([]model.ClaimView, error) {
	s.claimsStatus = status
	return s.claimsResp, nil
}

func (s *stubService) ListClaims(ctx context.Context, caller model.Identity, status, vendorName string) ([]model.ClaimView, error) {
	s.claimsStatus, s.claimsVendor = status, vendorName
	return s.claimsResp, nil
}

func (s *stubService) PointsReport(ctx context.Context, caller model.Identity, in validation.WindowInput) (*model.ReportTotals, error) {
	return s.reportResp, nil
}

func (s *stubService) ListSnapshots(ctx context.Context, caller model.Identity) ([]model.DailyReportSnapshot, error) {
	return nil, s.snapshotsErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

func serve(t *testing.T, h *Handler, role model.Role, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if role != "" {
		token, err := h.authMiddleware.IssueToken(model.Identity{UserID: uuid.New(), Role: role}, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestTransfer_Created(t *testing.T) {
	svc := &stubService{transferEntry: &model.LedgerEntry{ID: uuid.New(), Points: -50}}
	h := newTestHandler(t, svc)

	rec := serve(t, h, model.RoleEmployee, http.MethodPost, "/api/v1/user/vendor/transaction",
		transferRequest{VendorName: "cafe", Points: 50, Description: "lunch"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body)
	}
	if svc.transferReq.VendorRef != "cafe" || svc.transferReq.Points != 50 {
		t.Fatalf("unexpected transfer request %+v", svc.transferReq)
	}
	env := decodeEnvelope(t, rec)
	if _, ok := env["data"]; !ok {
		t.Fatalf("response has no data: %s", rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
}

func TestTransfer_VendorIDWins(t *testing.T) {
	svc := &stubService{transferEntry: &model.LedgerEntry{}}
	h := newTestHandler(t, svc)
	id := uuid.NewString()

	serve(t, h, model.RoleEmployee, http.MethodPost, "/api/v1/user/vendor/transaction",
		transferRequest{VendorName: "cafe", VendorID: id, Points: 5})

	if svc.transferReq.VendorRef != id {
		t.Fatalf("vendor ref = %q, want %q", svc.transferReq.VendorRef, id)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", model.ErrInvalidAmount, http.StatusBadRequest},
		{"not found", repository.ErrVendorNotFound, http.StatusNotFound},
		{"insufficient", model.ErrInsufficientPoints, http.StatusPaymentRequired},
		{"exceeds usable", &model.ExceedsUsableError{Total: 10, Usable: 5, Pending: 5}, http.StatusPaymentRequired},
		{"forbidden", model.ErrForbidden, http.StatusForbidden},
		{"finalized", repository.ErrClaimFinalized, http.StatusConflict},
		{"store", model.StoreError("insert entry", errors.New("connection reset")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{transferErr: tt.err})
			rec := serve(t, h, model.RoleEmployee, http.MethodPost, "/api/v1/user/vendor/transaction",
				transferRequest{VendorName: "cafe", Points: 5})

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			env := decodeEnvelope(t, rec)
			var msg string
			if err := json.Unmarshal(env["error"], &msg); err != nil || msg == "" {
				t.Fatalf("missing error message: %s", rec.Body)
			}
			if tt.want == http.StatusInternalServerError && msg != http.StatusText(http.StatusInternalServerError) {
				t.Fatalf("internal error leaked: %q", msg)
			}
		})
	}
}

func TestTransfer_InvalidBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/vendor/transaction", bytes.NewBufferString(`{"points":1.5}`))
	token, _ := h.authMiddleware.IssueToken(model.Identity{UserID: uuid.New(), Role: model.RoleEmployee}, time.Hour)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	h := newTestHandler(t, &stubService{balanceResp: &model.Balance{}})

	tests := []struct {
		name   string
		role   model.Role
		method string
		target string
		want   int
	}{
		{"anonymous", "", http.MethodGet, "/api/v1/user/points", http.StatusUnauthorized},
		{"vendor on user route", model.RoleVendor, http.MethodGet, "/api/v1/user/points", http.StatusForbidden},
		{"employee on admin route", model.RoleEmployee, http.MethodGet, "/api/v1/admin/claims", http.StatusForbidden},
		{"employee on vendor route", model.RoleEmployee, http.MethodGet, "/api/v1/vendor/points", http.StatusForbidden},
		{"employee own points", model.RoleEmployee, http.MethodGet, "/api/v1/user/points", http.StatusOK},
		{"vendor own points", model.RoleVendor, http.MethodGet, "/api/v1/vendor/points", http.StatusOK},
		{"unknown route", model.RoleAdmin, http.MethodGet, "/api/v1/admin/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, tt.role, tt.method, tt.target, nil)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetBalance_WindowQuery(t *testing.T) {
	svc := &stubService{balanceResp: &model.Balance{Balance: 70}}
	h := newTestHandler(t, svc)

	rec := serve(t, h, model.RoleAdmin, http.MethodGet, "/api/v1/admin/balance/vendor:cafe?month=3&year=2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.balanceRef != "vendor:cafe" {
		t.Fatalf("party ref = %q", svc.balanceRef)
	}
	if svc.balanceWin.Month == nil || *svc.balanceWin.Month != 3 || svc.balanceWin.Year == nil || *svc.balanceWin.Year != 2024 {
		t.Fatalf("unexpected window input %+v", svc.balanceWin)
	}

	rec = serve(t, h, model.RoleEmployee, http.MethodGet, "/api/v1/user/points?month=march", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetVendorTransactions_Query(t *testing.T) {
	svc := &stubService{historyResp: &service.EntryPage{Entries: []model.EntryView{}}}
	h := newTestHandler(t, svc)

	rec := serve(t, h, model.RoleVendor, http.MethodGet,
		"/api/v1/vendor/transactions?source=admin&limit=5&offset=10&start_date=2024-03-01&end_date=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	hq := svc.historyQuery
	if hq.Filter != "admin" || hq.Limit != 5 || hq.Offset != 10 || hq.Window.StartDate != "2024-03-01" || hq.Window.EndDate != "2024-03-31" {
		t.Fatalf("unexpected history query %+v", hq)
	}

	rec = serve(t, h, model.RoleVendor, http.MethodGet, "/api/v1/vendor/transactions?limit=ten", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestApproveClaim(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)
	id := uuid.New()

	rec := serve(t, h, model.RoleAdmin, http.MethodPut, "/api/v1/admin/claims/"+id.String()+"/approve",
		approveRequest{ApprovedPoints: 100, TransactionReferenceID: " TX-1 "})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if svc.approveID != id || svc.approveReq.ApprovedPoints != 100 || svc.approveReq.TransactionReferenceID != "TX-1" {
		t.Fatalf("unexpected approve call %s %+v", svc.approveID, svc.approveReq)
	}

	rec = serve(t, h, model.RoleAdmin, http.MethodPut, "/api/v1/admin/claims/not-a-uuid/approve",
		approveRequest{ApprovedPoints: 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRejectClaim_Finalized(t *testing.T) {
	h := newTestHandler(t, &stubService{rejectErr: repository.ErrClaimFinalized})

	rec := serve(t, h, model.RoleAdmin, http.MethodPut, "/api/v1/admin/claims/"+uuid.NewString()+"/reject", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestGetClaims_Filters(t *testing.T) {
	svc := &stubService{claimsResp: []model.ClaimView{}}
	h := newTestHandler(t, svc)

	rec := serve(t, h, model.RoleAdmin, http.MethodGet, "/api/v1/admin/claims?status=pending&vendor_name=cafe", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.claimsStatus != "pending" || svc.claimsVendor != "cafe" {
		t.Fatalf("unexpected filters %q %q", svc.claimsStatus, svc.claimsVendor)
	}
}

func TestGetDailyReports_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{snapshotsErr: service.ErrNoSnapshots})

	rec := serve(t, h, model.RoleAdmin, http.MethodGet, "/api/v1/admin/reports/daily", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(t, h, "", http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
