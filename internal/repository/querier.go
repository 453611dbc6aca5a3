package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

// Querier описывает операции над хранилищем, доступные как в транзакции, так и вне её.
// Методы Lock* и GetClaimForUpdate берут блокировку строки и имеют смысл только внутри InTx.
type Querier interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	LockUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListEmployeesByEmpID(ctx context.Context, empIDs []string) ([]model.User, error)

	CreateVendor(ctx context.Context, v *model.Vendor) error
	GetVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	GetVendorByUser(ctx context.Context, userID uuid.UUID) (*model.Vendor, error)
	FindVendor(ctx context.Context, ref string) (*model.Vendor, error)
	LockVendor(ctx context.Context, id uuid.UUID) error

	InsertEntry(ctx context.Context, e *model.LedgerEntry) error
	LedgerTotals(ctx context.Context, p model.Party, w model.Window) (model.LedgerTotals, error)
	ListEntries(ctx context.Context, f model.EntryFilter) ([]model.EntryView, int64, error)
	ReportTotals(ctx context.Context, w model.Window) (ReportSums, error)
	SnapshotTotals(ctx context.Context) (model.DailyReportSnapshot, error)

	InsertClaim(ctx context.Context, c *model.Claim) error
	GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	UpdateClaim(ctx context.Context, c *model.Claim) error
	PendingClaimPoints(ctx context.Context, vendorID uuid.UUID) (int64, error)
	ListClaims(ctx context.Context, f model.ClaimFilter) ([]model.ClaimView, error)

	InsertSnapshot(ctx context.Context, s *model.DailyReportSnapshot) error
	ListSnapshots(ctx context.Context) ([]model.DailyReportSnapshot, error)

	MarkAccrualRun(ctx context.Context, day time.Time, granted int) (bool, error)
}

// ReportSums содержит сырые суммы реестра за окно, из которых строится отчёт.
type ReportSums struct {
	// IssuedToEmployees: сумма записей без вендора (начисления и списания администратором).
	IssuedToEmployees int64
	// EmployeeNet: сумма всех записей сотрудников.
	EmployeeNet int64
	// SentToVendors: модуль суммы переводов сотрудник-вендор.
	SentToVendors int64
	// PaidToVendors: сумма выплат вендорам по одобренным заявкам.
	PaidToVendors int64
}

// dbtx описывает общее подмножество *pgxpool.Pool и pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

var _ Querier = (*queries)(nil)

// where собирает условие WHERE с позиционными параметрами.
type where struct {
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) window(column string, win model.Window) {
	if !win.From.IsZero() {
		w.add(column + " >= " + w.arg(win.From))
	}
	if !win.To.IsZero() {
		w.add(column + " <= " + w.arg(win.To))
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// bound возвращает nil для нулевой границы окна.
func bound(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
