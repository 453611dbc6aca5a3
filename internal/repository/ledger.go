package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const windowCond = `($2::timestamptz IS NULL OR created_at >= $2::timestamptz) AND ($3::timestamptz IS NULL OR created_at <= $3::timestamptz)`

// InsertEntry добавляет запись в реестр. Записи реестра не изменяются и не удаляются.
func (q *queries) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := q.db.QueryRow(ctx,
		`INSERT INTO ledger_entries (id, points, user_id, vendor_id, description) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		e.ID, e.Points, e.UserID, e.VendorID, e.Description,
	).Scan(&e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if pgErr.ConstraintName == "ledger_entries_vendor_id_fkey" {
				return ErrVendorNotFound
			}
			return ErrUserNotFound
		}
		return model.StoreError("insert ledger entry", err)
	}
	return nil
}

// LedgerTotals возвращает сырые суммы записей стороны.
// Net считается по всем записям, остальные суммы ограничены окном.
func (q *queries) LedgerTotals(ctx context.Context, p model.Party, w model.Window) (model.LedgerTotals, error) {
	var column, issuer string
	switch p.Kind {
	case model.PartyEmployee:
		column, issuer = "user_id", "vendor_id IS NULL AND points > 0"
	case model.PartyVendor:
		column, issuer = "vendor_id", "user_id IS NULL"
	default:
		return model.LedgerTotals{}, fmt.Errorf("%w: unknown party kind %d", model.ErrValidation, p.Kind)
	}

	query := fmt.Sprintf(`SELECT
		COALESCE(SUM(points), 0)::bigint,
		COALESCE(SUM(points) FILTER (WHERE points > 0 AND %[2]s), 0)::bigint,
		COALESCE(SUM(points) FILTER (WHERE points < 0 AND %[2]s), 0)::bigint,
		COALESCE(SUM(points) FILTER (WHERE %[3]s AND %[2]s), 0)::bigint
	FROM ledger_entries WHERE %[1]s = $1`, column, windowCond, issuer)

	var t model.LedgerTotals
	err := q.db.QueryRow(ctx, query, p.ID, bound(w.From), bound(w.To)).
		Scan(&t.Net, &t.Positive, &t.Negative, &t.Issuer)
	if err != nil {
		return model.LedgerTotals{}, model.StoreError("ledger totals", err)
	}
	return t, nil
}

// ListEntries возвращает страницу записей стороны, новые первыми, и общее число подходящих записей.
// Баллы возвращаются со знаком, как они хранятся в реестре.
func (q *queries) ListEntries(ctx context.Context, f model.EntryFilter) ([]model.EntryView, int64, error) {
	var from, name string
	w := &where{}

	switch f.Party.Kind {
	case model.PartyEmployee:
		from = `ledger_entries e LEFT JOIN vendors c ON c.id = e.vendor_id`
		name = `COALESCE(c.vendor_name, 'Admin')`
		w.add("e.user_id = " + w.arg(f.Party.ID))
		switch f.Source {
		case model.SourceUsers:
			w.add("e.vendor_id IS NOT NULL")
		case model.SourceAdmin:
			w.add("e.vendor_id IS NULL")
		}
	case model.PartyVendor:
		from = `ledger_entries e LEFT JOIN users c ON c.id = e.user_id`
		name = `COALESCE(c.name, 'admin')`
		w.add("e.vendor_id = " + w.arg(f.Party.ID))
		switch f.Source {
		case model.SourceUsers:
			w.add("e.user_id IS NOT NULL")
		case model.SourceAdmin:
			w.add("e.user_id IS NULL")
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown party kind %d", model.ErrValidation, f.Party.Kind)
	}

	switch f.Sign {
	case model.SignPositive:
		w.add("e.points > 0")
	case model.SignNegative:
		w.add("e.points < 0")
	}
	w.window("e.created_at", f.Window)

	var total int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, model.StoreError("count ledger entries", err)
	}

	query := fmt.Sprintf(`SELECT e.id, %s, e.points, e.description, e.created_at FROM %s%s ORDER BY e.created_at DESC, e.id LIMIT %s OFFSET %s`,
		name, from, w.String(), w.arg(f.Limit), w.arg(f.Offset))

	rows, err := q.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, model.StoreError("list ledger entries", err)
	}
	defer rows.Close()

	var entries []model.EntryView
	for rows.Next() {
		var e model.EntryView
		if err := rows.Scan(&e.ID, &e.Name, &e.Points, &e.Description, &e.Date); err != nil {
			return nil, 0, model.StoreError("scan ledger entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, model.StoreError("list ledger entries", err)
	}
	return entries, total, nil
}

// ReportTotals возвращает сырые суммы реестра за окно.
func (q *queries) ReportTotals(ctx context.Context, w model.Window) (ReportSums, error) {
	cond := &where{}
	cond.window("created_at", w)

	query := `SELECT
		COALESCE(SUM(points) FILTER (WHERE vendor_id IS NULL), 0)::bigint,
		COALESCE(SUM(points) FILTER (WHERE user_id IS NOT NULL), 0)::bigint,
		ABS(COALESCE(SUM(points) FILTER (WHERE user_id IS NOT NULL AND vendor_id IS NOT NULL), 0))::bigint,
		COALESCE(SUM(points) FILTER (WHERE user_id IS NULL), 0)::bigint
	FROM ledger_entries` + cond.String()

	var s ReportSums
	err := q.db.QueryRow(ctx, query, cond.args...).
		Scan(&s.IssuedToEmployees, &s.EmployeeNet, &s.SentToVendors, &s.PaidToVendors)
	if err != nil {
		return ReportSums{}, model.StoreError("report totals", err)
	}
	return s, nil
}

// SnapshotTotals считает агрегаты для снимка по всему реестру.
func (q *queries) SnapshotTotals(ctx context.Context) (model.DailyReportSnapshot, error) {
	var s model.DailyReportSnapshot
	err := q.db.QueryRow(ctx, `SELECT
		ABS(COALESCE(SUM(points) FILTER (WHERE points < 0 AND vendor_id IS NOT NULL), 0))::bigint,
		COALESCE(SUM(points) FILTER (WHERE vendor_id IS NOT NULL), 0)::bigint,
		COALESCE(SUM(points) FILTER (WHERE user_id IS NULL), 0)::bigint
	FROM ledger_entries`).Scan(&s.PointsRedeemedByEmployees, &s.VendorBalancePoints, &s.PointsRedeemedByVendor)
	if err != nil {
		return model.DailyReportSnapshot{}, model.StoreError("snapshot totals", err)
	}
	return s, nil
}
