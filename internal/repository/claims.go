package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const claimColumns = `c.id, c.vendor_id, c.points, c.status, c.created_at, c.updated_at, c.admin_name, c.transaction_reference_id`

func scanClaim(row pgx.Row, extra ...any) (*model.Claim, error) {
	var c model.Claim
	var status string
	dest := append([]any{&c.ID, &c.VendorID, &c.Points, &status, &c.CreatedAt, &c.UpdatedAt, &c.AdminName, &c.TransactionReferenceID}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Status = model.ClaimStatus(status)
	return &c, nil
}

// InsertClaim сохраняет новую заявку вендора.
func (q *queries) InsertClaim(ctx context.Context, c *model.Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	err := q.db.QueryRow(ctx,
		`INSERT INTO claims (id, vendor_id, points, status) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.VendorID, c.Points, string(c.Status),
	).Scan(&c.CreatedAt)
	if err != nil {
		return model.StoreError("insert claim", err)
	}
	return nil
}

// GetClaimForUpdate возвращает заявку и блокирует её строку до конца транзакции.
func (q *queries) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	c, err := scanClaim(q.db.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, model.StoreError("get claim", err)
	}
	return c, nil
}

// UpdateClaim сохраняет решение администратора по заявке.
func (q *queries) UpdateClaim(ctx context.Context, c *model.Claim) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE claims SET status = $2, points = $3, admin_name = $4, transaction_reference_id = $5, updated_at = $6 WHERE id = $1`,
		c.ID, string(c.Status), c.Points, c.AdminName, c.TransactionReferenceID, c.UpdatedAt,
	)
	if err != nil {
		return model.StoreError("update claim", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// PendingClaimPoints возвращает сумму баллов нерассмотренных заявок вендора.
func (q *queries) PendingClaimPoints(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var pending int64
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(points), 0)::bigint FROM claims WHERE vendor_id = $1 AND status = $2`,
		vendorID, string(model.ClaimPending),
	).Scan(&pending)
	if err != nil {
		return 0, model.StoreError("pending claim points", err)
	}
	return pending, nil
}

// ListClaims возвращает заявки по фильтру, новые первыми.
func (q *queries) ListClaims(ctx context.Context, f model.ClaimFilter) ([]model.ClaimView, error) {
	w := &where{}
	if f.VendorID != nil {
		w.add("c.vendor_id = " + w.arg(*f.VendorID))
	}
	if f.VendorName != "" {
		w.add("v.vendor_name = " + w.arg(f.VendorName))
	}
	if f.Status != "" {
		w.add("c.status = " + w.arg(string(f.Status)))
	}

	rows, err := q.db.Query(ctx,
		`SELECT `+claimColumns+`, v.vendor_name FROM claims c JOIN vendors v ON v.id = c.vendor_id`+w.String()+` ORDER BY c.created_at DESC, c.id`,
		w.args...,
	)
	if err != nil {
		return nil, model.StoreError("list claims", err)
	}
	defer rows.Close()

	var claims []model.ClaimView
	for rows.Next() {
		var name string
		c, err := scanClaim(rows, &name)
		if err != nil {
			return nil, model.StoreError("scan claim", err)
		}
		claims = append(claims, model.ClaimView{Claim: *c, VendorName: name})
	}
	if err := rows.Err(); err != nil {
		return nil, model.StoreError("list claims", err)
	}
	return claims, nil
}

// InsertSnapshot добавляет снимок агрегатов реестра.
func (q *queries) InsertSnapshot(ctx context.Context, s *model.DailyReportSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := q.db.QueryRow(ctx,
		`INSERT INTO daily_report_snapshots (id, points_redeemed_by_employees, vendor_balance_points, points_redeemed_by_vendor)
		VALUES ($1, $2, $3, $4) RETURNING created_at`,
		s.ID, s.PointsRedeemedByEmployees, s.VendorBalancePoints, s.PointsRedeemedByVendor,
	).Scan(&s.CreatedAt)
	if err != nil {
		return model.StoreError("insert snapshot", err)
	}
	return nil
}

// ListSnapshots возвращает все снимки, новые первыми.
func (q *queries) ListSnapshots(ctx context.Context) ([]model.DailyReportSnapshot, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, points_redeemed_by_employees, vendor_balance_points, points_redeemed_by_vendor, created_at
		FROM daily_report_snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, model.StoreError("list snapshots", err)
	}
	defer rows.Close()

	var snaps []model.DailyReportSnapshot
	for rows.Next() {
		var s model.DailyReportSnapshot
		if err := rows.Scan(&s.ID, &s.PointsRedeemedByEmployees, &s.VendorBalancePoints, &s.PointsRedeemedByVendor, &s.CreatedAt); err != nil {
			return nil, model.StoreError("scan snapshot", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StoreError("list snapshots", err)
	}
	return snaps, nil
}
