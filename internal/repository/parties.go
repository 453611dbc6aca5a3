package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const userColumns = `id, username, name, emp_id, role, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.EmpID, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser сохраняет нового пользователя. Пустой ID заполняется автоматически.
func (q *queries) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	err := q.db.QueryRow(ctx,
		`INSERT INTO users (id, username, name, emp_id, role) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		u.ID, u.Username, u.Name, u.EmpID, string(u.Role),
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUserExists
		}
		return model.StoreError("create user", err)
	}
	return nil
}

// GetUser возвращает пользователя по ID.
func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, model.StoreError("get user", err)
	}
	return u, nil
}

// LockUser блокирует строку пользователя до конца транзакции и возвращает её.
func (q *queries) LockUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, model.StoreError("lock user", err)
	}
	return u, nil
}

// ListEmployeesByEmpID возвращает сотрудников с указанными табельными номерами.
func (q *queries) ListEmployeesByEmpID(ctx context.Context, empIDs []string) ([]model.User, error) {
	if len(empIDs) == 0 {
		return nil, nil
	}

	rows, err := q.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 AND emp_id = ANY($2) ORDER BY emp_id`,
		string(model.RoleEmployee), empIDs,
	)
	if err != nil {
		return nil, model.StoreError("list employees", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, model.StoreError("scan employee", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StoreError("list employees", err)
	}
	return users, nil
}

const vendorColumns = `id, user_id, vendor_name, description, created_at`

func scanVendor(row pgx.Row) (*model.Vendor, error) {
	var v model.Vendor
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Description, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (q *queries) getVendor(ctx context.Context, op, query string, args ...any) (*model.Vendor, error) {
	v, err := scanVendor(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}
		return nil, model.StoreError(op, err)
	}
	return v, nil
}

// CreateVendor регистрирует вендора, привязанного к пользователю с ролью VENDOR.
func (q *queries) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	err := q.db.QueryRow(ctx,
		`INSERT INTO vendors (id, user_id, vendor_name, description) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		v.ID, v.UserID, v.Name, v.Description,
	).Scan(&v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return ErrVendorExists
			case pgerrcode.ForeignKeyViolation:
				return ErrUserNotFound
			}
		}
		return model.StoreError("create vendor", err)
	}
	return nil
}

// GetVendor возвращает вендора по ID.
func (q *queries) GetVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	return q.getVendor(ctx, "get vendor", `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
}

// GetVendorByUser возвращает вендора, принадлежащего пользователю.
func (q *queries) GetVendorByUser(ctx context.Context, userID uuid.UUID) (*model.Vendor, error) {
	return q.getVendor(ctx, "get vendor by user", `SELECT `+vendorColumns+` FROM vendors WHERE user_id = $1`, userID)
}

// FindVendor ищет вендора по имени, ID вендора или ID владельца.
func (q *queries) FindVendor(ctx context.Context, ref string) (*model.Vendor, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return q.getVendor(ctx, "find vendor",
			`SELECT `+vendorColumns+` FROM vendors WHERE id = $1 OR user_id = $1 ORDER BY (id = $1) DESC LIMIT 1`, id)
	}
	return q.getVendor(ctx, "find vendor", `SELECT `+vendorColumns+` FROM vendors WHERE vendor_name = $1`, ref)
}

// LockVendor блокирует строку вендора до конца транзакции.
func (q *queries) LockVendor(ctx context.Context, id uuid.UUID) error {
	var one int
	err := q.db.QueryRow(ctx, `SELECT 1 FROM vendors WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVendorNotFound
		}
		return model.StoreError("lock vendor", err)
	}
	return nil
}

// MarkAccrualRun отмечает начисление за день. Возвращает false, если день уже отмечен.
func (q *queries) MarkAccrualRun(ctx context.Context, day time.Time, granted int) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO accrual_runs (run_date, granted) VALUES ($1, $2) ON CONFLICT (run_date) DO NOTHING`,
		time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), granted,
	)
	if err != nil {
		return false, model.StoreError(fmt.Sprintf("mark accrual run %s", day.Format(time.DateOnly)), err)
	}
	return tag.RowsAffected() == 1, nil
}
