package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/ledger"
	"github.com/sujith333333/redeemx-repo/internal/metrics"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// TransferRequest описывает перевод баллов сотрудника вендору.
type TransferRequest struct {
	// VendorRef: имя вендора или его идентификатор.
	VendorRef   string
	Points      int64
	Description string
}

// Transfer переводит баллы сотрудника вендору одной записью реестра.
// Строка пользователя блокируется на время проверки баланса и записи.
func (s *Service) Transfer(ctx context.Context, caller model.Identity, req TransferRequest) (*model.LedgerEntry, error) {
	start := time.Now()
	entry, err := s.transfer(ctx, caller, req)
	metrics.Observe("transfer", start, err)
	if err != nil {
		s.logRejection("transfer", err, zap.String("user_id", caller.UserID.String()), zap.Int64("points", req.Points))
		return nil, err
	}

	metrics.Transfers.Inc()
	metrics.PointsTransferred.Add(float64(req.Points))
	s.logger.Info("points transferred",
		zap.String("entry_id", entry.ID.String()),
		zap.String("user_id", caller.UserID.String()),
		zap.String("vendor_id", entry.VendorID.String()),
		zap.Int64("points", req.Points),
	)
	return entry, nil
}

func (s *Service) transfer(ctx context.Context, caller model.Identity, req TransferRequest) (*model.LedgerEntry, error) {
	if err := requireRole(caller, model.RoleEmployee); err != nil {
		return nil, err
	}
	if err := validation.ValidatePoints(req.Points); err != nil {
		return nil, err
	}
	if req.VendorRef == "" {
		return nil, repository.ErrVendorNotFound
	}

	var entry *model.LedgerEntry
	err := s.repo.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.LockUser(ctx, caller.UserID); err != nil {
			return err
		}

		vendor, err := q.FindVendor(ctx, req.VendorRef)
		if err != nil {
			return err
		}

		totals, err := q.LedgerTotals(ctx, model.EmployeeParty(caller.UserID), model.Window{})
		if err != nil {
			return err
		}

		balance := ledger.Of(model.PartyEmployee, totals).Balance
		if balance <= 0 {
			return model.ErrNoPoints
		}
		if req.Points > balance {
			return model.ErrInsufficientPoints
		}

		userID, vendorID := caller.UserID, vendor.ID
		entry = &model.LedgerEntry{
			Points:      ledger.TransferDebit(req.Points),
			UserID:      &userID,
			VendorID:    &vendorID,
			Description: strPtr(req.Description),
		}
		return q.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GrantPoints начисляет или списывает баллы сотрудника от имени администратора.
func (s *Service) GrantPoints(ctx context.Context, caller model.Identity, userID uuid.UUID, points int64, description string) (*model.LedgerEntry, error) {
	start := time.Now()
	entry, err := s.grantPoints(ctx, caller, userID, points, description)
	metrics.Observe("grant", start, err)
	if err != nil {
		s.logRejection("grant", err, zap.String("user_id", userID.String()), zap.Int64("points", points))
		return nil, err
	}

	recordGrant("admin", points)
	s.logger.Info("points granted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("admin_id", caller.UserID.String()),
		zap.Int64("points", points),
	)
	return entry, nil
}

func (s *Service) grantPoints(ctx context.Context, caller model.Identity, userID uuid.UUID, points int64, description string) (*model.LedgerEntry, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validation.ValidateGrant(points); err != nil {
		return nil, err
	}

	var entry *model.LedgerEntry
	err := s.repo.InTx(ctx, func(q repository.Querier) error {
		user, err := q.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role != model.RoleEmployee {
			return repository.ErrUserNotFound
		}

		entry = &model.LedgerEntry{
			Points:      points,
			UserID:      &user.ID,
			Description: strPtr(description),
		}
		return q.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func recordGrant(source string, points int64) {
	direction := "credit"
	if points < 0 {
		direction = "debit"
	}
	metrics.PointsGranted.WithLabelValues(source, direction).Add(float64(ledger.Magnitude(points)))
}

// logRejection пишет отказ доменной проверки в Warn, сбой хранилища в Error.
func (s *Service) logRejection(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	var usable *model.ExceedsUsableError
	switch {
	case errors.As(err, &usable):
		s.logger.Warn("operation rejected", append(fields,
			zap.Int64("total_points", usable.Total),
			zap.Int64("usable_points", usable.Usable),
			zap.Int64("pending_points", usable.Pending))...)
	case errors.Is(err, model.ErrStore), metrics.Kind(err) == "internal":
		s.logger.Error("operation failed", fields...)
	default:
		s.logger.Warn("operation rejected", fields...)
	}
}
