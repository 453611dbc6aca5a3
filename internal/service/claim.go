package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/ledger"
	"github.com/sujith333333/redeemx-repo/internal/metrics"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// ApproveRequest описывает решение администратора об одобрении заявки.
type ApproveRequest struct {
	ApprovedPoints int64
	// TransactionReferenceID: номер банковской операции. Пустое значение заменяется сгенерированным.
	TransactionReferenceID string
}

// ApproveResult описывает итог одобрения заявки.
type ApproveResult struct {
	ClaimID                uuid.UUID `json:"claim_id"`
	ApprovedPoints         int64     `json:"approved_points"`
	TransactionReferenceID string    `json:"transaction_reference_id"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// RejectResult описывает итог отклонения заявки.
type RejectResult struct {
	ClaimID   uuid.UUID `json:"claim_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestClaim создаёт заявку вендора на вывод баллов.
// Сумма не может превышать доступные баллы: накопленные минус баллы заявок на рассмотрении.
func (s *Service) RequestClaim(ctx context.Context, caller model.Identity, points int64) (*model.ClaimView, error) {
	start := time.Now()
	claim, err := s.requestClaim(ctx, caller, points)
	metrics.Observe("claim_request", start, err)
	if err != nil {
		s.logRejection("claim_request", err, zap.String("user_id", caller.UserID.String()), zap.Int64("points", points))
		return nil, err
	}

	metrics.Claims.WithLabelValues("requested").Inc()
	s.logger.Info("claim requested",
		zap.String("claim_id", claim.ID.String()),
		zap.String("vendor_id", claim.VendorID.String()),
		zap.Int64("points", claim.Points),
	)
	return claim, nil
}

func (s *Service) requestClaim(ctx context.Context, caller model.Identity, points int64) (*model.ClaimView, error) {
	if err := requireRole(caller, model.RoleVendor); err != nil {
		return nil, err
	}
	if err := validation.ValidatePoints(points); err != nil {
		return nil, err
	}

	var view *model.ClaimView
	err := s.repo.InTx(ctx, func(q repository.Querier) error {
		vendor, err := q.GetVendorByUser(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if err := q.LockVendor(ctx, vendor.ID); err != nil {
			return err
		}

		vp, err := vendorPoints(ctx, q, vendor)
		if err != nil {
			return err
		}
		if points > vp.Usable {
			return &model.ExceedsUsableError{Total: vp.Total, Usable: vp.Usable, Pending: vp.Pending}
		}

		claim := model.Claim{VendorID: vendor.ID, Points: points, Status: model.ClaimPending}
		if err := q.InsertClaim(ctx, &claim); err != nil {
			return err
		}

		snap, err := q.SnapshotTotals(ctx)
		if err != nil {
			return err
		}
		if err := q.InsertSnapshot(ctx, &snap); err != nil {
			return err
		}

		view = &model.ClaimView{Claim: claim, VendorName: vendor.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ApproveClaim одобряет заявку, возможно на меньшую сумму, и записывает выплату вендору.
func (s *Service) ApproveClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID, req ApproveRequest) (*ApproveResult, error) {
	start := time.Now()
	res, err := s.approveClaim(ctx, caller, claimID, req)
	metrics.Observe("claim_approve", start, err)
	if err != nil {
		s.logRejection("claim_approve", err, zap.String("claim_id", claimID.String()), zap.Int64("points", req.ApprovedPoints))
		return nil, err
	}

	metrics.Claims.WithLabelValues("approved").Inc()
	metrics.PointsPaidOut.Add(float64(res.ApprovedPoints))
	s.logger.Info("claim approved",
		zap.String("claim_id", claimID.String()),
		zap.String("admin_id", caller.UserID.String()),
		zap.Int64("points", res.ApprovedPoints),
		zap.String("transaction_reference_id", res.TransactionReferenceID),
	)
	return res, nil
}

func (s *Service) approveClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID, req ApproveRequest) (*ApproveResult, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if req.ApprovedPoints < 1 {
		return nil, model.ErrInvalidApprovedAmount
	}
	if err := validation.ValidateReference(req.TransactionReferenceID); err != nil {
		return nil, err
	}

	ref := req.TransactionReferenceID
	if ref == "" {
		ref = uuid.NewString()
	}

	var res *ApproveResult
	err := s.repo.InTx(ctx, func(q repository.Querier) error {
		admin, err := q.GetUser(ctx, caller.UserID)
		if err != nil {
			return err
		}

		claim, err := q.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if claim.Status.Terminal() {
			return repository.ErrClaimFinalized
		}

		vendor, err := q.GetVendor(ctx, claim.VendorID)
		if err != nil {
			return err
		}
		if err := q.LockVendor(ctx, vendor.ID); err != nil {
			return err
		}

		if err := validation.ValidateApprovedPoints(req.ApprovedPoints, claim.Points); err != nil {
			return err
		}

		now := s.now()
		claim.Status = model.ClaimApproved
		claim.Points = req.ApprovedPoints
		claim.AdminName = &admin.Name
		claim.TransactionReferenceID = &ref
		claim.UpdatedAt = &now
		if err := q.UpdateClaim(ctx, claim); err != nil {
			return err
		}

		payout := &model.LedgerEntry{
			Points:      ledger.Payout(req.ApprovedPoints),
			VendorID:    &vendor.ID,
			Description: strPtr("claim " + claim.ID.String() + " payout"),
		}
		if err := q.InsertEntry(ctx, payout); err != nil {
			return err
		}

		res = &ApproveResult{
			ClaimID:                claim.ID,
			ApprovedPoints:         claim.Points,
			TransactionReferenceID: ref,
			UpdatedAt:              now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RejectClaim отклоняет заявку. Баллы заявки снова становятся доступными вендору.
func (s *Service) RejectClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID) (*RejectResult, error) {
	start := time.Now()
	res, err := s.rejectClaim(ctx, caller, claimID)
	metrics.Observe("claim_reject", start, err)
	if err != nil {
		s.logRejection("claim_reject", err, zap.String("claim_id", claimID.String()))
		return nil, err
	}

	metrics.Claims.WithLabelValues("rejected").Inc()
	s.logger.Info("claim rejected",
		zap.String("claim_id", claimID.String()),
		zap.String("admin_id", caller.UserID.String()),
	)
	return res, nil
}

func (s *Service) rejectClaim(ctx context.Context, caller model.Identity, claimID uuid.UUID) (*RejectResult, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	var res *RejectResult
	err := s.repo.InTx(ctx, func(q repository.Querier) error {
		claim, err := q.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if claim.Status.Terminal() {
			return repository.ErrClaimFinalized
		}
		if err := q.LockVendor(ctx, claim.VendorID); err != nil {
			return err
		}

		now := s.now()
		claim.Status = model.ClaimRejected
		claim.UpdatedAt = &now
		if err := q.UpdateClaim(ctx, claim); err != nil {
			return err
		}

		res = &RejectResult{ClaimID: claim.ID, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// VendorClaimPoints возвращает накопленные, зарезервированные и доступные к выводу баллы вендора.
func (s *Service) VendorClaimPoints(ctx context.Context, caller model.Identity) (*model.VendorPoints, error) {
	if err := requireRole(caller, model.RoleVendor); err != nil {
		return nil, err
	}

	vendor, err := s.repo.GetVendorByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	vp, err := vendorPoints(ctx, s.repo, vendor)
	if err != nil {
		return nil, err
	}
	return &vp, nil
}

// ListVendorClaims возвращает заявки вендора вызывающей стороны.
func (s *Service) ListVendorClaims(ctx context.Context, caller model.Identity, status string) ([]model.ClaimView, error) {
	if err := requireRole(caller, model.RoleVendor); err != nil {
		return nil, err
	}
	st, err := validation.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	vendor, err := s.repo.GetVendorByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	claims, err := s.repo.ListClaims(ctx, model.ClaimFilter{VendorID: &vendor.ID, Status: st})
	if err != nil {
		return nil, err
	}
	return nonNil(claims), nil
}

// ListClaims возвращает заявки всех вендоров с фильтром по статусу и имени вендора.
func (s *Service) ListClaims(ctx context.Context, caller model.Identity, status, vendorName string) ([]model.ClaimView, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	st, err := validation.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	claims, err := s.repo.ListClaims(ctx, model.ClaimFilter{VendorName: vendorName, Status: st})
	if err != nil {
		return nil, err
	}
	return nonNil(claims), nil
}

func vendorPoints(ctx context.Context, q repository.Querier, vendor *model.Vendor) (model.VendorPoints, error) {
	totals, err := q.LedgerTotals(ctx, model.VendorParty(vendor.ID), model.Window{})
	if err != nil {
		return model.VendorPoints{}, err
	}
	pending, err := q.PendingClaimPoints(ctx, vendor.ID)
	if err != nil {
		return model.VendorPoints{}, err
	}

	vp := ledger.Usable(totals.Net, pending)
	vp.VendorID = vendor.ID
	vp.VendorName = vendor.Name
	return vp, nil
}
