package service

import (
	"context"
	"fmt"

	"github.com/sujith333333/redeemx-repo/internal/ledger"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// ErrNoSnapshots возвращается, если снимков отчёта ещё нет.
var ErrNoSnapshots = fmt.Errorf("daily report %w", model.ErrNotFound)

// PointsReport возвращает сводку реестра за окно. Без параметров периода окно не ограничено.
func (s *Service) PointsReport(ctx context.Context, caller model.Identity, in validation.WindowInput) (*model.ReportTotals, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	window, err := validation.ResolveWindow(in, s.localNow(), s.loc, validation.DefaultUnbounded)
	if err != nil {
		return nil, err
	}

	sums, err := s.repo.ReportTotals(ctx, window)
	if err != nil {
		return nil, err
	}

	return &model.ReportTotals{
		AssignedToEmployee:        sums.IssuedToEmployees,
		AssignedToEmployeeBalance: sums.EmployeeNet,
		UserSendsToVendor:         sums.SentToVendors,
		ClaimedByVendor:           sums.PaidToVendors,
		YetToApproveToVendor:      ledger.YetToApprove(sums.SentToVendors, sums.PaidToVendors),
	}, nil
}

// ListSnapshots возвращает снимки агрегатов, записанные при создании заявок.
func (s *Service) ListSnapshots(ctx context.Context, caller model.Identity) ([]model.DailyReportSnapshot, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	snaps, err := s.repo.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	for i := range snaps {
		snaps[i].VendorBalancePoints = ledger.Magnitude(snaps[i].VendorBalancePoints)
	}
	return snaps, nil
}
