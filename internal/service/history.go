package service

import (
	"context"

	"github.com/sujith333333/redeemx-repo/internal/ledger"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// HistoryQuery задаёт выборку истории операций.
type HistoryQuery struct {
	Window validation.WindowInput
	// Filter: для сотрудника all, credit или debit; для вендора all, user или admin.
	Filter string
	Limit  int
	Offset int
}

// EntryPage описывает страницу истории операций.
type EntryPage struct {
	Entries []model.EntryView `json:"transactions"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// ListUserTransactions возвращает операции сотрудника. Контрагент: имя вендора или Admin.
func (s *Service) ListUserTransactions(ctx context.Context, caller model.Identity, hq HistoryQuery) (*EntryPage, error) {
	if err := requireRole(caller, model.RoleEmployee); err != nil {
		return nil, err
	}
	sign, err := validation.ParseSign(hq.Filter)
	if err != nil {
		return nil, err
	}

	f := model.EntryFilter{Party: model.EmployeeParty(caller.UserID), Sign: sign}
	if err := s.prepareFilter(&f, hq); err != nil {
		return nil, err
	}

	entries, total, err := s.repo.ListEntries(ctx, f)
	if err != nil {
		return nil, err
	}
	return &EntryPage{Entries: nonNil(entries), Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// ListVendorTransactions возвращает операции вендора с баллами в его знаке.
// Контрагент: имя сотрудника или admin для выплат.
func (s *Service) ListVendorTransactions(ctx context.Context, caller model.Identity, hq HistoryQuery) (*EntryPage, error) {
	if err := requireRole(caller, model.RoleVendor); err != nil {
		return nil, err
	}
	source, err := validation.ParseSource(hq.Filter)
	if err != nil {
		return nil, err
	}

	f := model.EntryFilter{Source: source}
	if err := s.prepareFilter(&f, hq); err != nil {
		return nil, err
	}

	vendor, err := s.repo.GetVendorByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	f.Party = model.VendorParty(vendor.ID)

	entries, total, err := s.repo.ListEntries(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Points = ledger.VendorEntry(entries[i].Points)
	}
	return &EntryPage{Entries: nonNil(entries), Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *Service) prepareFilter(f *model.EntryFilter, hq HistoryQuery) error {
	limit, offset, err := validation.NormalizePage(hq.Limit, hq.Offset)
	if err != nil {
		return err
	}
	window, err := validation.ResolveWindow(hq.Window, s.localNow(), s.loc, validation.DefaultToday)
	if err != nil {
		return err
	}
	f.Limit, f.Offset, f.Window = limit, offset, window
	return nil
}

// nonNil заменяет nil пустым срезом, чтобы в JSON попадал [] вместо null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
