package service

import (
	"context"

	"github.com/sujith333333/redeemx-repo/internal/ledger"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

// GetBalance возвращает баланс стороны и агрегаты за окно.
// Пустой partyRef означает сторону вызывающего. Сотрудник и вендор видят только свой баланс,
// администратор любой.
func (s *Service) GetBalance(ctx context.Context, caller model.Identity, partyRef string, in validation.WindowInput) (*model.Balance, error) {
	if err := requireRole(caller, model.RoleEmployee, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		ref validation.PartyRef
		err error
	)
	if partyRef != "" {
		if ref, err = validation.ParsePartyRef(partyRef); err != nil {
			return nil, err
		}
	}

	window, err := validation.ResolveWindow(in, s.localNow(), s.loc, validation.DefaultToday)
	if err != nil {
		return nil, err
	}

	party, err := s.resolveParty(ctx, caller, partyRef, ref)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.LedgerTotals(ctx, party, window)
	if err != nil {
		return nil, err
	}

	b := ledger.Of(party.Kind, totals)
	return &b, nil
}

// resolveParty находит сторону по ссылке и проверяет право вызывающего её читать.
func (s *Service) resolveParty(ctx context.Context, caller model.Identity, raw string, ref validation.PartyRef) (model.Party, error) {
	if raw == "" {
		switch caller.Role {
		case model.RoleEmployee:
			return model.EmployeeParty(caller.UserID), nil
		case model.RoleVendor:
			vendor, err := s.repo.GetVendorByUser(ctx, caller.UserID)
			if err != nil {
				return model.Party{}, err
			}
			return model.VendorParty(vendor.ID), nil
		default:
			return model.Party{}, model.ErrInvalidPartyRef
		}
	}

	switch ref.Kind {
	case model.PartyEmployee:
		if caller.Role != model.RoleAdmin && !(caller.Role == model.RoleEmployee && caller.UserID == ref.ID) {
			return model.Party{}, model.ErrForbidden
		}
		user, err := s.repo.GetUser(ctx, ref.ID)
		if err != nil {
			return model.Party{}, err
		}
		if user.Role != model.RoleEmployee {
			return model.Party{}, repository.ErrUserNotFound
		}
		return model.EmployeeParty(user.ID), nil
	default:
		if caller.Role == model.RoleEmployee {
			return model.Party{}, model.ErrForbidden
		}
		vendor, err := s.repo.FindVendor(ctx, ref.Ref)
		if err != nil {
			return model.Party{}, err
		}
		if caller.Role == model.RoleVendor && vendor.UserID != caller.UserID {
			return model.Party{}, model.ErrForbidden
		}
		return model.VendorParty(vendor.ID), nil
	}
}
