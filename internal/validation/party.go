package validation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

// PartyRef описывает ссылку на сторону в виде employee:<uuid> или vendor:<uuid|имя>.
type PartyRef struct {
	Kind model.PartyKind
	// ID задан для сотрудника и для вендора, указанного по uuid.
	ID uuid.UUID
	// Ref: исходная ссылка на вендора (имя или uuid).
	Ref string
}

// ParsePartyRef разбирает ссылку на сторону.
func ParsePartyRef(s string) (PartyRef, error) {
	kind, ref, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || ref == "" {
		return PartyRef{}, model.ErrInvalidPartyRef
	}

	switch strings.ToLower(kind) {
	case "employee", "user":
		id, err := uuid.Parse(ref)
		if err != nil {
			return PartyRef{}, model.ErrInvalidPartyRef
		}
		return PartyRef{Kind: model.PartyEmployee, ID: id, Ref: ref}, nil
	case "vendor":
		p := PartyRef{Kind: model.PartyVendor, Ref: ref}
		if id, err := uuid.Parse(ref); err == nil {
			p.ID = id
		}
		return p, nil
	default:
		return PartyRef{}, model.ErrInvalidPartyRef
	}
}
