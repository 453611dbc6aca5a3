package validation

import (
	"strings"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const (
	// DefaultPageLimit: размер страницы истории операций по умолчанию.
	DefaultPageLimit = 6
	maxPageLimit     = 100
	maxReferenceLen  = 50
)

// ValidatePoints проверяет, что количество баллов положительно.
func ValidatePoints(points int64) error {
	if points <= 0 {
		return model.ErrInvalidAmount
	}
	return nil
}

// ValidateGrant проверяет начисление администратора: допускается любое ненулевое значение.
func ValidateGrant(points int64) error {
	if points == 0 {
		return model.ErrZeroGrant
	}
	return nil
}

// ValidateApprovedPoints проверяет, что одобренная сумма лежит в [1, requested].
func ValidateApprovedPoints(approved, requested int64) error {
	if approved < 1 || approved > requested {
		return model.ErrInvalidApprovedAmount
	}
	return nil
}

// ValidateReference проверяет длину идентификатора банковской транзакции.
func ValidateReference(ref string) error {
	if len(ref) > maxReferenceLen {
		return model.ErrInvalidReference
	}
	return nil
}

// NormalizePage применяет значения пагинации по умолчанию и проверяет границы.
func NormalizePage(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > maxPageLimit || offset < 0 {
		return 0, 0, model.ErrInvalidPage
	}
	return limit, offset, nil
}

// ParseStatus разбирает фильтр статуса заявки. Пустая строка означает все статусы.
func ParseStatus(s string) (model.ClaimStatus, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	st, ok := model.ParseClaimStatus(s)
	if !ok {
		return "", model.ErrInvalidStatus
	}
	return st, nil
}

// ParseSign разбирает фильтр истории сотрудника: all, credit или debit.
func ParseSign(s string) (model.EntrySign, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return model.SignAny, nil
	case "credit":
		return model.SignPositive, nil
	case "debit":
		return model.SignNegative, nil
	default:
		return 0, model.ErrInvalidFilter
	}
}

// ParseSource разбирает фильтр истории вендора: all, user или admin.
func ParseSource(s string) (model.EntrySource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return model.SourceAll, nil
	case "user", "users":
		return model.SourceUsers, nil
	case "admin":
		return model.SourceAdmin, nil
	default:
		return 0, model.ErrInvalidFilter
	}
}
