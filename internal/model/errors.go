package model

import (
	"errors"
	"fmt"
)

// Виды ошибок ядра. Конкретные ошибки оборачивают один из видов через %w,
// поэтому вызывающая сторона может проверять как вид, так и конкретную ошибку.
var (
	// ErrValidation: некорректные входные данные, обращения к хранилищу не было.
	ErrValidation = errors.New("validation error")
	// ErrNotFound: сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientFunds: недостаточно баллов для операции.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrForbidden: роль вызывающей стороны не допускает операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict: параллельное изменение опередило проверку.
	ErrConflict = errors.New("conflict")
	// ErrStore: сбой хранилища, частичная запись откатывается.
	ErrStore = errors.New("store error")
)

var (
	ErrInvalidAmount         = fmt.Errorf("%w: points must be greater than zero", ErrValidation)
	ErrZeroGrant             = fmt.Errorf("%w: points must be a non-zero integer", ErrValidation)
	ErrInvalidApprovedAmount = fmt.Errorf("%w: approved points must be between 1 and the requested amount", ErrValidation)
	ErrInvalidDateRange      = fmt.Errorf("%w: start date cannot be after end date", ErrValidation)
	ErrInvalidMonth          = fmt.Errorf("%w: invalid month, must be between 1 and 12", ErrValidation)
	ErrInvalidDate           = fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", ErrValidation)
	ErrInvalidReference      = fmt.Errorf("%w: transaction reference id must not exceed 50 characters", ErrValidation)
	ErrInvalidPartyRef       = fmt.Errorf("%w: malformed party reference", ErrValidation)
	ErrInvalidPage           = fmt.Errorf("%w: limit must be between 1 and 100 and offset must not be negative", ErrValidation)
	ErrInvalidStatus         = fmt.Errorf("%w: status must be one of PENDING, APPROVED, REJECTED", ErrValidation)
	ErrInvalidFilter         = fmt.Errorf("%w: unknown transaction filter", ErrValidation)

	ErrNoPoints           = fmt.Errorf("%w: you don't have any points", ErrInsufficientFunds)
	ErrInsufficientPoints = fmt.Errorf("%w: you don't have enough points", ErrInsufficientFunds)
	ErrExceedsUsable      = fmt.Errorf("%w: claim exceeds usable points", ErrInsufficientFunds)
)

// ExceedsUsableError сообщает о превышении доступных к выводу баллов
// и раскрывает рассчитанные лимиты.
type ExceedsUsableError struct {
	Total   int64
	Usable  int64
	Pending int64
}

func (e *ExceedsUsableError) Error() string {
	return fmt.Sprintf("your total available points: %d. maximum claimable points: %d. due to pending claim points: %d",
		e.Total, e.Usable, e.Pending)
}

// Is позволяет сопоставлять ошибку с ErrExceedsUsable и ErrInsufficientFunds.
func (e *ExceedsUsableError) Is(target error) bool {
	return target == ErrExceedsUsable || target == ErrInsufficientFunds
}

// StoreError оборачивает ошибку хранилища видом ErrStore.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
