// Package service реализует бизнес-логику бонусного реестра redeemx:
// переводы баллов вендорам, заявки вендоров на вывод, балансы и отчёты.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/accrual"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
// Все изменения реестра выполняются внутри InTx.
type Repository interface {
	repository.Querier
	InTx(ctx context.Context, fn func(q repository.Querier) error) error
	Close() error
}

// Directory описывает справочник сотрудников работодателя.
type Directory interface {
	GetEmployees(ctx context.Context) ([]accrual.Employee, int, time.Duration, error)
}

// Options задаёт параметры сервиса.
type Options struct {
	// Location: зона, в которой считаются «сегодня», день и месяц.
	Location *time.Location
	// Now подменяет текущее время в тестах.
	Now func() time.Time
	// AccrualPoints: ежедневное начисление сотруднику.
	AccrualPoints int64
	// AccrualInterval: период проверки необходимости начисления.
	AccrualInterval time.Duration
}

// Service содержит бизнес-логику бонусного реестра.
type Service struct {
	repo      Repository
	directory Directory
	logger    *zap.Logger

	loc             *time.Location
	now             func() time.Time
	accrualPoints   int64
	accrualInterval time.Duration
}

// NewService создаёт новый сервис с указанным репозиторием и справочником сотрудников.
// directory может быть nil, тогда ежедневное начисление отключено.
func NewService(repo Repository, directory Directory, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AccrualPoints == 0 {
		opts.AccrualPoints = 20
	}
	if opts.AccrualInterval <= 0 {
		opts.AccrualInterval = time.Hour
	}

	return &Service{
		repo:            repo,
		directory:       directory,
		logger:          logger,
		loc:             opts.Location,
		now:             opts.Now,
		accrualPoints:   opts.AccrualPoints,
		accrualInterval: opts.AccrualInterval,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) localNow() time.Time {
	return s.now().In(s.loc)
}

// requireRole проверяет, что у вызывающей стороны одна из допустимых ролей.
func requireRole(caller model.Identity, roles ...model.Role) error {
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return model.ErrForbidden
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
