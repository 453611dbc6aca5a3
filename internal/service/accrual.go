package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/metrics"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
)

const directoryAttempts = 3

// ErrDirectoryDisabled возвращается, если адрес справочника сотрудников не задан.
var ErrDirectoryDisabled = errors.New("employee directory is not configured")

// AccrualResult описывает итог ежедневного начисления.
type AccrualResult struct {
	Day     string `json:"day"`
	Granted int    `json:"granted"`
	// Unregistered: табельные номера из справочника без учётной записи сотрудника.
	Unregistered []string `json:"unregistered"`
	// Skipped: за день начисление уже выполнено или день выходной.
	Skipped bool `json:"skipped"`
}

// Accrue начисляет ежедневные баллы зарегистрированным сотрудникам из справочника.
// Для одного календарного дня начисление выполняется не более одного раза, по воскресеньям не выполняется.
func (s *Service) Accrue(ctx context.Context, day time.Time) (*AccrualResult, error) {
	if s.directory == nil {
		return nil, ErrDirectoryDisabled
	}

	day = day.In(s.loc)
	res := &AccrualResult{Day: day.Format(time.DateOnly), Unregistered: []string{}}
	if day.Weekday() == time.Sunday {
		res.Skipped = true
		metrics.AccrualRuns.WithLabelValues("skipped").Inc()
		return res, nil
	}

	empIDs, err := s.fetchDirectory(ctx)
	if err != nil {
		metrics.AccrualRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	err = s.repo.InTx(ctx, func(q repository.Querier) error {
		// замыкание повторяется при конфликте сериализации
		res.Granted, res.Skipped, res.Unregistered = 0, false, res.Unregistered[:0]

		users, err := q.ListEmployeesByEmpID(ctx, empIDs)
		if err != nil {
			return err
		}

		marked, err := q.MarkAccrualRun(ctx, day, len(users))
		if err != nil {
			return err
		}
		if !marked {
			res.Skipped = true
			return nil
		}

		registered := make(map[string]struct{}, len(users))
		for i := range users {
			u := users[i]
			if u.EmpID != nil {
				registered[*u.EmpID] = struct{}{}
			}
			entry := &model.LedgerEntry{
				Points:      s.accrualPoints,
				UserID:      &u.ID,
				Description: strPtr("daily accrual " + res.Day),
			}
			if err := q.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}

		for _, id := range empIDs {
			if _, ok := registered[id]; !ok {
				res.Unregistered = append(res.Unregistered, id)
			}
		}
		res.Granted = len(users)
		return nil
	})
	if err != nil {
		metrics.AccrualRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	if res.Skipped {
		metrics.AccrualRuns.WithLabelValues("skipped").Inc()
		return res, nil
	}

	metrics.AccrualRuns.WithLabelValues("granted").Inc()
	recordGrant("accrual", s.accrualPoints*int64(res.Granted))
	return res, nil
}

// fetchDirectory возвращает табельные номера из справочника, выдерживая паузу при ответе 429.
func (s *Service) fetchDirectory(ctx context.Context) ([]string, error) {
	for attempt := 1; ; attempt++ {
		employees, statusCode, retryAfter, err := s.directory.GetEmployees(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch employee directory: %w", err)
		}

		if statusCode == http.StatusTooManyRequests {
			if attempt >= directoryAttempts {
				return nil, fmt.Errorf("fetch employee directory: rate limited after %d attempts", attempt)
			}
			if retryAfter <= 0 {
				retryAfter = time.Second
			}
			timer := time.NewTimer(retryAfter)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			continue
		}

		seen := make(map[string]struct{}, len(employees))
		ids := make([]string, 0, len(employees))
		for _, e := range employees {
			if e.EmpID == "" {
				continue
			}
			if _, ok := seen[e.EmpID]; ok {
				continue
			}
			seen[e.EmpID] = struct{}{}
			ids = append(ids, e.EmpID)
		}
		return ids, nil
	}
}

// RunAccrualUpdates периодически запускает ежедневное начисление до отмены контекста.
func (s *Service) RunAccrualUpdates(ctx context.Context) error {
	if s.directory == nil {
		return nil
	}

	ticker := time.NewTicker(s.accrualInterval)
	defer ticker.Stop()

	for {
		s.runAccrual(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) runAccrual(ctx context.Context) {
	res, err := s.Accrue(ctx, s.localNow())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("daily accrual failed", zap.Error(err))
		}
		return
	}
	if res.Skipped {
		s.logger.Debug("daily accrual skipped", zap.String("day", res.Day))
		return
	}
	s.logger.Info("daily accrual granted",
		zap.String("day", res.Day),
		zap.Int("employees", res.Granted),
		zap.Int64("points", s.accrualPoints),
		zap.Int("unregistered", len(res.Unregistered)),
	)
}
