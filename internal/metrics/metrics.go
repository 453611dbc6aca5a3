// Package metrics содержит Prometheus-метрики операций бонусного реестра.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const namespace = "redeemx"

// Transfers считает переводы сотрудник-вендор.
var Transfers = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "transfers_total",
	Help:      "Total committed employee to vendor transfers.",
})

// PointsTransferred считает баллы, переведённые вендорам.
var PointsTransferred = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "points_transferred_total",
	Help:      "Total points moved from employees to vendors.",
})

// PointsGranted считает баллы, начисленные и списанные администратором.
var PointsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "points_granted_total",
	Help:      "Total points granted to or debited from employees by source.",
}, []string{"source", "direction"})

// Claims считает заявки вендоров по исходу.
var Claims = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "claims",
	Name:      "total",
	Help:      "Total claim state transitions by outcome.",
}, []string{"outcome"})

// PointsPaidOut считает баллы, выплаченные по одобренным заявкам.
var PointsPaidOut = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "claims",
	Name:      "points_paid_out_total",
	Help:      "Total points paid out to vendors on claim approval.",
})

// Rejections считает отказы операций по виду ошибки.
var Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "rejections_total",
	Help:      "Total rejected ledger operations by operation and error kind.",
}, []string{"operation", "kind"})

// OperationDuration измеряет длительность операций реестра.
var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operation_duration_seconds",
	Help:      "Duration of ledger operations including store round trips.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// AccrualRuns считает запуски ежедневного начисления по результату.
var AccrualRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "runs_total",
	Help:      "Total accrual runs by result.",
}, []string{"result"})

// Observe фиксирует длительность операции и, при ошибке, её вид.
func Observe(operation string, start time.Time, err error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		Rejections.WithLabelValues(operation, Kind(err)).Inc()
	}
}

// Kind возвращает метку вида ошибки.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrForbidden):
		return "forbidden"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrStore):
		return "store"
	default:
		return "internal"
	}
}
