// Package validation содержит функции валидации входных данных.
package validation

import (
	"time"

	"github.com/sujith333333/redeemx-repo/internal/model"
)

const dateLayout = "2006-01-02"

// DefaultWindow определяет окно, используемое при отсутствии фильтров по дате.
type DefaultWindow int

const (
	// DefaultToday: текущие сутки в локальной зоне.
	DefaultToday DefaultWindow = iota
	// DefaultUnbounded: без ограничений по времени.
	DefaultUnbounded
)

// WindowInput содержит необработанные параметры выбора периода.
type WindowInput struct {
	StartDate string
	EndDate   string
	Day       string
	Month     *int
	Year      *int
}

// Empty сообщает, что ни один параметр периода не задан.
func (in WindowInput) Empty() bool {
	return in.StartDate == "" && in.EndDate == "" && in.Day == "" && in.Month == nil && in.Year == nil
}

// ResolveWindow превращает параметры периода во включительное окно в зоне loc.
// Проверка start > end выполняется раньше остальных правил.
func ResolveWindow(in WindowInput, now time.Time, loc *time.Location, def DefaultWindow) (model.Window, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	start, err := parseDate(in.StartDate, loc)
	if err != nil {
		return model.Window{}, err
	}
	end, err := parseDate(in.EndDate, loc)
	if err != nil {
		return model.Window{}, err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return model.Window{}, model.ErrInvalidDateRange
	}

	switch {
	case in.Day != "":
		day, err := parseDate(in.Day, loc)
		if err != nil {
			return model.Window{}, err
		}
		return DayWindow(day), nil

	case !start.IsZero() || !end.IsZero():
		w := model.Window{}
		if !start.IsZero() {
			w.From = startOfDay(start)
		}
		if !end.IsZero() {
			w.To = endOfDay(end)
		} else {
			w.To = endOfDay(now)
		}
		// без end_date конец окна: сегодня
		if w.From.After(w.To) {
			return model.Window{}, model.ErrInvalidDateRange
		}
		return w, nil

	case in.Month != nil:
		year := now.Year()
		if in.Year != nil {
			year = *in.Year
		}
		return MonthWindow(year, *in.Month, loc)
	}

	if def == DefaultUnbounded {
		return model.Window{}, nil
	}
	return DayWindow(now), nil
}

// DayWindow возвращает окно календарного дня, содержащего t, в зоне t.
func DayWindow(t time.Time) model.Window {
	return model.Window{From: startOfDay(t), To: endOfDay(t)}
}

// MonthWindow возвращает окно календарного месяца с первого по последний день включительно.
func MonthWindow(year, month int, loc *time.Location) (model.Window, error) {
	if month < 1 || month > 12 {
		return model.Window{}, model.ErrInvalidMonth
	}
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return model.Window{
		From: first,
		To:   first.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	// Допускаем как дату, так и полную метку времени.
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, model.ErrInvalidDate
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
