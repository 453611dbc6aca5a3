package model

import "time"

// Window задаёт включительный интервал времени [From, To].
// Нулевое значение границы означает отсутствие ограничения с этой стороны.
type Window struct {
	From time.Time
	To   time.Time
}

// Unbounded сообщает, что окно не ограничено ни с одной стороны.
func (w Window) Unbounded() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains проверяет попадание момента t в окно.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}
