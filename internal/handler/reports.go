package handler

import "net/http"

// GetPointsReport возвращает агрегаты реестра за период.
func (h *Handler) GetPointsReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	win, err := windowInput(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.PointsReport(r.Context(), caller, win)
	if err != nil {
		h.failWith(w, r, "points report", err)
		return
	}

	h.respond(w, http.StatusOK, report, "")
}

// GetDailyReports возвращает снимки агрегатов, сделанные при создании заявок.
func (h *Handler) GetDailyReports(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identity(w, r)
	if !ok {
		return
	}

	snapshots, err := h.service.ListSnapshots(r.Context(), caller)
	if err != nil {
		h.failWith(w, r, "list daily reports", err)
		return
	}

	h.respond(w, http.StatusOK, snapshots, "")
}
