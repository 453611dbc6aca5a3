package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/sujith333333/redeemx-repo/internal/middleware"
	"github.com/sujith333333/redeemx-repo/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware бонусного реестра.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Route("/user", func(r chi.Router) {
			r.Use(custommiddleware.RequireRole(model.RoleEmployee))

			r.Post("/vendor/transaction", h.Transfer)
			r.Get("/points", h.GetOwnBalance)
			r.Get("/transactions", h.GetUserTransactions)
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(custommiddleware.RequireRole(model.RoleVendor))

			r.Get("/points", h.GetOwnBalance)
			r.Get("/transactions", h.GetVendorTransactions)
			r.Post("/claim/request", h.RequestClaim)
			r.Get("/claim/requests", h.GetVendorClaims)
			r.Get("/claim/points", h.GetClaimPoints)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.RequireRole(model.RoleAdmin))

			r.Post("/user/transaction", h.GrantPoints)
			r.Get("/balance/{partyRef}", h.GetPartyBalance)
			r.Get("/claims", h.GetClaims)
			r.Put("/claims/{claimID}/approve", h.ApproveClaim)
			r.Put("/claims/{claimID}/reject", h.RejectClaim)
			r.Get("/reports/points", h.GetPointsReport)
			r.Get("/reports/daily", h.GetDailyReports)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
