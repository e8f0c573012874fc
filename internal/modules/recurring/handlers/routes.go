package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all recurring payment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{accountID}/recurring", h.HandleCreateRecurring)
	r.Get("/accounts/{accountID}/recurring", h.HandleListRecurring)
	r.Delete("/recurring/{recurringID}", h.HandleDeactivateRecurring)
	r.Post("/recurring/run", h.HandleRunPostings)
}
