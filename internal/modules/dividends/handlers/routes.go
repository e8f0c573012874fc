package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all dividend routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{accountID}/dividends", h.HandleCreateDividend)
	r.Get("/accounts/{accountID}/dividends", h.HandleListDividends)
}
