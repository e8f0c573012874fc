package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trade ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{accountID}/trades", h.HandleCreateTrade)
	r.Get("/accounts/{accountID}/trades", h.HandleListTrades)
	r.Delete("/trades/{tradeID}", h.HandleDeleteTrade)
}
