package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all cash flow routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{accountID}/transactions", h.HandleCreateTransaction)
	r.Get("/accounts/{accountID}/transactions", h.HandleListTransactions)
	r.Get("/accounts/{accountID}/transfers", h.HandleListTransfers)
	r.Post("/transfers", h.HandleCreateTransfer)
}
