package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.HandleCreateAccount)
		r.Get("/", h.HandleListAccounts)
		r.Get("/{accountID}", h.HandleGetAccount)
		r.Put("/{accountID}", h.HandleUpdateAccount)
	})
}
