// Package handlers provides HTTP handlers for performance reports.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/accounts"
	"github.com/aristath/fintrack/internal/modules/performance"
)

// Handler handles performance HTTP requests
type Handler struct {
	service *performance.Service
	log     zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

// HandleGetPerformance returns the TWR performance report for an account.
// Query parameter "period" defaults to one-year.
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	periodToken := r.URL.Query().Get("period")
	if periodToken == "" {
		periodToken = string(performance.PeriodOneYear)
	}

	period, err := performance.ParsePeriod(periodToken)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Report(r.Context(), accountID, period)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Performance report failed")
		h.writeError(w, http.StatusInternalServerError, "failed to compute performance")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
