// Package handlers provides HTTP handlers for dividend records.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/dividends"
)

// Handler handles dividend HTTP requests
type Handler struct {
	repo *dividends.Repository
	log  zerolog.Logger
}

// NewHandler creates a new dividend handler
func NewHandler(repo *dividends.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "dividends").Logger(),
	}
}

// createDividendRequest is the POST dividends body
type createDividendRequest struct {
	Symbol    string  `json:"symbol"`
	NetAmount float64 `json:"net_amount"`
	ExDate    string  `json:"ex_date"`
}

// HandleCreateDividend records a dividend payment
func (h *Handler) HandleCreateDividend(w http.ResponseWriter, r *http.Request) {
	var req createDividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exDate, err := time.Parse("2006-01-02", req.ExDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid ex_date, expected YYYY-MM-DD")
		return
	}

	dividend := domain.Dividend{
		AccountID: chi.URLParam(r, "accountID"),
		Symbol:    req.Symbol,
		NetAmount: req.NetAmount,
		ExDate:    exDate.UTC(),
	}
	if err := h.repo.Create(dividend); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleListDividends returns the account's dividends in chronological order
func (h *Handler) HandleListDividends(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListByAccount(chi.URLParam(r, "accountID"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list dividends")
		h.writeError(w, http.StatusInternalServerError, "failed to list dividends")
		return
	}
	h.writeJSON(w, http.StatusOK, list)
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
