// Package handlers provides HTTP handlers for recurring payments.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/recurring"
)

// Handler handles recurring payment HTTP requests
type Handler struct {
	repo *recurring.Repository
	job  *recurring.PostingJob
	log  zerolog.Logger
}

// NewHandler creates a new recurring payment handler
func NewHandler(repo *recurring.Repository, job *recurring.PostingJob, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		job:  job,
		log:  log.With().Str("handler", "recurring").Logger(),
	}
}

// createRecurringRequest is the POST body
type createRecurringRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DayOfMonth  int     `json:"day_of_month"`
}

// HandleCreateRecurring creates a recurring payment definition
func (h *Handler) HandleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.repo.Create(domain.RecurringPayment{
		AccountID:   chi.URLParam(r, "accountID"),
		Description: req.Description,
		Amount:      req.Amount,
		DayOfMonth:  req.DayOfMonth,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

// HandleListRecurring returns the account's recurring payment definitions
func (h *Handler) HandleListRecurring(w http.ResponseWriter, r *http.Request) {
	payments, err := h.repo.ListByAccount(chi.URLParam(r, "accountID"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recurring payments")
		h.writeError(w, http.StatusInternalServerError, "failed to list recurring payments")
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}

// HandleDeactivateRecurring deactivates a definition; ledger history stays
func (h *Handler) HandleDeactivateRecurring(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Deactivate(chi.URLParam(r, "recurringID"))
	if err != nil {
		if errors.Is(err, recurring.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "recurring payment not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// HandleRunPostings triggers the posting job immediately (outside schedule)
func (h *Handler) HandleRunPostings(w http.ResponseWriter, r *http.Request) {
	if err := h.job.Run(); err != nil {
		h.log.Error().Err(err).Msg("Manual posting run failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "posted"})
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
