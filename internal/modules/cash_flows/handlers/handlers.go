// Package handlers provides HTTP handlers for cash transactions and transfers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/cash_flows"
)

// Handler handles cash flow HTTP requests
type Handler struct {
	repo      *cash_flows.Repository
	transfers *cash_flows.TransferRepository
	log       zerolog.Logger
}

// NewHandler creates a new cash flow handler
func NewHandler(repo *cash_flows.Repository, transfers *cash_flows.TransferRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		transfers: transfers,
		log:       log.With().Str("handler", "cash_flows").Logger(),
	}
}

// createTransactionRequest is the POST transactions body
type createTransactionRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

// HandleCreateTransaction records a cash transaction on an account
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	occurredAt, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	tx := domain.Transaction{
		AccountID:   chi.URLParam(r, "accountID"),
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		OccurredAt:  occurredAt.UTC(),
	}
	if err := h.repo.Create(tx); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleListTransactions returns the account's transactions, newest first.
// Query parameter "limit" caps the result size.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	transactions, err := h.repo.ListByAccount(chi.URLParam(r, "accountID"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// createTransferRequest is the POST /transfers body
type createTransferRequest struct {
	FromAccountID string  `json:"from_account_id"`
	ToAccountID   string  `json:"to_account_id"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
}

// HandleCreateTransfer records a transfer between two accounts
func (h *Handler) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	occurredAt, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	transfer := domain.Transfer{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		OccurredAt:    occurredAt.UTC(),
	}
	if err := h.transfers.Create(transfer); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleListTransfers returns transfers touching an account
func (h *Handler) HandleListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.transfers.ListByAccount(chi.URLParam(r, "accountID"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transfers")
		h.writeError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	h.writeJSON(w, http.StatusOK, transfers)
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
