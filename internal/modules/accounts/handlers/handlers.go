// Package handlers provides HTTP handlers for account management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/accounts"
)

// Handler handles account HTTP requests
type Handler struct {
	repo *accounts.Repository
	log  zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(repo *accounts.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "accounts").Logger(),
	}
}

// createAccountRequest is the POST /accounts body
type createAccountRequest struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	Currency        string `json:"currency"`
	BenchmarkSymbol string `json:"benchmark_symbol"`
}

// HandleCreateAccount creates a new account
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.repo.Create(domain.Account{
		Name:            req.Name,
		Kind:            domain.AccountKind(req.Kind),
		Currency:        req.Currency,
		BenchmarkSymbol: req.BenchmarkSymbol,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}

// HandleListAccounts returns all accounts
func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		h.writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleGetAccount returns a single account by ID
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.repo.GetByID(chi.URLParam(r, "accountID"))
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// updateAccountRequest is the PUT /accounts/{accountID} body
type updateAccountRequest struct {
	Name            string `json:"name"`
	BenchmarkSymbol string `json:"benchmark_symbol"`
}

// HandleUpdateAccount updates an account's name and benchmark
func (h *Handler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.repo.Update(chi.URLParam(r, "accountID"), req.Name, req.BenchmarkSymbol)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
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
