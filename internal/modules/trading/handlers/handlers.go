// Package handlers provides HTTP handlers for the trade ledger.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/trading"
)

// Handler handles trade HTTP requests
type Handler struct {
	repo *trading.TradeRepository
	log  zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(repo *trading.TradeRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "trading").Logger(),
	}
}

// createTradeRequest is the POST trades body. Date format is YYYY-MM-DD.
type createTradeRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
	Date   string  `json:"date"`
}

// HandleCreateTrade records a buy or sell
func (h *Handler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	executedAt, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	trade := domain.Trade{
		AccountID:  chi.URLParam(r, "accountID"),
		Symbol:     req.Symbol,
		Side:       domain.TradeSide(req.Side),
		Shares:     req.Shares,
		Price:      req.Price,
		ExecutedAt: executedAt.UTC(),
	}
	if err := h.repo.Create(trade); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleListTrades returns the account's trades in chronological order
func (h *Handler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.repo.ListByAccount(chi.URLParam(r, "accountID"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		h.writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// HandleDeleteTrade removes a mistakenly entered trade
func (h *Handler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tradeID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}
	if err := h.repo.Delete(id); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
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
