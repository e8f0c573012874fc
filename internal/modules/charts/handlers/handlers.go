// Package handlers provides HTTP handlers for chart data.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/charts"
)

// ChartBuilder builds chart payloads for a symbol
type ChartBuilder interface {
	Build(ctx context.Context, symbol string, start, end time.Time, smaPeriod, emaPeriod int) (*charts.Chart, error)
}

// Handler handles chart HTTP requests
type Handler struct {
	service ChartBuilder
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler creates a new chart handler
func NewHandler(service ChartBuilder, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetChart returns close prices with optional sma/ema overlays.
// Query params: from, to (YYYY-MM-DD, default one year back to today),
// sma, ema (periods, 0 disables).
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	end := h.now().UTC()
	start := end.AddDate(-1, 0, 0)
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if start, err = time.Parse("2006-01-02", v); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if end, err = time.Parse("2006-01-02", v); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
	}

	smaPeriod, ok := parsePeriodParam(r, "sma")
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid sma period")
		return
	}
	emaPeriod, ok := parsePeriodParam(r, "ema")
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid ema period")
		return
	}

	chart, err := h.service.Build(r.Context(), symbol, start, end, smaPeriod, emaPeriod)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build chart")
		h.writeError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}
	h.writeJSON(w, http.StatusOK, chart)
}

func parsePeriodParam(r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
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
