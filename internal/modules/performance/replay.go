package performance

import (
	"time"

	"github.com/aristath/fintrack/internal/domain"
)

// Holdings maps symbol to shares held. Values are never negative.
type Holdings map[string]float64

// HoldingsAt reconstructs holdings from a chronologically sorted trade list as
// of (and including) the cutoff date. Pure function of (trades, cutoff).
func HoldingsAt(trades []domain.Trade, cutoff time.Time) Holdings {
	holdings := make(Holdings)
	for _, trade := range trades {
		if trade.ExecutedAt.After(cutoff) {
			break
		}
		holdings.apply(trade)
	}
	return holdings
}

// apply adjusts holdings for one trade. An oversell is malformed ledger data;
// it is clamped to zero rather than rejected so replay never produces a
// negative position.
func (h Holdings) apply(trade domain.Trade) {
	switch trade.Side {
	case domain.TradeBuy:
		h[trade.Symbol] += trade.Shares
	case domain.TradeSell:
		remaining := h[trade.Symbol] - trade.Shares
		if remaining < 0 {
			remaining = 0
		}
		h[trade.Symbol] = remaining
	}
}

// isEmpty reports whether no symbol has a nonzero position
func (h Holdings) isEmpty() bool {
	for _, shares := range h {
		if shares > 0 {
			return false
		}
	}
	return true
}

// symbolsSet returns the symbols with nonzero positions as a set
func (h Holdings) symbolsSet() map[string]bool {
	out := make(map[string]bool, len(h))
	for symbol, shares := range h {
		if shares > 0 {
			out[symbol] = true
		}
	}
	return out
}
