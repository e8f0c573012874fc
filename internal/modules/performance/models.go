// Package performance implements the time-weighted return (TWR) engine for
// brokerage accounts: it replays the trade ledger, walks the benchmark's
// trading calendar, chains cash-flow-free sub-period returns into a cumulative
// performance curve, and annotates trade and dividend events onto the result.
package performance

import (
	"fmt"
	"time"
)

// Period is a requested reporting window
type Period string

const (
	PeriodSameDay    Period = "same-day"
	PeriodOneWeek    Period = "one-week"
	PeriodThreeMonth Period = "three-month"
	PeriodSixMonth   Period = "six-month"
	PeriodOneYear    Period = "one-year"
	PeriodYearToDate Period = "year-to-date"
)

// ParsePeriod validates a period token from the API
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodSameDay, PeriodOneWeek, PeriodThreeMonth, PeriodSixMonth, PeriodOneYear, PeriodYearToDate:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period: %q", s)
}

// StartDate resolves the period to its start date relative to now
func (p Period) StartDate(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case PeriodSameDay:
		return now.AddDate(0, 0, -1)
	case PeriodOneWeek:
		return now.AddDate(0, 0, -7)
	case PeriodThreeMonth:
		return now.AddDate(0, -3, 0)
	case PeriodSixMonth:
		return now.AddDate(0, -6, 0)
	case PeriodOneYear:
		return now.AddDate(-1, 0, 0)
	case PeriodYearToDate:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	// Unreachable for parsed periods; fall back to one year
	return now.AddDate(-1, 0, 0)
}

// maxPoints is the display cap for the shortest periods. The benchmark series
// can be much coarser than the request; trimming avoids showing unrequested
// history. Zero means no cap.
func (p Period) maxPoints() int {
	switch p {
	case PeriodSameDay:
		return 2
	case PeriodOneWeek:
		return 7
	}
	return 0
}

// EventType classifies an annotated ledger event
type EventType string

const (
	EventBuy      EventType = "buy"
	EventSell     EventType = "sell"
	EventDividend EventType = "dividend"
)

// Event is an informational ledger event attached to a timeline date
type Event struct {
	Date   string    `json:"date"`
	Type   EventType `json:"type"`
	Symbol string    `json:"symbol"`
	Shares *float64  `json:"shares,omitempty"`
	Price  *float64  `json:"price,omitempty"`
	Amount *float64  `json:"amount,omitempty"`
}

// TimelinePoint is one admissible date on the performance timeline.
// Events is always non-nil: a date without events carries an empty list.
type TimelinePoint struct {
	Date                   string  `json:"date"`
	PortfolioValue         float64 `json:"portfolio_value"`
	ChangePercent          float64 `json:"change_percent"`
	BenchmarkChangePercent float64 `json:"benchmark_change_percent"`
	Events                 []Event `json:"events"`
}

// SeriesPoint is one entry of the portfolio or benchmark response series
type SeriesPoint struct {
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	ChangePercent float64 `json:"change_percent"`
}

// Summary carries descriptive statistics over the rendered portfolio series
type Summary struct {
	CumulativeReturnPct float64 `json:"cumulative_return_pct"`
	MeanDailyReturnPct  float64 `json:"mean_daily_return_pct"`
	DailyVolatilityPct  float64 `json:"daily_volatility_pct"`
	AnnualVolatilityPct float64 `json:"annual_volatility_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	ObservedTradingDays int     `json:"observed_trading_days"`
}

// Result is the performance response body. Degenerate inputs (no trades, no
// holdings, empty benchmark series) produce empty arrays, never an error.
type Result struct {
	Portfolio []SeriesPoint `json:"portfolio"`
	Benchmark []SeriesPoint `json:"benchmark"`
	Events    []Event       `json:"events"`
	Summary   *Summary      `json:"summary,omitempty"`
}

// emptyResult is the valid "nothing to show" response
func emptyResult() *Result {
	return &Result{
		Portfolio: []SeriesPoint{},
		Benchmark: []SeriesPoint{},
		Events:    []Event{},
	}
}
