package performance

import "github.com/aristath/fintrack/internal/domain"

// The time-weighted return walk. The timeline is partitioned into sub-periods
// bounded by cash flows (trades); each sub-period's simple return is chained
// multiplicatively, which makes the cumulative figure immune to the sign and
// magnitude of the flows: a sub-period's return is always measured on a
// holding set that did not change mid-period.

// twrState is the accumulator threaded through the walk. No hidden mutable
// state: holdings, the open sub-period's baseline, and the cumulative
// multiplier are all explicit.
type twrState struct {
	holdings    Holdings
	baseline    float64 // value of the open sub-period at its start
	baselineSet bool    // unset until the first valid valuation
	cumulative  float64 // chained product of sub-period returns, starts at 1.0
}

// computeTWR walks the benchmark timeline in ascending order and emits one
// point per admissible date. Dates where a held symbol has no price are
// dropped entirely: no interpolation, no carry-forward.
func computeTWR(tl *timeline) []TimelinePoint {
	state := twrState{
		holdings:   HoldingsAt(tl.preTrades, tl.start),
		cumulative: 1.0,
	}

	points := make([]TimelinePoint, 0, len(tl.dates))
	cursor := 0 // position in tl.periodTrades

	for _, date := range tl.dates {
		// Batch all trades due at this timeline date. periodTrades is sorted,
		// so everything from the cursor up to the first trade after this date
		// belongs to this step.
		batchEnd := cursor
		for batchEnd < len(tl.periodTrades) && dateKey(tl.periodTrades[batchEnd].ExecutedAt) <= date {
			batchEnd++
		}
		due := tl.periodTrades[cursor:batchEnd]
		cursor = batchEnd

		if len(due) == 0 {
			if point, ok := stepHold(&state, tl, date); ok {
				points = append(points, point)
			}
			continue
		}

		if point, ok := stepTrades(&state, tl, date, due); ok {
			points = append(points, point)
		}
	}

	return points
}

// stepHold handles a date with no due trades: value current holdings and emit.
// The first valid valuation of the series seeds the sub-period baseline
// without contributing a return yet.
func stepHold(state *twrState, tl *timeline, date string) (TimelinePoint, bool) {
	value, ok := valueHoldings(state.holdings, tl.prices, date)
	if !ok {
		// Missing price or empty holdings: skip the date, state unchanged
		return TimelinePoint{}, false
	}

	if !state.baselineSet {
		state.baseline = value
		state.baselineSet = true
	}

	changePercent := (state.cumulative*(value/state.baseline) - 1) * 100
	return newPoint(date, value, changePercent), true
}

// stepTrades handles a date with due trades, in strict order:
// close the open sub-period on pre-trade holdings, apply the trades, then
// re-open the next sub-period on post-trade holdings.
func stepTrades(state *twrState, tl *timeline, date string, due []domain.Trade) (TimelinePoint, bool) {
	// Close: the return up to this date belongs to the holdings that existed
	// before the flow.
	if preValue, ok := valueHoldings(state.holdings, tl.prices, date); ok && state.baselineSet && state.baseline > 0 {
		state.cumulative *= preValue / state.baseline
	}
	// When the pre-trade valuation is not computable the sub-period's return
	// is lost; the trades are applied regardless.

	for _, trade := range due {
		state.holdings.apply(trade)
	}

	// Re-open on the post-trade value. Not computable (e.g. full liquidation)
	// means no point for this date; cumulative and holdings persist.
	postValue, ok := valueHoldings(state.holdings, tl.prices, date)
	if !ok {
		state.baselineSet = false
		return TimelinePoint{}, false
	}

	state.baseline = postValue
	state.baselineSet = true

	changePercent := (state.cumulative - 1) * 100
	return newPoint(date, postValue, changePercent), true
}

// valueHoldings prices the holdings at one date. The valuation is computable
// only when there is at least one nonzero position, every held symbol has a
// price on that date, and the total is positive. A non-positive total must
// never become a sub-period baseline.
func valueHoldings(holdings Holdings, prices map[string]priceTable, date string) (float64, bool) {
	if holdings.isEmpty() {
		return 0, false
	}

	total := 0.0
	for symbol, shares := range holdings {
		if shares <= 0 {
			continue
		}
		table, ok := prices[symbol]
		if !ok {
			return 0, false
		}
		price, ok := table.lookup(date)
		if !ok {
			return 0, false
		}
		total += shares * price
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}

func newPoint(date string, value, changePercent float64) TimelinePoint {
	return TimelinePoint{
		Date:           date,
		PortfolioValue: value,
		ChangePercent:  changePercent,
		Events:         []Event{},
	}
}
