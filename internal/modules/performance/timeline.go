package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/fintrack/internal/domain"
)

// PriceSource provides daily closing-price series. It is a black box: series
// may have gaps (holidays, delistings) and the engine tolerates them. A
// failed fetch fails the whole computation since the engine cannot proceed
// without prices.
type PriceSource interface {
	GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}

// priceTable is a date-keyed price lookup for one symbol. Availability is an
// explicit second return value, never a zero sentinel.
type priceTable map[string]float64

func (t priceTable) lookup(date string) (float64, bool) {
	price, ok := t[date]
	return price, ok
}

func newPriceTable(points []domain.PricePoint) priceTable {
	table := make(priceTable, len(points))
	for _, p := range points {
		table[dateKey(p.Date)] = p.Close
	}
	return table
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// timeline is the resolved evaluation context for one performance request:
// the canonical date sequence (the benchmark's trading calendar), one price
// table per symbol, and the trade log partitioned around the period start.
type timeline struct {
	start        time.Time
	end          time.Time
	dates        []string             // benchmark trading dates, ascending
	prices       map[string]priceTable // symbol -> date -> close
	benchmark    priceTable
	preTrades    []domain.Trade // executed at or before start; seed replay
	periodTrades []domain.Trade // executed inside the period; drive sub-periods
}

// buildTimeline resolves the period to a date range, fetches every needed
// price series concurrently, and derives the canonical date sequence from the
// benchmark. An empty benchmark series yields a timeline with no dates, which
// renders as an empty result (not an error).
func buildTimeline(ctx context.Context, source PriceSource, benchmarkSymbol string, trades []domain.Trade, period Period, now time.Time) (*timeline, error) {
	start := period.StartDate(now)

	tl := &timeline{
		start:  start,
		end:    now,
		prices: make(map[string]priceTable),
	}

	for _, trade := range trades {
		if trade.ExecutedAt.After(start) {
			tl.periodTrades = append(tl.periodTrades, trade)
		} else {
			tl.preTrades = append(tl.preTrades, trade)
		}
	}

	// Fetch list: symbols with a position at period start, plus symbols traded
	// during the period, plus the benchmark itself.
	symbolSet := make(map[string]bool)
	for symbol := range HoldingsAt(tl.preTrades, start).symbolsSet() {
		symbolSet[symbol] = true
	}
	for _, trade := range tl.periodTrades {
		symbolSet[trade.Symbol] = true
	}

	fetchList := make([]string, 0, len(symbolSet)+1)
	for symbol := range symbolSet {
		fetchList = append(fetchList, symbol)
	}
	// A directly held benchmark is already in the set; one fetch serves both roles
	if !symbolSet[benchmarkSymbol] {
		fetchList = append(fetchList, benchmarkSymbol)
	}

	series, err := fetchAll(ctx, source, fetchList, start, now)
	if err != nil {
		return nil, err
	}

	for symbol, points := range series {
		if symbol == benchmarkSymbol {
			tl.benchmark = newPriceTable(points)
			// The benchmark's own trading dates are the canonical timeline
			for _, p := range points {
				tl.dates = append(tl.dates, dateKey(p.Date))
			}
			continue
		}
		tl.prices[symbol] = newPriceTable(points)
	}

	// The benchmark may also be held directly; keep its table queryable
	if symbolSet[benchmarkSymbol] {
		tl.prices[benchmarkSymbol] = tl.benchmark
	}

	// Trim the shortest periods so a coarse benchmark series does not show
	// unrequested history.
	if limit := period.maxPoints(); limit > 0 && len(tl.dates) > limit {
		tl.dates = tl.dates[len(tl.dates)-limit:]
	}

	return tl, nil
}

// fetchAll retrieves the full-range series for every symbol concurrently.
// Latency is bounded by the slowest single fetch rather than the sum; any
// failed fetch fails the whole batch.
func fetchAll(ctx context.Context, source PriceSource, symbols []string, start, end time.Time) (map[string][]domain.PricePoint, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		series   = make(map[string][]domain.PricePoint, len(symbols))
		firstErr error
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			points, err := source.GetDailyPrices(ctx, symbol, start, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
				}
				return
			}
			series[symbol] = points
		}(symbol)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return series, nil
}
