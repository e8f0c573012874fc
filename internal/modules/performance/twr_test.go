package performance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

// fakePriceSource serves canned daily series per symbol
type fakePriceSource struct {
	series map[string][]domain.PricePoint
	errFor string
}

func (f *fakePriceSource) GetDailyPrices(_ context.Context, symbol string, _, _ time.Time) ([]domain.PricePoint, error) {
	if symbol == f.errFor {
		return nil, errors.New("upstream unavailable")
	}
	return f.series[symbol], nil
}

// points builds an ascending daily series, matching what the market data
// client returns
func points(t *testing.T, closes map[string]float64) []domain.PricePoint {
	t.Helper()
	out := make([]domain.PricePoint, 0, len(closes))
	for date, close := range closes {
		out = append(out, domain.PricePoint{Date: day(t, date), Close: close})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

const benchmark = "GSPC.INDX"

// One position held across the whole period, no trades inside it.
// The change on every date is simply the price ratio to the first date.
func TestComputeReport_BuyAndHold(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 110, "2024-01-08": 120,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 990,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 3)
	assert.Equal(t, "2024-01-04", result.Portfolio[0].Date)
	assert.Equal(t, 1000.0, result.Portfolio[0].Value)
	assert.InDelta(t, 0.0, result.Portfolio[0].ChangePercent, 1e-9)
	assert.InDelta(t, 10.0, result.Portfolio[1].ChangePercent, 1e-9)
	assert.InDelta(t, 20.0, result.Portfolio[2].ChangePercent, 1e-9)
}

// A buy inside the period splits it into two sub-periods whose returns chain
// multiplicatively; the added cash contributes no instantaneous return.
func TestComputeReport_MidPeriodBuyChainsSubPeriods(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 120, "2024-01-08": 126,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 1020,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 120, ExecutedAt: day(t, "2024-01-05")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 3)
	// Trade date: first sub-period return 1200/1000, value doubles from the buy
	// but the curve only reflects the 20% price move
	assert.Equal(t, 2400.0, result.Portfolio[1].Value)
	assert.InDelta(t, 20.0, result.Portfolio[1].ChangePercent, 1e-9)
	// Next date: 1.2 * (2520/2400) - 1 = 26%
	assert.Equal(t, 2520.0, result.Portfolio[2].Value)
	assert.InDelta(t, 26.0, result.Portfolio[2].ChangePercent, 1e-9)
}

// A partial sell closes the open sub-period on pre-trade holdings and reopens
// on the reduced position; withdrawing cash does not dent the return curve.
func TestComputeReport_PartialSellReopensOnReducedBaseline(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 120, "2024-01-08": 130,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 1020,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 100, ExecutedAt: day(t, "2024-01-02")},
		{Symbol: "AAPL", Side: domain.TradeSell, Shares: 5, Price: 120, ExecutedAt: day(t, "2024-01-05")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 3)
	// Sell date: the first sub-period banks 1200/1000; the curve shows 20%
	// while the value halves to the remaining 5 shares
	assert.Equal(t, 600.0, result.Portfolio[1].Value)
	assert.InDelta(t, 20.0, result.Portfolio[1].ChangePercent, 1e-9)
	// Holding on: 1.2 * (650/600) - 1 = 30%, pure price move on the new baseline
	assert.Equal(t, 650.0, result.Portfolio[2].Value)
	assert.InDelta(t, 30.0, result.Portfolio[2].ChangePercent, 1e-9)
}

// Dates where a held symbol has no price disappear from the series entirely
func TestComputeReport_MissingPriceDropsDate(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-08": 120, // gap on the 5th
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 990,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 2)
	assert.Equal(t, "2024-01-04", result.Portfolio[0].Date)
	assert.Equal(t, "2024-01-08", result.Portfolio[1].Date)
	// The drop does not distort the return: still the plain price ratio
	assert.InDelta(t, 20.0, result.Portfolio[1].ChangePercent, 1e-9)
	// Benchmark series aligns with the portfolio's dates
	require.Len(t, result.Benchmark, 2)
	assert.Equal(t, "2024-01-08", result.Benchmark[1].Date)
}

// A date where the whole portfolio prices to zero is dropped like a missing
// price: a zero value can never seed a sub-period baseline
func TestComputeReport_ZeroValuationDropsDate(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 0, "2024-01-08": 120,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 990,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 2)
	assert.Equal(t, "2024-01-04", result.Portfolio[0].Date)
	assert.Equal(t, "2024-01-08", result.Portfolio[1].Date)
	assert.InDelta(t, 20.0, result.Portfolio[1].ChangePercent, 1e-9)
}

// Selling everything mid-period leaves no valuable holdings; the walk emits no
// further points but keeps the accumulated return for a potential re-entry
func TestComputeReport_FullLiquidationEndsSeries(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 110, "2024-01-08": 150,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 990,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
		{Symbol: "AAPL", Side: domain.TradeSell, Shares: 10, Price: 110, ExecutedAt: day(t, "2024-01-05")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.Len(t, result.Portfolio, 1)
	assert.Equal(t, "2024-01-04", result.Portfolio[0].Date)
}

func TestComputeReport_NoTradesYieldsEmptyResult(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		benchmark: points(t, map[string]float64{"2024-01-04": 1000}),
	}}

	result, err := ComputeReport(context.Background(), source, benchmark, nil, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	assert.Empty(t, result.Portfolio)
	assert.Empty(t, result.Benchmark)
	assert.Empty(t, result.Events)
	assert.Nil(t, result.Summary)
	// Arrays, not nulls, in the JSON body
	assert.NotNil(t, result.Portfolio)
	assert.NotNil(t, result.Events)
}

func TestComputeReport_EmptyBenchmarkSeriesYieldsEmptyResult(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{"2024-01-04": 100}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)
	assert.Empty(t, result.Portfolio)
	assert.Empty(t, result.Benchmark)
}

func TestComputeReport_FetchErrorPropagates(t *testing.T) {
	source := &fakePriceSource{
		series: map[string][]domain.PricePoint{
			benchmark: points(t, map[string]float64{"2024-01-04": 1000}),
		},
		errFor: "AAPL",
	}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	_, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestComputeReport_IsDeterministic(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 120, "2024-01-08": 126,
		}),
		"MSFT": points(t, map[string]float64{
			"2024-01-04": 50, "2024-01-05": 51, "2024-01-08": 52,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 1020,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
		{Symbol: "MSFT", Side: domain.TradeBuy, Shares: 4, Price: 51, ExecutedAt: day(t, "2024-01-05")},
	}

	first, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)
	second, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeReport_SummaryPresentForMultiPointSeries(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{
			"2024-01-04": 100, "2024-01-05": 110, "2024-01-08": 99,
		}),
		benchmark: points(t, map[string]float64{
			"2024-01-04": 1000, "2024-01-05": 1010, "2024-01-08": 990,
		}),
	}}
	trades := []domain.Trade{
		{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 10, Price: 95, ExecutedAt: day(t, "2024-01-02")},
	}

	result, err := ComputeReport(context.Background(), source, benchmark, trades, nil, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	require.NotNil(t, result.Summary)
	assert.Equal(t, 3, result.Summary.ObservedTradingDays)
	assert.InDelta(t, -1.0, result.Summary.CumulativeReturnPct, 1e-9)
	assert.Greater(t, result.Summary.MaxDrawdownPct, 0.0)
}

func TestNormalizeBenchmark_FirstPointIsExactlyZero(t *testing.T) {
	table := priceTable{"2024-01-04": 1000, "2024-01-05": 1050}
	series := normalizeBenchmark(table, []string{"2024-01-04", "2024-01-05"})

	require.Len(t, series, 2)
	assert.Zero(t, series[0].ChangePercent)
	assert.InDelta(t, 5.0, series[1].ChangePercent, 1e-9)
}

// countingPriceSource tracks how often each symbol is fetched
type countingPriceSource struct {
	fakePriceSource
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingPriceSource) GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	c.mu.Lock()
	c.calls[symbol]++
	c.mu.Unlock()
	return c.fakePriceSource.GetDailyPrices(ctx, symbol, start, end)
}

// Holding the benchmark index directly must not fetch its series twice
func TestTimeline_BenchmarkHeldDirectlyFetchedOnce(t *testing.T) {
	source := &countingPriceSource{
		fakePriceSource: fakePriceSource{series: map[string][]domain.PricePoint{
			benchmark: points(t, map[string]float64{"2024-01-04": 1000, "2024-01-05": 1010}),
		}},
		calls: map[string]int{},
	}
	trades := []domain.Trade{
		{Symbol: benchmark, Side: domain.TradeBuy, Shares: 2, Price: 990, ExecutedAt: day(t, "2024-01-02")},
	}

	tl, err := buildTimeline(context.Background(), source, benchmark, trades, PeriodOneWeek, day(t, "2024-01-10"))
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls[benchmark])
	// The single series serves both roles: calendar and position pricing
	assert.Equal(t, []string{"2024-01-04", "2024-01-05"}, tl.dates)
	_, ok := tl.prices[benchmark].lookup("2024-01-05")
	assert.True(t, ok)
}

func TestTimeline_SameDayTrimsToTwoPoints(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		benchmark: points(t, map[string]float64{
			"2024-01-02": 1, "2024-01-03": 2, "2024-01-04": 3, "2024-01-05": 4, "2024-01-08": 5,
		}),
	}}

	tl, err := buildTimeline(context.Background(), source, benchmark, nil, PeriodSameDay, day(t, "2024-01-09"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05", "2024-01-08"}, tl.dates)
}
