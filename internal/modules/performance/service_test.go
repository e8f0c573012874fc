package performance

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

type fakeAccounts struct{ account domain.Account }

func (f *fakeAccounts) GetByID(string) (*domain.Account, error) {
	acc := f.account
	return &acc, nil
}

type fakeTrades struct{ trades []domain.Trade }

func (f *fakeTrades) ListByAccount(string) ([]domain.Trade, error) { return f.trades, nil }

type fakeDividends struct{ dividends []domain.Dividend }

func (f *fakeDividends) ListByAccount(string) ([]domain.Dividend, error) { return f.dividends, nil }

func TestService_Report_NoTradesShortCircuits(t *testing.T) {
	// A panicking source proves no prices are fetched for an empty ledger
	svc := NewService(
		&fakeAccounts{account: domain.Account{ID: "a1", Kind: domain.AccountBrokerage}},
		&fakeTrades{},
		&fakeDividends{},
		nil,
		"GSPC.INDX",
		zerolog.Nop(),
	)

	result, err := svc.Report(context.Background(), "a1", PeriodOneYear)
	require.NoError(t, err)
	assert.Empty(t, result.Portfolio)
	assert.NotNil(t, result.Portfolio)
}

func TestService_Report_UsesAccountBenchmarkOverride(t *testing.T) {
	source := &fakePriceSource{series: map[string][]domain.PricePoint{
		"AAPL": points(t, map[string]float64{"2024-01-04": 100, "2024-01-05": 110}),
		"NDX":  points(t, map[string]float64{"2024-01-04": 500, "2024-01-05": 505}),
	}}
	svc := NewService(
		&fakeAccounts{account: domain.Account{ID: "a1", Kind: domain.AccountBrokerage, BenchmarkSymbol: "NDX"}},
		&fakeTrades{trades: []domain.Trade{
			{Symbol: "AAPL", Side: domain.TradeBuy, Shares: 1, Price: 95, ExecutedAt: day(t, "2024-01-02")},
		}},
		&fakeDividends{},
		source,
		"GSPC.INDX",
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return day(t, "2024-01-10") }

	result, err := svc.Report(context.Background(), "a1", PeriodOneWeek)
	require.NoError(t, err)
	require.Len(t, result.Benchmark, 2)
	assert.Equal(t, 500.0, result.Benchmark[0].Value)
}
