package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// TradeLister provides the chronologically sorted trade log for an account
type TradeLister interface {
	ListByAccount(accountID string) ([]domain.Trade, error)
}

// DividendLister provides the dividend history for an account
type DividendLister interface {
	ListByAccount(accountID string) ([]domain.Dividend, error)
}

// AccountProvider resolves accounts for benchmark selection
type AccountProvider interface {
	GetByID(id string) (*domain.Account, error)
}

// Service computes performance reports. Each request constructs its own
// holdings map and TWR accumulator; there is no shared mutable state across
// requests and no locks are needed.
type Service struct {
	accounts         AccountProvider
	trades           TradeLister
	dividends        DividendLister
	prices           PriceSource
	defaultBenchmark string
	now              func() time.Time
	log              zerolog.Logger
}

// NewService creates a new performance service
func NewService(
	accounts AccountProvider,
	trades TradeLister,
	dividends DividendLister,
	prices PriceSource,
	defaultBenchmark string,
	log zerolog.Logger,
) *Service {
	return &Service{
		accounts:         accounts,
		trades:           trades,
		dividends:        dividends,
		prices:           prices,
		defaultBenchmark: defaultBenchmark,
		now:              time.Now,
		log:              log.With().Str("service", "performance").Logger(),
	}
}

// Report computes the account's performance curve against its benchmark for
// the requested period. Pure function of (trade history, dividend history,
// price series): identical inputs yield identical output.
func (s *Service) Report(ctx context.Context, accountID string, period Period) (*Result, error) {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, err
	}

	benchmarkSymbol := account.BenchmarkSymbol
	if benchmarkSymbol == "" {
		benchmarkSymbol = s.defaultBenchmark
	}

	trades, err := s.trades.ListByAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	// No trade history means nothing to value: a valid empty report
	if len(trades) == 0 {
		return emptyResult(), nil
	}

	dividends, err := s.dividends.ListByAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dividends: %w", err)
	}

	report, err := ComputeReport(ctx, s.prices, benchmarkSymbol, trades, dividends, period, s.now())
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("account_id", accountID).
		Str("period", string(period)).
		Int("points", len(report.Portfolio)).
		Msg("Computed performance report")

	return report, nil
}

// ComputeReport runs the engine on already-loaded ledger data. Exposed
// separately from Report so the walk stays independently testable without a
// database.
func ComputeReport(ctx context.Context, prices PriceSource, benchmarkSymbol string, trades []domain.Trade, dividends []domain.Dividend, period Period, now time.Time) (*Result, error) {
	tl, err := buildTimeline(ctx, prices, benchmarkSymbol, trades, period, now)
	if err != nil {
		return nil, err
	}

	// Empty benchmark series: nothing to align on, valid empty report
	if len(tl.dates) == 0 {
		return emptyResult(), nil
	}

	points := computeTWR(tl)
	events := annotateEvents(points, trades, dividends)

	portfolio := make([]SeriesPoint, 0, len(points))
	dates := make([]string, 0, len(points))
	for _, point := range points {
		portfolio = append(portfolio, SeriesPoint{
			Date:          point.Date,
			Value:         point.PortfolioValue,
			ChangePercent: point.ChangePercent,
		})
		dates = append(dates, point.Date)
	}

	benchmark := normalizeBenchmark(tl.benchmark, dates)

	// The portfolio dates are a subsequence of the benchmark calendar, so the
	// normalized series aligns 1:1 with the emitted points.
	for i := range points {
		if i < len(benchmark) {
			points[i].BenchmarkChangePercent = benchmark[i].ChangePercent
		}
	}

	return &Result{
		Portfolio: portfolio,
		Benchmark: benchmark,
		Events:    events,
		Summary:   summarize(portfolio),
	}, nil
}
