package pricecache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/clients/marketdata"
	"github.com/aristath/fintrack/internal/domain"
)

// Fetcher is the upstream price source the cache sits in front of
type Fetcher interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval marketdata.Interval) ([]domain.PricePoint, error)
}

// CachingSource is a read-through cache around the market data client.
// Cache failures degrade to a direct fetch; fetch failures propagate.
type CachingSource struct {
	fetcher Fetcher
	repo    *Repository
	ttl     time.Duration
	log     zerolog.Logger
}

// NewCachingSource creates a caching price source
func NewCachingSource(fetcher Fetcher, repo *Repository, ttl time.Duration, log zerolog.Logger) *CachingSource {
	return &CachingSource{
		fetcher: fetcher,
		repo:    repo,
		ttl:     ttl,
		log:     log.With().Str("service", "price_cache").Logger(),
	}
}

// GetHistoricalPrices returns the cached series when live, otherwise fetches
// from upstream and stores the result.
func (s *CachingSource) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval marketdata.Interval) ([]domain.PricePoint, error) {
	key := Key(symbol, start, end, string(interval))

	points, ok, err := s.repo.Get(key)
	if err != nil {
		// A broken cache must not take down price fetching
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Price cache read failed, fetching directly")
	} else if ok {
		s.log.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("Price cache hit")
		return points, nil
	}

	points, err = s.fetcher.GetHistoricalPrices(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Store(key, points, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to store series in price cache")
	}

	return points, nil
}

// GetDailyPrices is the daily-interval convenience used by the performance
// engine and chart builders.
func (s *CachingSource) GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	return s.GetHistoricalPrices(ctx, symbol, start, end, marketdata.IntervalDaily)
}
