// Package charts builds close-price chart series with optional moving
// average overlays.
package charts

import (
	"context"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// PriceSource provides daily close prices for a symbol
type PriceSource interface {
	GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}

// Point is a single chart point. Overlay values are nil while the
// indicator has not accumulated enough history.
type Point struct {
	Date  string   `json:"date"`
	Close float64  `json:"close"`
	SMA   *float64 `json:"sma,omitempty"`
	EMA   *float64 `json:"ema,omitempty"`
}

// Chart is the chart payload for one symbol
type Chart struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

// Service builds chart data from the price source
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a chart service
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

// Build fetches the symbol's closes and attaches SMA/EMA overlays when a
// positive period is given. A zero period disables that overlay.
func (s *Service) Build(ctx context.Context, symbol string, start, end time.Time, smaPeriod, emaPeriod int) (*Chart, error) {
	if smaPeriod < 0 || emaPeriod < 0 {
		return nil, fmt.Errorf("overlay periods must not be negative")
	}

	series, err := s.prices.GetDailyPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	points := make([]Point, len(series))
	closes := make([]float64, len(series))
	for i, p := range series {
		points[i] = Point{
			Date:  p.Date.UTC().Format("2006-01-02"),
			Close: p.Close,
		}
		closes[i] = p.Close
	}

	if smaPeriod > 0 && len(closes) >= smaPeriod {
		attachOverlay(points, talib.Sma(closes, smaPeriod), smaPeriod, func(pt *Point, v float64) { pt.SMA = &v })
	}
	if emaPeriod > 0 && len(closes) >= emaPeriod {
		attachOverlay(points, talib.Ema(closes, emaPeriod), emaPeriod, func(pt *Point, v float64) { pt.EMA = &v })
	}

	return &Chart{Symbol: symbol, Points: points}, nil
}

// attachOverlay copies indicator values onto the chart points. talib returns
// a full-length slice whose first period-1 entries are warm-up placeholders;
// skipping them by index keeps a legitimate value of exactly zero.
func attachOverlay(points []Point, values []float64, period int, set func(*Point, float64)) {
	for i := period - 1; i < len(points) && i < len(values); i++ {
		set(&points[i], values[i])
	}
}
