// Package marketdata provides the HTTP client for the external historical
// price service. The service is a black box: it may return fewer dates than
// requested (holidays, delistings) and callers must tolerate gaps. No retries
// happen here; retry and backoff are the price service's responsibility.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// Interval selects the granularity of a historical series
type Interval string

const (
	IntervalDaily   Interval = "d"
	IntervalWeekly  Interval = "w"
	IntervalMonthly Interval = "m"
)

// Client is an EOD historical price API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "marketdata").Logger(),
	}
}

// eodBar is one row of the EOD API response
type eodBar struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// GetHistoricalPrices fetches the closing-price series for a symbol over
// [start, end]. The returned series is sorted ascending by date. Rows with
// unparseable dates are dropped.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval Interval) ([]domain.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/eod/%s", c.baseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Set("from", start.UTC().Format("2006-01-02"))
	params.Set("to", end.UTC().Format("2006-01-02"))
	params.Set("period", string(interval))
	params.Set("fmt", "json")
	if c.apiKey != "" {
		params.Set("api_token", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request for %s: %w", symbol, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("price service returned %d for %s: %s", resp.StatusCode, symbol, string(body))
	}

	var bars []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("failed to decode price response for %s: %w", symbol, err)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		t, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			c.log.Debug().Str("symbol", symbol).Str("date", bar.Date).Msg("Skipping bar with unparseable date")
			continue
		}
		points = append(points, domain.PricePoint{Date: t.UTC(), Close: bar.Close})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	c.log.Debug().
		Str("symbol", symbol).
		Int("points", len(points)).
		Msg("Fetched historical prices")

	return points, nil
}
