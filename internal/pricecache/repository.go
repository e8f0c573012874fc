// Package pricecache provides persistent caching for historical price series.
// Series are stored as msgpack blobs with expiration timestamps for
// cache-first behavior in front of the market data client.
package pricecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fintrack/internal/domain"
)

// Repository provides cache operations for price series blobs
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new price cache repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// cachedPoint is the msgpack wire form of a price point.
// Dates are Unix timestamps to keep blobs compact.
type cachedPoint struct {
	Date  int64   `msgpack:"d"`
	Close float64 `msgpack:"c"`
}

// Key builds the cache key for a symbol and requested range
func Key(symbol string, start, end time.Time, interval string) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		symbol,
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
		interval,
	)
}

// Get returns the cached series for key if present and not expired.
// The second return value reports whether a live entry was found.
func (r *Repository) Get(key string) ([]domain.PricePoint, bool, error) {
	var blob []byte
	var expiresAt int64

	err := r.db.QueryRow(
		"SELECT data, expires_at FROM price_series WHERE cache_key = ?", key,
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query price cache: %w", err)
	}

	if time.Now().Unix() > expiresAt {
		return nil, false, nil
	}

	var cached []cachedPoint
	if err := msgpack.Unmarshal(blob, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached series: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(cached))
	for _, p := range cached {
		points = append(points, domain.PricePoint{
			Date:  time.Unix(p.Date, 0).UTC(),
			Close: p.Close,
		})
	}
	return points, true, nil
}

// Store saves a series with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(key string, points []domain.PricePoint, ttl time.Duration) error {
	cached := make([]cachedPoint, 0, len(points))
	for _, p := range points {
		cached = append(cached, cachedPoint{Date: p.Date.UTC().Unix(), Close: p.Close})
	}

	blob, err := msgpack.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode series: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO price_series (cache_key, data, expires_at) VALUES (?, ?, ?)",
		key, blob, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store series: %w", err)
	}
	return nil
}

// Cleanup removes expired entries and returns the number deleted
func (r *Repository) Cleanup() (int64, error) {
	result, err := r.db.Exec("DELETE FROM price_series WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up price cache: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return deleted, nil
}
