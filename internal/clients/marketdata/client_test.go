package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetHistoricalPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("from"))
		assert.Equal(t, "2024-01-31", q.Get("to"))
		assert.Equal(t, "d", q.Get("period"))
		assert.Equal(t, "json", q.Get("fmt"))
		assert.Equal(t, "secret", q.Get("api_token"))

		w.Header().Set("Content-Type", "application/json")
		// Out of order and with one bad row; the client sorts and skips
		_, _ = w.Write([]byte(`[
			{"date": "2024-01-03", "close": 185.6},
			{"date": "not-a-date", "close": 1.0},
			{"date": "2024-01-02", "close": 184.2}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", zerolog.Nop())
	points, err := client.GetHistoricalPrices(
		context.Background(),
		"AAPL.US",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		IntervalDaily,
	)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 184.2, points[0].Close)
	assert.Equal(t, 185.6, points[1].Close)
}

func TestClient_GetHistoricalPrices_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "symbol not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", zerolog.Nop())
	_, err := client.GetHistoricalPrices(
		context.Background(),
		"NOPE",
		time.Now().AddDate(0, -1, 0),
		time.Now(),
		IntervalDaily,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_GetHistoricalPrices_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", zerolog.Nop())
	points, err := client.GetHistoricalPrices(
		context.Background(),
		"GSPC.INDX",
		time.Now().AddDate(0, -1, 0),
		time.Now(),
		IntervalDaily,
	)
	require.NoError(t, err)
	assert.Empty(t, points)
}
