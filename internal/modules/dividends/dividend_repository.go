// Package dividends provides the repository for dividend records.
// Dividends live in ledger.db and represent net payments received per symbol;
// the performance engine annotates them onto the timeline.
package dividends

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// dividendsColumns is the list of columns for the dividends table
// Column order must match scanDividend() expectations
const dividendsColumns = `id, account_id, symbol, net_amount, ex_date`

// Repository handles dividend database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new dividend repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "dividend").Logger(),
	}
}

// Create inserts a new dividend record
func (r *Repository) Create(dividend domain.Dividend) error {
	if dividend.AccountID == "" {
		return errors.New("account_id is required")
	}
	if strings.TrimSpace(dividend.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if dividend.ExDate.IsZero() {
		return errors.New("ex_date is required")
	}

	query := `
		INSERT INTO dividends (account_id, symbol, net_amount, ex_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		dividend.AccountID,
		strings.ToUpper(strings.TrimSpace(dividend.Symbol)),
		dividend.NetAmount,
		dividend.ExDate.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create dividend: %w", err)
	}

	r.log.Info().
		Str("account_id", dividend.AccountID).
		Str("symbol", dividend.Symbol).
		Float64("net_amount", dividend.NetAmount).
		Msg("Dividend created")

	return nil
}

// ListByAccount returns all dividends for an account in chronological order
func (r *Repository) ListByAccount(accountID string) ([]domain.Dividend, error) {
	query := "SELECT " + dividendsColumns + " FROM dividends WHERE account_id = ? ORDER BY ex_date ASC, id ASC"

	rows, err := r.ledgerDB.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividends: %w", err)
	}
	defer rows.Close()

	dividends := make([]domain.Dividend, 0)
	for rows.Next() {
		var dividend domain.Dividend
		var exDate int64
		if err := rows.Scan(
			&dividend.ID,
			&dividend.AccountID,
			&dividend.Symbol,
			&dividend.NetAmount,
			&exDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividend.ExDate = time.Unix(exDate, 0).UTC()
		dividends = append(dividends, dividend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividends: %w", err)
	}
	return dividends, nil
}
