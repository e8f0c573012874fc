// Package trading provides the trade ledger repository.
// Trades are the immutable buy/sell log that the performance engine replays.
package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// tradesColumns is the list of columns for the trades table
// Used to avoid SELECT * which can break when schema changes
// Column order must match scanTrade() expectations
const tradesColumns = `id, account_id, symbol, side, shares, price, executed_at`

// TradeRepository handles trade database operations
type TradeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a new trade record
func (r *TradeRepository) Create(trade domain.Trade) error {
	if err := validateTrade(trade); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	query := `
		INSERT INTO trades (account_id, symbol, side, shares, price, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		trade.AccountID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Side),
		trade.Shares,
		trade.Price,
		trade.ExecutedAt.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Info().
		Str("account_id", trade.AccountID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Float64("shares", trade.Shares).
		Msg("Trade created")

	return nil
}

// ListByAccount returns all trades for an account in chronological order.
// Ordering is (executed_at, id) so same-day trades keep insertion order,
// which the replay engine depends on.
func (r *TradeRepository) ListByAccount(accountID string) ([]domain.Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE account_id = ? ORDER BY executed_at ASC, id ASC"

	rows, err := r.ledgerDB.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

// Delete removes a trade by ID
func (r *TradeRepository) Delete(id int64) error {
	result, err := r.ledgerDB.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.New("trade not found")
	}
	return nil
}

func validateTrade(trade domain.Trade) error {
	if trade.AccountID == "" {
		return errors.New("account_id is required")
	}
	if strings.TrimSpace(trade.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if trade.Side != domain.TradeBuy && trade.Side != domain.TradeSell {
		return fmt.Errorf("invalid trade side: %s", trade.Side)
	}
	if trade.Shares <= 0 {
		return fmt.Errorf("shares must be positive, got %f", trade.Shares)
	}
	if trade.Price < 0 {
		return fmt.Errorf("price must not be negative, got %f", trade.Price)
	}
	if trade.ExecutedAt.IsZero() {
		return errors.New("executed_at is required")
	}
	return nil
}

func scanTrade(rows *sql.Rows) (*domain.Trade, error) {
	var trade domain.Trade
	var executedAt int64

	err := rows.Scan(
		&trade.ID,
		&trade.AccountID,
		&trade.Symbol,
		(*string)(&trade.Side),
		&trade.Shares,
		&trade.Price,
		&executedAt,
	)
	if err != nil {
		return nil, err
	}
	trade.ExecutedAt = time.Unix(executedAt, 0).UTC()
	return &trade, nil
}
