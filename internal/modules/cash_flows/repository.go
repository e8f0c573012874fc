// Package cash_flows provides repository implementations for cash transactions
// and transfers between accounts. These records live in ledger.db alongside
// trades and dividends and form the immutable audit trail.
package cash_flows

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// transactionsColumns is the list of columns for the transactions table
// Column order must match scanTransaction() expectations
const transactionsColumns = `id, account_id, description, amount, category, recurring_id, occurred_at`

// Repository handles cash transaction database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new cash flow repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "cash_flows").Logger(),
	}
}

// Create inserts a new cash transaction
func (r *Repository) Create(tx domain.Transaction) error {
	if tx.AccountID == "" {
		return errors.New("account_id is required")
	}
	if tx.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}

	query := `
		INSERT INTO transactions (account_id, description, amount, category, recurring_id, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		tx.AccountID,
		strings.TrimSpace(tx.Description),
		tx.Amount,
		nullString(tx.Category),
		nullString(tx.RecurringID),
		tx.OccurredAt.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.log.Info().
		Str("account_id", tx.AccountID).
		Float64("amount", tx.Amount).
		Msg("Transaction created")

	return nil
}

// ListByAccount returns transactions for an account, newest first, up to limit.
// limit <= 0 means no limit.
func (r *Repository) ListByAccount(accountID string, limit int) ([]domain.Transaction, error) {
	query := "SELECT " + transactionsColumns + " FROM transactions WHERE account_id = ? ORDER BY occurred_at DESC, id DESC"
	args := []interface{}{accountID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// LastPostedForRecurring returns the most recent posting date for a recurring
// payment, or nil when nothing was posted yet.
func (r *Repository) LastPostedForRecurring(recurringID string) (*time.Time, error) {
	var occurredAt sql.NullInt64
	err := r.ledgerDB.QueryRow(
		"SELECT MAX(occurred_at) FROM transactions WHERE recurring_id = ?", recurringID,
	).Scan(&occurredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query last posting: %w", err)
	}
	if !occurredAt.Valid {
		return nil, nil
	}
	t := time.Unix(occurredAt.Int64, 0).UTC()
	return &t, nil
}

func scanTransaction(rows *sql.Rows) (*domain.Transaction, error) {
	var tx domain.Transaction
	var category, recurringID sql.NullString
	var occurredAt int64

	err := rows.Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Description,
		&tx.Amount,
		&category,
		&recurringID,
		&occurredAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		tx.Category = category.String
	}
	if recurringID.Valid {
		tx.RecurringID = recurringID.String
	}
	tx.OccurredAt = time.Unix(occurredAt, 0).UTC()
	return &tx, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
