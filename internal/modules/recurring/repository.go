// Package recurring provides recurring payment definitions and the scheduled
// job that posts due occurrences to the ledger.
package recurring

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// ErrNotFound is returned when a recurring payment does not exist
var ErrNotFound = errors.New("recurring payment not found")

// recurringColumns is the list of columns for the recurring_payments table
// Column order must match scanRecurring() expectations
const recurringColumns = `id, account_id, description, amount, day_of_month, active, last_posted`

// Repository handles recurring payment database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new recurring payment repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "recurring").Logger(),
	}
}

// Create inserts a new recurring payment definition and returns it with a
// generated ID
func (r *Repository) Create(payment domain.RecurringPayment) (*domain.RecurringPayment, error) {
	if payment.AccountID == "" {
		return nil, errors.New("account_id is required")
	}
	if strings.TrimSpace(payment.Description) == "" {
		return nil, errors.New("description is required")
	}
	// Days 29-31 do not exist in every month; capping at 28 keeps the
	// schedule meaningful year-round.
	if payment.DayOfMonth < 1 || payment.DayOfMonth > 28 {
		return nil, fmt.Errorf("day_of_month must be between 1 and 28, got %d", payment.DayOfMonth)
	}

	payment.ID = uuid.NewString()
	payment.Active = true

	query := `
		INSERT INTO recurring_payments (id, account_id, description, amount, day_of_month, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		payment.ID,
		payment.AccountID,
		strings.TrimSpace(payment.Description),
		payment.Amount,
		payment.DayOfMonth,
		time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring payment: %w", err)
	}

	r.log.Info().
		Str("recurring_id", payment.ID).
		Str("account_id", payment.AccountID).
		Int("day_of_month", payment.DayOfMonth).
		Msg("Recurring payment created")

	return &payment, nil
}

// ListActive returns all active recurring payment definitions
func (r *Repository) ListActive() ([]domain.RecurringPayment, error) {
	return r.list("SELECT " + recurringColumns + " FROM recurring_payments WHERE active = 1 ORDER BY created_at ASC")
}

// ListByAccount returns all definitions for an account, active or not
func (r *Repository) ListByAccount(accountID string) ([]domain.RecurringPayment, error) {
	return r.list(
		"SELECT "+recurringColumns+" FROM recurring_payments WHERE account_id = ? ORDER BY created_at ASC",
		accountID,
	)
}

// Deactivate marks a recurring payment inactive; history stays in the ledger
func (r *Repository) Deactivate(id string) error {
	result, err := r.ledgerDB.Exec("UPDATE recurring_payments SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate recurring payment %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPosted records the most recent occurrence date posted for a definition
func (r *Repository) MarkPosted(id string, postedAt time.Time) error {
	_, err := r.ledgerDB.Exec(
		"UPDATE recurring_payments SET last_posted = ? WHERE id = ?",
		postedAt.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark recurring payment %s posted: %w", id, err)
	}
	return nil
}

func (r *Repository) list(query string, args ...interface{}) ([]domain.RecurringPayment, error) {
	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.RecurringPayment, 0)
	for rows.Next() {
		var payment domain.RecurringPayment
		var active int
		var lastPosted sql.NullInt64

		if err := rows.Scan(
			&payment.ID,
			&payment.AccountID,
			&payment.Description,
			&payment.Amount,
			&payment.DayOfMonth,
			&active,
			&lastPosted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recurring payment: %w", err)
		}

		payment.Active = active != 0
		if lastPosted.Valid {
			t := time.Unix(lastPosted.Int64, 0).UTC()
			payment.LastPosted = &t
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring payments: %w", err)
	}
	return payments, nil
}
