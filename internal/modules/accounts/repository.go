// Package accounts provides the repository and services for tracked accounts.
package accounts

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

// ErrNotFound is returned when an account does not exist
var ErrNotFound = errors.New("account not found")

// accountsColumns is the list of columns for the accounts table
// Used to avoid SELECT * which can break when schema changes
// Column order must match scanAccount() expectations
const accountsColumns = `id, name, kind, currency, benchmark_symbol, created_at`

// Repository handles account database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "accounts").Logger(),
	}
}

// Create inserts a new account and returns it with a generated ID
func (r *Repository) Create(account domain.Account) (*domain.Account, error) {
	if !account.Kind.Valid() {
		return nil, fmt.Errorf("invalid account kind: %s", account.Kind)
	}
	if strings.TrimSpace(account.Name) == "" {
		return nil, fmt.Errorf("account name is required")
	}

	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	if account.Currency == "" {
		account.Currency = "EUR"
	}

	query := `
		INSERT INTO accounts (id, name, kind, currency, benchmark_symbol, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		account.ID,
		strings.TrimSpace(account.Name),
		string(account.Kind),
		account.Currency,
		nullString(account.BenchmarkSymbol),
		account.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	r.log.Info().
		Str("account_id", account.ID).
		Str("kind", string(account.Kind)).
		Msg("Account created")

	return &account, nil
}

// GetByID retrieves an account by ID
func (r *Repository) GetByID(id string) (*domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE id = ?"
	account, err := scanAccount(r.ledgerDB.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// List returns all accounts ordered by creation time
func (r *Repository) List() ([]domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts ORDER BY created_at ASC"

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// Update changes an account's name and benchmark symbol
func (r *Repository) Update(id, name, benchmarkSymbol string) error {
	result, err := r.ledgerDB.Exec(
		"UPDATE accounts SET name = ?, benchmark_symbol = ? WHERE id = ?",
		strings.TrimSpace(name), nullString(benchmarkSymbol), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*domain.Account, error) {
	var account domain.Account
	var benchmark sql.NullString
	var createdAt int64

	err := row.Scan(
		&account.ID,
		&account.Name,
		(*string)(&account.Kind),
		&account.Currency,
		&benchmark,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if benchmark.Valid {
		account.BenchmarkSymbol = benchmark.String
	}
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &account, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
