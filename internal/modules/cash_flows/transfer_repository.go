package cash_flows

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// TransferRepository handles transfer database operations.
// A transfer is stored once and reported from both account perspectives.
type TransferRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransferRepository {
	return &TransferRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transfers").Logger(),
	}
}

// Create inserts a new transfer between two accounts
func (r *TransferRepository) Create(transfer domain.Transfer) error {
	if transfer.FromAccountID == "" || transfer.ToAccountID == "" {
		return errors.New("both from_account_id and to_account_id are required")
	}
	if transfer.FromAccountID == transfer.ToAccountID {
		return errors.New("cannot transfer to the same account")
	}
	if transfer.Amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %f", transfer.Amount)
	}
	if transfer.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}

	query := `
		INSERT INTO transfers (from_account_id, to_account_id, amount, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.Amount,
		transfer.OccurredAt.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	r.log.Info().
		Str("from", transfer.FromAccountID).
		Str("to", transfer.ToAccountID).
		Float64("amount", transfer.Amount).
		Msg("Transfer created")

	return nil
}

// ListByAccount returns transfers where the account is either side, newest first
func (r *TransferRepository) ListByAccount(accountID string) ([]domain.Transfer, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, occurred_at
		FROM transfers
		WHERE from_account_id = ? OR to_account_id = ?
		ORDER BY occurred_at DESC, id DESC
	`
	rows, err := r.ledgerDB.Query(query, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	transfers := make([]domain.Transfer, 0)
	for rows.Next() {
		var transfer domain.Transfer
		var occurredAt int64
		if err := rows.Scan(
			&transfer.ID,
			&transfer.FromAccountID,
			&transfer.ToAccountID,
			&transfer.Amount,
			&occurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfer.OccurredAt = time.Unix(occurredAt, 0).UTC()
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
