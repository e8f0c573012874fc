package dividends

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/accounts"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func setup(t *testing.T) (*Repository, string, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "ledger")

	account, err := accounts.NewRepository(db.Conn(), zerolog.Nop()).Create(domain.Account{
		Name: "Brokerage",
		Kind: domain.AccountBrokerage,
	})
	require.NoError(t, err)

	return NewRepository(db.Conn(), zerolog.Nop()), account.ID, cleanup
}

func TestRepository_CreateAndList(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(domain.Dividend{AccountID: accountID, Symbol: "aapl", NetAmount: 12.5, ExDate: later}))
	require.NoError(t, repo.Create(domain.Dividend{AccountID: accountID, Symbol: "MSFT", NetAmount: 8.0, ExDate: earlier}))

	list, err := repo.ListByAccount(accountID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Chronological, symbol normalized to upper case
	assert.Equal(t, "MSFT", list[0].Symbol)
	assert.Equal(t, "AAPL", list[1].Symbol)
	assert.Equal(t, earlier, list[0].ExDate)
}

func TestRepository_CreateValidation(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	exDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Error(t, repo.Create(domain.Dividend{Symbol: "AAPL", NetAmount: 1, ExDate: exDate}))
	assert.Error(t, repo.Create(domain.Dividend{AccountID: accountID, Symbol: "  ", NetAmount: 1, ExDate: exDate}))
	assert.Error(t, repo.Create(domain.Dividend{AccountID: accountID, Symbol: "AAPL", NetAmount: 1}))
}
