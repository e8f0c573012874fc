package recurring

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
		Name: "Checking",
		Kind: domain.AccountChecking,
	})
	require.NoError(t, err)

	return NewRepository(db.Conn(), zerolog.Nop()), account.ID, cleanup
}

func TestRepository_CreateAndList(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	created, err := repo.Create(domain.RecurringPayment{
		AccountID:   accountID,
		Description: "Rent",
		Amount:      -900,
		DayOfMonth:  1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)

	list, err := repo.ListByAccount(accountID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rent", list[0].Description)
	assert.Nil(t, list[0].LastPosted)
}

func TestRepository_CreateValidation(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	_, err := repo.Create(domain.RecurringPayment{Description: "x", Amount: 1, DayOfMonth: 1})
	assert.Error(t, err)

	_, err = repo.Create(domain.RecurringPayment{AccountID: accountID, Description: " ", Amount: 1, DayOfMonth: 1})
	assert.Error(t, err)

	// Days 29-31 are rejected; they do not exist in every month
	_, err = repo.Create(domain.RecurringPayment{AccountID: accountID, Description: "x", Amount: 1, DayOfMonth: 31})
	assert.Error(t, err)

	_, err = repo.Create(domain.RecurringPayment{AccountID: accountID, Description: "x", Amount: 1, DayOfMonth: 0})
	assert.Error(t, err)
}

func TestRepository_DeactivateAndListActive(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	created, err := repo.Create(domain.RecurringPayment{
		AccountID:   accountID,
		Description: "Gym",
		Amount:      -30,
		DayOfMonth:  5,
	})
	require.NoError(t, err)

	active, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, repo.Deactivate(created.ID))

	active, err = repo.ListActive()
	require.NoError(t, err)
	assert.Empty(t, active)

	// Still visible on the account, inactive
	all, err := repo.ListByAccount(accountID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	assert.ErrorIs(t, repo.Deactivate("missing"), ErrNotFound)
}

func TestRepository_MarkPosted(t *testing.T) {
	repo, accountID, cleanup := setup(t)
	defer cleanup()

	created, err := repo.Create(domain.RecurringPayment{
		AccountID:   accountID,
		Description: "Rent",
		Amount:      -900,
		DayOfMonth:  1,
	})
	require.NoError(t, err)

	posted := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPosted(created.ID, posted))

	list, err := repo.ListByAccount(accountID)
	require.NoError(t, err)
	require.NotNil(t, list[0].LastPosted)
	assert.Equal(t, posted, *list[0].LastPosted)
}
