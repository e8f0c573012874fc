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

// recordingWriter collects posted transactions in memory
type recordingWriter struct {
	posted []domain.Transaction
}

func (w *recordingWriter) Create(tx domain.Transaction) error {
	w.posted = append(w.posted, tx)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueOccurrences_NeverPostedStartsInCurrentMonth(t *testing.T) {
	payment := domain.RecurringPayment{DayOfMonth: 15}

	due := dueOccurrences(payment, date(2024, time.May, 20))
	require.Len(t, due, 1)
	assert.Equal(t, date(2024, time.May, 15), due[0])

	// Before the scheduled day nothing is due yet
	due = dueOccurrences(payment, date(2024, time.May, 10))
	assert.Empty(t, due)
}

func TestDueOccurrences_CatchesUpMissedMonths(t *testing.T) {
	last := date(2024, time.February, 15)
	payment := domain.RecurringPayment{DayOfMonth: 15, LastPosted: &last}

	due := dueOccurrences(payment, date(2024, time.May, 20))
	require.Len(t, due, 3)
	assert.Equal(t, date(2024, time.March, 15), due[0])
	assert.Equal(t, date(2024, time.April, 15), due[1])
	assert.Equal(t, date(2024, time.May, 15), due[2])
}

func TestDueOccurrences_NothingDueWhenUpToDate(t *testing.T) {
	last := date(2024, time.May, 15)
	payment := domain.RecurringPayment{DayOfMonth: 15, LastPosted: &last}

	due := dueOccurrences(payment, date(2024, time.May, 20))
	assert.Empty(t, due)
}

func TestPostingJob_PostsDueOccurrencesOnce(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	account, err := accounts.NewRepository(db.Conn(), zerolog.Nop()).Create(domain.Account{
		Name: "Checking",
		Kind: domain.AccountChecking,
	})
	require.NoError(t, err)

	repo := NewRepository(db.Conn(), zerolog.Nop())
	payment, err := repo.Create(domain.RecurringPayment{
		AccountID:   account.ID,
		Description: "Rent",
		Amount:      -900,
		DayOfMonth:  1,
	})
	require.NoError(t, err)

	writer := &recordingWriter{}
	job := NewPostingJob(repo, writer, zerolog.Nop())
	job.now = func() time.Time { return date(2024, time.May, 3) }

	require.NoError(t, job.Run())
	require.Len(t, writer.posted, 1)
	assert.Equal(t, date(2024, time.May, 1), writer.posted[0].OccurredAt)
	assert.Equal(t, "recurring", writer.posted[0].Category)
	assert.Equal(t, payment.ID, writer.posted[0].RecurringID)

	// Second run on the same day posts nothing: last_posted advanced
	require.NoError(t, job.Run())
	assert.Len(t, writer.posted, 1)
}
