package recurring

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// TransactionWriter posts ledger transactions for due occurrences.
// Satisfied by the cash_flows repository.
type TransactionWriter interface {
	Create(tx domain.Transaction) error
}

// PostingJob posts due recurring payment occurrences as ledger transactions.
// It runs daily and catches up on occurrences missed while the service was
// down: every scheduled day between last_posted and today gets exactly one
// posting.
type PostingJob struct {
	repo   *Repository
	writer TransactionWriter
	now    func() time.Time
	log    zerolog.Logger
}

// NewPostingJob creates the recurring payment posting job
func NewPostingJob(repo *Repository, writer TransactionWriter, log zerolog.Logger) *PostingJob {
	return &PostingJob{
		repo:   repo,
		writer: writer,
		now:    time.Now,
		log:    log.With().Str("job", "recurring_postings").Logger(),
	}
}

// Name returns the job name for scheduler logging
func (j *PostingJob) Name() string {
	return "recurring_postings"
}

// Run posts all due occurrences for all active definitions.
// Failures on one definition do not block the others.
func (j *PostingJob) Run() error {
	payments, err := j.repo.ListActive()
	if err != nil {
		return fmt.Errorf("failed to load recurring payments: %w", err)
	}

	var failed int
	for _, payment := range payments {
		if err := j.postDue(payment); err != nil {
			j.log.Error().Err(err).Str("recurring_id", payment.ID).Msg("Failed to post recurring payment")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d recurring payments failed to post", failed, len(payments))
	}
	return nil
}

// postDue posts every occurrence of payment due after last_posted, up to today
func (j *PostingJob) postDue(payment domain.RecurringPayment) error {
	today := dateOnly(j.now().UTC())

	for _, due := range dueOccurrences(payment, today) {
		tx := domain.Transaction{
			AccountID:   payment.AccountID,
			Description: payment.Description,
			Amount:      payment.Amount,
			Category:    "recurring",
			RecurringID: payment.ID,
			OccurredAt:  due,
		}
		if err := j.writer.Create(tx); err != nil {
			return fmt.Errorf("failed to post occurrence %s: %w", due.Format("2006-01-02"), err)
		}
		if err := j.repo.MarkPosted(payment.ID, due); err != nil {
			return err
		}

		j.log.Info().
			Str("recurring_id", payment.ID).
			Str("date", due.Format("2006-01-02")).
			Float64("amount", payment.Amount).
			Msg("Posted recurring payment")
	}
	return nil
}

// dueOccurrences returns the scheduled dates after payment.LastPosted up to and
// including today, in ascending order. A definition that has never posted
// starts from the current month's occurrence.
func dueOccurrences(payment domain.RecurringPayment, today time.Time) []time.Time {
	var from time.Time
	if payment.LastPosted != nil {
		from = nextOccurrence(dateOnly(payment.LastPosted.UTC()), payment.DayOfMonth)
	} else {
		from = occurrenceInMonth(today, payment.DayOfMonth)
	}

	var due []time.Time
	for d := from; !d.After(today); d = nextOccurrence(d, payment.DayOfMonth) {
		due = append(due, d)
	}
	return due
}

// occurrenceInMonth returns the scheduled date in t's month
func occurrenceInMonth(t time.Time, dayOfMonth int) time.Time {
	return time.Date(t.Year(), t.Month(), dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// nextOccurrence returns the first scheduled date strictly after t
func nextOccurrence(t time.Time, dayOfMonth int) time.Time {
	candidate := occurrenceInMonth(t, dayOfMonth)
	if candidate.After(t) {
		return candidate
	}
	return occurrenceInMonth(candidate.AddDate(0, 1, 0), dayOfMonth)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
