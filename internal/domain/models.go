// Package domain contains the core domain models shared across modules.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "time"

// AccountKind identifies the type of an account
type AccountKind string

const (
	AccountChecking  AccountKind = "checking"
	AccountSavings   AccountKind = "savings"
	AccountBrokerage AccountKind = "brokerage"
)

// Valid reports whether the account kind is one of the known values
func (k AccountKind) Valid() bool {
	switch k {
	case AccountChecking, AccountSavings, AccountBrokerage:
		return true
	}
	return false
}

// Account represents a tracked account. Brokerage accounts carry a benchmark
// symbol and are eligible for performance reporting.
type Account struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Kind            AccountKind `json:"kind"`
	Currency        string      `json:"currency"`
	BenchmarkSymbol string      `json:"benchmark_symbol,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// TradeSide is the direction of a trade
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// Trade is a single buy or sell of a security, owned by the ledger.
// Trades are immutable and ordered by (executed_at, id).
type Trade struct {
	ID         int64     `json:"id"`
	AccountID  string    `json:"account_id"`
	Symbol     string    `json:"symbol"`
	Side       TradeSide `json:"side"`
	Shares     float64   `json:"shares"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Transaction is a plain cash movement on an account (expense, income,
// recurring payment posting).
type Transaction struct {
	ID          int64     `json:"id"`
	AccountID   string    `json:"account_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	RecurringID string    `json:"recurring_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Transfer moves cash between two accounts
type Transfer struct {
	ID            int64     `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        float64   `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Dividend is a dividend payment received for a security
type Dividend struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"account_id"`
	Symbol    string    `json:"symbol"`
	NetAmount float64   `json:"net_amount"`
	ExDate    time.Time `json:"ex_date"`
}

// RecurringPayment is a standing payment definition. A scheduler posts one
// transaction per due occurrence.
type RecurringPayment struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	DayOfMonth  int        `json:"day_of_month"`
	Active      bool       `json:"active"`
	LastPosted  *time.Time `json:"last_posted,omitempty"`
}

// PricePoint is one closing price for a symbol on a trading day.
// Series come from the external price service and may have gaps.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}
