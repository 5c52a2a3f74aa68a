package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	// Transaction is a single ledger entry as supplied by the persistence layer.
	// Analyzers treat it as read-only.
	Transaction struct {
		ID          string          `json:"id" validate:"required"`
		Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
		Type        TransactionType `json:"type" validate:"oneof=INCOME EXPENSE"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date" validate:"ledgerdate"`
	}

	// Account carries the signed balance used to approximate liquidity.
	Account struct {
		ID      string          `json:"id"`
		Name    string          `json:"name,omitempty"`
		Balance decimal.Decimal `json:"balance"`
	}

	// Budget is the allowance for the current (monthly) period.
	Budget struct {
		Amount decimal.Decimal `json:"amount" validate:"gte=0"`
	}

	// Snapshot is everything the analyzers need for one user at one instant.
	Snapshot struct {
		UserID       string        `json:"userId"`
		Transactions []Transaction `json:"transactions"`
		Accounts     []Account     `json:"accounts"`
		Budget       *Budget       `json:"budget,omitempty"`
	}
)

// IsExpense reports whether t is an outgoing transaction.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// IsIncome reports whether t is an incoming transaction.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// Value returns the amount as float64 for statistics.
func (t Transaction) Value() float64 {
	return t.Amount.InexactFloat64()
}

// Validate checks a single transaction against the ledger rules.
func (t Transaction) Validate() error {
	return validateRecord(t)
}

// Validate checks the budget amount.
func (b Budget) Validate() error {
	return validateRecord(b)
}

// IsSet reports whether a budget exists and has a positive allowance.
func (b *Budget) IsSet() bool {
	return b != nil && b.Amount.IsPositive()
}

// Value returns the budget amount as float64, or 0 for a nil budget.
func (b *Budget) Value() float64 {
	if b == nil {
		return 0
	}
	return b.Amount.InexactFloat64()
}

// IsEmpty reports whether the snapshot has neither transactions nor accounts.
func (s Snapshot) IsEmpty() bool {
	return len(s.Transactions) == 0 && len(s.Accounts) == 0
}

// TotalBalance sums the balances of all accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// NewDate creates a UTC midnight time for year, month, day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// dateLayouts are the accepted textual date forms, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
	"02/01/2006",
}

// ParseDate reads a ledger date. Date-only forms are taken as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// CivilDay strips the time of day from t, keeping its calendar date in t's location.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(CivilDay(b).Sub(CivilDay(a)).Hours() / 24)
}

// SameMonth reports whether t falls in the calendar month of ref, evaluated in ref's location.
func SameMonth(t, ref time.Time) bool {
	t = t.In(ref.Location())
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}

// MonthStart returns the first instant of the month offset months away from ref.
func MonthStart(ref time.Time, offset int) time.Time {
	return time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, ref.Location())
}

// DaysInMonth returns the number of days of ref's month.
func DaysInMonth(ref time.Time) int {
	return time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, ref.Location()).Day()
}
