package ledger

import (
	"fmt"
	"strings"

	"finsight/internal/core"
)

// Column names understood in transaction and account tables. Matching is
// case-insensitive; column order is free.
const (
	ColID          = "id"
	ColDate        = "date"
	ColType        = "type"
	ColAmount      = "amount"
	ColCategory    = "category"
	ColDescription = "description"
	ColUser        = "user"
	ColName        = "name"
	ColBalance     = "balance"
)

// Header maps lower-cased column names to their index.
type Header map[string]int

// NewHeader indexes a header row.
func NewHeader(cells []string) Header {
	h := make(Header, len(cells))
	for i, c := range cells {
		name := strings.ToLower(strings.TrimSpace(c))
		if _, dup := h[name]; !dup && name != "" {
			h[name] = i
		}
	}
	return h
}

// Require reports the columns missing from h.
func (h Header) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns %s", strings.Join(missing, ","))
	}
	return nil
}

// Get returns the trimmed cell of column name, or "" when absent.
func (h Header) Get(row []string, name string) string {
	idx, ok := h[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseTransactionRow builds a transaction from one table row. The result is
// not validated; callers decide whether to reject or sanitize.
func ParseTransactionRow(h Header, row []string) (core.Transaction, error) {
	t := core.Transaction{
		ID:          h.Get(row, ColID),
		Category:    h.Get(row, ColCategory),
		Description: h.Get(row, ColDescription),
	}

	var err error
	if t.Type, err = core.ParseTransactionType(h.Get(row, ColType)); err != nil {
		return t, err
	}
	if t.Amount, err = core.ParseAmount(h.Get(row, ColAmount)); err != nil {
		return t, err
	}
	if t.Date, err = core.ParseDate(h.Get(row, ColDate)); err != nil {
		return t, err
	}
	return t, nil
}

// ParseAccountRow builds an account from one table row.
func ParseAccountRow(h Header, row []string) (core.Account, error) {
	a := core.Account{
		ID:   h.Get(row, ColID),
		Name: h.Get(row, ColName),
	}
	if a.ID == "" {
		a.ID = a.Name
	}
	if a.ID == "" {
		return a, fmt.Errorf("%w: account without id or name", core.ErrInvalidRecord)
	}
	balance, err := core.ParseSignedAmount(h.Get(row, ColBalance))
	if err != nil {
		return a, fmt.Errorf("account %s: %w", a.ID, err)
	}
	a.Balance = balance
	return a, nil
}
