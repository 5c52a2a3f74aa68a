package google

import (
	"errors"
	"testing"

	"finsight/internal/core"
)

func TestParseSnapshot(t *testing.T) {
	txns := [][]interface{}{
		{"Date", "Description", "Category", "Type", "Amount"},
		{"2025-02-01", "Rent", "home", "Expense", "1.200,00"},
		{"2025-02-02", "Salary", "salary", "Income", "3000"},
		{},
		{"2025-02-03", "Broken", "home", "Expense", "abc"},
		{"03/02/2025", "Coffee", "food", "out", 2.5},
	}
	accounts := [][]interface{}{
		{"Name", "Balance"},
		{"Checking", "1500.25"},
		{"Card", "-300"},
	}
	budget := [][]interface{}{{"2000"}}

	snap, skipped := parseSnapshot(txns, accounts, budget)

	if len(snap.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %+v", snap.Transactions)
	}
	if snap.Transactions[0].ID != "row:2" || snap.Transactions[2].ID != "row:6" {
		t.Errorf("unexpected row ids %s %s", snap.Transactions[0].ID, snap.Transactions[2].ID)
	}
	if snap.Transactions[0].Amount.String() != "1200" || snap.Transactions[2].Type != core.Expense {
		t.Errorf("unexpected parsed values %+v", snap.Transactions)
	}
	for _, tx := range snap.Transactions {
		if err := tx.Validate(); err != nil {
			t.Errorf("parsed transaction %s invalid: %v", tx.ID, err)
		}
	}

	if len(skipped) != 1 || skipped[0].row != 5 || !errors.Is(skipped[0].err, core.ErrInvalidAmount) {
		t.Errorf("unexpected skipped rows %+v", skipped)
	}
	if len(snap.Accounts) != 2 || core.TotalBalance(snap.Accounts).String() != "1200.25" {
		t.Errorf("unexpected accounts %+v", snap.Accounts)
	}
	if !snap.Budget.IsSet() || snap.Budget.Value() != 2000 {
		t.Errorf("unexpected budget %+v", snap.Budget)
	}
}

func TestParseSnapshot_Empty(t *testing.T) {
	snap, skipped := parseSnapshot(nil, nil, nil)
	if !snap.IsEmpty() || snap.Budget != nil || len(skipped) != 0 {
		t.Errorf("expected empty snapshot, got %+v %+v", snap, skipped)
	}

	snap, _ = parseSnapshot([][]interface{}{{"Date", "Type", "Amount"}}, nil, [][]interface{}{{""}})
	if !snap.IsEmpty() || snap.Budget != nil {
		t.Errorf("header-only sheet must be empty, got %+v", snap)
	}
}

func TestParseSnapshot_BadBudget(t *testing.T) {
	snap, skipped := parseSnapshot(nil, nil, [][]interface{}{{"a lot"}})
	if snap.Budget != nil || len(skipped) != 1 || skipped[0].sheet != "budget" {
		t.Errorf("expected skipped budget, got %+v %+v", snap.Budget, skipped)
	}
}
