package analytics

import (
	"testing"

	"finsight/internal/core"
)

func TestBuildMonthlyReport(t *testing.T) {
	txns := []core.Transaction{
		income("pay", 5000, at(2025, 2, 1, 0)),
		expense("rent", "rent", "", 1500, at(2025, 2, 3, 0)),
		expense("food1", "food", "", 200, at(2025, 2, 10, 0)),
		expense("food2", "food", "", 150, at(2025, 2, 20, 0)),
		expense("jan", "travel", "", 900, at(2025, 1, 31, 0)),
		expense("mar", "travel", "", 900, at(2025, 3, 1, 0)),
	}
	r := BuildMonthlyReport(txns, at(2025, 3, 10, 9))

	if r.Month != "February 2025" {
		t.Errorf("Month = %s", r.Month)
	}
	if !approx(r.Income, 5000) || !approx(r.Expenses, 1850) || !approx(r.Savings, 3150) {
		t.Errorf("unexpected totals %+v", r)
	}
	if r.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", r.TransactionCount)
	}
	if len(r.TopCategories) != 2 || r.TopCategories[0].Name != "rent" || !approx(r.TopCategories[1].Amount, 350) {
		t.Errorf("unexpected categories %+v", r.TopCategories)
	}
	if len(r.Tips) != 3 {
		t.Errorf("expected three tips, got %v", r.Tips)
	}
}

func TestBuildMonthlyReport_Empty(t *testing.T) {
	r := BuildMonthlyReport(nil, at(2025, 1, 5, 0))
	if r.Month != "December 2024" || r.TransactionCount != 0 {
		t.Errorf("unexpected report %+v", r)
	}
	if len(r.Tips) != 3 || r.Tips[0] != emptyLedgerTips[0] {
		t.Errorf("expected onboarding tips, got %v", r.Tips)
	}
	if len(r.TopCategories) != 0 {
		t.Errorf("expected no categories, got %+v", r.TopCategories)
	}
}
