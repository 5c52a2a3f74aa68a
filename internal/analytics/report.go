package analytics

import (
	"time"

	"finsight/internal/core"
)

const reportTopCategories = 5

var (
	emptyLedgerTips = []string{
		"Start tracking your transactions to get personalized insights.",
		"Record your first transaction to see an analysis of your finances.",
		"Once there is data, recommendations will be tailored to your spending.",
	}
	defaultTips = []string{
		"Track your expenses regularly for better financial management.",
		"Consider setting aside 20% of your income for savings.",
		"Review your budget monthly to stay on track.",
	}
)

// MonthlyReport summarizes the calendar month before now.
type MonthlyReport struct {
	Month            string                `json:"month"`
	Income           float64               `json:"income"`
	Expenses         float64               `json:"expenses"`
	Savings          float64               `json:"savings"`
	TransactionCount int                   `json:"transactionCount"`
	TopCategories    []core.CategoryAmount `json:"topCategories"`
	Tips             []string              `json:"tips"`
}

// BuildMonthlyReport totals the previous calendar month, evaluated in now's location.
func BuildMonthlyReport(txns []core.Transaction, now time.Time) MonthlyReport {
	start := core.MonthStart(now, -1)

	var month []core.Transaction
	for _, t := range txns {
		if core.SameMonth(t.Date, start) {
			month = append(month, t)
		}
	}
	income, expenses := core.SumByType(month)

	tips := defaultTips
	if len(month) == 0 {
		tips = emptyLedgerTips
	}
	return MonthlyReport{
		Month:            start.Format("January 2006"),
		Income:           income,
		Expenses:         expenses,
		Savings:          income - expenses,
		TransactionCount: len(month),
		TopCategories:    core.TopCategories(month, reportTopCategories),
		Tips:             append([]string(nil), tips...),
	}
}
