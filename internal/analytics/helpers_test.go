package analytics

import (
	"math"
	"time"

	"finsight/internal/core"

	"github.com/shopspring/decimal"
)

func expense(id, category, description string, amount float64, date time.Time) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      decimal.NewFromFloat(amount),
		Type:        core.Expense,
		Category:    category,
		Description: description,
		Date:        date,
	}
}

func income(id string, amount float64, date time.Time) core.Transaction {
	return core.Transaction{
		ID:       id,
		Amount:   decimal.NewFromFloat(amount),
		Type:     core.Income,
		Category: "salary",
		Date:     date,
	}
}

func at(year, month, day, hour int) time.Time {
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
