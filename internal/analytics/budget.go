package analytics

import (
	"fmt"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	BudgetOnTrack  BudgetStatus = "on_track"
	BudgetWatch    BudgetStatus = "watch"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
)

type (
	BudgetStatus string

	// BudgetInsight describes how the current month's spending tracks against
	// the budget and where it is heading.
	BudgetInsight struct {
		Month                   string       `json:"month"`
		Budget                  float64      `json:"budget"`
		Spent                   float64      `json:"spent"`
		Remaining               float64      `json:"remaining"`
		PercentUsed             float64      `json:"percentUsed"`
		DaysInMonth             int          `json:"daysInMonth"`
		DaysRemaining           int          `json:"daysRemaining"`
		DailyBudget             float64      `json:"dailyBudget"`
		DailySpending           float64      `json:"dailySpending"`
		RemainingDailyAllowance float64      `json:"remainingDailyAllowance"`
		ProjectedSpend          float64      `json:"projectedSpend"`
		ProjectedSavings        float64      `json:"projectedSavings"`
		Status                  BudgetStatus `json:"status"`
		Guidance                []string     `json:"guidance"`
	}
)

// NeedsAlert reports whether the budget is close enough to exhaustion to notify.
func (b *BudgetInsight) NeedsAlert() bool {
	return b != nil && (b.Status == BudgetWarning || b.Status == BudgetCritical)
}

// AnalyzeBudget measures the current month's expenses against budget. It
// returns nil without a positive budget.
func AnalyzeBudget(txns []core.Transaction, budget *core.Budget, now time.Time) *BudgetInsight {
	if !budget.IsSet() {
		return nil
	}

	var spent float64
	for _, t := range txns {
		if t.IsExpense() && core.SameMonth(t.Date, now) {
			spent += t.Value()
		}
	}

	amount := budget.Value()
	daysInMonth := core.DaysInMonth(now)
	day := now.Day()
	daysRemaining := daysInMonth - day

	b := &BudgetInsight{
		Month:         now.Format("January 2006"),
		Budget:        amount,
		Spent:         spent,
		Remaining:     amount - spent,
		PercentUsed:   stats.SafeDivide(spent, amount, 0) * 100,
		DaysInMonth:   daysInMonth,
		DaysRemaining: daysRemaining,
		DailyBudget:   amount / float64(daysInMonth),
		DailySpending: spent / float64(day),
	}
	// On the last day the whole remainder is today's allowance.
	b.RemainingDailyAllowance = stats.SafeDivide(b.Remaining, float64(daysRemaining), b.Remaining)
	b.ProjectedSpend = b.DailySpending * float64(daysInMonth)
	b.ProjectedSavings = max(0, amount-b.ProjectedSpend)
	b.Status = budgetStatus(b.PercentUsed)
	b.Guidance = budgetGuidance(b)
	return b
}

func budgetStatus(pct float64) BudgetStatus {
	switch {
	case pct >= 90:
		return BudgetCritical
	case pct >= 80:
		return BudgetWarning
	case pct >= 60:
		return BudgetWatch
	default:
		return BudgetOnTrack
	}
}

func budgetGuidance(b *BudgetInsight) []string {
	switch b.Status {
	case BudgetCritical:
		return []string{
			fmt.Sprintf("Critical: %.1f%% of your %.0f budget used with %d days left in the month.", b.PercentUsed, b.Budget, b.DaysRemaining),
			fmt.Sprintf("Only %.0f left, that is %.0f per day. Stick to essentials.", b.Remaining, b.RemainingDailyAllowance),
		}
	case BudgetWarning:
		pace := "good pace"
		if b.DailySpending > b.RemainingDailyAllowance {
			pace = "reduce spending"
		}
		return []string{
			fmt.Sprintf("Warning: %.1f%% of budget used. %.0f left for the next %d days.", b.PercentUsed, b.Remaining, b.DaysRemaining),
			fmt.Sprintf("Daily limit is now %.0f. Currently spending %.0f per day, %s.", b.RemainingDailyAllowance, b.DailySpending, pace),
		}
	case BudgetWatch:
		pace := "on track"
		if b.DailySpending > b.DailyBudget {
			pace = "overspending"
		}
		return []string{
			fmt.Sprintf("At %.1f%% with %.0f remaining for %d days (%.0f per day).", b.PercentUsed, b.Remaining, b.DaysRemaining, b.RemainingDailyAllowance),
			fmt.Sprintf("Average daily spending %.0f against a daily budget of %.0f: %s.", b.DailySpending, b.DailyBudget, pace),
		}
	default:
		return []string{
			fmt.Sprintf("Only %.1f%% used, %.0f remaining.", b.PercentUsed, b.Remaining),
			fmt.Sprintf("At the current pace of %.0f per day you will save %.0f this month.", b.DailySpending, b.ProjectedSavings),
		}
	}
}
