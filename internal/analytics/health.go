package analytics

import (
	"fmt"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	StatusExcellent FactorStatus = "excellent"
	StatusGood      FactorStatus = "good"
	StatusFair      FactorStatus = "fair"
	StatusPoor      FactorStatus = "poor"
)

const consistencyWindowDays = 30

type (
	FactorStatus string

	// HealthFactor is one additive component of the health score.
	HealthFactor struct {
		Name      string       `json:"name"`
		Points    int          `json:"points"`
		MaxPoints int          `json:"maxPoints"`
		Status    FactorStatus `json:"status"`
		Message   string       `json:"message"`
	}

	// HealthReport is the 0-100 financial health score with its breakdown.
	HealthReport struct {
		Score   int            `json:"score"`
		Grade   string         `json:"grade"`
		Rating  string         `json:"rating"`
		Factors []HealthFactor `json:"factors"`
	}
)

// ScoreHealth grades the user's finances from five independent factors. It
// returns nil when there are neither transactions nor accounts to judge.
func ScoreHealth(txns []core.Transaction, accounts []core.Account, budget *core.Budget, now time.Time) *HealthReport {
	if len(txns) == 0 && len(accounts) == 0 {
		return nil
	}

	var month []core.Transaction
	for _, t := range txns {
		if core.SameMonth(t.Date, now) {
			month = append(month, t)
		}
	}
	income, expenses := core.SumByType(month)

	factors := []HealthFactor{
		savingsFactor(income, expenses),
		budgetFactor(expenses, budget),
		liquidityFactor(core.TotalBalance(accounts).InexactFloat64()),
		consistencyFactor(txns, now),
		activityFactor(len(txns)),
	}

	report := &HealthReport{Factors: factors}
	for _, f := range factors {
		report.Score += f.Points
	}
	report.Grade, report.Rating = grade(report.Score)
	return report
}

func savingsFactor(income, expenses float64) HealthFactor {
	f := HealthFactor{Name: "Savings Rate", MaxPoints: 30}
	rate := stats.SafeDivide(income-expenses, income, 0) * 100
	switch {
	case rate >= 20:
		f.Points, f.Status, f.Message = 30, StatusExcellent, fmt.Sprintf("Excellent! Saving %.0f%% of income", rate)
	case rate >= 10:
		f.Points, f.Status, f.Message = 20, StatusGood, fmt.Sprintf("Good! Saving %.0f%% of income", rate)
	case rate > 0:
		f.Points, f.Status, f.Message = 10, StatusFair, fmt.Sprintf("Saving %.0f%% - aim for 20%%", rate)
	default:
		f.Points, f.Status, f.Message = 0, StatusPoor, "Not saving - expenses exceed income"
	}
	return f
}

func budgetFactor(expenses float64, budget *core.Budget) HealthFactor {
	f := HealthFactor{Name: "Budget Control", MaxPoints: 25}
	if !budget.IsSet() {
		f.Points, f.Status, f.Message = 10, StatusFair, "No budget set - create one to improve"
		return f
	}
	usage := stats.SafeDivide(expenses, budget.Value(), 0) * 100
	switch {
	case usage <= 80:
		f.Points, f.Status, f.Message = 25, StatusExcellent, fmt.Sprintf("Using only %.0f%% of budget", usage)
	case usage <= 100:
		f.Points, f.Status, f.Message = 15, StatusGood, fmt.Sprintf("%.0f%% of budget used", usage)
	default:
		f.Points, f.Status, f.Message = 5, StatusPoor, fmt.Sprintf("Over budget by %.0f%%", usage-100)
	}
	return f
}

func liquidityFactor(balance float64) HealthFactor {
	f := HealthFactor{Name: "Emergency Fund", MaxPoints: 20}
	switch {
	case balance >= 10000:
		f.Points, f.Status, f.Message = 20, StatusExcellent, "Strong emergency fund"
	case balance >= 5000:
		f.Points, f.Status, f.Message = 15, StatusGood, "Good buffer, build more"
	case balance >= 1000:
		f.Points, f.Status, f.Message = 10, StatusFair, "Build emergency fund to 5000"
	case balance >= 0:
		f.Points, f.Status, f.Message = 5, StatusPoor, "Low balance - risky situation"
	default:
		f.Points, f.Status, f.Message = 0, StatusPoor, "Negative balance - urgent action needed"
	}
	return f
}

// consistencyFactor compares the spread of recent expense amounts with the
// average daily spend over the trailing window ending at now. Future-dated
// transactions are outside the window.
func consistencyFactor(txns []core.Transaction, now time.Time) HealthFactor {
	f := HealthFactor{Name: "Spending Pattern", MaxPoints: 15}

	var amounts []float64
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		age := now.Sub(t.Date).Hours() / 24
		if age >= 0 && age <= consistencyWindowDays {
			amounts = append(amounts, t.Value())
		}
	}
	avgDaily := stats.Sum(amounts) / consistencyWindowDays
	spread := stats.StdDev(amounts, avgDaily)

	switch {
	case spread < 0.5*avgDaily:
		f.Points, f.Status, f.Message = 15, StatusExcellent, "Consistent spending habits"
	case spread < avgDaily:
		f.Points, f.Status, f.Message = 10, StatusGood, "Moderate spending consistency"
	default:
		f.Points, f.Status, f.Message = 5, StatusFair, "Erratic spending - track better"
	}
	return f
}

func activityFactor(count int) HealthFactor {
	f := HealthFactor{Name: "Transaction Tracking", MaxPoints: 10}
	switch {
	case count >= 20:
		f.Points, f.Status, f.Message = 10, StatusExcellent, "Actively tracking finances"
	case count >= 10:
		f.Points, f.Status, f.Message = 7, StatusGood, "Good tracking, add more data"
	default:
		f.Points, f.Status, f.Message = 4, StatusFair, "Limited data - track more"
	}
	return f
}

func grade(score int) (string, string) {
	switch {
	case score >= 85:
		return "A+", "Excellent"
	case score >= 70:
		return "A", "Very Good"
	case score >= 55:
		return "B", "Good"
	case score >= 40:
		return "C", "Fair"
	default:
		return "D", "Needs Improvement"
	}
}
