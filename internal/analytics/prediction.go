package analytics

import (
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"

	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
)

const (
	windowLength        = 3
	minPopulatedMonths  = 2
	predictionTopCounts = 3
)

type (
	TrendDirection string
	Confidence     string

	// MonthTotal is the expense total of one calendar month.
	MonthTotal struct {
		Month     string  `json:"month"`
		Expenses  float64 `json:"expenses"`
		Populated bool    `json:"populated"`
	}

	// Prediction extrapolates next month's spending from the trailing window.
	Prediction struct {
		Window           []MonthTotal          `json:"window"`
		PredictedExpense float64               `json:"predictedExpense"`
		AverageExpense   float64               `json:"averageExpense"`
		Trend            float64               `json:"trend"`
		TrendDirection   TrendDirection        `json:"trendDirection"`
		TrendPercent     float64               `json:"trendPercent"`
		TopCategories    []core.CategoryAmount `json:"topCategories"`
		Confidence       Confidence            `json:"confidence"`
	}
)

// PredictNextPeriod estimates next month's expenses from the current month and
// the two before it, evaluated in now's location. It returns nil when fewer
// than two of those months contain an expense.
func PredictNextPeriod(txns []core.Transaction, now time.Time) *Prediction {
	window := make([]MonthTotal, windowLength)
	populated := 0
	for i := range window {
		start := core.MonthStart(now, i-(windowLength-1))
		window[i].Month = start.Format("2006-01")
		for _, t := range txns {
			if t.IsExpense() && core.SameMonth(t.Date, start) {
				window[i].Expenses += t.Value()
				window[i].Populated = true
			}
		}
		if window[i].Populated {
			populated++
		}
	}
	if populated < minPopulatedMonths {
		return nil
	}

	totals := make([]float64, windowLength)
	for i, m := range window {
		totals[i] = m.Expenses
	}
	first, last := totals[0], totals[windowLength-1]
	trend := last - first

	direction := TrendStable
	switch {
	case trend > 0:
		direction = TrendIncreasing
	case trend < 0:
		direction = TrendDecreasing
	}

	confidence := ConfidenceMedium
	if populated == windowLength {
		confidence = ConfidenceHigh
	}

	var current []core.Transaction
	for _, t := range txns {
		if core.SameMonth(t.Date, now) {
			current = append(current, t)
		}
	}

	average := stats.Mean(totals)
	return &Prediction{
		Window:           window,
		PredictedExpense: max(0, last+trend/windowLength),
		AverageExpense:   average,
		Trend:            trend,
		TrendDirection:   direction,
		TrendPercent:     stats.SafeDivide(trend, average, 0) * 100,
		TopCategories:    core.TopCategories(current, predictionTopCounts),
		Confidence:       confidence,
	}
}
