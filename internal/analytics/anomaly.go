// Package analytics turns a ledger snapshot into derived insights.
//
// Every analyzer is a pure function of its arguments: no analyzer mutates its
// input, keeps state between calls or reads the wall clock. The evaluation
// instant is always passed in explicitly as now.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"

	"github.com/shopspring/decimal"
)

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"

	ReasonUnusualAmount     AnomalyReason = "unusual_amount"
	ReasonPossibleDuplicate AnomalyReason = "possible_duplicate"
	ReasonHighFrequency     AnomalyReason = "high_frequency"
)

const (
	maxAnomalies        = 5
	minCategorySize     = 3
	unusualZScore       = 2.0
	highZScore          = 3.0
	duplicateWindow     = 24 * time.Hour
	highFrequencyPerDay = 5
	dayLayout           = "02 Jan 2006"
)

// duplicateTolerance is the largest amount difference still considered equal.
var duplicateTolerance = decimal.New(1, -2)

type (
	Severity      string
	AnomalyReason string

	// Anomaly is one flagged transaction. Reason-specific fields are left zero
	// for the other reasons.
	Anomaly struct {
		Transaction core.Transaction `json:"transaction"`
		Reason      AnomalyReason    `json:"reason"`
		Severity    Severity         `json:"severity"`
		Message     string           `json:"message"`

		// unusual_amount
		AverageAmount      float64 `json:"averageAmount,omitempty"`
		ZScore             float64 `json:"zScore,omitempty"`
		PercentFromAverage float64 `json:"percentFromAverage,omitempty"`

		// possible_duplicate
		Duplicate *core.Transaction `json:"duplicate,omitempty"`

		// high_frequency
		Count int     `json:"count,omitempty"`
		Total float64 `json:"total,omitempty"`
	}

	// AnomalyReport holds at most five anomalies ordered by severity.
	AnomalyReport struct {
		Anomalies []Anomaly `json:"anomalies"`
	}
)

// Rank orders severities: high 3, medium 2, low 1.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AllClear reports whether nothing unusual was found.
func (r AnomalyReport) AllClear() bool {
	return len(r.Anomalies) == 0
}

// DetectAnomalies flags statistically unusual, duplicate and high-frequency
// transactions. A transaction is flagged at most once; earlier passes win.
func DetectAnomalies(txns []core.Transaction) AnomalyReport {
	flagged := make(map[string]bool)

	var found []Anomaly
	found = append(found, unusualAmounts(txns, flagged)...)
	found = append(found, possibleDuplicates(txns, flagged)...)
	found = append(found, highFrequencyDays(txns, flagged)...)

	// Stable: within a severity the pass order above is kept.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Severity.Rank() > found[j].Severity.Rank()
	})
	if len(found) > maxAnomalies {
		found = found[:maxAnomalies]
	}
	if found == nil {
		found = []Anomaly{}
	}
	return AnomalyReport{Anomalies: found}
}

func unusualAmounts(txns []core.Transaction, flagged map[string]bool) []Anomaly {
	byCategory := groupBy(expensesOf(txns), func(t core.Transaction) string { return t.Category })

	var out []Anomaly
	for _, category := range sortedKeys(byCategory) {
		group := byCategory[category]
		if len(group) < minCategorySize {
			continue
		}
		sortChronologically(group)

		amounts := values(group)
		mean := stats.Mean(amounts)
		std := math.Max(stats.StdDev(amounts, mean), 1)

		for _, t := range group {
			z := math.Abs(t.Value()-mean) / std
			if z <= unusualZScore {
				continue
			}
			severity := SeverityMedium
			if z > highZScore {
				severity = SeverityHigh
			}
			pct := stats.SafeDivide(t.Value()-mean, mean, 0) * 100
			out = append(out, Anomaly{
				Transaction:        t,
				Reason:             ReasonUnusualAmount,
				Severity:           severity,
				Message:            unusualMessage(pct, category),
				AverageAmount:      mean,
				ZScore:             stats.Round(z, 2),
				PercentFromAverage: pct,
			})
			flagged[t.ID] = true
		}
	}
	return out
}

func unusualMessage(pct float64, category string) string {
	if pct < 0 {
		return fmt.Sprintf("%.0f%% below your average %s spending", -pct, category)
	}
	return fmt.Sprintf("%.0f%% above your average %s spending", pct, category)
}

// possibleDuplicates scans every pair once, newest first. Only the newer side
// of a pair is recorded as flagged, so its older partner may still pair with
// another transaction later in the scan.
func possibleDuplicates(txns []core.Transaction, flagged map[string]bool) []Anomaly {
	sorted := make([]core.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []Anomaly
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.Type != b.Type {
				continue
			}
			if absDuration(a.Date.Sub(b.Date)) > duplicateWindow {
				continue
			}
			if !a.Amount.Sub(b.Amount).Abs().LessThan(duplicateTolerance) {
				continue
			}
			if flagged[a.ID] || flagged[b.ID] {
				continue
			}
			dup := b
			out = append(out, Anomaly{
				Transaction: a,
				Reason:      ReasonPossibleDuplicate,
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("Similar transaction of %s found within 24 hours", b.Amount.StringFixed(2)),
				Duplicate:   &dup,
			})
			flagged[a.ID] = true
		}
	}
	return out
}

func highFrequencyDays(txns []core.Transaction, flagged map[string]bool) []Anomaly {
	byDay := groupBy(expensesOf(txns), func(t core.Transaction) string {
		return core.CivilDay(t.Date).Format(time.DateOnly)
	})

	var out []Anomaly
	for _, day := range sortedKeys(byDay) {
		group := byDay[day]
		if len(group) < highFrequencyPerDay {
			continue
		}
		sortChronologically(group)

		seen := false
		for _, t := range group {
			if flagged[t.ID] {
				seen = true
				break
			}
		}
		if seen {
			continue
		}

		total := stats.Sum(values(group))
		first := group[0]
		out = append(out, Anomaly{
			Transaction: first,
			Reason:      ReasonHighFrequency,
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("%d transactions on %s totaling %.0f", len(group), core.CivilDay(first.Date).Format(dayLayout), total),
			Count:       len(group),
			Total:       total,
		})
		flagged[first.ID] = true
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
