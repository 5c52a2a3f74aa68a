package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	minOccurrences     = 2
	amountTolerance    = 0.10
	inactivityFactor   = 1.5
	upcomingWindowDays = 7
)

type (
	// Subscription is a merchant billed on a regular cadence.
	Subscription struct {
		Merchant             string    `json:"merchant"`
		Category             string    `json:"category"`
		Frequency            Frequency `json:"frequency"`
		AverageAmount        float64   `json:"averageAmount"`
		AverageGapDays       float64   `json:"averageGapDays"`
		Occurrences          int       `json:"occurrences"`
		LastPayment          time.Time `json:"lastPayment"`
		NextPaymentDate      time.Time `json:"nextPaymentDate"`
		DaysUntilNextPayment int       `json:"daysUntilNextPayment"`
		Upcoming             bool      `json:"upcoming"`
		IsActive             bool      `json:"isActive"`
		AnnualCost           float64   `json:"annualCost"`
		MonthlyCost          float64   `json:"monthlyCost"`
	}

	// SubscriptionReport lists detected subscriptions by descending annual cost.
	// Totals cover active subscriptions only.
	SubscriptionReport struct {
		Subscriptions []Subscription `json:"subscriptions"`
		MonthlyTotal  float64        `json:"monthlyTotal"`
		AnnualTotal   float64        `json:"annualTotal"`
		ActiveCount   int            `json:"activeCount"`
	}
)

// DetectSubscriptions finds expense groups that repeat on a known cadence
// with a stable amount.
func DetectSubscriptions(txns []core.Transaction, now time.Time) SubscriptionReport {
	groups := groupBy(expensesOf(txns), merchantKey)

	report := SubscriptionReport{Subscriptions: []Subscription{}}
	for _, merchant := range sortedKeys(groups) {
		sub, ok := detectSubscription(groups[merchant], now)
		if !ok {
			continue
		}
		report.Subscriptions = append(report.Subscriptions, sub)
		if sub.IsActive {
			report.ActiveCount++
			report.MonthlyTotal += sub.MonthlyCost
			report.AnnualTotal += sub.AnnualCost
		}
	}

	sort.SliceStable(report.Subscriptions, func(i, j int) bool {
		a, b := report.Subscriptions[i], report.Subscriptions[j]
		if a.AnnualCost != b.AnnualCost {
			return a.AnnualCost > b.AnnualCost
		}
		return a.Merchant < b.Merchant
	})
	return report
}

func merchantKey(t core.Transaction) string {
	if d := strings.ToLower(strings.TrimSpace(t.Description)); d != "" {
		return d
	}
	return t.Category
}

// displayName is how the oldest payment names the merchant.
func displayName(t core.Transaction) string {
	if d := strings.TrimSpace(t.Description); d != "" {
		return d
	}
	return t.Category
}

func detectSubscription(group []core.Transaction, now time.Time) (Subscription, bool) {
	if len(group) < minOccurrences {
		return Subscription{}, false
	}
	sortChronologically(group)

	amounts := values(group)
	mean := stats.Mean(amounts)
	for _, a := range amounts {
		if math.Abs(a-mean) >= amountTolerance*mean {
			return Subscription{}, false
		}
	}

	gaps := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		gaps = append(gaps, float64(core.DaysBetween(group[i-1].Date, group[i].Date)))
	}
	avgGap := stats.Mean(gaps)

	cadence, ok := ClassifyCadence(avgGap)
	if !ok {
		return Subscription{}, false
	}

	first, last := group[0], group[len(group)-1]
	next := last.Date.AddDate(0, 0, cadence.PeriodDays)
	daysSinceLast := now.Sub(last.Date).Hours() / 24
	daysUntilNext := int(math.Ceil(next.Sub(now).Hours() / 24))

	return Subscription{
		Merchant:             displayName(first),
		Category:             first.Category,
		Frequency:            cadence.Frequency,
		AverageAmount:        mean,
		AverageGapDays:       avgGap,
		Occurrences:          len(group),
		LastPayment:          last.Date,
		NextPaymentDate:      next,
		DaysUntilNextPayment: daysUntilNext,
		Upcoming:             daysUntilNext >= 0 && daysUntilNext <= upcomingWindowDays,
		IsActive:             daysSinceLast <= inactivityFactor*avgGap,
		AnnualCost:           mean * cadence.AnnualFactor,
		MonthlyCost:          mean * cadence.MonthlyFactor,
	}, true
}
