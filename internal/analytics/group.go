package analytics

import (
	"sort"

	"finsight/internal/core"
)

// groupBy buckets txns by key. Bucket contents keep input order; callers sort
// explicitly before relying on order.
func groupBy(txns []core.Transaction, key func(core.Transaction) string) map[string][]core.Transaction {
	groups := make(map[string][]core.Transaction)
	for _, t := range txns {
		k := key(t)
		groups[k] = append(groups[k], t)
	}
	return groups
}

func sortedKeys(groups map[string][]core.Transaction) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortChronologically orders txns oldest first, ties broken by ID.
func sortChronologically(txns []core.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
}

func expensesOf(txns []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}

func values(txns []core.Transaction) []float64 {
	out := make([]float64, len(txns))
	for i, t := range txns {
		out[i] = t.Value()
	}
	return out
}
