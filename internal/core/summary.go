package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"category"`
	Amount float64 `json:"amount"`
}

// TopCategories sums expense amounts per category and returns the largest n,
// ties broken by name so the result does not depend on input order.
func TopCategories(txns []Transaction, n int) []CategoryAmount {
	totals := make(map[string]float64)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		totals[t.Category] += t.Value()
	}

	list := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		list = append(list, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Amount != list[j].Amount {
			return list[i].Amount > list[j].Amount
		}
		return list[i].Name < list[j].Name
	})

	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

// SumByType totals income and expenses of txns.
func SumByType(txns []Transaction) (income, expenses float64) {
	for _, t := range txns {
		switch t.Type {
		case Income:
			income += t.Value()
		case Expense:
			expenses += t.Value()
		}
	}
	return income, expenses
}
