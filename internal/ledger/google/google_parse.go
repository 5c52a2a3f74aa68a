package google

import (
	"fmt"
	"strings"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

type skippedRow struct {
	sheet string
	row   int
	err   error
}

// parseSnapshot converts the value matrices returned by the Sheets API. Each
// table starts with a header row. Rows that cannot be read are skipped and
// reported. Transactions without an id get one derived from their row.
func parseSnapshot(txnValues, accountValues, budgetValues [][]interface{}) (core.Snapshot, []skippedRow) {
	var snap core.Snapshot
	var skipped []skippedRow

	forEachRow(txnValues, func(h ledger.Header, rowNum int, row []string) {
		t, err := ledger.ParseTransactionRow(h, row)
		if err != nil {
			skipped = append(skipped, skippedRow{"transactions", rowNum, err})
			return
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("row:%d", rowNum)
		}
		snap.Transactions = append(snap.Transactions, t)
	})

	forEachRow(accountValues, func(h ledger.Header, rowNum int, row []string) {
		a, err := ledger.ParseAccountRow(h, row)
		if err != nil {
			skipped = append(skipped, skippedRow{"accounts", rowNum, err})
			return
		}
		snap.Accounts = append(snap.Accounts, a)
	})

	if len(budgetValues) > 0 && len(budgetValues[0]) > 0 {
		cell := strings.TrimSpace(fmt.Sprint(budgetValues[0][0]))
		if cell != "" {
			amount, err := core.ParseAmount(cell)
			if err != nil {
				skipped = append(skipped, skippedRow{"budget", 1, err})
			} else {
				snap.Budget = &core.Budget{Amount: amount}
			}
		}
	}
	return snap, skipped
}

// forEachRow calls fn for every non-empty data row with its 1-based sheet row number.
func forEachRow(values [][]interface{}, fn func(h ledger.Header, rowNum int, row []string)) {
	if len(values) == 0 {
		return
	}
	h := ledger.NewHeader(toStrings(values[0]))
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		fn(h, i+1, row)
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
