// Package engine turns validated transactions into month-scoped,
// label-grouped series and chart data.
//
// Everything here is a pure function of its inputs apart from the color
// assignment, which goes through a palette.Assigner.
package engine

import "budgettracker/internal/core"

// SplitRecurring partitions txs for the target month. One-off transactions
// match the month exactly; recurring ones started on or before it. Input
// order is preserved within each partition.
func SplitRecurring(txs []core.Transaction, month core.MonthKey) (oneOff, recurring []core.Transaction) {
	for _, tx := range txs {
		txMonth := tx.Date.MonthKey()
		switch {
		case !tx.IsRecurring && txMonth == month:
			oneOff = append(oneOff, tx)
		case tx.IsRecurring && !txMonth.After(month):
			recurring = append(recurring, tx)
		}
	}
	return oneOff, recurring
}
