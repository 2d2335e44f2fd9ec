package engine

import "budgettracker/internal/core"

// Entry is one labelled amount that belongs to the target month.
type Entry struct {
	Label  string
	Amount core.Money
}

// Aggregate sums entries per label, keeping labels in first-seen order.
func Aggregate(month core.MonthKey, entries []Entry) core.Series {
	s := core.Series{Month: month, Labels: []string{}, Data: []core.Money{}}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		i, ok := index[e.Label]
		if !ok {
			index[e.Label] = len(s.Labels)
			s.Labels = append(s.Labels, e.Label)
			s.Data = append(s.Data, e.Amount)
			continue
		}
		s.Data[i] = s.Data[i].Add(e.Amount)
	}
	return s
}

// CashEntries selects the income or expense entries for month. Recurring
// transactions contribute their snapshot amount, or their change-log
// history amount when history is set.
func CashEntries(txs []core.Transaction, month core.MonthKey, history bool) ([]Entry, []core.Defect) {
	oneOff, recurring := SplitRecurring(txs, month)
	entries := make([]Entry, 0, len(oneOff)+len(recurring))
	for _, tx := range oneOff {
		entries = append(entries, Entry{Label: tx.CategoryLabel(), Amount: tx.Amount})
	}
	var defects []core.Defect
	for _, tx := range recurring {
		amount := SnapshotAmount(tx)
		if history {
			var err error
			if amount, err = HistoricalAmount(tx, month); err != nil {
				defects = append(defects, core.Defect{Index: -1, ID: tx.ID, Kind: tx.Kind, Err: err})
				continue
			}
		}
		entries = append(entries, Entry{Label: tx.CategoryLabel(), Amount: amount})
	}
	return entries, defects
}

// CreditCardEntries spreads every card transaction and keeps the charges
// billed in month. A transaction that cannot be spread is reported and
// skipped.
func CreditCardEntries(txs []core.Transaction, month core.MonthKey) ([]Entry, []core.Defect) {
	var (
		entries []Entry
		defects []core.Defect
	)
	for _, tx := range txs {
		charges, err := SpreadCharges(tx, month)
		if err != nil {
			defects = append(defects, core.Defect{Index: -1, ID: tx.ID, Kind: tx.Kind, Err: err})
			continue
		}
		for _, c := range charges {
			if c.Month == month {
				entries = append(entries, Entry{Label: c.Label, Amount: c.Amount})
			}
		}
	}
	return entries, defects
}
