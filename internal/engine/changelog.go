package engine

import "budgettracker/internal/core"

// MonthAmount is the amount that applies to one month.
type MonthAmount struct {
	Month  core.MonthKey
	Amount core.Money
}

// SnapshotAmount is the single current amount of a recurring transaction:
// the lesser of effective amount and amount when both are present.
func SnapshotAmount(tx core.Transaction) core.Money {
	if tx.EffectiveAmount != nil {
		return tx.EffectiveAmount.Min(tx.Amount)
	}
	return tx.Amount
}

// WalkAmounts resolves the amount for every month from..to, starting from
// the effective amount (or amount) and switching to a change log's new
// amount from the month it takes effect.
func WalkAmounts(tx core.Transaction, from, to core.MonthKey) ([]MonthAmount, error) {
	baseline := tx.Amount
	if tx.EffectiveAmount != nil {
		baseline = *tx.EffectiveAmount
	}
	return walk(tx, baseline, from, to)
}

// HistoricalAmount resolves the amount of a recurring transaction for month
// by replaying its change logs over the original amount, from the month the
// transaction started.
func HistoricalAmount(tx core.Transaction, month core.MonthKey) (core.Money, error) {
	amounts, err := walk(tx, tx.Amount, tx.Date.MonthKey(), month)
	if err != nil {
		return core.Money{}, err
	}
	if len(amounts) == 0 {
		return tx.Amount, nil
	}
	return amounts[len(amounts)-1].Amount, nil
}

func walk(tx core.Transaction, baseline core.Money, from, to core.MonthKey) ([]MonthAmount, error) {
	months, err := core.MonthRange(from, to)
	if err != nil {
		return nil, err
	}
	changes := changesByMonth(tx.ChangeLogs)
	out := make([]MonthAmount, len(months))
	for i, m := range months {
		if cl, ok := changes[m]; ok {
			baseline = cl.NewAmount
		}
		out[i] = MonthAmount{Month: m, Amount: baseline}
	}
	return out, nil
}

// changesByMonth keeps one entry per effective month: the latest effective
// date, and on equal dates the later entry.
func changesByMonth(logs []core.ChangeLogEntry) map[core.MonthKey]core.ChangeLogEntry {
	out := make(map[core.MonthKey]core.ChangeLogEntry, len(logs))
	for _, cl := range logs {
		m := cl.EffectiveDate.MonthKey()
		if prev, ok := out[m]; ok && prev.EffectiveDate.After(cl.EffectiveDate.Time) {
			continue
		}
		out[m] = cl
	}
	return out
}
