package engine

import (
	"fmt"

	"budgettracker/internal/core"
)

// SpreadCharges expands a credit-card transaction into its billed months up
// to and including through.
//
// The surcharged total is split in whole cents across installments starting
// at the billing start month. A recurring transaction additionally bills
// every month after the start month through the target, at the change-log
// resolved amount plus surcharge.
func SpreadCharges(tx core.Transaction, through core.MonthKey) ([]core.SyntheticCharge, error) {
	if tx.CreditCard == nil {
		return nil, core.ErrMissingCreditCard
	}
	label := tx.CreditCard.Label()
	start := BillingStart(tx.Date, tx.CreditCard.CloseCardDay)
	total := tx.Amount.WithSurcharge(tx.SurchargeBP)

	n := tx.Installments
	if n < 1 {
		n = 1
	}
	if n > core.MaxInstallments {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidInstallments, n)
	}

	charges := make([]core.SyntheticCharge, 0, n)
	for i, part := range total.Split(n) {
		charges = append(charges, core.SyntheticCharge{
			SourceTransactionID: tx.ID,
			Month:               start.AddMonths(i),
			Label:               label,
			Amount:              part,
		})
	}

	if !tx.IsRecurring {
		return charges, nil
	}

	// Change logs that land on the start month still carry forward.
	amounts, err := WalkAmounts(tx, start, through)
	if err != nil {
		return nil, err
	}
	for _, ma := range amounts {
		if ma.Month == start {
			continue
		}
		charges = append(charges, core.SyntheticCharge{
			SourceTransactionID: tx.ID,
			Month:               ma.Month,
			Label:               label,
			Amount:              ma.Amount.WithSurcharge(tx.SurchargeBP),
		})
	}
	return charges, nil
}
