package engine

import "budgettracker/internal/core"

// BillingStart returns the first month a card charge is billed in. Charges
// on or before the closing day post to the next month's statement; later
// charges post two months out.
func BillingStart(date core.Date, closeDay int) core.MonthKey {
	if date.Day() <= closeDay {
		return date.MonthKey().AddMonths(1)
	}
	return date.MonthKey().AddMonths(2)
}
