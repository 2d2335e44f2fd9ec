package engine

import (
	"context"

	"budgettracker/internal/core"
)

// Report is everything the dashboard shows for one month.
type Report struct {
	Month       core.MonthKey   `json:"month"`
	Income      core.ChartData  `json:"income"`
	Expenses    core.ChartData  `json:"expenses"`
	CreditCards core.ChartData  `json:"creditCards"`
	Totals      Totals          `json:"totals"`
	Overview    *core.ChartData `json:"overview"`
	Defects     []core.Defect   `json:"defects"`
}

// MonthlyReport builds the three charts, the totals and the overview for
// month. Charts are built in a fixed order so that labels first seen in
// incomes are colored before those in expenses and then card charges.
func (e *Engine) MonthlyReport(ctx context.Context, snap core.Snapshot, month core.MonthKey) (*Report, error) {
	defects := append([]core.Defect{}, snap.Defects...)

	income, err := e.IncomeChart(ctx, snap.Incomes, month)
	if err != nil {
		return nil, err
	}
	defects = append(defects, income.Defects...)

	expenses, err := e.ExpenseChart(ctx, snap.Expenses, month)
	if err != nil {
		return nil, err
	}
	defects = append(defects, expenses.Defects...)

	cards, err := e.CreditCardChart(ctx, snap.CreditCardCharges, month)
	if err != nil {
		return nil, err
	}
	defects = append(defects, cards.Defects...)

	totals := Summarize(Total(income.Series), Total(expenses.Series), Total(cards.Series))
	return &Report{
		Month:       month,
		Income:      income.Chart,
		Expenses:    expenses.Chart,
		CreditCards: cards.Chart,
		Totals:      totals,
		Overview:    OverviewChart(totals.Summary),
		Defects:     defects,
	}, nil
}
