package engine

import (
	"context"
	"fmt"

	"budgettracker/internal/core"
	"budgettracker/internal/palette"
)

const (
	IncomeDatasetLabel     = "Incomes"
	ExpenseDatasetLabel    = "Expenses"
	CreditCardDatasetLabel = "Credit Card Expenses"

	borderColor = "#4b4b4b"
)

// Options tunes aggregation.
type Options struct {
	// ChangeLogHistory resolves recurring income and expense amounts by
	// replaying their change logs instead of using the snapshot amount.
	ChangeLogHistory bool
}

// Engine builds chart data for a month. It is safe for concurrent use when
// its palette store is.
type Engine struct {
	colors *palette.Assigner
	opts   Options
}

func New(colors *palette.Assigner, opts Options) *Engine {
	return &Engine{colors: colors, opts: opts}
}

// ChartResult is a chart together with the exact series behind it.
type ChartResult struct {
	Chart   core.ChartData `json:"chart"`
	Series  core.Series    `json:"-"`
	Defects []core.Defect  `json:"defects,omitempty"`
}

// IncomeSeries aggregates incomes for month.
func (e *Engine) IncomeSeries(txs []core.Transaction, month core.MonthKey) (core.Series, []core.Defect) {
	entries, defects := CashEntries(txs, month, e.opts.ChangeLogHistory)
	return Aggregate(month, entries), defects
}

// ExpenseSeries aggregates non-card expenses for month.
func (e *Engine) ExpenseSeries(txs []core.Transaction, month core.MonthKey) (core.Series, []core.Defect) {
	entries, defects := CashEntries(txs, month, e.opts.ChangeLogHistory)
	return Aggregate(month, entries), defects
}

// CreditCardSeries aggregates the card charges billed in month.
func (e *Engine) CreditCardSeries(txs []core.Transaction, month core.MonthKey) (core.Series, []core.Defect) {
	entries, defects := CreditCardEntries(txs, month)
	return Aggregate(month, entries), defects
}

func (e *Engine) IncomeChart(ctx context.Context, txs []core.Transaction, month core.MonthKey) (ChartResult, error) {
	s, defects := e.IncomeSeries(txs, month)
	return e.chart(ctx, IncomeDatasetLabel, s, defects)
}

func (e *Engine) ExpenseChart(ctx context.Context, txs []core.Transaction, month core.MonthKey) (ChartResult, error) {
	s, defects := e.ExpenseSeries(txs, month)
	return e.chart(ctx, ExpenseDatasetLabel, s, defects)
}

func (e *Engine) CreditCardChart(ctx context.Context, txs []core.Transaction, month core.MonthKey) (ChartResult, error) {
	s, defects := e.CreditCardSeries(txs, month)
	return e.chart(ctx, CreditCardDatasetLabel, s, defects)
}

func (e *Engine) chart(ctx context.Context, label string, s core.Series, defects []core.Defect) (ChartResult, error) {
	colors, err := e.colors.Colors(ctx, s.Labels)
	if err != nil {
		return ChartResult{}, fmt.Errorf("%s chart: %w", label, err)
	}
	borders := make([]string, len(s.Labels))
	for i := range borders {
		borders[i] = borderColor
	}
	return ChartResult{
		Chart: core.ChartData{
			Labels: s.Labels,
			Datasets: []core.Dataset{{
				Label:           label,
				Data:            s.Units(),
				BackgroundColor: colors,
				BorderColor:     borders,
				BorderWidth:     1,
			}},
		},
		Series:  s,
		Defects: defects,
	}, nil
}
