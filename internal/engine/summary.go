package engine

import (
	"encoding/json"
	"math"
	"strconv"

	"budgettracker/internal/core"
)

// Percentage is a ratio in percent that is undefined when income is zero.
type Percentage struct {
	Value   float64 // rounded to two decimals
	Defined bool
}

func newPercentage(part, whole core.Money) Percentage {
	if whole.Cents == 0 {
		return Percentage{}
	}
	v := float64(part.Cents) / float64(whole.Cents) * 100
	return Percentage{Value: math.Round(v*100) / 100, Defined: true}
}

// String formats with two decimals, or "undefined".
func (p Percentage) String() string {
	if !p.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON encodes a defined percentage as a two-decimal string and an
// undefined one as null.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

type Summary struct {
	NetPercentage        Percentage `json:"netPercentage"`
	CashFlowPercentage   Percentage `json:"cashFlowPercentage"`
	CreditCardPercentage Percentage `json:"creditCardPercentage"`
}

// Defined reports whether every percentage could be computed.
func (s Summary) Defined() bool {
	return s.NetPercentage.Defined && s.CashFlowPercentage.Defined && s.CreditCardPercentage.Defined
}

// Totals are the month's aggregate amounts and their ratios to income.
type Totals struct {
	Income         core.Money `json:"total_income"`
	Expenses       core.Money `json:"total_expenses"`
	CreditCardDebt core.Money `json:"total_credit_card_debt"`
	Net            core.Money `json:"net"`
	Summary        Summary    `json:"summary"`
}

// Total sums a series. Used identically for income, expenses and card debt.
func Total(s core.Series) core.Money {
	return s.Total()
}

// Net is income minus expenses minus credit-card debt.
func Net(income, expenses, creditCardDebt core.Money) core.Money {
	return core.Money{Cents: income.Cents - expenses.Cents - creditCardDebt.Cents}
}

// Percentages expresses expenses, card debt and net as percent of income.
func Percentages(income, expenses, creditCardDebt, net core.Money) Summary {
	return Summary{
		NetPercentage:        newPercentage(net, income),
		CashFlowPercentage:   newPercentage(expenses, income),
		CreditCardPercentage: newPercentage(creditCardDebt, income),
	}
}

// Summarize computes net and percentages from the three totals.
func Summarize(income, expenses, creditCardDebt core.Money) Totals {
	net := Net(income, expenses, creditCardDebt)
	return Totals{
		Income:         income,
		Expenses:       expenses,
		CreditCardDebt: creditCardDebt,
		Net:            net,
		Summary:        Percentages(income, expenses, creditCardDebt, net),
	}
}

// OverviewChart is the percentage bar chart of a summary. It is nil when
// the summary is undefined.
func OverviewChart(s Summary) *core.ChartData {
	if !s.Defined() {
		return nil
	}
	return &core.ChartData{
		Labels: []string{"Net", "Cash Flow", "Credit Card"},
		Datasets: []core.Dataset{{
			Label: "Financial Overview (%)",
			Data: []float64{
				s.NetPercentage.Value,
				s.CashFlowPercentage.Value,
				s.CreditCardPercentage.Value,
			},
			BackgroundColor: []string{"rgba(52, 152, 219, 0.6)", "rgba(46, 204, 113, 0.6)", "rgba(231, 76, 60, 0.6)"},
			BorderColor:     []string{"rgba(52, 152, 219, 1)", "rgba(46, 204, 113, 1)", "rgba(231, 76, 60, 1)"},
			BorderWidth:     1,
		}},
	}
}
