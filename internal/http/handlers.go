package http

import (
	"net/http"
	"time"

	"budgettracker/internal/core"
	"budgettracker/internal/engine"
	"budgettracker/internal/ingest"
	"budgettracker/internal/log"
	"budgettracker/internal/palette"
)

type chartRequest struct {
	Records    ingest.Records    `json:"records"`
	References ingest.References `json:"references"`
}

type chartResponse struct {
	Month   core.MonthKey  `json:"month"`
	Chart   core.ChartData `json:"chart"`
	Total   core.Money     `json:"total"`
	Defects []core.Defect  `json:"defects"`
}

type summaryRequest struct {
	Income         core.Money `json:"total_income"`
	Expenses       core.Money `json:"total_expenses"`
	CreditCardDebt core.Money `json:"total_credit_card_debt"`
}

type summaryResponse struct {
	engine.Totals
	Overview *core.ChartData `json:"overview"`
}

// handleChart builds one of the three month charts from raw records.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind := r.PathValue("kind")
	switch kind {
	case "incomes", "expenses", "credit-cards":
	default:
		writeError(w, http.StatusNotFound, "unknown chart "+kind)
		return
	}

	var req chartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		res     engine.ChartResult
		defects []core.Defect
	)
	switch kind {
	case "incomes":
		var txs []core.Transaction
		txs, defects = ingest.Parse(core.KindIncome, req.Records, req.References)
		res, err = s.engine.IncomeChart(ctx, txs, month)
	case "expenses":
		var txs []core.Transaction
		txs, defects = ingest.Parse(core.KindExpense, req.Records, req.References)
		res, err = s.engine.ExpenseChart(ctx, withoutCards(txs), month)
	case "credit-cards":
		var txs []core.Transaction
		txs, defects = ingest.Parse(core.KindCreditCard, req.Records, req.References)
		res, err = s.engine.CreditCardChart(ctx, txs, month)
	}
	if err != nil {
		fields := log.NewFields().WithMonth(month.String())
		fields[log.FieldChart] = kind
		s.eventsFor(ctx).LogError(ctx, "Chart build failed", err, log.ComponentEngine, log.OpChart, fields)
		writeError(w, http.StatusInternalServerError, "chart build failed")
		return
	}

	defects = append(defects, res.Defects...)
	s.loggerFor(ctx).DebugContext(ctx, "Chart built",
		log.FieldOperation, log.OpChart, log.FieldChart, kind,
		log.FieldRecords, len(req.Records), log.FieldLabels, len(res.Chart.Labels))
	engine.LogDefects(ctx, s.loggerFor(ctx), defects)
	if defects == nil {
		defects = []core.Defect{}
	}
	writeJSON(w, http.StatusOK, chartResponse{
		Month:   month,
		Chart:   res.Chart,
		Total:   engine.Total(res.Series),
		Defects: defects,
	})
}

// withoutCards drops card-backed expenses; they belong to the card chart.
func withoutCards(txs []core.Transaction) []core.Transaction {
	out := txs[:0:0]
	for _, tx := range txs {
		if tx.Kind != core.KindCreditCard {
			out = append(out, tx)
		}
	}
	return out
}

// handleSummary computes net and percentages from already aggregated totals.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Income.Cents < 0 || req.Expenses.Cents < 0 || req.CreditCardDebt.Cents < 0 {
		writeError(w, http.StatusBadRequest, core.ErrNegativeAmount.Error())
		return
	}
	totals := engine.Summarize(req.Income, req.Expenses, req.CreditCardDebt)
	s.loggerFor(r.Context()).DebugContext(r.Context(), "Summary computed",
		log.FieldOperation, log.OpSummary, log.FieldNet, totals.Net.Cents)
	writeJSON(w, http.StatusOK, summaryResponse{Totals: totals, Overview: engine.OverviewChart(totals.Summary)})
}

// handleReport builds the full monthly report from a snapshot.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var snap ingest.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.engine.MonthlyReport(ctx, snap.Validate(), month)
	if err != nil {
		s.eventsFor(ctx).LogError(ctx, "Report build failed", err, log.ComponentEngine, log.OpReport,
			log.NewFields().WithMonth(month.String()))
		writeError(w, http.StatusInternalServerError, "report build failed")
		return
	}
	engine.LogDefects(ctx, s.loggerFor(ctx), report.Defects)
	engine.LogReport(ctx, s.loggerFor(ctx), report)
	writeJSON(w, http.StatusOK, report)
}

// handleColors lists the persisted label colors in assignment order.
func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	entries, err := s.colors.List(r.Context())
	if err != nil {
		s.eventsFor(r.Context()).LogError(r.Context(), "Listing colors failed", err, log.ComponentPalette, log.OpAssign, nil)
		writeError(w, http.StatusInternalServerError, "listing colors failed")
		return
	}
	if entries == nil {
		entries = []palette.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": entries})
}
