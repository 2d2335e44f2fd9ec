package engine

import (
	"context"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

// LogDefects logs each excluded record at warn.
func LogDefects(ctx context.Context, logger *log.Logger, defects []core.Defect) {
	l := logger.WithComponent(log.ComponentIngest)
	for _, d := range defects {
		l.WarnContext(ctx, "Record excluded",
			log.FieldOperation, log.OpIngest,
			log.FieldRecordIndex, d.Index,
			log.FieldRecordID, d.ID,
			log.FieldRecordKind, string(d.Kind),
			log.FieldError, d.Err)
	}
}

// LogReport logs a finished monthly report.
func LogReport(ctx context.Context, logger *log.Logger, r *Report) {
	t := r.Totals
	fields := log.NewFields().
		WithOperation(log.OpReport).
		WithMonth(r.Month.String()).
		WithTotals(t.Income.Cents, t.Expenses.Cents, t.CreditCardDebt.Cents, t.Net.Cents)
	fields[log.FieldDefects] = len(r.Defects)
	logger.WithComponent(log.ComponentEngine).InfoContext(ctx, "Monthly report built", fields.ToSlice()...)
}
