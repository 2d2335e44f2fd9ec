package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

func TestLogDefects(t *testing.T) {
	var buf bytes.Buffer
	LogDefects(context.Background(), log.New(log.Config{Output: &buf}), []core.Defect{
		{Index: 2, ID: "x", Kind: core.KindExpense, Err: errors.New("bad amount")},
	})
	out := buf.String()
	for _, want := range []string{"level=WARN", "record_index=2", "record_id=x", "component=ingest", "operation=ingest"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestLogReport(t *testing.T) {
	var buf bytes.Buffer
	r := &Report{
		Month:   core.MonthKey{Year: 2024, Month: 11},
		Totals:  Totals{Income: core.Money{Cents: 1000}, Net: core.Money{Cents: 1000}},
		Defects: []core.Defect{{Index: 0}},
	}
	LogReport(context.Background(), log.New(log.Config{Output: &buf}), r)
	out := buf.String()
	for _, want := range []string{"month=2024-11", "income_cents=1000", "defects=1", "component=engine", "operation=report"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
