package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgettracker/internal/config"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "colors.db"))
	return config.Load()
}

func TestBootstrap(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"memory", "memory"},
		{"sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.DataBackend = tt.backend
			ctx := context.Background()

			rt, err := Bootstrap(ctx, cfg, log.New(log.Config{Output: &bytes.Buffer{}}))
			if err != nil {
				t.Fatalf("Bootstrap() error = %v", err)
			}
			defer rt.Close()

			if err := rt.Ready(ctx); err != nil {
				t.Fatalf("Ready() error = %v", err)
			}
			month := core.MonthKey{Year: 2024, Month: 11}
			snap := core.Snapshot{Incomes: []core.Transaction{{
				ID: "1", Kind: core.KindIncome, Date: core.NewDate(2024, 11, 1),
				Amount: core.Money{Cents: 1000}, Category: "Salary",
			}}}
			report, err := rt.Engine.MonthlyReport(ctx, snap, month)
			if err != nil {
				t.Fatalf("MonthlyReport() error = %v", err)
			}
			if report.Totals.Income.Cents != 1000 {
				t.Errorf("income = %d", report.Totals.Income.Cents)
			}
		})
	}
}

func TestBootstrapRejectsBadPalette(t *testing.T) {
	cfg := testConfig(t)
	cfg.PaletteBase = "red"
	if _, err := Bootstrap(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected palette error")
	}
}

func TestJanitorInterval(t *testing.T) {
	tests := []struct {
		ttl, want time.Duration
	}{
		{0, 0},
		{time.Second, time.Second},
		{10 * time.Minute, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := janitorInterval(tt.ttl); got != tt.want {
			t.Errorf("janitorInterval(%v) = %v, want %v", tt.ttl, got, tt.want)
		}
	}
}
