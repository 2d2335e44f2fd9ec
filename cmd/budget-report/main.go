package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgettracker/internal/amqp"
	"budgettracker/internal/app"
	"budgettracker/internal/config"
	"budgettracker/internal/core"
	"budgettracker/internal/engine"
	"budgettracker/internal/ingest"
	"budgettracker/internal/log"
)

type options struct {
	file    string
	month   string
	remote  bool
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.file, "file", "", "snapshot JSON file (- for stdin)")
	flag.StringVar(&opts.month, "month", time.Now().Format("2006-01"), "report month as YYYY-MM")
	flag.BoolVar(&opts.remote, "remote", false, "request the report from report-worker over AMQP")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "how long to wait for a remote report")
	flag.Parse()

	cfg := config.Load()
	level, _ := log.ParseLevel(cfg.LogLevel)
	// Logs go to stderr so stdout stays valid JSON.
	logger := log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: os.Stderr})
	log.SetDefault(logger)

	if err := run(opts, cfg, logger, os.Stdout); err != nil {
		logger.Error("budget-report failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	if opts.file == "" {
		return errors.New("-file is required")
	}
	month, err := core.ParseMonthKey(opts.month)
	if err != nil {
		return fmt.Errorf("-month: %w", err)
	}
	snap, err := readSnapshot(opts.file)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var body []byte
	if opts.remote {
		body, err = remoteReport(ctx, cfg, logger, snap, month, opts.timeout)
	} else {
		body, err = localReport(ctx, cfg, logger, snap, month)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}

func readSnapshot(path string) (ingest.Snapshot, error) {
	var (
		r    io.Reader = os.Stdin
		snap ingest.Snapshot
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return snap, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

func localReport(ctx context.Context, cfg *config.Config, logger *log.Logger, snap ingest.Snapshot, month core.MonthKey) ([]byte, error) {
	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	report, err := rt.Engine.MonthlyReport(ctx, snap.Validate(), month)
	if err != nil {
		return nil, err
	}
	engine.LogDefects(ctx, logger, report.Defects)
	engine.LogReport(ctx, logger, report)
	return json.MarshalIndent(report, "", "  ")
}

func remoteReport(ctx context.Context, cfg *config.Config, logger *log.Logger, snap ingest.Snapshot, month core.MonthKey, timeout time.Duration) ([]byte, error) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := amqp.NewReportRequestMessage(month, snap)
	logger.Info("Requesting report", log.FieldMessageID, req.ID, log.FieldMonth, month.String())
	result, err := client.RequestReport(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("waiting for report %s: %w", req.ID, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("report %s failed: %s", req.ID, result.Error)
	}

	return json.MarshalIndent(result.Report, "", "  ")
}
