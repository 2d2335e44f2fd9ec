// Package worker builds monthly reports requested over AMQP.
package worker

import (
	"context"
	"fmt"
	"time"

	"budgettracker/internal/amqp"
	"budgettracker/internal/engine"
	"budgettracker/internal/log"
)

// ResultPublisher sends finished reports back to requesters.
type ResultPublisher interface {
	PublishReportReady(ctx context.Context, msg *amqp.ReportReadyMessage) error
}

// ReportWorker turns report requests into report results.
type ReportWorker struct {
	engine    *engine.Engine
	publisher ResultPublisher
	logger    *log.Logger
	timeout   time.Duration
}

func NewReportWorker(e *engine.Engine, publisher ResultPublisher, logger *log.Logger, timeout time.Duration) *ReportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &ReportWorker{
		engine:    e,
		publisher: publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// HandleReportRequest builds and publishes the report for msg.
//
// Requests that can never succeed, such as an invalid month, are answered
// with an error result. Failures that may be transient, such as the color
// store or the broker being unavailable, are returned so the message is
// redelivered.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	logger := w.logger.With(log.FieldMessageID, msg.ID)
	logger.InfoContext(ctx, "Processing report request", "year", msg.Year, "month", msg.Month)

	month, err := msg.MonthKey()
	if err != nil {
		logger.WarnContext(ctx, "Rejecting report request", log.FieldError, err)
		return w.reply(ctx, msg, nil, fmt.Errorf("invalid month: %w", err))
	}

	snap := msg.Snapshot.Validate()
	engine.LogDefects(ctx, logger, snap.Defects)

	report, err := w.engine.MonthlyReport(ctx, snap, month)
	if err != nil {
		return fmt.Errorf("build report %s: %w", msg.ID, err)
	}
	engine.LogReport(ctx, logger, report)
	return w.reply(ctx, msg, report, nil)
}

func (w *ReportWorker) reply(ctx context.Context, req *amqp.ReportRequestMessage, report *engine.Report, buildErr error) error {
	ready, err := amqp.NewReportReadyMessage(req, report, buildErr)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", req.ID, err)
	}
	if err := w.publisher.PublishReportReady(ctx, ready); err != nil {
		return fmt.Errorf("publish report %s: %w", req.ID, err)
	}
	return nil
}
