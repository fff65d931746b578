// Package worker consumes report jobs from the broker, renders the
// requested files into the reports directory, and keeps the database
// and the directory tidy with a periodic sweep.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/export"
	applog "finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/sheet"
	"finplan/internal/storage"
)

type ReportWorker struct {
	forecast   *services.ForecastService
	store      storage.Store
	sink       sheet.ForecastSink // optional
	reportsDir string
	maxAge     time.Duration
}

func NewReportWorker(forecast *services.ForecastService, store storage.Store, sink sheet.ForecastSink, reportsDir string, maxAge time.Duration) *ReportWorker {
	return &ReportWorker{
		forecast:   forecast,
		store:      store,
		sink:       sink,
		reportsDir: reportsDir,
		maxAge:     maxAge,
	}
}

// HandleReportRequest renders one report job. Returning an error
// requeues the delivery, so only transient failures propagate; a
// vanished user drops the job instead.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	slog.InfoContext(ctx, "Processing report request",
		applog.FieldJobID, msg.JobID,
		applog.FieldUserID, msg.UserID,
		applog.FieldFormat, msg.Format)

	fc, err := w.forecast.Build(ctx, msg.UserID, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Dropping report job for missing user",
				applog.FieldJobID, msg.JobID, applog.FieldUserID, msg.UserID)
			return nil
		}
		return fmt.Errorf("build forecast: %w", err)
	}

	path, err := w.writeReport(msg, fc)
	if err != nil {
		return err
	}

	if w.sink != nil {
		// The file is the deliverable; a sheet outage must not requeue
		// the job.
		if err := w.sink.AppendForecast(ctx, fc); err != nil {
			slog.WarnContext(ctx, "Failed to append forecast to sheet",
				applog.FieldJobID, msg.JobID, applog.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "Report written",
		applog.FieldJobID, msg.JobID,
		applog.FieldUserID, msg.UserID,
		"path", path)
	return nil
}

func (w *ReportWorker) writeReport(msg *amqp.ReportRequestMessage, fc services.Forecast) (string, error) {
	if err := os.MkdirAll(w.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	path := filepath.Join(w.reportsDir, ReportFileName(msg.JobID, msg.Format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	switch msg.Format {
	case amqp.FormatCSV:
		err = export.WriteCSV(f, fc)
	case amqp.FormatPDF:
		err = export.WritePDF(f, fc)
	default:
		return "", fmt.Errorf("unknown report format %q", msg.Format)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("render %s report: %w", msg.Format, err)
	}
	return path, nil
}

// ReportFileName is the on-disk name for a finished report.
func ReportFileName(jobID, format string) string {
	return fmt.Sprintf("report_%s.%s", jobID, format)
}

// Sweep removes expired sessions from the database and report files
// older than the retention window.
func (w *ReportWorker) Sweep(ctx context.Context, now time.Time) error {
	deleted, err := w.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Deleted expired sessions", "count", deleted)
	}

	entries, err := os.ReadDir(w.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read reports directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "report_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > w.maxAge {
			if err := os.Remove(filepath.Join(w.reportsDir, entry.Name())); err != nil {
				slog.WarnContext(ctx, "Failed to remove stale report",
					"file", entry.Name(), "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Removed stale reports", "count", removed)
	}
	return nil
}

// RunSweeper runs Sweep at the given interval until the context ends.
func (w *ReportWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}
