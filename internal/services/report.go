package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finplan/internal/amqp"
)

// ErrExportsDisabled is returned when no broker is configured, so
// async report generation cannot be offered.
var ErrExportsDisabled = errors.New("report exports are not enabled")

// ReportPublisher enqueues report jobs. Satisfied by *amqp.Client.
type ReportPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// ReportService hands report generation off to the worker through the
// broker. Jobs are fire-and-forget; the worker writes finished files
// to the reports directory.
type ReportService struct {
	publisher ReportPublisher
}

func NewReportService(publisher ReportPublisher) *ReportService {
	return &ReportService{publisher: publisher}
}

// Enabled reports whether async exports can be requested.
func (s *ReportService) Enabled() bool {
	return s.publisher != nil
}

// RequestExport enqueues a report job for the user and returns its ID.
func (s *ReportService) RequestExport(ctx context.Context, userID int64, format string) (string, error) {
	if s.publisher == nil {
		return "", ErrExportsDisabled
	}

	msg := amqp.NewReportRequestMessage(uuid.NewString(), userID, format)
	if err := s.publisher.PublishReportRequest(ctx, msg); err != nil {
		return "", fmt.Errorf("publish report request: %w", err)
	}

	slog.InfoContext(ctx, "Requested report export",
		"job_id", msg.JobID,
		"user_id", userID,
		"format", format)
	return msg.JobID, nil
}
