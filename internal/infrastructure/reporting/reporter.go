package reporting

import (
	"context"
	"errors"
	"log/slog"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// LogReporter records per-entry failures as structured log lines.
type LogReporter struct {
	logger *slog.Logger
}

var _ ports.ErrorReporter = (*LogReporter)(nil)

// NewLogReporter writes through logger.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogReporter{logger: logger}
}

// Report logs the failure with the entry guid, the failed stage and the error kind.
// Parse failures usually mean EDGAR changed its index page layout and are flagged.
func (r *LogReporter) Report(ctx context.Context, entry domain.FilingEntry, err error) {
	kind := domain.KindOf(err)
	attrs := []any{
		"guid", entry.GUID,
		"title", entry.Title,
		"link", entry.Link,
		"kind", kind,
		"error", err,
	}

	var perr *domain.ProcessingError
	if errors.As(err, &perr) {
		attrs = append(attrs, "stage", string(perr.Stage))
	}
	if errors.Is(err, domain.ErrParse) {
		attrs = append(attrs, "layout_changed", true)
	}

	r.logger.ErrorContext(ctx, "entry processing failed", attrs...)
}

// LogTransport writes notifications to the log instead of delivering them.
// It stands in when no transport is configured.
type LogTransport struct {
	logger *slog.Logger
}

var _ ports.MessageTransport = (*LogTransport)(nil)

// NewLogTransport writes through logger.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogTransport{logger: logger}
}

// Send logs the message.
func (t *LogTransport) Send(ctx context.Context, msg domain.NotificationMessage) error {
	t.logger.InfoContext(ctx, "notification",
		"subject", msg.Subject,
		"recipients", msg.Recipients,
		"body", msg.BodyText,
	)
	return nil
}
