// Package audit publishes committed timeline entries outside the process store.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/core/ports"
)

// LogSink writes every entry as one structured log record.
type LogSink struct {
	logger *slog.Logger
}

var _ ports.AuditSink = (*LogSink)(nil)

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "audit")}
}

func (s *LogSink) Append(ctx context.Context, processID kernel.UUID, e timeline.Entry) error {
	s.logger.InfoContext(ctx, "timeline entry",
		"process_id", processID.String(),
		"sequence", e.Sequence,
		"stage", e.Stage,
		"operation", e.Operation,
		"actor", e.Actor,
		"status", e.Status.String(),
		"duration", e.Duration(),
		"note", e.Note,
	)
	return nil
}

// Fanout delivers to every sink and joins their errors. One failing sink does not stop the others.
type Fanout []ports.AuditSink

var _ ports.AuditSink = Fanout(nil)

func (f Fanout) Append(ctx context.Context, processID kernel.UUID, e timeline.Entry) error {
	var errList []error
	for _, s := range f {
		if err := s.Append(ctx, processID, e); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
