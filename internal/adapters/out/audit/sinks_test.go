package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"slaughterhouse/internal/adapters/out/audit"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(seq int) timeline.Entry {
	start := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	return timeline.Entry{
		Sequence:  seq,
		Stage:     "Slaughter",
		Operation: "CompleteSlaughter",
		Actor:     "dr.vaca",
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Minute),
		Status:    timeline.Completed,
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := audit.NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	id := kernel.NewUUID()

	require.NoError(t, sink.Append(t.Context(), id, entry(4)))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "audit", record["component"])
	assert.Equal(t, id.String(), record["process_id"])
	assert.Equal(t, "CompleteSlaughter", record["operation"])
	assert.Equal(t, "Completed", record["status"])
	assert.EqualValues(t, 4, record["sequence"])
}

type failingSink struct{ err error }

func (s failingSink) Append(context.Context, kernel.UUID, timeline.Entry) error { return s.err }

type recordingSink struct{ entries []timeline.Entry }

func (s *recordingSink) Append(_ context.Context, _ kernel.UUID, e timeline.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	healthy := &recordingSink{}
	fan := audit.Fanout{failingSink{err: boom}, healthy}

	err := fan.Append(t.Context(), kernel.NewUUID(), entry(1))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, healthy.entries, 1, "healthy sink still receives the entry")

	var _ ports.AuditSink = fan
}
