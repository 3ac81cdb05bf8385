// Package timeline is the append-only AuditTimeline of a slaughter process.
package timeline

import (
	"time"

	"slaughterhouse/internal/pkg/enum"
)

// Status is the outcome recorded by an entry.
type Status int

const (
	UnknownStatus Status = iota
	Completed
	Pending
	Suspended
	Cancelled
)

var statusNames = enum.Names[Status]{
	Completed: "Completed",
	Pending:   "Pending",
	Suspended: "Suspended",
	Cancelled: "Cancelled",
}

func (s Status) String() string                { return statusNames.String(s) }
func (s Status) Validate() error               { return statusNames.Validate("timelineStatus", s) }
func (s Status) MarshalText() ([]byte, error)  { return statusNames.Marshal("timelineStatus", s) }
func (s *Status) UnmarshalText(b []byte) error { return statusNames.Unmarshal("timelineStatus", b, s) }

// Entry records one successful mutation. For entries closing a stage StartedAt is the
// moment the stage was entered; otherwise StartedAt equals EndedAt.
type Entry struct {
	Sequence  int       `json:"sequence"`
	Stage     string    `json:"stage"`
	Operation string    `json:"operation"`
	Actor     string    `json:"actor"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
}

func (e Entry) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// Timeline only grows. Entries are copied on the way out.
type Timeline struct {
	entries []Entry
}

func New() *Timeline {
	return &Timeline{}
}

func Restore(entries []Entry) *Timeline {
	t := &Timeline{entries: make([]Entry, len(entries))}
	copy(t.entries, entries)
	return t
}

// Append assigns the next sequence number and returns the stored entry.
func (t *Timeline) Append(e Entry) Entry {
	e.Sequence = len(t.entries) + 1
	t.entries = append(t.entries, e)
	return e
}

func (t *Timeline) Len() int {
	return len(t.entries)
}

func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Since returns the entries appended after the first n.
func (t *Timeline) Since(n int) []Entry {
	if n >= len(t.entries) {
		return nil
	}
	out := make([]Entry, len(t.entries)-n)
	copy(out, t.entries[n:])
	return out
}

func (t *Timeline) Last() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// StageDurations sums the durations of the entries per stage.
func (t *Timeline) StageDurations() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, e := range t.entries {
		out[e.Stage] += e.Duration()
	}
	return out
}
