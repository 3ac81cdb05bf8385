// Package ports defines the contracts between the slaughter process core and its infrastructure:
// persistence, audit publication, metrics and the external certificate and payment registries.
package ports

import (
	"context"
	"errors"
	"slices"
	"time"

	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
)

// ErrProcessNumberTaken is returned by Save when a new process would reuse the number of a
// different stored process. It is not a concurrency conflict and retrying does not help.
var ErrProcessNumberTaken = errors.New("process number is taken by another process")

// ProcessReader is the read side of process persistence. Every call returns freshly restored
// aggregates; callers may mutate them without affecting storage.
type ProcessReader interface {
	// Load returns the process or an errs.ObjectNotFoundError.
	Load(ctx context.Context, id kernel.UUID) (*process.Process, error)

	// List returns the processes matching filter, oldest first.
	List(ctx context.Context, filter ProcessFilter) ([]*process.Process, error)
}

// ProcessRepository persists process aggregates with optimistic concurrency.
type ProcessRepository interface {
	ProcessReader

	// Save inserts a process with version 0 or updates one whose stored version equals
	// p.Version(). On success the version is incremented and set on p. A stale version, or an
	// insert of an existing id, fails with errs.ConflictError. An insert whose number belongs to
	// another id fails with ErrProcessNumberTaken.
	Save(ctx context.Context, p *process.Process) error
}

// ProcessFilter narrows List. Zero fields match everything.
type ProcessFilter struct {
	Stages          []process.Stage
	PaymentStatuses []finance.PaymentStatus
	ReceivedBefore  time.Time
}

// Matches applies the filter to a loaded process. Adapters that cannot push a criterion down
// to storage use it to finish the job in memory.
func (f ProcessFilter) Matches(p *process.Process) bool {
	if len(f.Stages) > 0 && !slices.Contains(f.Stages, p.Stage()) {
		return false
	}
	if len(f.PaymentStatuses) > 0 && !slices.Contains(f.PaymentStatuses, p.PaymentStatus()) {
		return false
	}
	if !f.ReceivedBefore.IsZero() && !p.CreatedAt().Before(f.ReceivedBefore) {
		return false
	}
	return true
}
