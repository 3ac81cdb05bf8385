package ports

import (
	"context"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
)

// AuditSink receives every timeline entry after it was committed. Delivery is best effort:
// a failing sink is logged and never fails the business operation.
type AuditSink interface {
	Append(ctx context.Context, processID kernel.UUID, entry timeline.Entry) error
}
