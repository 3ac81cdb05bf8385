package ports

import (
	"time"

	"slaughterhouse/internal/core/domain/model/process"
)

// Operation outcomes reported to MetricsRecorder.
const (
	OutcomeSuccess      = "success"
	OutcomeValidation   = "validation"
	OutcomePrecondition = "precondition"
	OutcomeNotFound     = "not_found"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

type MetricsRecorder interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	ObserveTransition(from, to process.Stage)
	ObserveAuditFailure(operation string)
}
