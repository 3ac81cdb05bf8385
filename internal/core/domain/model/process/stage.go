package process

import (
	"fmt"

	"slaughterhouse/internal/pkg/enum"
	"slaughterhouse/internal/pkg/errs"
)

// Stage is the position of a process in the pipeline.
//
// State transitions:
//
//	Reception ─> PaymentVerification ─> ExternalInspection ─> Slaughter ─> InternalInspection ─> Dispatch ─> Completed
//	    │                 │                      │                │                 │                │
//	    └─────────────────┴──────────────────────┴────────────────┴─────────────────┴────────────────┴──> Cancelled | Suspended
type Stage int

const (
	UnknownStage Stage = iota
	Reception
	PaymentVerification
	ExternalInspection
	Slaughter
	InternalInspection
	Dispatch
	Completed
	Cancelled
	Suspended
)

var stageNames = enum.Names[Stage]{
	Reception:           "Reception",
	PaymentVerification: "PaymentVerification",
	ExternalInspection:  "ExternalInspection",
	Slaughter:           "Slaughter",
	InternalInspection:  "InternalInspection",
	Dispatch:            "Dispatch",
	Completed:           "Completed",
	Cancelled:           "Cancelled",
	Suspended:           "Suspended",
}

// AllStages lists the stages in pipeline order, terminal stages last.
func AllStages() []Stage {
	return []Stage{
		Reception, PaymentVerification, ExternalInspection, Slaughter,
		InternalInspection, Dispatch, Completed, Cancelled, Suspended,
	}
}

func (s Stage) String() string                { return stageNames.String(s) }
func (s Stage) Validate() error               { return stageNames.Validate("stage", s) }
func (s Stage) MarshalText() ([]byte, error)  { return stageNames.Marshal("stage", s) }
func (s *Stage) UnmarshalText(b []byte) error { return stageNames.Unmarshal("stage", b, s) }

// ParseStage converts a stage name, as used in query strings, into a Stage.
func ParseStage(name string) (Stage, error) {
	return stageNames.Parse("stage", name)
}

func (s Stage) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Suspended
}

// IsInterruption reports whether s is one of the stages any live process may jump to.
func (s Stage) IsInterruption() bool {
	return s == Cancelled || s == Suspended
}

// successor is the next stage along the regular path; terminal stages have none.
func (s Stage) successor() Stage {
	switch s {
	case Reception:
		return PaymentVerification
	case PaymentVerification:
		return ExternalInspection
	case ExternalInspection:
		return Slaughter
	case Slaughter:
		return InternalInspection
	case InternalInspection:
		return Dispatch
	case Dispatch:
		return Completed
	default:
		return UnknownStage
	}
}

// TransitionTo validates a move from s to next.
//
// Valid transitions:
//   - s -> its successor along the regular path
//   - any non-terminal stage -> Cancelled or Suspended
//
// Everything else, including any move out of a terminal stage, is rejected.
func (s Stage) TransitionTo(next Stage) (Stage, error) {
	if err := s.Validate(); err != nil {
		return UnknownStage, err
	}
	if s.IsTerminal() {
		return UnknownStage, errs.NewPreconditionFailedError(
			"transition", fmt.Sprintf("process is %s and accepts no further changes", s))
	}
	if next == s.successor() || next.IsInterruption() {
		return next, nil
	}
	return UnknownStage, errs.NewPreconditionFailedError(
		"transition", fmt.Sprintf("%s cannot move to %s", s, next))
}
