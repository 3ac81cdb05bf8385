package commands

import (
	"fmt"
	"slices"

	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/validation"
)

type EvaluateAnimalCommand struct {
	target
	evaluation evaluation.Evaluation
}

func NewEvaluateAnimalCommand(processID kernel.UUID, actor string, e evaluation.Evaluation) (EvaluateAnimalCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return EvaluateAnimalCommand{}, err
	}
	if err = e.Validate(); err != nil {
		return EvaluateAnimalCommand{}, err
	}
	return EvaluateAnimalCommand{target: t, evaluation: e}, nil
}

func (c EvaluateAnimalCommand) Evaluation() evaluation.Evaluation {
	return c.evaluation
}

// CompleteExternalInspectionCommand closes the ante-mortem inspection. UnsuitableOutcome decides
// where a batch without any suitable animal ends: Cancelled (default) or Suspended.
type CompleteExternalInspectionCommand struct {
	target
	environment       process.Environment
	photos            []string
	unsuitableOutcome process.Stage
}

func NewCompleteExternalInspectionCommand(
	processID kernel.UUID, actor string, env process.Environment, photos []string, unsuitableOutcome process.Stage,
) (CompleteExternalInspectionCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return CompleteExternalInspectionCommand{}, err
	}
	if err = validation.Struct("environment", env); err != nil {
		return CompleteExternalInspectionCommand{}, err
	}
	if unsuitableOutcome == process.UnknownStage {
		unsuitableOutcome = process.Cancelled
	}
	if !unsuitableOutcome.IsInterruption() {
		return CompleteExternalInspectionCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"unsuitableOutcome", fmt.Errorf("%s is not Cancelled or Suspended", unsuitableOutcome))
	}
	return CompleteExternalInspectionCommand{
		target:            t,
		environment:       env,
		photos:            slices.Clone(photos),
		unsuitableOutcome: unsuitableOutcome,
	}, nil
}

func (c CompleteExternalInspectionCommand) Environment() process.Environment { return c.environment }
func (c CompleteExternalInspectionCommand) Photos() []string                 { return slices.Clone(c.photos) }
func (c CompleteExternalInspectionCommand) UnsuitableOutcome() process.Stage {
	return c.unsuitableOutcome
}

type InspectProductCommand struct {
	target
	inspection process.ProductInspection
}

func NewInspectProductCommand(processID kernel.UUID, actor string, pi process.ProductInspection) (InspectProductCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return InspectProductCommand{}, err
	}
	if err = pi.Validate(); err != nil {
		return InspectProductCommand{}, err
	}
	pi.SanitaryFindings = slices.Clone(pi.SanitaryFindings)
	return InspectProductCommand{target: t, inspection: pi}, nil
}

func (c InspectProductCommand) Inspection() process.ProductInspection {
	pi := c.inspection
	pi.SanitaryFindings = slices.Clone(pi.SanitaryFindings)
	return pi
}

type CompleteInternalInspectionCommand struct {
	target
	storage process.StorageConditions
	notes   string
}

func NewCompleteInternalInspectionCommand(
	processID kernel.UUID, actor string, storage process.StorageConditions, notes string,
) (CompleteInternalInspectionCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return CompleteInternalInspectionCommand{}, err
	}
	if err = validation.Struct("storage", storage); err != nil {
		return CompleteInternalInspectionCommand{}, err
	}
	return CompleteInternalInspectionCommand{target: t, storage: storage, notes: notes}, nil
}

func (c CompleteInternalInspectionCommand) Storage() process.StorageConditions { return c.storage }
func (c CompleteInternalInspectionCommand) Notes() string                      { return c.notes }
