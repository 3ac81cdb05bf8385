package commands

import (
	"errors"
	"slices"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/errs"
)

type StartSlaughterCommand struct {
	target
	operator     string
	veterinarian string
}

func NewStartSlaughterCommand(processID kernel.UUID, actor, operator, veterinarian string) (StartSlaughterCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return StartSlaughterCommand{}, err
	}
	var missing []error
	if operator == "" {
		missing = append(missing, errs.NewValueIsRequiredError("operator"))
	}
	if veterinarian == "" {
		missing = append(missing, errs.NewValueIsRequiredError("veterinarian"))
	}
	if err = errors.Join(missing...); err != nil {
		return StartSlaughterCommand{}, err
	}
	return StartSlaughterCommand{target: t, operator: operator, veterinarian: veterinarian}, nil
}

func (c StartSlaughterCommand) Operator() string     { return c.operator }
func (c StartSlaughterCommand) Veterinarian() string { return c.veterinarian }

type RecordSlaughterCommand struct {
	target
	record process.SlaughterRecord
}

func NewRecordSlaughterCommand(processID kernel.UUID, actor string, rec process.SlaughterRecord) (RecordSlaughterCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return RecordSlaughterCommand{}, err
	}
	if err = rec.Validate(); err != nil {
		return RecordSlaughterCommand{}, err
	}
	rec.Products = slices.Clone(rec.Products)
	rec.Confiscations = slices.Clone(rec.Confiscations)
	return RecordSlaughterCommand{target: t, record: rec}, nil
}

func (c RecordSlaughterCommand) Record() process.SlaughterRecord {
	r := c.record
	r.Products = slices.Clone(r.Products)
	r.Confiscations = slices.Clone(r.Confiscations)
	return r
}

type CompleteSlaughterCommand struct {
	target
}

func NewCompleteSlaughterCommand(processID kernel.UUID, actor string) (CompleteSlaughterCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return CompleteSlaughterCommand{}, err
	}
	return CompleteSlaughterCommand{target: t}, nil
}
