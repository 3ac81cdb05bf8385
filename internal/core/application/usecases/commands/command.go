package commands

import (
	"errors"
	"strings"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/guard"
)

var ErrCommandIsNotConstructed = errors.New("command must be created via its New...Command constructor")

// target is embedded in every command that acts on an existing process.
type target struct {
	processID kernel.UUID
	actor     string

	guard guard.ConstructorGuard
}

func newTarget(processID kernel.UUID, actor string) (target, error) {
	t := target{guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		t.setProcessID(processID),
		t.setActor(actor),
	); err != nil {
		return target{}, err
	}
	return t, nil
}

// Validate ensures the command was created through its constructor.
func (t target) Validate() error {
	return t.guard.Validate(ErrCommandIsNotConstructed)
}

func (t target) ProcessID() kernel.UUID {
	return t.processID
}

// Actor is the person responsible for the operation, recorded in the audit timeline.
func (t target) Actor() string {
	return t.actor
}

func (t *target) setProcessID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.processID = id
	return nil
}

func (t *target) setActor(actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	t.actor = actor
	return nil
}
