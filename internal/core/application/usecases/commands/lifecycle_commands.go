package commands

import (
	"strings"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/pkg/errs"
)

type CompleteProcessCommand struct {
	target
}

func NewCompleteProcessCommand(processID kernel.UUID, actor string) (CompleteProcessCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return CompleteProcessCommand{}, err
	}
	return CompleteProcessCommand{target: t}, nil
}

// InterruptProcessCommand drives both SuspendProcess and CancelProcess.
type InterruptProcessCommand struct {
	target
	reason string
}

func NewInterruptProcessCommand(processID kernel.UUID, actor, reason string) (InterruptProcessCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return InterruptProcessCommand{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return InterruptProcessCommand{}, errs.NewValueIsRequiredError("reason")
	}
	return InterruptProcessCommand{target: t, reason: reason}, nil
}

func (c InterruptProcessCommand) Reason() string { return c.reason }
