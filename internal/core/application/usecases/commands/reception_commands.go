package commands

import (
	"slices"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/validation"
)

// StartReceptionCommand admits a batch of animals and opens a new process.
// The caller chooses the process id so retried requests stay idempotent.
//
// Example:
//
//	cmd, err := NewStartReceptionCommand(kernel.NewUUID(), "gate.1", process.ReceptionInput{
//	    CertificateID: "CZ-2024-0001",
//	    IntroducerID:  "INT-77",
//	    Animals:       animals,
//	    Method:        "truck",
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid reception: %w", err)
//	}
//	p, err := machine.StartReception(ctx, cmd)
type StartReceptionCommand struct {
	target
	reception process.ReceptionInput
}

func NewStartReceptionCommand(processID kernel.UUID, actor string, in process.ReceptionInput) (StartReceptionCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return StartReceptionCommand{}, err
	}
	if len(in.Animals) == 0 {
		return StartReceptionCommand{}, errs.NewValueIsRequiredError("animals")
	}
	if err = validation.Struct("reception", in); err != nil {
		return StartReceptionCommand{}, err
	}
	in.Animals = slices.Clone(in.Animals)
	return StartReceptionCommand{target: t, reception: in}, nil
}

func (c StartReceptionCommand) Reception() process.ReceptionInput {
	r := c.reception
	r.Animals = slices.Clone(r.Animals)
	return r
}

// ValidateCertificateAndPaymentCommand carries registry answers that were already resolved
// by the caller; the state machine never calls the registries itself.
type ValidateCertificateAndPaymentCommand struct {
	target
	certificate process.CertificateResult
	payment     process.PaymentResult
}

func NewValidateCertificateAndPaymentCommand(
	processID kernel.UUID, actor string, cert process.CertificateResult, pay process.PaymentResult,
) (ValidateCertificateAndPaymentCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return ValidateCertificateAndPaymentCommand{}, err
	}
	if pay.PendingAmount.IsNegative() {
		return ValidateCertificateAndPaymentCommand{}, errs.NewValueIsOutOfRangeError(
			"pendingAmount", pay.PendingAmount.String(), 0, "unbounded")
	}
	cert.Errors = slices.Clone(cert.Errors)
	return ValidateCertificateAndPaymentCommand{target: t, certificate: cert, payment: pay}, nil
}

func (c ValidateCertificateAndPaymentCommand) Certificate() process.CertificateResult {
	r := c.certificate
	r.Errors = slices.Clone(r.Errors)
	return r
}

func (c ValidateCertificateAndPaymentCommand) Payment() process.PaymentResult {
	return c.payment
}
