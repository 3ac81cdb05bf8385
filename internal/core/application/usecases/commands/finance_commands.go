package commands

import (
	"fmt"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

type RecordAnimalCostCommand struct {
	target
	cost process.AnimalCost
}

func NewRecordAnimalCostCommand(processID kernel.UUID, actor string, c process.AnimalCost) (RecordAnimalCostCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return RecordAnimalCostCommand{}, err
	}
	if c.AnimalID == "" {
		return RecordAnimalCostCommand{}, errs.NewValueIsRequiredError("animalId")
	}
	for name, v := range map[string]decimal.Decimal{
		"slaughterFee":       c.SlaughterFee,
		"additionalServices": c.AdditionalServices,
		"prolongedHours":     c.ProlongedHours,
		"hourlyRate":         c.HourlyRate,
	} {
		if v.IsNegative() {
			return RecordAnimalCostCommand{}, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", v))
		}
	}
	return RecordAnimalCostCommand{target: t, cost: c}, nil
}

func (c RecordAnimalCostCommand) Cost() process.AnimalCost { return c.cost }

type RegisterPaymentCommand struct {
	target
	amount    decimal.Decimal
	reference string
}

func NewRegisterPaymentCommand(processID kernel.UUID, actor string, amount decimal.Decimal, reference string) (RegisterPaymentCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return RegisterPaymentCommand{}, err
	}
	if !amount.IsPositive() {
		return RegisterPaymentCommand{}, errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("%s is not greater than 0", amount))
	}
	if reference == "" {
		return RegisterPaymentCommand{}, errs.NewValueIsRequiredError("reference")
	}
	return RegisterPaymentCommand{target: t, amount: amount, reference: reference}, nil
}

func (c RegisterPaymentCommand) Amount() decimal.Decimal { return c.amount }
func (c RegisterPaymentCommand) Reference() string       { return c.reference }

type MarkPaymentOverdueCommand struct {
	target
}

func NewMarkPaymentOverdueCommand(processID kernel.UUID, actor string) (MarkPaymentOverdueCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return MarkPaymentOverdueCommand{}, err
	}
	return MarkPaymentOverdueCommand{target: t}, nil
}
