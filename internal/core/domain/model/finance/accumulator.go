package finance

import (
	"fmt"
	"time"

	"slaughterhouse/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CostLine is the charge for one animal. ProlongedUseFee is derived at creation.
type CostLine struct {
	AnimalID           string          `json:"animalId"`
	SlaughterFee       decimal.Decimal `json:"slaughterFee"`
	AdditionalServices decimal.Decimal `json:"additionalServices"`
	ProlongedHours     decimal.Decimal `json:"prolongedHours"`
	HourlyRate         decimal.Decimal `json:"hourlyRate"`
	ProlongedUseFee    decimal.Decimal `json:"prolongedUseFee"`
}

// Amount is the line total before tax.
func (l CostLine) Amount() decimal.Decimal {
	return l.SlaughterFee.Add(l.AdditionalServices).Add(l.ProlongedUseFee)
}

type Payment struct {
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Accumulator is not safe for concurrent use; it lives inside the process aggregate.
type Accumulator struct {
	taxRate  decimal.Decimal
	lines    []CostLine
	payments []Payment
	overdue  bool
}

// NewAccumulator takes the tax rate as a fraction (0.15 for 15%).
func NewAccumulator(taxRate decimal.Decimal) (*Accumulator, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errs.NewValueIsOutOfRangeError("taxRate", taxRate.String(), 0, 1)
	}
	return &Accumulator{taxRate: taxRate}, nil
}

func RestoreAccumulator(taxRate decimal.Decimal, lines []CostLine, payments []Payment, overdue bool) (*Accumulator, error) {
	a, err := NewAccumulator(taxRate)
	if err != nil {
		return nil, err
	}
	a.lines = append(a.lines, lines...)
	a.payments = append(a.payments, payments...)
	a.overdue = overdue
	return a, nil
}

// AddAnimalCost appends a cost line with prolongedUseFee = prolongedHours × hourlyRate.
func (a *Accumulator) AddAnimalCost(
	animalID string,
	slaughterFee, additionalServices, prolongedHours, hourlyRate decimal.Decimal,
) (CostLine, error) {
	if animalID == "" {
		return CostLine{}, errs.NewValueIsRequiredError("animalId")
	}
	for name, v := range map[string]decimal.Decimal{
		"slaughterFee":       slaughterFee,
		"additionalServices": additionalServices,
		"prolongedHours":     prolongedHours,
		"hourlyRate":         hourlyRate,
	} {
		if v.IsNegative() {
			return CostLine{}, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", v))
		}
	}

	line := CostLine{
		AnimalID:           animalID,
		SlaughterFee:       slaughterFee,
		AdditionalServices: additionalServices,
		ProlongedHours:     prolongedHours,
		HourlyRate:         hourlyRate,
		ProlongedUseFee:    prolongedHours.Mul(hourlyRate).Round(2),
	}
	a.lines = append(a.lines, line)
	return line, nil
}

// RegisterPayment records money received. Overpayment is accepted and shows as negative outstanding.
func (a *Accumulator) RegisterPayment(amount decimal.Decimal, reference string, at time.Time) error {
	if !amount.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is not greater than 0", amount))
	}
	a.payments = append(a.payments, Payment{Amount: amount, Reference: reference, ReceivedAt: at})
	if a.Recompute().Outstanding.Sign() <= 0 {
		a.overdue = false
	}
	return nil
}

// MarkOverdue flags unpaid balances. It reports false when nothing is owed.
func (a *Accumulator) MarkOverdue() bool {
	if !a.Recompute().Outstanding.IsPositive() {
		return false
	}
	a.overdue = true
	return true
}

// Recompute derives all totals from stored lines and payments.
func (a *Accumulator) Recompute() Totals {
	subtotal := decimal.Zero
	for _, l := range a.lines {
		subtotal = subtotal.Add(l.Amount())
	}
	paid := decimal.Zero
	for _, p := range a.payments {
		paid = paid.Add(p.Amount)
	}

	tax := subtotal.Mul(a.taxRate).Round(2)
	total := subtotal.Add(tax)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       total,
		Paid:        paid,
		Outstanding: total.Sub(paid),
	}
}

// Status derives the payment status from the totals and the overdue flag.
func (a *Accumulator) Status() PaymentStatus {
	t := a.Recompute()
	switch {
	case t.Total.IsPositive() && t.Outstanding.Sign() <= 0:
		return Paid
	case a.overdue:
		return Overdue
	case t.Paid.IsPositive():
		return Partial
	default:
		return Pending
	}
}

func (a *Accumulator) TaxRate() decimal.Decimal {
	return a.taxRate
}

// TaxRatePercent is the tax rate expressed in percent, for display.
func (a *Accumulator) TaxRatePercent() decimal.Decimal {
	return a.taxRate.Mul(hundred)
}

func (a *Accumulator) Lines() []CostLine {
	out := make([]CostLine, len(a.lines))
	copy(out, a.lines)
	return out
}

func (a *Accumulator) Payments() []Payment {
	out := make([]Payment, len(a.payments))
	copy(out, a.payments)
	return out
}

func (a *Accumulator) IsOverdue() bool {
	return a.overdue
}

// LinesFor returns the cost lines charged to one animal.
func (a *Accumulator) LinesFor(animalID string) []CostLine {
	var out []CostLine
	for _, l := range a.lines {
		if l.AnimalID == animalID {
			out = append(out, l)
		}
	}
	return out
}
