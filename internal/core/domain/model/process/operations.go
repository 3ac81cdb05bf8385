package process

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

// Every mutation below checks its gate and validates its input before touching any field,
// so a returned error always leaves the process unchanged.

// ValidateCertificateAndPayment applies the resolved certificate and payment facts.
//
// The first call moves the process from Reception to PaymentVerification. Each call counts as an
// attempt and records what is still missing. When the certificate is valid and no inscription
// fee or fine is pending the process advances to ExternalInspection.
//
// Parameters:
//   - cert: certificate validity and its errors, as resolved by the registry
//   - pay: payment status of the batch
//   - actor: who ran the check
//   - at: time of the attempt
//
// Returns:
//   - Verdict: Allowed when the process left PaymentVerification, otherwise the missing conditions
//   - error: PreconditionFailedError outside Reception or PaymentVerification,
//     ValueIsRequiredError for a missing actor
//
// A denial is not an error: the attempt is recorded and must be persisted.
func (p *Process) ValidateCertificateAndPayment(
	cert CertificateResult, pay PaymentResult, actor string, at time.Time,
) (Verdict, error) {
	if err := CanValidateCertificateAndPayment(p).Err(OpValidateCertificateAndPayment); err != nil {
		return Verdict{}, err
	}
	if err := requireActor(actor); err != nil {
		return Verdict{}, err
	}

	verdict := CanLeavePaymentVerification(cert, pay)
	fromReception := p.stage == Reception
	if fromReception {
		p.stage = PaymentVerification
		p.verification = &PaymentVerificationData{}
	}

	v := p.verification
	v.Certificate = CertificateResult{IsValid: cert.IsValid, Errors: slices.Clone(cert.Errors)}
	v.Payment = pay
	v.Missing = missingConditions(cert, pay)
	v.Attempts++
	v.LastAttemptAt = at

	if !verdict.Allowed {
		p.record(OpValidateCertificateAndPayment, actor, p.stageEnteredAt, at, timeline.Pending, "missing: "+verdict.Reason)
		if fromReception {
			p.stageEnteredAt = at
		}
		return verdict, nil
	}

	if err := p.advance(ExternalInspection, OpValidateCertificateAndPayment, actor, at, timeline.Completed,
		fmt.Sprintf("certificate valid, payment cleared after %d attempt(s)", v.Attempts)); err != nil {
		return Verdict{}, err
	}
	p.external = &ExternalInspectionData{}
	return verdict, nil
}

// EvaluateAnimal stores or replaces the ante-mortem evaluation of one registered animal.
// A second evaluation of the same animal replaces the first, so the process never holds more
// evaluations than animals.
//
// Returns PreconditionFailedError outside ExternalInspection, ObjectNotFoundError for an animal
// that is not part of the batch and a validation error for a malformed evaluation.
func (p *Process) EvaluateAnimal(e evaluation.Evaluation, actor string, at time.Time) error {
	if err := CanEvaluateAnimal(p).Err(OpEvaluateAnimal); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := p.animals.MustExist(e.AnimalID); err != nil {
		return err
	}

	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = at
	}
	_, replaced := p.evaluations.Get(e.AnimalID)
	p.evaluations.Upsert(e)

	note := fmt.Sprintf("animal %s evaluated %s", e.AnimalID, e.Result)
	if replaced {
		note += " (re-evaluation)"
	}
	p.record(OpEvaluateAnimal, actor, at, at, timeline.Completed, note)
	return nil
}

// CompleteExternalInspection fixes the overall ante-mortem result.
//
// The gate requires the process to be in ExternalInspection with every animal evaluated. A result
// that admits slaughter advances to Slaughter. When no animal is suitable the process ends in
// unsuitableOutcome, which defaults to Cancelled and may only be Cancelled or Suspended.
//
// Returns:
//   - error: PreconditionFailedError when the gate denies,
//     ValueIsInvalidError for a bad environment or unsuitableOutcome
func (p *Process) CompleteExternalInspection(
	env Environment, photos []string, unsuitableOutcome Stage, actor string, at time.Time,
) error {
	if err := CanCompleteExternalInspection(p).Err(OpCompleteExternalInspection); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validation.Struct("environment", env); err != nil {
		return err
	}
	if unsuitableOutcome == UnknownStage {
		unsuitableOutcome = Cancelled
	}
	if !unsuitableOutcome.IsInterruption() {
		return errs.NewValueIsInvalidErrorWithCause("unsuitableOutcome",
			fmt.Errorf("%s is not Cancelled or Suspended", unsuitableOutcome))
	}

	overall := p.evaluations.Overall()
	p.external.Environment = env
	p.external.Photos = slices.Clone(photos)
	p.external.Overall = overall
	p.external.CompletedAt = at

	if !overall.AdmitsSlaughter() {
		reason := fmt.Sprintf("external inspection result %s", overall)
		return p.close(unsuitableOutcome, OpCompleteExternalInspection, actor, reason, at)
	}

	suitable := len(p.evaluations.SuitableIDs())
	if err := p.advance(Slaughter, OpCompleteExternalInspection, actor, at, timeline.Completed,
		fmt.Sprintf("%s: %d of %d animals admitted to slaughter", overall, suitable, p.animals.Len())); err != nil {
		return err
	}
	p.slaughter = &SlaughterData{}
	return nil
}

// StartSlaughter records who runs the slaughter line. It is accepted once, in Slaughter, and only
// when the external inspection admitted at least one animal.
//
// Returns PreconditionFailedError when the gate denies or slaughter already started, and
// ValueIsRequiredError for a missing operator, veterinarian or actor.
func (p *Process) StartSlaughter(operator, veterinarian, actor string, at time.Time) error {
	if err := CanStartSlaughter(p).Err(OpStartSlaughter); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if operator == "" {
		return errs.NewValueIsRequiredError("operator")
	}
	if veterinarian == "" {
		return errs.NewValueIsRequiredError("veterinarian")
	}

	p.slaughter.Operator = operator
	p.slaughter.Veterinarian = veterinarian
	p.slaughter.StartedAt = at
	p.record(OpStartSlaughter, actor, at, at, timeline.Completed,
		fmt.Sprintf("operator %s, veterinarian %s", operator, veterinarian))
	return nil
}

// RecordSlaughter stores the outcome for one animal. The live weight is the arrival weight of the
// animal and the yield is derived from it, clamped to [0, 100].
//
// The gate admits only animals evaluated SuitableForSlaughter, once each, after StartSlaughter.
// Product ids must be unique across the whole process.
//
// Returns:
//   - SlaughterRecord: the stored record with weights and yield filled in
//   - error: ObjectNotFoundError for an unknown animal, PreconditionFailedError when the gate
//     denies, ValueIsInvalidError for a malformed record or a duplicate product id
func (p *Process) RecordSlaughter(rec SlaughterRecord, actor string, at time.Time) (SlaughterRecord, error) {
	if err := slaughterRunning(p).Err(OpRecordSlaughter); err != nil {
		return SlaughterRecord{}, err
	}
	if err := requireActor(actor); err != nil {
		return SlaughterRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return SlaughterRecord{}, err
	}
	a, ok := p.animals.Get(rec.AnimalID)
	if !ok {
		return SlaughterRecord{}, errs.NewObjectNotFoundError("animal", rec.AnimalID)
	}
	if err := CanRecordSlaughter(p, rec.AnimalID).Err(OpRecordSlaughter); err != nil {
		return SlaughterRecord{}, err
	}
	if err := p.checkProductIDs(rec.Products); err != nil {
		return SlaughterRecord{}, err
	}

	rec.Products = slices.Clone(rec.Products)
	rec.Confiscations = slices.Clone(rec.Confiscations)
	rec.LiveWeightKg = a.ArrivalWeightKg
	rec.Yield, rec.YieldClamped = Yield(rec.CarcassWeightKg, rec.LiveWeightKg)

	p.slaughter.Records = append(p.slaughter.Records, rec)
	p.slaughter.Summary = summarise(p.slaughter.Records)

	note := fmt.Sprintf("animal %s: %d products, yield %.2f%%", rec.AnimalID, len(rec.Products), rec.Yield)
	if rec.YieldClamped {
		note += " (clamped, check weights)"
	}
	p.record(OpRecordSlaughter, actor, at, at, timeline.Completed, note)

	out := rec
	out.Products = slices.Clone(rec.Products)
	out.Confiscations = slices.Clone(rec.Confiscations)
	return out, nil
}

func (p *Process) checkProductIDs(products []ObtainedProduct) error {
	seen := make(map[string]struct{}, len(products))
	for _, prod := range p.slaughter.Products() {
		seen[prod.ID] = struct{}{}
	}
	for _, prod := range products {
		if _, dup := seen[prod.ID]; dup {
			return errs.NewValueIsInvalidErrorWithCause("products",
				fmt.Errorf("duplicate product id %q", prod.ID))
		}
		seen[prod.ID] = struct{}{}
	}
	return nil
}

// CompleteSlaughter moves the process to InternalInspection once every suitable animal has a
// slaughter record. Otherwise it returns PreconditionFailedError naming the animals still missing.
func (p *Process) CompleteSlaughter(actor string, at time.Time) error {
	if err := CanCompleteSlaughter(p).Err(OpCompleteSlaughter); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	p.slaughter.CompletedAt = at
	s := p.slaughter.Summary
	if err := p.advance(InternalInspection, OpCompleteSlaughter, actor, at, timeline.Completed,
		fmt.Sprintf("%d animals processed, average yield %.2f%%", s.Processed, s.AverageYield)); err != nil {
		return err
	}
	p.internal = &InternalInspectionData{}
	return nil
}

// InspectProduct stores or replaces the post-mortem inspection of one obtained product.
//
// Returns PreconditionFailedError outside InternalInspection, ObjectNotFoundError for a product
// no slaughter record produced and a validation error for a malformed inspection.
func (p *Process) InspectProduct(pi ProductInspection, actor string, at time.Time) error {
	if err := CanInspectProduct(p).Err(OpInspectProduct); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := pi.Validate(); err != nil {
		return err
	}
	if _, ok := p.product(pi.ProductID); !ok {
		return errs.NewObjectNotFoundError("product", pi.ProductID)
	}

	if pi.InspectedAt.IsZero() {
		pi.InspectedAt = at
	}
	pi.SanitaryFindings = slices.Clone(pi.SanitaryFindings)

	note := fmt.Sprintf("product %s classified %s", pi.ProductID, pi.Classification)
	if _, idx, ok := p.internal.inspection(pi.ProductID); ok {
		p.internal.Inspections[idx] = pi
		note += " (re-inspection)"
	} else {
		p.internal.Inspections = append(p.internal.Inspections, pi)
	}
	p.internal.Result = rollUp(p.internal.Inspections)
	p.record(OpInspectProduct, actor, at, at, timeline.Completed, note)
	return nil
}

// CompleteInternalInspection records the storage conditions and advances to Dispatch. Every
// product must be inspected first; the gate denies with the list of products still missing.
func (p *Process) CompleteInternalInspection(storage StorageConditions, notes, actor string, at time.Time) error {
	if err := CanCompleteInternalInspection(p).Err(OpCompleteInternalInspection); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validation.Struct("storage", storage); err != nil {
		return err
	}

	p.internal.Storage = storage
	p.internal.Notes = notes
	p.internal.CompletedAt = at
	r := p.internal.Result
	if err := p.advance(Dispatch, OpCompleteInternalInspection, actor, at, timeline.Completed,
		fmt.Sprintf("%d/%d products approved (%.2f%%), stored in %s",
			r.Suitable, r.Total, r.ApprovalPercentage, storage.Chamber)); err != nil {
		return err
	}
	p.dispatch = &DispatchData{EnteredAt: at}
	return nil
}

// CreateShipment registers a shipment in Preparation. Products classified TotalConfiscation
// travel only in Confiscations shipments, and a product already booked on a shipment that was
// not Returned cannot be booked again.
//
// Returns:
//   - Shipment: the stored shipment
//   - error: PreconditionFailedError outside Dispatch, ObjectNotFoundError for an unknown product,
//     ValueIsInvalidError for a malformed shipment or a product that cannot travel in it
func (p *Process) CreateShipment(id kernel.UUID, s Shipment, actor string, at time.Time) (Shipment, error) {
	if err := CanManageShipments(p).Err(OpCreateShipment); err != nil {
		return Shipment{}, err
	}
	if err := requireActor(actor); err != nil {
		return Shipment{}, err
	}
	if err := id.Validate(); err != nil {
		return Shipment{}, err
	}
	if err := s.Validate(); err != nil {
		return Shipment{}, err
	}

	booked := p.bookedProducts()
	for _, productID := range s.ProductIDs {
		if _, ok := p.product(productID); !ok {
			return Shipment{}, errs.NewObjectNotFoundError("product", productID)
		}
		pi, _, ok := p.internal.inspection(productID)
		if !ok {
			return Shipment{}, errs.NewValueIsInvalidErrorWithCause("productIds",
				fmt.Errorf("product %q was never inspected", productID))
		}
		if pi.Classification == TotalConfiscation && s.Type != Confiscations {
			return Shipment{}, errs.NewValueIsInvalidErrorWithCause("productIds",
				fmt.Errorf("product %q is %s and may only leave in a %s shipment", productID, pi.Classification, Confiscations))
		}
		if other, ok := booked[productID]; ok {
			return Shipment{}, errs.NewValueIsInvalidErrorWithCause("productIds",
				fmt.Errorf("product %q is already booked on shipment %s", productID, other))
		}
	}

	s.ID = id
	s.ProductIDs = slices.Clone(s.ProductIDs)
	s.Status = Preparation
	s.CreatedAt = at
	s.UpdatedAt = at
	p.dispatch.Shipments = append(p.dispatch.Shipments, s)
	p.record(OpCreateShipment, actor, at, at, timeline.Completed,
		fmt.Sprintf("%s shipment %s to %s with %d products", s.Type, id, s.Destination.Name, len(s.ProductIDs)))

	out := s
	out.ProductIDs = slices.Clone(s.ProductIDs)
	return out, nil
}

// bookedProducts maps product ids to the active shipment holding them.
func (p *Process) bookedProducts() map[string]kernel.UUID {
	out := make(map[string]kernel.UUID)
	for _, s := range p.dispatch.Shipments {
		if s.Status == Returned {
			continue
		}
		for _, id := range s.ProductIDs {
			out[id] = s.ID
		}
	}
	return out
}

// UpdateShipmentStatus moves a shipment through its lifecycle. A non-empty note is appended to the
// shipment notes.
//
// Returns PreconditionFailedError outside Dispatch or for a transition the lifecycle does not
// allow, and ObjectNotFoundError for an unknown shipment.
func (p *Process) UpdateShipmentStatus(
	shipmentID kernel.UUID, status ShipmentStatus, note, actor string, at time.Time,
) (Shipment, error) {
	if err := CanManageShipments(p).Err(OpUpdateShipmentStatus); err != nil {
		return Shipment{}, err
	}
	if err := requireActor(actor); err != nil {
		return Shipment{}, err
	}

	idx := slices.IndexFunc(p.dispatch.Shipments, func(s Shipment) bool { return s.ID.IsEqual(shipmentID) })
	if idx < 0 {
		return Shipment{}, errs.NewObjectNotFoundError("shipment", shipmentID)
	}
	s := p.dispatch.Shipments[idx]
	next, err := s.Status.TransitionTo(status)
	if err != nil {
		return Shipment{}, err
	}

	msg := fmt.Sprintf("shipment %s %s -> %s", s.ID, s.Status, next)
	if note != "" {
		msg += ": " + note
	}
	s.Status = next
	s.UpdatedAt = at
	if note != "" {
		s.Notes = strings.TrimSpace(strings.Join([]string{s.Notes, note}, "\n"))
	}
	p.dispatch.Shipments[idx] = s
	p.record(OpUpdateShipmentStatus, actor, at, at, timeline.Completed, msg)

	out := s
	out.ProductIDs = slices.Clone(s.ProductIDs)
	return out, nil
}

// Complete closes a process whose shipments are all Delivered or Returned. Products that never
// left in a shipment are not required to.
func (p *Process) Complete(actor string, at time.Time) error {
	if err := CanCompleteProcess(p).Err(OpCompleteProcess); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	return p.close(Completed, OpCompleteProcess, actor, fmt.Sprintf("%d shipments closed", len(p.dispatch.Shipments)), at)
}

// Suspend ends a live process with a reason. Suspended is terminal: nothing resumes it.
func (p *Process) Suspend(reason, actor string, at time.Time) error {
	return p.interrupt(Suspended, OpSuspendProcess, reason, actor, at)
}

// Cancel ends a live process with a reason. It returns PreconditionFailedError for a process that
// already ended and ValueIsRequiredError for a blank reason.
func (p *Process) Cancel(reason, actor string, at time.Time) error {
	return p.interrupt(Cancelled, OpCancelProcess, reason, actor, at)
}

func (p *Process) interrupt(final Stage, op, reason, actor string, at time.Time) error {
	if err := CanInterrupt(p).Err(op); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return errs.NewValueIsRequiredError("reason")
	}
	return p.close(final, op, actor, reason, at)
}

func (p *Process) close(final Stage, op, actor, reason string, at time.Time) error {
	from := p.stage
	status := timeline.Completed
	switch final {
	case Suspended:
		status = timeline.Suspended
	case Cancelled:
		status = timeline.Cancelled
	}
	if err := p.advance(final, op, actor, at, status, reason); err != nil {
		return err
	}
	p.closure = &ClosureData{Final: final, From: from, Reason: reason, ClosedBy: actor, ClosedAt: at}
	return nil
}

// AnimalCost is the charge for one animal.
type AnimalCost struct {
	AnimalID           string          `json:"animalId" validate:"required"`
	SlaughterFee       decimal.Decimal `json:"slaughterFee"`
	AdditionalServices decimal.Decimal `json:"additionalServices"`
	ProlongedHours     decimal.Decimal `json:"prolongedHours"`
	HourlyRate         decimal.Decimal `json:"hourlyRate"`
}

// RecordAnimalCost adds a cost line for one admitted animal:
// slaughter fee + additional services + prolonged hours * hourly rate.
// Finance is accepted in every live stage.
//
// Returns:
//   - finance.CostLine: the stored line
//   - error: PreconditionFailedError for a closed process, ObjectNotFoundError for an unknown
//     animal, ValueIsInvalidError for a negative amount
func (p *Process) RecordAnimalCost(c AnimalCost, actor string, at time.Time) (finance.CostLine, error) {
	if err := CanRecordFinance(p).Err(OpRecordAnimalCost); err != nil {
		return finance.CostLine{}, err
	}
	if err := requireActor(actor); err != nil {
		return finance.CostLine{}, err
	}
	if _, err := p.animals.MustExist(c.AnimalID); err != nil {
		return finance.CostLine{}, err
	}

	line, err := p.finance.AddAnimalCost(c.AnimalID, c.SlaughterFee, c.AdditionalServices, c.ProlongedHours, c.HourlyRate)
	if err != nil {
		return finance.CostLine{}, err
	}
	p.record(OpRecordAnimalCost, actor, at, at, timeline.Completed,
		fmt.Sprintf("animal %s charged %s", c.AnimalID, line.Amount().StringFixed(2)))
	return line, nil
}

// RegisterPayment records a payment and returns the recomputed totals. Overpayment is accepted and
// shows up as a negative outstanding amount.
//
// Returns PreconditionFailedError for a closed process, ValueIsRequiredError for a missing
// reference and ValueIsInvalidError for an amount that is not positive.
func (p *Process) RegisterPayment(amount decimal.Decimal, reference, actor string, at time.Time) (finance.Totals, error) {
	if err := CanRecordFinance(p).Err(OpRegisterPayment); err != nil {
		return finance.Totals{}, err
	}
	if err := requireActor(actor); err != nil {
		return finance.Totals{}, err
	}
	if reference == "" {
		return finance.Totals{}, errs.NewValueIsRequiredError("reference")
	}
	if err := p.finance.RegisterPayment(amount, reference, at); err != nil {
		return finance.Totals{}, err
	}

	t := p.finance.Recompute()
	p.record(OpRegisterPayment, actor, at, at, timeline.Completed,
		fmt.Sprintf("payment %s of %s, outstanding %s (%s)",
			reference, amount.StringFixed(2), t.Outstanding.StringFixed(2), p.finance.Status()))
	return t, nil
}

// MarkPaymentOverdue flags an outstanding balance. A process that owes nothing, or is already
// overdue, is rejected with a precondition error.
func (p *Process) MarkPaymentOverdue(actor string, at time.Time) error {
	if err := CanRecordFinance(p).Err(OpMarkPaymentOverdue); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}
	if p.finance.IsOverdue() {
		return errs.NewPreconditionFailedError(OpMarkPaymentOverdue, "payment is already overdue")
	}
	if !p.finance.MarkOverdue() {
		return errs.NewPreconditionFailedError(OpMarkPaymentOverdue, "nothing is outstanding")
	}
	p.record(OpMarkPaymentOverdue, actor, at, at, timeline.Pending,
		fmt.Sprintf("outstanding %s overdue", p.finance.Recompute().Outstanding.StringFixed(2)))
	return nil
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	return nil
}
