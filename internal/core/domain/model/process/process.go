package process

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/guard"
	"slaughterhouse/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

var ErrProcessIsNotConstructed = errors.New("Process must be created via NewProcess or Restore")

// Process is the aggregate root tracking one batch of animals through the pipeline.
// It is mutated only through its methods; every accessor returns copies.
type Process struct {
	id             kernel.UUID
	number         string
	certificateID  string
	introducerID   string
	stage          Stage
	stageEnteredAt time.Time
	createdAt      time.Time
	version        int64

	animals     *animal.Registry
	evaluations *evaluation.Ledger
	finance     *finance.Accumulator
	timeline    *timeline.Timeline

	reception    *ReceptionData
	verification *PaymentVerificationData
	external     *ExternalInspectionData
	slaughter    *SlaughterData
	internal     *InternalInspectionData
	dispatch     *DispatchData
	closure      *ClosureData

	guard guard.ConstructorGuard
}

// ReceptionInput describes a batch of animals arriving at the gate.
//
// Every field is required and the animal list must hold at least one record. Animal ids must be
// unique; NewProcess rejects duplicates.
type ReceptionInput struct {
	CertificateID string          `json:"certificateId" validate:"required"`
	IntroducerID  string          `json:"introducerId" validate:"required"`
	Animals       []animal.Record `json:"animals" validate:"required,min=1,dive"`
	Method        string          `json:"method" validate:"required"`
}

// NewProcess starts a process in Reception. This is the only way to open a process, so every
// live aggregate starts from a validated batch.
//
// Parameters:
//   - id: process identifier chosen by the caller (must not be the zero UUID)
//   - in: the batch received, validated against its struct tags
//   - taxRate: fraction applied to cost lines, in [0, 1]
//   - actor: person receiving the batch, recorded in the first timeline entry
//   - at: reception time
//
// Returns:
//   - *Process: the new process with exactly one timeline entry
//   - error: ValueIsRequiredError for an empty animal list or missing actor,
//     ValueIsInvalidError for duplicate animal ids or malformed records
//
// Example:
//
//	p, err := NewProcess(kernel.NewUUID(), ReceptionInput{
//	    CertificateID: "CZ-2024-0001",
//	    IntroducerID:  "INT-77",
//	    Animals:       animals,
//	    Method:        "truck",
//	}, decimal.RequireFromString("0.15"), "gate.1", time.Now())
func NewProcess(id kernel.UUID, in ReceptionInput, taxRate decimal.Decimal, actor string, at time.Time) (*Process, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, errs.NewValueIsRequiredError("actor")
	}
	if len(in.Animals) == 0 {
		return nil, errs.NewValueIsRequiredError("animals")
	}

	if err := validation.Struct("reception", in); err != nil {
		return nil, err
	}
	registry, err := animal.NewRegistry(in.Animals)
	if err != nil {
		return nil, err
	}

	acc, err := finance.NewAccumulator(taxRate)
	if err != nil {
		return nil, err
	}

	p := &Process{
		id:             id,
		number:         processNumber(id, at),
		certificateID:  in.CertificateID,
		introducerID:   in.IntroducerID,
		stage:          Reception,
		stageEnteredAt: at,
		createdAt:      at,
		animals:        registry,
		evaluations:    evaluation.NewLedger(),
		finance:        acc,
		timeline:       timeline.New(),
		reception:      &ReceptionData{Method: in.Method, ReceivedBy: actor, ReceivedAt: at},
		guard:          guard.NewConstructorGuard(),
	}
	p.record(OpStartReception, actor, at, at, timeline.Completed,
		fmt.Sprintf("%d animals received by %s", registry.Len(), in.Method))
	return p, nil
}

func processNumber(id kernel.UUID, at time.Time) string {
	return fmt.Sprintf("SP-%s-%s", at.UTC().Format("20060102"), strings.ToUpper(id.String()[:8]))
}

// Validate ensures the process was built through NewProcess or Restore.
//
// Returns:
//   - nil if the process is valid
//   - ErrProcessIsNotConstructed for a nil or zero-value process
//
// Repositories call it before saving so a zero value can never reach storage.
func (p *Process) Validate() error {
	if p == nil {
		return ErrProcessIsNotConstructed
	}
	return p.guard.Validate(ErrProcessIsNotConstructed)
}

// ID returns the unique identifier of the process.
func (p *Process) ID() kernel.UUID           { return p.id }
// Number returns the human-readable process number (SP-YYYYMMDD-XXXXXXXX).
func (p *Process) Number() string            { return p.number }
// CertificateID returns the zoosanitary certificate the batch travelled with.
func (p *Process) CertificateID() string     { return p.certificateID }
// IntroducerID returns the party that delivered the animals.
func (p *Process) IntroducerID() string      { return p.introducerID }
// Stage returns the current position in the pipeline.
func (p *Process) Stage() Stage              { return p.stage }
// StageEnteredAt returns when the current stage was entered.
func (p *Process) StageEnteredAt() time.Time { return p.stageEnteredAt }
// CreatedAt returns the reception time.
func (p *Process) CreatedAt() time.Time      { return p.createdAt }
// Version returns the optimistic-concurrency version. It is 0 until the first save and is
// incremented by every successful save.
func (p *Process) Version() int64            { return p.version }

// SetVersion is called by repositories after a successful save.
func (p *Process) SetVersion(v int64) {
	p.version = v
}

// IsEqual compares two processes by their identifiers.
//
// Returns:
//   - true if both processes have the same ID
//   - false if other is nil or the IDs differ
func (p *Process) IsEqual(other *Process) bool {
	return other != nil && p.id.IsEqual(other.id)
}

// Animals returns a copy of the admitted animals in admission order.
func (p *Process) Animals() []animal.Record {
	return p.animals.All()
}

// Animal looks up one admitted animal; ok is false for unknown ids.
func (p *Process) Animal(id string) (animal.Record, bool) {
	return p.animals.Get(id)
}

// HeadcountBySpecies reports how many animals of each species were admitted.
func (p *Process) HeadcountBySpecies() map[animal.Species]int {
	return p.animals.CountBySpecies()
}

// ArrivalWeightKg is the summed arrival weight of the batch.
func (p *Process) ArrivalWeightKg() float64 {
	return p.animals.TotalWeightKg()
}

// Evaluations returns the latest ante-mortem evaluation per animal, in first-submission order.
// There are never more evaluations than animals.
func (p *Process) Evaluations() []evaluation.Evaluation {
	return p.evaluations.All()
}

// Evaluation returns the latest evaluation of one animal; ok is false if it was never evaluated.
func (p *Process) Evaluation(animalID string) (evaluation.Evaluation, bool) {
	return p.evaluations.Get(animalID)
}

func (p *Process) EvaluationCounts() map[evaluation.Result]int {
	return p.evaluations.CountByResult()
}

// Totals recomputes subtotal, tax, total, paid and outstanding amounts from the stored cost lines
// and payments. Nothing is cached, so the figures never drift from their source lines.
func (p *Process) Totals() finance.Totals {
	return p.finance.Recompute()
}

// PaymentStatus returns Pending, Partial, Paid or Overdue, derived from the current totals.
func (p *Process) PaymentStatus() finance.PaymentStatus {
	return p.finance.Status()
}

// CostLines returns a copy of the per-animal cost lines in the order they were recorded.
func (p *Process) CostLines() []finance.CostLine {
	return p.finance.Lines()
}

// Payments returns a copy of the registered payments.
func (p *Process) Payments() []finance.Payment {
	return p.finance.Payments()
}

// TaxRate returns the fraction applied on top of the subtotal.
func (p *Process) TaxRate() decimal.Decimal {
	return p.finance.TaxRate()
}

func (p *Process) TaxRatePercent() decimal.Decimal {
	return p.finance.TaxRatePercent()
}

// Timeline returns a copy of the audit timeline. Entries are only ever appended.
func (p *Process) Timeline() []timeline.Entry {
	return p.timeline.Entries()
}

// TimelineSince returns the entries appended after the first n, used to publish new audit entries.
func (p *Process) TimelineSince(n int) []timeline.Entry {
	return p.timeline.Since(n)
}

// TimelineLen returns the number of timeline entries.
func (p *Process) TimelineLen() int {
	return p.timeline.Len()
}

// Current returns the stage data variant matching the current stage. Callers switch on the
// concrete type:
//
//	switch d := p.Current().(type) {
//	case ExternalInspectionData:
//	    // evaluations, photos, overall result
//	case ClosureData:
//	    // reason the process ended
//	}
func (p *Process) Current() StageData {
	d, _ := p.Data(p.stage)
	return d
}

// Data returns the variant recorded for stage s; ok is false if the process never entered s.
func (p *Process) Data(s Stage) (StageData, bool) {
	switch s {
	case Reception:
		if d, ok := p.Reception(); ok {
			return d, true
		}
	case PaymentVerification:
		if d, ok := p.Verification(); ok {
			return d, true
		}
	case ExternalInspection:
		if d, ok := p.ExternalInspection(); ok {
			return d, true
		}
	case Slaughter:
		if d, ok := p.Slaughter(); ok {
			return d, true
		}
	case InternalInspection:
		if d, ok := p.InternalInspection(); ok {
			return d, true
		}
	case Dispatch:
		if d, ok := p.Dispatch(); ok {
			return d, true
		}
	case Completed, Cancelled, Suspended:
		if d, ok := p.Closure(); ok && d.Final == s {
			return d, true
		}
	}
	return nil, false
}

// Reception returns how the batch was received. It is set for every process.
func (p *Process) Reception() (ReceptionData, bool) {
	if p.reception == nil {
		return ReceptionData{}, false
	}
	return *p.reception, true
}

// Verification returns the latest certificate and payment check; ok is false until
// ValidateCertificateAndPayment was called once.
func (p *Process) Verification() (PaymentVerificationData, bool) {
	if p.verification == nil {
		return PaymentVerificationData{}, false
	}
	d := *p.verification
	d.Missing = slices.Clone(d.Missing)
	d.Certificate.Errors = slices.Clone(d.Certificate.Errors)
	return d, true
}

// ExternalInspection returns the ante-mortem record, including a copy of every evaluation;
// ok is false before the process reached ExternalInspection.
func (p *Process) ExternalInspection() (ExternalInspectionData, bool) {
	if p.external == nil {
		return ExternalInspectionData{}, false
	}
	d := *p.external
	d.Photos = slices.Clone(d.Photos)
	d.Evaluations = p.evaluations.All()
	return d, true
}

// OverallResult is the external inspection roll-up; UnknownOverall until the inspection is completed.
func (p *Process) OverallResult() evaluation.Overall {
	if p.external == nil {
		return evaluation.UnknownOverall
	}
	return p.external.Overall
}

// Slaughter returns the slaughter record and summary; ok is false before the process reached Slaughter.
func (p *Process) Slaughter() (SlaughterData, bool) {
	if p.slaughter == nil {
		return SlaughterData{}, false
	}
	d := *p.slaughter
	d.Records = cloneRecords(d.Records)
	return d, true
}

// InternalInspection returns the post-mortem inspections and their roll-up; ok is false before
// the process reached InternalInspection.
func (p *Process) InternalInspection() (InternalInspectionData, bool) {
	if p.internal == nil {
		return InternalInspectionData{}, false
	}
	d := *p.internal
	d.Inspections = cloneInspections(d.Inspections)
	return d, true
}

// Dispatch returns the shipments; ok is false before the process reached Dispatch.
func (p *Process) Dispatch() (DispatchData, bool) {
	if p.dispatch == nil {
		return DispatchData{}, false
	}
	d := *p.dispatch
	d.Shipments = cloneShipments(d.Shipments)
	return d, true
}

// Closure returns how the process ended; ok is false while it is live.
func (p *Process) Closure() (ClosureData, bool) {
	if p.closure == nil {
		return ClosureData{}, false
	}
	return *p.closure, true
}

// Products lists every product obtained at slaughter, in record order.
func (p *Process) Products() []ObtainedProduct {
	if p.slaughter == nil {
		return nil
	}
	return p.slaughter.Products()
}

func (p *Process) product(id string) (ObtainedProduct, bool) {
	for _, prod := range p.Products() {
		if prod.ID == id {
			return prod, true
		}
	}
	return ObtainedProduct{}, false
}

func cloneRecords(in []SlaughterRecord) []SlaughterRecord {
	out := slices.Clone(in)
	for i := range out {
		out[i].Products = slices.Clone(out[i].Products)
		out[i].Confiscations = slices.Clone(out[i].Confiscations)
	}
	return out
}

func cloneInspections(in []ProductInspection) []ProductInspection {
	out := slices.Clone(in)
	for i := range out {
		out[i].SanitaryFindings = slices.Clone(out[i].SanitaryFindings)
	}
	return out
}

func cloneShipments(in []Shipment) []Shipment {
	out := slices.Clone(in)
	for i := range out {
		out[i].ProductIDs = slices.Clone(out[i].ProductIDs)
	}
	return out
}

// record appends the single timeline entry of a mutation.
func (p *Process) record(op, actor string, startedAt, endedAt time.Time, status timeline.Status, note string) {
	p.timeline.Append(timeline.Entry{
		Stage:     p.stage.String(),
		Operation: op,
		Actor:     actor,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Status:    status,
		Note:      note,
	})
}

// advance moves to next, logging one entry that spans the stage being left.
func (p *Process) advance(next Stage, op, actor string, at time.Time, status timeline.Status, note string) error {
	target, err := p.stage.TransitionTo(next)
	if err != nil {
		return err
	}
	p.record(op, actor, p.stageEnteredAt, at, status, note)
	p.stage = target
	p.stageEnteredAt = at
	return nil
}
