package process

import (
	"errors"
	"fmt"
	"time"

	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// Snapshot is the persisted form of a Process. Repositories store it as a JSON document.
type Snapshot struct {
	ID             kernel.UUID `json:"id"`
	Number         string      `json:"number"`
	CertificateID  string      `json:"certificateId"`
	IntroducerID   string      `json:"introducerId"`
	Stage          Stage       `json:"stage"`
	StageEnteredAt time.Time   `json:"stageEnteredAt"`
	CreatedAt      time.Time   `json:"createdAt"`
	Version        int64       `json:"version"`

	Animals     []animal.Record         `json:"animals"`
	Evaluations []evaluation.Evaluation `json:"evaluations,omitempty"`
	Finance     FinanceSnapshot         `json:"finance"`
	Timeline    []timeline.Entry        `json:"timeline"`

	Reception          *ReceptionData           `json:"reception,omitempty"`
	Verification       *PaymentVerificationData `json:"verification,omitempty"`
	ExternalInspection *ExternalInspectionData  `json:"externalInspection,omitempty"`
	Slaughter          *SlaughterData           `json:"slaughter,omitempty"`
	InternalInspection *InternalInspectionData  `json:"internalInspection,omitempty"`
	Dispatch           *DispatchData            `json:"dispatch,omitempty"`
	Closure            *ClosureData             `json:"closure,omitempty"`
}

type FinanceSnapshot struct {
	TaxRate  decimal.Decimal    `json:"taxRate"`
	Lines    []finance.CostLine `json:"lines,omitempty"`
	Payments []finance.Payment  `json:"payments,omitempty"`
	Overdue  bool               `json:"overdue"`
}

// Snapshot returns a deep copy of the process state.
func (p *Process) Snapshot() Snapshot {
	s := Snapshot{
		ID:             p.id,
		Number:         p.number,
		CertificateID:  p.certificateID,
		IntroducerID:   p.introducerID,
		Stage:          p.stage,
		StageEnteredAt: p.stageEnteredAt,
		CreatedAt:      p.createdAt,
		Version:        p.version,
		Animals:        p.animals.All(),
		Evaluations:    p.evaluations.All(),
		Finance: FinanceSnapshot{
			TaxRate:  p.finance.TaxRate(),
			Lines:    p.finance.Lines(),
			Payments: p.finance.Payments(),
			Overdue:  p.finance.IsOverdue(),
		},
		Timeline: p.timeline.Entries(),
	}
	if d, ok := p.Reception(); ok {
		s.Reception = &d
	}
	if d, ok := p.Verification(); ok {
		s.Verification = &d
	}
	if p.external != nil {
		d := *p.external
		d.Photos = append([]string(nil), d.Photos...)
		// evaluations live in the ledger
		d.Evaluations = nil
		s.ExternalInspection = &d
	}
	if d, ok := p.Slaughter(); ok {
		s.Slaughter = &d
	}
	if d, ok := p.InternalInspection(); ok {
		s.InternalInspection = &d
	}
	if d, ok := p.Dispatch(); ok {
		s.Dispatch = &d
	}
	if d, ok := p.Closure(); ok {
		s.Closure = &d
	}
	return s
}

// Restore rebuilds a process from a snapshot and verifies its invariants.
func Restore(s Snapshot) (*Process, error) {
	if err := s.ID.Validate(); err != nil {
		return nil, err
	}
	if err := s.Stage.Validate(); err != nil {
		return nil, err
	}
	registry, err := animal.NewRegistry(s.Animals)
	if err != nil {
		return nil, err
	}
	acc, err := finance.RestoreAccumulator(s.Finance.TaxRate, s.Finance.Lines, s.Finance.Payments, s.Finance.Overdue)
	if err != nil {
		return nil, err
	}

	p := &Process{
		id:             s.ID,
		number:         s.Number,
		certificateID:  s.CertificateID,
		introducerID:   s.IntroducerID,
		stage:          s.Stage,
		stageEnteredAt: s.StageEnteredAt,
		createdAt:      s.CreatedAt,
		version:        s.Version,
		animals:        registry,
		evaluations:    evaluation.RestoreLedger(s.Evaluations),
		finance:        acc,
		timeline:       timeline.Restore(s.Timeline),
		guard:          guard.NewConstructorGuard(),
	}
	if s.Reception != nil {
		d := *s.Reception
		p.reception = &d
	}
	if s.Verification != nil {
		d := *s.Verification
		p.verification = &d
	}
	if s.ExternalInspection != nil {
		d := *s.ExternalInspection
		d.Evaluations = nil
		p.external = &d
	}
	if s.Slaughter != nil {
		d := *s.Slaughter
		d.Records = cloneRecords(d.Records)
		p.slaughter = &d
	}
	if s.InternalInspection != nil {
		d := *s.InternalInspection
		d.Inspections = cloneInspections(d.Inspections)
		p.internal = &d
	}
	if s.Dispatch != nil {
		d := *s.Dispatch
		d.Shipments = cloneShipments(d.Shipments)
		p.dispatch = &d
	}
	if s.Closure != nil {
		d := *s.Closure
		p.closure = &d
	}

	if err := p.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("restore process %s: %w", s.ID, err)
	}
	return p, nil
}

// CheckInvariants verifies the cross-stage rules every stored process must satisfy.
func (p *Process) CheckInvariants() error {
	var violations []error
	violation := func(format string, args ...any) {
		violations = append(violations, fmt.Errorf(format, args...))
	}

	if err := p.stage.Validate(); err != nil {
		violations = append(violations, err)
	}
	if p.evaluations.Len() > p.animals.Len() {
		violation("%d evaluations for %d animals", p.evaluations.Len(), p.animals.Len())
	}
	for _, e := range p.evaluations.All() {
		if _, ok := p.animals.Get(e.AnimalID); !ok {
			violation("evaluation of unknown animal %s", e.AnimalID)
		}
	}
	if _, ok := p.Data(p.stage); !ok && !p.stage.IsTerminal() {
		violation("no stage data for current stage %s", p.stage)
	}
	if p.stage.IsTerminal() && p.closure == nil {
		violation("terminal stage %s without closure", p.stage)
	}

	if p.slaughter != nil {
		products := make(map[string]struct{})
		for _, r := range p.slaughter.Records {
			e, ok := p.evaluations.Get(r.AnimalID)
			if !ok || e.Result != evaluation.SuitableForSlaughter {
				violation("slaughter record for animal %s which is not SuitableForSlaughter", r.AnimalID)
			}
			for _, prod := range r.Products {
				if _, dup := products[prod.ID]; dup {
					violation("duplicate product id %s", prod.ID)
				}
				products[prod.ID] = struct{}{}
			}
		}
	}

	if p.dispatch != nil {
		booked := make(map[string]kernel.UUID)
		for _, s := range p.dispatch.Shipments {
			for _, id := range s.ProductIDs {
				if p.internal != nil {
					pi, _, ok := p.internal.inspection(id)
					if ok && pi.Classification == TotalConfiscation && s.Type != Confiscations {
						violation("product %s is %s but travels in %s shipment %s", id, pi.Classification, s.Type, s.ID)
					}
				}
				if s.Status == Returned {
					continue
				}
				if other, dup := booked[id]; dup {
					violation("product %s booked on shipments %s and %s", id, other, s.ID)
				}
				booked[id] = s.ID
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("process", errors.Join(violations...))
}
