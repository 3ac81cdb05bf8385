// Package queries is the read side: it reads committed processes through ports.ProcessReader and
// never takes the per-process write lock.
package queries

import (
	"errors"
	"time"

	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetProcessQueryIsNotConstructed = errors.New("GetProcessQuery must be created via NewGetProcessQuery constructor")

// GetProcessQuery fetches one process with its derived figures.
type GetProcessQuery struct {
	id kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetProcessQuery(id kernel.UUID) (GetProcessQuery, error) {
	if err := id.Validate(); err != nil {
		return GetProcessQuery{}, err
	}
	return GetProcessQuery{id: id, guard: guard.NewConstructorGuard()}, nil
}

func (q GetProcessQuery) Validate() error {
	return q.guard.Validate(ErrGetProcessQueryIsNotConstructed)
}

func (q GetProcessQuery) ID() kernel.UUID {
	return q.id
}

// GetProcessQueryResponse is the full snapshot plus figures derived from it.
type GetProcessQueryResponse struct {
	process.Snapshot

	PaymentStatus   finance.PaymentStatus `json:"paymentStatus"`
	Totals          finance.Totals        `json:"totals"`
	TaxRatePercent  decimal.Decimal       `json:"taxRatePercent"`
	StageDurations  map[string]string     `json:"stageDurations"`
	ApprovedForShip []string              `json:"approvedForShipment,omitempty"`
}

// NewProcessView builds the response for an already loaded process. The HTTP adapter uses it to
// answer mutations with the state they produced.
func NewProcessView(p *process.Process) GetProcessQueryResponse {
	durations := make(map[string]time.Duration)
	for _, e := range p.Timeline() {
		durations[e.Stage] += e.Duration()
	}
	formatted := make(map[string]string, len(durations))
	for stage, d := range durations {
		formatted[stage] = d.String()
	}

	var approved []string
	if d, ok := p.InternalInspection(); ok {
		for _, pi := range d.Inspections {
			if pi.Classification != process.TotalConfiscation {
				approved = append(approved, pi.ProductID)
			}
		}
	}

	return GetProcessQueryResponse{
		Snapshot:        p.Snapshot(),
		PaymentStatus:   p.PaymentStatus(),
		Totals:          p.Totals(),
		TaxRatePercent:  p.TaxRatePercent(),
		StageDurations:  formatted,
		ApprovedForShip: approved,
	}
}
