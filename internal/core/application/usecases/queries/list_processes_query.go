package queries

import (
	"errors"
	"slices"
	"time"

	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrListProcessesQueryIsNotConstructed = errors.New("ListProcessesQuery must be created via NewListProcessesQuery constructor")

// ListProcessesQuery lists processes matching a filter. An empty filter lists everything.
type ListProcessesQuery struct {
	filter ports.ProcessFilter

	guard guard.ConstructorGuard
}

func NewListProcessesQuery(filter ports.ProcessFilter) (ListProcessesQuery, error) {
	var invalid []error
	for _, s := range filter.Stages {
		invalid = append(invalid, s.Validate())
	}
	for _, s := range filter.PaymentStatuses {
		invalid = append(invalid, s.Validate())
	}
	if err := errors.Join(invalid...); err != nil {
		return ListProcessesQuery{}, err
	}

	filter.Stages = slices.Clone(filter.Stages)
	filter.PaymentStatuses = slices.Clone(filter.PaymentStatuses)
	return ListProcessesQuery{filter: filter, guard: guard.NewConstructorGuard()}, nil
}

func (q ListProcessesQuery) Validate() error {
	return q.guard.Validate(ErrListProcessesQueryIsNotConstructed)
}

func (q ListProcessesQuery) Filter() ports.ProcessFilter {
	f := q.filter
	f.Stages = slices.Clone(f.Stages)
	f.PaymentStatuses = slices.Clone(f.PaymentStatuses)
	return f
}

// ProcessSummary is one row of a process listing.
type ProcessSummary struct {
	ID             kernel.UUID           `json:"id"`
	Number         string                `json:"number"`
	CertificateID  string                `json:"certificateId"`
	IntroducerID   string                `json:"introducerId"`
	Stage          process.Stage         `json:"stage"`
	StageEnteredAt time.Time             `json:"stageEnteredAt"`
	CreatedAt      time.Time             `json:"createdAt"`
	Animals        int                   `json:"animals"`
	PaymentStatus  finance.PaymentStatus `json:"paymentStatus"`
	Outstanding    decimal.Decimal       `json:"outstanding"`
	Version        int64                 `json:"version"`
}

func newProcessSummary(p *process.Process) ProcessSummary {
	return ProcessSummary{
		ID:             p.ID(),
		Number:         p.Number(),
		CertificateID:  p.CertificateID(),
		IntroducerID:   p.IntroducerID(),
		Stage:          p.Stage(),
		StageEnteredAt: p.StageEnteredAt(),
		CreatedAt:      p.CreatedAt(),
		Animals:        len(p.Animals()),
		PaymentStatus:  p.PaymentStatus(),
		Outstanding:    p.Totals().Outstanding,
		Version:        p.Version(),
	}
}
