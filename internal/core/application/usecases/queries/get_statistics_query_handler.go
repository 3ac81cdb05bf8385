package queries

import (
	"context"
	"math"

	"slaughterhouse/internal/core/ports"

	"github.com/shopspring/decimal"
)

type GetStatisticsQueryHandler struct {
	reader ports.ProcessReader
}

func NewGetStatisticsQueryHandler(reader ports.ProcessReader) GetStatisticsQueryHandler {
	return GetStatisticsQueryHandler{reader: reader}
}

func (h GetStatisticsQueryHandler) Handle(ctx context.Context, query GetStatisticsQuery) (Statistics, error) {
	if err := query.Validate(); err != nil {
		return Statistics{}, err
	}

	processes, err := h.reader.List(ctx, ports.ProcessFilter{})
	if err != nil {
		return Statistics{}, err
	}

	s := Statistics{
		ByStage:          make(map[string]int),
		ByPaymentStatus:  make(map[string]int),
		AnimalsBySpecies: make(map[string]int),
		Evaluations:      make(map[string]int),
		Invoiced:         decimal.Zero,
		Outstanding:      decimal.Zero,
	}
	var (
		yieldSum float64
		suitable int
	)
	for _, p := range processes {
		s.Processes++
		s.ByStage[p.Stage().String()]++
		s.ByPaymentStatus[p.PaymentStatus().String()]++

		for species, n := range p.HeadcountBySpecies() {
			s.AnimalsReceived += n
			s.AnimalsBySpecies[species.String()] += n
		}
		s.LiveWeightReceivedKg += p.ArrivalWeightKg()
		for result, n := range p.EvaluationCounts() {
			s.Evaluations[result.String()] += n
		}

		if d, ok := p.Slaughter(); ok {
			for _, r := range d.Records {
				s.AnimalsSlaughtered++
				yieldSum += r.Yield
			}
			s.ConfiscatedKg += d.Summary.TotalConfiscatedKg
		}
		if d, ok := p.InternalInspection(); ok {
			s.ProductsInspected += d.Result.Total
			suitable += d.Result.Suitable
		}

		totals := p.Totals()
		s.Invoiced = s.Invoiced.Add(totals.Total)
		if totals.Outstanding.IsPositive() {
			s.Outstanding = s.Outstanding.Add(totals.Outstanding)
		}
	}

	if s.AnimalsSlaughtered > 0 {
		s.AverageYield = round2(yieldSum / float64(s.AnimalsSlaughtered))
	}
	if s.ProductsInspected > 0 {
		s.ApprovalPercentage = round2(float64(suitable) / float64(s.ProductsInspected) * 100)
	}
	s.ConfiscatedKg = round2(s.ConfiscatedKg)
	s.LiveWeightReceivedKg = round2(s.LiveWeightReceivedKg)
	return s, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
