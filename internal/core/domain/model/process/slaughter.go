package process

import (
	"math"
	"time"

	"slaughterhouse/internal/pkg/validation"
)

// ObtainedProduct is a product cut from a slaughtered animal. ID is unique within the process.
type ObtainedProduct struct {
	ID       string  `json:"id" validate:"required,max=64"`
	Type     string  `json:"type" validate:"required"`
	WeightKg float64 `json:"weightKg" validate:"gt=0"`
	Quality  string  `json:"quality,omitempty"`
	Batch    string  `json:"batch,omitempty"`
}

// Confiscation removes a part of the animal from the human-consumption stream.
type Confiscation struct {
	Part        string  `json:"part" validate:"required"`
	Reason      string  `json:"reason" validate:"required"`
	WeightKg    float64 `json:"weightKg" validate:"gt=0"`
	Disposition string  `json:"disposition" validate:"required"`
}

// SlaughterRecord is the slaughter outcome of one suitable animal.
// LiveWeightKg, Yield and YieldClamped are derived when the record is accepted.
type SlaughterRecord struct {
	AnimalID        string            `json:"animalId" validate:"required"`
	StartedAt       time.Time         `json:"startedAt" validate:"required"`
	EndedAt         time.Time         `json:"endedAt" validate:"required,gtefield=StartedAt"`
	Method          string            `json:"method" validate:"required"`
	CarcassWeightKg float64           `json:"carcassWeightKg" validate:"gte=0"`
	Products        []ObtainedProduct `json:"products" validate:"dive"`
	Confiscations   []Confiscation    `json:"confiscations" validate:"dive"`

	LiveWeightKg float64 `json:"liveWeightKg"`
	Yield        float64 `json:"yield"`
	YieldClamped bool    `json:"yieldClamped"`
}

func (r SlaughterRecord) Validate() error {
	return validation.Struct("slaughterRecord", r)
}

func (r SlaughterRecord) ConfiscatedKg() float64 {
	var total float64
	for _, c := range r.Confiscations {
		total += c.WeightKg
	}
	return total
}

// Yield returns carcass/live × 100 bounded to [0,100]. clamped is true when the raw ratio
// fell outside the bounds, which always points at a weighing error.
func Yield(carcassKg, liveKg float64) (yield float64, clamped bool) {
	if liveKg <= 0 {
		return 0, true
	}
	raw := carcassKg / liveKg * 100
	switch {
	case raw > 100:
		return 100, true
	case raw < 0:
		return 0, true
	default:
		return math.Round(raw*100) / 100, false
	}
}

// SlaughterSummary aggregates every slaughter record of a process.
type SlaughterSummary struct {
	Processed            int     `json:"processed"`
	TotalLiveWeightKg    float64 `json:"totalLiveWeightKg"`
	TotalCarcassWeightKg float64 `json:"totalCarcassWeightKg"`
	AverageYield         float64 `json:"averageYield"`
	TotalConfiscatedKg   float64 `json:"totalConfiscatedKg"`
	ClampedYields        int     `json:"clampedYields"`
}

func summarise(records []SlaughterRecord) SlaughterSummary {
	var (
		s        SlaughterSummary
		yieldSum float64
	)
	for _, r := range records {
		s.Processed++
		s.TotalLiveWeightKg += r.LiveWeightKg
		s.TotalCarcassWeightKg += r.CarcassWeightKg
		s.TotalConfiscatedKg += r.ConfiscatedKg()
		yieldSum += r.Yield
		if r.YieldClamped {
			s.ClampedYields++
		}
	}
	if s.Processed > 0 {
		s.AverageYield = math.Round(yieldSum/float64(s.Processed)*100) / 100
	}
	return s
}
