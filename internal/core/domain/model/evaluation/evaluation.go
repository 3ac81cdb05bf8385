package evaluation

import (
	"time"

	"slaughterhouse/internal/pkg/validation"
)

// Readings are the physical examination values taken on the live animal.
type Readings struct {
	TemperatureC     float64 `json:"temperatureC" validate:"gte=30,lte=45"`
	HeartRate        int     `json:"heartRate" validate:"gt=0,lte=300"`
	RespiratoryRate  int     `json:"respiratoryRate" validate:"gt=0,lte=200"`
	GeneralCondition string  `json:"generalCondition" validate:"required"`
}

type Evaluation struct {
	AnimalID     string    `json:"animalId" validate:"required"`
	Readings     Readings  `json:"readings"`
	Result       Result    `json:"result" validate:"enum"`
	Observations string    `json:"observations,omitempty"`
	Inspector    string    `json:"inspector" validate:"required"`
	EvaluatedAt  time.Time `json:"evaluatedAt"`
}

func (e Evaluation) Validate() error {
	return validation.Struct("evaluation", e)
}
