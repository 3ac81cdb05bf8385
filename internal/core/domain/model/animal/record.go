package animal

import (
	"slaughterhouse/internal/pkg/validation"
)

// Record is an animal as received. It is owned by its process and keyed by ID.
type Record struct {
	ID               string  `json:"id" validate:"required,max=64"`
	Species          Species `json:"species" validate:"enum"`
	ArrivalWeightKg  float64 `json:"arrivalWeightKg" validate:"gt=0,lte=3000"`
	ArrivalCondition string  `json:"arrivalCondition" validate:"required"`
	Identification   string  `json:"identification,omitempty"`
}

func (r Record) Validate() error {
	return validation.Struct("animal", r)
}
