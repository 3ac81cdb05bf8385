package process

import (
	"math"
	"time"

	"slaughterhouse/internal/pkg/enum"
	"slaughterhouse/internal/pkg/validation"
)

// Classification is the post-mortem verdict on one product.
type Classification int

const (
	UnknownClassification Classification = iota
	SuitableForConsumption
	SuitableForProcessing
	TotalConfiscation
	PartialConfiscation
)

var classificationNames = enum.Names[Classification]{
	SuitableForConsumption: "SuitableForConsumption",
	SuitableForProcessing:  "SuitableForProcessing",
	TotalConfiscation:      "TotalConfiscation",
	PartialConfiscation:    "PartialConfiscation",
}

func (c Classification) String() string  { return classificationNames.String(c) }
func (c Classification) Validate() error { return classificationNames.Validate("classification", c) }
func (c Classification) MarshalText() ([]byte, error) {
	return classificationNames.Marshal("classification", c)
}
func (c *Classification) UnmarshalText(b []byte) error {
	return classificationNames.Unmarshal("classification", b, c)
}

func (c Classification) IsSuitable() bool {
	return c == SuitableForConsumption || c == SuitableForProcessing
}

func (c Classification) IsConfiscation() bool {
	return c == TotalConfiscation || c == PartialConfiscation
}

// Organoleptic findings: what the inspector sees, smells and feels.
type Organoleptic struct {
	Color       string `json:"color" validate:"required"`
	Odor        string `json:"odor" validate:"required"`
	Texture     string `json:"texture" validate:"required"`
	Consistency string `json:"consistency,omitempty"`
}

type ProductInspection struct {
	ProductID        string         `json:"productId" validate:"required"`
	Organoleptic     Organoleptic   `json:"organoleptic"`
	SanitaryFindings []string       `json:"sanitaryFindings,omitempty"`
	Classification   Classification `json:"classification" validate:"enum"`
	Inspector        string         `json:"inspector" validate:"required"`
	InspectedAt      time.Time      `json:"inspectedAt"`
	Notes            string         `json:"notes,omitempty"`
}

func (i ProductInspection) Validate() error {
	return validation.Struct("productInspection", i)
}

// InspectionResult rolls up the inspected products.
// ApprovalPercentage = Suitable / Total × 100 over inspected products.
type InspectionResult struct {
	Total              int     `json:"total"`
	Suitable           int     `json:"suitable"`
	Confiscated        int     `json:"confiscated"`
	ApprovalPercentage float64 `json:"approvalPercentage"`
}

func rollUp(inspections []ProductInspection) InspectionResult {
	var r InspectionResult
	for _, i := range inspections {
		r.Total++
		switch {
		case i.Classification.IsSuitable():
			r.Suitable++
		case i.Classification.IsConfiscation():
			r.Confiscated++
		}
	}
	if r.Total > 0 {
		r.ApprovalPercentage = math.Round(float64(r.Suitable)/float64(r.Total)*10000) / 100
	}
	return r
}

// StorageConditions describe the cold chamber products wait in before dispatch.
type StorageConditions struct {
	Chamber      string  `json:"chamber" validate:"required"`
	TemperatureC float64 `json:"temperatureC" validate:"gte=-40,lte=10"`
	HumidityPct  float64 `json:"humidityPct" validate:"gte=0,lte=100"`
}
