package process

import (
	"time"

	"slaughterhouse/internal/core/domain/model/evaluation"
)

// StageData is the record a process keeps for one stage. The set of variants is closed:
// ReceptionData, PaymentVerificationData, ExternalInspectionData, SlaughterData,
// InternalInspectionData, DispatchData and ClosureData.
type StageData interface {
	Stage() Stage
	isStageData()
}

type ReceptionData struct {
	Method     string    `json:"method"`
	ReceivedBy string    `json:"receivedBy"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (ReceptionData) Stage() Stage { return Reception }
func (ReceptionData) isStageData() {}

type PaymentVerificationData struct {
	Certificate   CertificateResult `json:"certificate"`
	Payment       PaymentResult     `json:"payment"`
	Missing       []string          `json:"missing,omitempty"`
	Attempts      int               `json:"attempts"`
	LastAttemptAt time.Time         `json:"lastAttemptAt"`
}

func (PaymentVerificationData) Stage() Stage { return PaymentVerification }
func (PaymentVerificationData) isStageData() {}

// Environment is the pen and weather situation during ante-mortem inspection.
type Environment struct {
	TemperatureC float64 `json:"temperatureC" validate:"gte=-30,lte=55"`
	HumidityPct  float64 `json:"humidityPct" validate:"gte=0,lte=100"`
	Lighting     string  `json:"lighting,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

type ExternalInspectionData struct {
	Evaluations []evaluation.Evaluation `json:"evaluations,omitempty"`
	Environment Environment             `json:"environment"`
	Photos      []string                `json:"photos,omitempty"`
	Overall     evaluation.Overall      `json:"overall,omitempty"`
	CompletedAt time.Time               `json:"completedAt"`
}

func (ExternalInspectionData) Stage() Stage { return ExternalInspection }
func (ExternalInspectionData) isStageData() {}

// IsCompleted reports whether the overall result has been fixed.
func (d ExternalInspectionData) IsCompleted() bool {
	return !d.CompletedAt.IsZero()
}

type SlaughterData struct {
	Operator     string            `json:"operator,omitempty"`
	Veterinarian string            `json:"veterinarian,omitempty"`
	StartedAt    time.Time         `json:"startedAt"`
	Records      []SlaughterRecord `json:"records,omitempty"`
	Summary      SlaughterSummary  `json:"summary"`
	CompletedAt  time.Time         `json:"completedAt"`
}

func (SlaughterData) Stage() Stage { return Slaughter }
func (SlaughterData) isStageData() {}

func (d SlaughterData) IsStarted() bool {
	return !d.StartedAt.IsZero()
}

func (d SlaughterData) record(animalID string) (SlaughterRecord, bool) {
	for _, r := range d.Records {
		if r.AnimalID == animalID {
			return r, true
		}
	}
	return SlaughterRecord{}, false
}

// Products lists every obtained product across records, in record order.
func (d SlaughterData) Products() []ObtainedProduct {
	var out []ObtainedProduct
	for _, r := range d.Records {
		out = append(out, r.Products...)
	}
	return out
}

type InternalInspectionData struct {
	Inspections []ProductInspection `json:"inspections,omitempty"`
	Result      InspectionResult    `json:"result"`
	Storage     StorageConditions   `json:"storage"`
	Notes       string              `json:"notes,omitempty"`
	CompletedAt time.Time           `json:"completedAt"`
}

func (InternalInspectionData) Stage() Stage { return InternalInspection }
func (InternalInspectionData) isStageData() {}

func (d InternalInspectionData) inspection(productID string) (ProductInspection, int, bool) {
	for i, pi := range d.Inspections {
		if pi.ProductID == productID {
			return pi, i, true
		}
	}
	return ProductInspection{}, -1, false
}

type DispatchData struct {
	Shipments []Shipment `json:"shipments,omitempty"`
	EnteredAt time.Time  `json:"enteredAt"`
}

func (DispatchData) Stage() Stage { return Dispatch }
func (DispatchData) isStageData() {}

// Pending returns the shipments still in Preparation or InTransit.
func (d DispatchData) Pending() []Shipment {
	var out []Shipment
	for _, s := range d.Shipments {
		if s.Status.IsPending() {
			out = append(out, s)
		}
	}
	return out
}

// ClosureData records how a process reached its terminal stage.
type ClosureData struct {
	Final    Stage     `json:"final"`
	From     Stage     `json:"from"`
	Reason   string    `json:"reason,omitempty"`
	ClosedBy string    `json:"closedBy"`
	ClosedAt time.Time `json:"closedAt"`
}

func (d ClosureData) Stage() Stage { return d.Final }
func (ClosureData) isStageData()   {}
