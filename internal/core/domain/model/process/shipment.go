package process

import (
	"fmt"
	"time"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/pkg/enum"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/validation"
)

type ShipmentType int

const (
	UnknownShipmentType ShipmentType = iota
	Regular
	Confiscations
)

var shipmentTypeNames = enum.Names[ShipmentType]{
	Regular:       "Regular",
	Confiscations: "Confiscations",
}

func (t ShipmentType) String() string  { return shipmentTypeNames.String(t) }
func (t ShipmentType) Validate() error { return shipmentTypeNames.Validate("shipmentType", t) }
func (t ShipmentType) MarshalText() ([]byte, error) {
	return shipmentTypeNames.Marshal("shipmentType", t)
}
func (t *ShipmentType) UnmarshalText(b []byte) error {
	return shipmentTypeNames.Unmarshal("shipmentType", b, t)
}

// ShipmentStatus follows:
//
//	Preparation ─> InTransit ─┬─> Delivered
//	     │                    ├─> Returned
//	     │                    └─> Incident ─> Delivered | Returned
//	     └─> Returned (withdrawn before departure)
type ShipmentStatus int

const (
	UnknownShipmentStatus ShipmentStatus = iota
	Preparation
	InTransit
	Delivered
	Returned
	Incident
)

var shipmentStatusNames = enum.Names[ShipmentStatus]{
	Preparation: "Preparation",
	InTransit:   "InTransit",
	Delivered:   "Delivered",
	Returned:    "Returned",
	Incident:    "Incident",
}

func (s ShipmentStatus) String() string  { return shipmentStatusNames.String(s) }
func (s ShipmentStatus) Validate() error { return shipmentStatusNames.Validate("shipmentStatus", s) }
func (s ShipmentStatus) MarshalText() ([]byte, error) {
	return shipmentStatusNames.Marshal("shipmentStatus", s)
}
func (s *ShipmentStatus) UnmarshalText(b []byte) error {
	return shipmentStatusNames.Unmarshal("shipmentStatus", b, s)
}

// IsPending reports whether the shipment still blocks process completion.
func (s ShipmentStatus) IsPending() bool {
	return s == Preparation || s == InTransit
}

// TransitionTo validates a shipment status change.
func (s ShipmentStatus) TransitionTo(next ShipmentStatus) (ShipmentStatus, error) {
	if err := next.Validate(); err != nil {
		return UnknownShipmentStatus, err
	}

	allowed := map[ShipmentStatus][]ShipmentStatus{
		Preparation: {InTransit, Returned},
		InTransit:   {Delivered, Returned, Incident},
		Incident:    {Delivered, Returned},
	}
	for _, candidate := range allowed[s] {
		if candidate == next {
			return next, nil
		}
	}
	return UnknownShipmentStatus, errs.NewPreconditionFailedError(
		"UpdateShipmentStatus", fmt.Sprintf("shipment cannot move from %s to %s", s, next))
}

type Destination struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address" validate:"required"`
	Establishment string `json:"establishment,omitempty"`
}

type Vehicle struct {
	Plate        string  `json:"plate" validate:"required"`
	Driver       string  `json:"driver" validate:"required"`
	Refrigerated bool    `json:"refrigerated"`
	TemperatureC float64 `json:"temperatureC"`
}

// Shipment is a dispatch unit. ID, Status, CreatedAt and UpdatedAt are assigned by the process.
type Shipment struct {
	ID          kernel.UUID    `json:"id"`
	Type        ShipmentType   `json:"type" validate:"enum"`
	ProductIDs  []string       `json:"productIds" validate:"required,min=1,unique,dive,required"`
	Destination Destination    `json:"destination"`
	Vehicle     Vehicle        `json:"vehicle"`
	Status      ShipmentStatus `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (s Shipment) Validate() error {
	return validation.Struct("shipment", s)
}
