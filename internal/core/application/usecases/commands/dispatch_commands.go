package commands

import (
	"errors"
	"slices"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
)

// CreateShipmentCommand books obtained products on a new shipment. As with processes, the
// caller chooses the shipment id.
type CreateShipmentCommand struct {
	target
	shipmentID kernel.UUID
	shipment   process.Shipment
}

func NewCreateShipmentCommand(
	processID kernel.UUID, actor string, shipmentID kernel.UUID, s process.Shipment,
) (CreateShipmentCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return CreateShipmentCommand{}, err
	}
	if err = errors.Join(shipmentID.Validate(), s.Validate()); err != nil {
		return CreateShipmentCommand{}, err
	}
	s.ProductIDs = slices.Clone(s.ProductIDs)
	return CreateShipmentCommand{target: t, shipmentID: shipmentID, shipment: s}, nil
}

func (c CreateShipmentCommand) ShipmentID() kernel.UUID { return c.shipmentID }

func (c CreateShipmentCommand) Shipment() process.Shipment {
	s := c.shipment
	s.ProductIDs = slices.Clone(s.ProductIDs)
	return s
}

type UpdateShipmentStatusCommand struct {
	target
	shipmentID kernel.UUID
	status     process.ShipmentStatus
	note       string
}

func NewUpdateShipmentStatusCommand(
	processID kernel.UUID, actor string, shipmentID kernel.UUID, status process.ShipmentStatus, note string,
) (UpdateShipmentStatusCommand, error) {
	t, err := newTarget(processID, actor)
	if err != nil {
		return UpdateShipmentStatusCommand{}, err
	}
	if err = errors.Join(shipmentID.Validate(), status.Validate()); err != nil {
		return UpdateShipmentStatusCommand{}, err
	}
	return UpdateShipmentStatusCommand{target: t, shipmentID: shipmentID, status: status, note: note}, nil
}

func (c UpdateShipmentStatusCommand) ShipmentID() kernel.UUID        { return c.shipmentID }
func (c UpdateShipmentStatusCommand) Status() process.ShipmentStatus { return c.status }
func (c UpdateShipmentStatusCommand) Note() string                   { return c.note }
