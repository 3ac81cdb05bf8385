package http

import (
	"context"
	"net/http"

	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// EvaluateAnimal handles POST /processes/:id/evaluations.
func (s *Server) EvaluateAnimal(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req evaluation.Evaluation
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewEvaluateAnimalCommand(id, actor(c), req)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.EvaluateAnimal(ctx, cmd)
	})
}

type completeExternalInspectionRequest struct {
	Environment process.Environment `json:"environment"`
	Photos      []string            `json:"photos"`
	// UnsuitableOutcome is Cancelled or Suspended; empty means Cancelled.
	UnsuitableOutcome string `json:"unsuitableOutcome"`
}

// CompleteExternalInspection handles POST /processes/:id/external-inspection/complete.
func (s *Server) CompleteExternalInspection(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req completeExternalInspectionRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	outcome := process.UnknownStage
	if req.UnsuitableOutcome != "" {
		if err := outcome.UnmarshalText([]byte(req.UnsuitableOutcome)); err != nil {
			return s.fail(c, err, nil)
		}
	}
	cmd, err := commands.NewCompleteExternalInspectionCommand(id, actor(c), req.Environment, req.Photos, outcome)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.CompleteExternalInspection(ctx, cmd)
	})
}

type startSlaughterRequest struct {
	Operator     string `json:"operator"`
	Veterinarian string `json:"veterinarian"`
}

// StartSlaughter handles POST /processes/:id/slaughter/start.
func (s *Server) StartSlaughter(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req startSlaughterRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewStartSlaughterCommand(id, actor(c), req.Operator, req.Veterinarian)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.StartSlaughter(ctx, cmd)
	})
}

// RecordSlaughter handles POST /processes/:id/slaughter/records.
func (s *Server) RecordSlaughter(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req process.SlaughterRecord
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewRecordSlaughterCommand(id, actor(c), req)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusCreated, func(ctx context.Context) (*process.Process, error) {
		return s.machine.RecordSlaughter(ctx, cmd)
	})
}

// CompleteSlaughter handles POST /processes/:id/slaughter/complete.
func (s *Server) CompleteSlaughter(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewCompleteSlaughterCommand(id, actor(c))
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.CompleteSlaughter(ctx, cmd)
	})
}

// InspectProduct handles POST /processes/:id/inspections.
func (s *Server) InspectProduct(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req process.ProductInspection
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewInspectProductCommand(id, actor(c), req)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.InspectProduct(ctx, cmd)
	})
}

type completeInternalInspectionRequest struct {
	Storage process.StorageConditions `json:"storage"`
	Notes   string                    `json:"notes"`
}

// CompleteInternalInspection handles POST /processes/:id/internal-inspection/complete.
func (s *Server) CompleteInternalInspection(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req completeInternalInspectionRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewCompleteInternalInspectionCommand(id, actor(c), req.Storage, req.Notes)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.CompleteInternalInspection(ctx, cmd)
	})
}

type createShipmentRequest struct {
	// ShipmentID is optional; a new id is generated when empty.
	ShipmentID  kernel.UUID          `json:"shipmentId"`
	Type        process.ShipmentType `json:"type"`
	ProductIDs  []string             `json:"productIds"`
	Destination process.Destination  `json:"destination"`
	Vehicle     process.Vehicle      `json:"vehicle"`
	Notes       string               `json:"notes"`
}

// CreateShipment handles POST /processes/:id/shipments.
func (s *Server) CreateShipment(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req createShipmentRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	if req.ShipmentID.IsZero() {
		req.ShipmentID = kernel.NewUUID()
	}
	cmd, err := commands.NewCreateShipmentCommand(id, actor(c), req.ShipmentID, process.Shipment{
		Type:        req.Type,
		ProductIDs:  req.ProductIDs,
		Destination: req.Destination,
		Vehicle:     req.Vehicle,
		Notes:       req.Notes,
	})
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusCreated, func(ctx context.Context) (*process.Process, error) {
		return s.machine.CreateShipment(ctx, cmd)
	})
}

type updateShipmentStatusRequest struct {
	Status process.ShipmentStatus `json:"status"`
	Note   string                 `json:"note"`
}

// UpdateShipmentStatus handles PATCH /processes/:id/shipments/:shipmentId.
func (s *Server) UpdateShipmentStatus(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	shipmentID, err := kernel.UUIDFromString(c.Param("shipmentId"))
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req updateShipmentStatusRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewUpdateShipmentStatusCommand(id, actor(c), shipmentID, req.Status, req.Note)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.UpdateShipmentStatus(ctx, cmd)
	})
}

// RecordAnimalCost handles POST /processes/:id/costs.
func (s *Server) RecordAnimalCost(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req process.AnimalCost
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewRecordAnimalCostCommand(id, actor(c), req)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusCreated, func(ctx context.Context) (*process.Process, error) {
		return s.machine.RecordAnimalCost(ctx, cmd)
	})
}

type registerPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// RegisterPayment handles POST /processes/:id/payments.
func (s *Server) RegisterPayment(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req registerPaymentRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewRegisterPaymentCommand(id, actor(c), req.Amount, req.Reference)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusCreated, func(ctx context.Context) (*process.Process, error) {
		return s.machine.RegisterPayment(ctx, cmd)
	})
}

// MarkPaymentOverdue handles POST /processes/:id/payments/overdue.
func (s *Server) MarkPaymentOverdue(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewMarkPaymentOverdueCommand(id, actor(c))
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.MarkPaymentOverdue(ctx, cmd)
	})
}
