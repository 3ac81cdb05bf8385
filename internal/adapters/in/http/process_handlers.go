package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/application/usecases/queries"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type startReceptionRequest struct {
	// ProcessID is optional; a new id is generated when empty.
	ProcessID kernel.UUID `json:"processId"`
	process.ReceptionInput
}

// StartReception handles POST /api/v1/processes.
func (s *Server) StartReception(c echo.Context) error {
	var req startReceptionRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	if req.ProcessID.IsZero() {
		req.ProcessID = kernel.NewUUID()
	}

	cmd, err := commands.NewStartReceptionCommand(req.ProcessID, actor(c), req.ReceptionInput)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusCreated, func(ctx context.Context) (*process.Process, error) {
		p, err := s.machine.StartReception(ctx, cmd)
		if err == nil {
			c.Response().Header().Set(echo.HeaderLocation, "/api/v1/processes/"+p.ID().String())
		}
		return p, err
	})
}

// GetProcess handles GET /api/v1/processes/:id.
func (s *Server) GetProcess(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	query, err := queries.NewGetProcessQuery(id)
	if err != nil {
		return s.fail(c, err, nil)
	}

	resp, err := s.getProcessHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListProcesses handles GET /api/v1/processes?stage=..&paymentStatus=..&receivedBefore=RFC3339.
// stage and paymentStatus may repeat.
func (s *Server) ListProcesses(c echo.Context) error {
	var filter ports.ProcessFilter
	params := c.QueryParams()
	for _, v := range params["stage"] {
		var st process.Stage
		if err := st.UnmarshalText([]byte(v)); err != nil {
			return s.fail(c, err, nil)
		}
		filter.Stages = append(filter.Stages, st)
	}
	for _, v := range params["paymentStatus"] {
		var ps finance.PaymentStatus
		if err := ps.UnmarshalText([]byte(v)); err != nil {
			return s.fail(c, err, nil)
		}
		filter.PaymentStatuses = append(filter.PaymentStatuses, ps)
	}
	if v := c.QueryParam("receivedBefore"); v != "" {
		before, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("receivedBefore", err), nil)
		}
		filter.ReceivedBefore = before
	}

	query, err := queries.NewListProcessesQuery(filter)
	if err != nil {
		return s.fail(c, err, nil)
	}
	rows, err := s.listProcessesHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, rows)
}

// GetStatistics handles GET /api/v1/statistics.
func (s *Server) GetStatistics(c echo.Context) error {
	stats, err := s.statisticsHandler.Handle(c.Request().Context(), queries.NewGetStatisticsQuery())
	if err != nil {
		return s.fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, stats)
}

// ValidateCertificateAndPayment handles POST /processes/:id/verification. The certificate and the
// introducer's standing are resolved against the registries before the state machine runs; a
// registry that cannot answer fails the request with 502 and leaves the process untouched.
func (s *Server) ValidateCertificateAndPayment(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	query, err := queries.NewGetProcessQuery(id)
	if err != nil {
		return s.fail(c, err, nil)
	}
	ctx := c.Request().Context()
	current, err := s.getProcessHandler.Handle(ctx, query)
	if err != nil {
		return s.fail(c, err, nil)
	}

	cert, err := s.certificates.Validate(ctx, current.CertificateID)
	if err != nil {
		return s.fail(c, asDependencyError("certificate-registry", err), nil)
	}
	pay, err := s.payments.CanProceed(ctx, current.IntroducerID)
	if err != nil {
		return s.fail(c, asDependencyError("payment-registry", err), nil)
	}

	cmd, err := commands.NewValidateCertificateAndPaymentCommand(id, actor(c), cert, pay)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.ValidateCertificateAndPayment(ctx, cmd)
	})
}

// asDependencyError keeps validation and dependency errors as they are and wraps anything else.
func asDependencyError(dependency string, err error) error {
	var dep *errs.ExternalDependencyError
	if errs.IsExpected(err) || errors.As(err, &dep) {
		return err
	}
	return errs.NewExternalDependencyError(dependency, err)
}

// CompleteProcess handles POST /processes/:id/complete.
func (s *Server) CompleteProcess(c echo.Context) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewCompleteProcessCommand(id, actor(c))
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return s.machine.CompleteProcess(ctx, cmd)
	})
}

type interruptRequest struct {
	Reason string `json:"reason"`
}

// SuspendProcess handles POST /processes/:id/suspend.
func (s *Server) SuspendProcess(c echo.Context) error {
	return s.interrupt(c, s.machine.SuspendProcess)
}

// CancelProcess handles POST /processes/:id/cancel.
func (s *Server) CancelProcess(c echo.Context) error {
	return s.interrupt(c, s.machine.CancelProcess)
}

func (s *Server) interrupt(
	c echo.Context, op func(context.Context, commands.InterruptProcessCommand) (*process.Process, error),
) error {
	id, err := processID(c)
	if err != nil {
		return s.fail(c, err, nil)
	}
	var req interruptRequest
	if err := bind(c, &req); err != nil {
		return s.fail(c, err, nil)
	}
	cmd, err := commands.NewInterruptProcessCommand(id, actor(c), req.Reason)
	if err != nil {
		return s.fail(c, err, nil)
	}
	return s.mutate(c, http.StatusOK, func(ctx context.Context) (*process.Process, error) {
		return op(ctx, cmd)
	})
}
