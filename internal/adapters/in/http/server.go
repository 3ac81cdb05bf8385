package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"slaughterhouse/internal/adapters/in/http/openapi"
	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/application/usecases/queries"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// ActorHeader names the operator performing a mutation. Every POST and PATCH requires it.
const ActorHeader = "X-Actor"

// Server translates HTTP requests into state machine operations and queries.
type Server struct {
	machine *commands.ProcessStateMachine

	getProcessHandler    queries.GetProcessQueryHandler
	listProcessesHandler queries.ListProcessesQueryHandler
	statisticsHandler    queries.GetStatisticsQueryHandler

	certificates ports.CertificateValidator
	payments     ports.PaymentValidator

	metrics  http.Handler
	contract *openapi.Contract
	retry    func() backoff.BackOff
	logger   *slog.Logger
}

type ServerOption func(*Server)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

// WithContract rejects API requests that do not match c with 400 and serves c under /swagger/.
func WithContract(c *openapi.Contract) ServerOption {
	return func(s *Server) { s.contract = c }
}

// WithConflictRetry replaces the backoff policy used when an operation loses a concurrent update.
func WithConflictRetry(policy func() backoff.BackOff) ServerOption {
	return func(s *Server) { s.retry = policy }
}

func NewServer(
	machine *commands.ProcessStateMachine,
	reader ports.ProcessReader,
	certificates ports.CertificateValidator,
	payments ports.PaymentValidator,
	logger *slog.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		machine:              machine,
		getProcessHandler:    queries.NewGetProcessQueryHandler(reader),
		listProcessesHandler: queries.NewListProcessesQueryHandler(reader),
		statisticsHandler:    queries.NewGetStatisticsQueryHandler(reader),
		certificates:         certificates,
		payments:             payments,
		retry:                defaultConflictRetry,
		logger:               logger.With("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultConflictRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

// RegisterRoutes mounts the API under /api/v1 plus /health and, when configured, /metrics.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := e.Group("/api/v1")
	if s.contract != nil {
		s.contract.Register()
		e.GET("/swagger/*", echoSwagger.WrapHandler)
		api.Use(s.validateRequest)
	}
	api.GET("/statistics", s.GetStatistics)
	api.GET("/processes", s.ListProcesses)
	api.POST("/processes", s.StartReception)
	api.GET("/processes/:id", s.GetProcess)

	p := api.Group("/processes/:id")
	p.POST("/verification", s.ValidateCertificateAndPayment)
	p.POST("/evaluations", s.EvaluateAnimal)
	p.POST("/external-inspection/complete", s.CompleteExternalInspection)
	p.POST("/slaughter/start", s.StartSlaughter)
	p.POST("/slaughter/records", s.RecordSlaughter)
	p.POST("/slaughter/complete", s.CompleteSlaughter)
	p.POST("/inspections", s.InspectProduct)
	p.POST("/internal-inspection/complete", s.CompleteInternalInspection)
	p.POST("/shipments", s.CreateShipment)
	p.PATCH("/shipments/:shipmentId", s.UpdateShipmentStatus)
	p.POST("/complete", s.CompleteProcess)
	p.POST("/suspend", s.SuspendProcess)
	p.POST("/cancel", s.CancelProcess)
	p.POST("/costs", s.RecordAnimalCost)
	p.POST("/payments", s.RegisterPayment)
	p.POST("/payments/overdue", s.MarkPaymentOverdue)
}

func (s *Server) validateRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.contract.ValidateRequest(c.Request()); err != nil {
			return s.fail(c, err, nil)
		}
		return next(c)
	}
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the body of every non-2xx answer. Process is set when the operation was
// rejected but still persisted, as a failed verification is.
type errorResponse struct {
	Code    int                              `json:"code"`
	Message string                           `json:"message"`
	Process *queries.GetProcessQueryResponse `json:"process,omitempty"`
}

func statusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errs.IsValidation(err), errors.Is(err, commands.ErrCommandIsNotConstructed):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrExternalDependency):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c echo.Context, err error, p *process.Process) error {
	code := statusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		message = http.StatusText(code)
	}
	body := errorResponse{Code: code, Message: message}
	if p != nil {
		view := queries.NewProcessView(p)
		body.Process = &view
	}
	return c.JSON(code, body)
}

// mutate runs op, repeating it with backoff while it loses optimistic-concurrency races, and
// answers with the resulting process.
func (s *Server) mutate(c echo.Context, success int, op func(ctx context.Context) (*process.Process, error)) error {
	ctx := c.Request().Context()
	var (
		p   *process.Process
		err error
	)
	retryErr := backoff.Retry(func() error {
		p, err = op(ctx)
		if errors.Is(err, errs.ErrConflict) {
			return err
		}
		return nil
	}, backoff.WithContext(s.retry(), ctx))
	if err == nil && retryErr != nil {
		err = retryErr
	}
	if err != nil {
		return s.fail(c, err, p)
	}
	return c.JSON(success, queries.NewProcessView(p))
}

func processID(c echo.Context) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return id, nil
}

func actor(c echo.Context) string {
	return c.Request().Header.Get(ActorHeader)
}

// bind decodes the body into dst; a malformed body is a validation error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Internal != nil {
			return errs.NewValueIsInvalidErrorWithCause("body", he.Internal)
		}
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}
