package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"
	"slaughterhouse/internal/pkg/keylock"

	"github.com/shopspring/decimal"
)

var ErrUoWFactoryIsRequired = errors.New("unit of work factory is required")

// ProcessStateMachine owns every mutation of slaughter processes.
//
// Each operation validates its command, serialises on the process id, loads the aggregate
// inside a unit of work, applies the mutation (which consults the stage gate first), saves with
// an optimistic version check and commits. Only then are the new timeline entries published to
// the audit sink. An error before commit leaves storage untouched.
//
// Example:
//
//	machine, err := NewProcessStateMachine(uowFactory, auditSink, recorder, logger,
//	    WithTaxRate(decimal.RequireFromString("0.15")))
//	cmd, _ := NewEvaluateAnimalCommand(processID, "dr.vaca", evaluation)
//	p, err := machine.EvaluateAnimal(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrPreconditionFailed):
//	    // wrong stage
//	case errors.Is(err, errs.ErrObjectNotFound):
//	    // unknown process or animal
//	}
type ProcessStateMachine struct {
	uowFactory ProcessUoWFactory
	audit      ports.AuditSink
	metrics    ports.MetricsRecorder
	logger     *slog.Logger

	locks   keylock.Locker
	now     func() time.Time
	taxRate decimal.Decimal
}

type Option func(*ProcessStateMachine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *ProcessStateMachine) { m.now = now }
}

// WithTaxRate sets the tax rate, as a fraction, applied to processes started by this machine.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(m *ProcessStateMachine) { m.taxRate = rate }
}

// NewProcessStateMachine wires the machine. audit and metrics may be nil.
func NewProcessStateMachine(
	uowFactory ProcessUoWFactory,
	audit ports.AuditSink,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
	opts ...Option,
) (*ProcessStateMachine, error) {
	if uowFactory == nil {
		return nil, ErrUoWFactoryIsRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &ProcessStateMachine{
		uowFactory: uowFactory,
		audit:      audit,
		metrics:    metrics,
		logger:     logger.With("component", "process_state_machine"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.taxRate.IsNegative() || m.taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errs.NewValueIsOutOfRangeError("taxRate", m.taxRate.String(), 0, 1)
	}
	return m, nil
}

// persistRejection marks a refusal whose recorded attempt must still be committed.
type persistRejection struct {
	error
}

func (e persistRejection) Unwrap() error { return e.error }

type mutation func(p *process.Process, now time.Time) error

type command interface {
	Validate() error
	ProcessID() kernel.UUID
	Actor() string
}

func (m *ProcessStateMachine) StartReception(ctx context.Context, cmd StartReceptionCommand) (*process.Process, error) {
	return m.run(ctx, process.OpStartReception, cmd, func(_ ProcessUoW, now time.Time) (applied, error) {
		p, err := process.NewProcess(cmd.ProcessID(), cmd.Reception(), m.taxRate, cmd.Actor(), now)
		return applied{process: p}, err
	})
}

// ValidateCertificateAndPayment records a verification attempt. When a condition is missing the
// attempt is persisted, the process stays in PaymentVerification and a precondition error
// naming every missing condition is returned.
func (m *ProcessStateMachine) ValidateCertificateAndPayment(
	ctx context.Context, cmd ValidateCertificateAndPaymentCommand,
) (*process.Process, error) {
	return m.mutate(ctx, process.OpValidateCertificateAndPayment, cmd, func(p *process.Process, now time.Time) error {
		verdict, err := p.ValidateCertificateAndPayment(cmd.Certificate(), cmd.Payment(), cmd.Actor(), now)
		if err != nil {
			return err
		}
		if !verdict.Allowed {
			return persistRejection{verdict.Err(process.OpValidateCertificateAndPayment)}
		}
		return nil
	})
}

func (m *ProcessStateMachine) EvaluateAnimal(ctx context.Context, cmd EvaluateAnimalCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpEvaluateAnimal, cmd, func(p *process.Process, now time.Time) error {
		return p.EvaluateAnimal(cmd.Evaluation(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) CompleteExternalInspection(
	ctx context.Context, cmd CompleteExternalInspectionCommand,
) (*process.Process, error) {
	return m.mutate(ctx, process.OpCompleteExternalInspection, cmd, func(p *process.Process, now time.Time) error {
		return p.CompleteExternalInspection(cmd.Environment(), cmd.Photos(), cmd.UnsuitableOutcome(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) StartSlaughter(ctx context.Context, cmd StartSlaughterCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpStartSlaughter, cmd, func(p *process.Process, now time.Time) error {
		return p.StartSlaughter(cmd.Operator(), cmd.Veterinarian(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) RecordSlaughter(ctx context.Context, cmd RecordSlaughterCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpRecordSlaughter, cmd, func(p *process.Process, now time.Time) error {
		_, err := p.RecordSlaughter(cmd.Record(), cmd.Actor(), now)
		return err
	})
}

func (m *ProcessStateMachine) CompleteSlaughter(ctx context.Context, cmd CompleteSlaughterCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpCompleteSlaughter, cmd, func(p *process.Process, now time.Time) error {
		return p.CompleteSlaughter(cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) InspectProduct(ctx context.Context, cmd InspectProductCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpInspectProduct, cmd, func(p *process.Process, now time.Time) error {
		return p.InspectProduct(cmd.Inspection(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) CompleteInternalInspection(
	ctx context.Context, cmd CompleteInternalInspectionCommand,
) (*process.Process, error) {
	return m.mutate(ctx, process.OpCompleteInternalInspection, cmd, func(p *process.Process, now time.Time) error {
		return p.CompleteInternalInspection(cmd.Storage(), cmd.Notes(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpCreateShipment, cmd, func(p *process.Process, now time.Time) error {
		_, err := p.CreateShipment(cmd.ShipmentID(), cmd.Shipment(), cmd.Actor(), now)
		return err
	})
}

func (m *ProcessStateMachine) UpdateShipmentStatus(
	ctx context.Context, cmd UpdateShipmentStatusCommand,
) (*process.Process, error) {
	return m.mutate(ctx, process.OpUpdateShipmentStatus, cmd, func(p *process.Process, now time.Time) error {
		_, err := p.UpdateShipmentStatus(cmd.ShipmentID(), cmd.Status(), cmd.Note(), cmd.Actor(), now)
		return err
	})
}

func (m *ProcessStateMachine) CompleteProcess(ctx context.Context, cmd CompleteProcessCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpCompleteProcess, cmd, func(p *process.Process, now time.Time) error {
		return p.Complete(cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) SuspendProcess(ctx context.Context, cmd InterruptProcessCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpSuspendProcess, cmd, func(p *process.Process, now time.Time) error {
		return p.Suspend(cmd.Reason(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) CancelProcess(ctx context.Context, cmd InterruptProcessCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpCancelProcess, cmd, func(p *process.Process, now time.Time) error {
		return p.Cancel(cmd.Reason(), cmd.Actor(), now)
	})
}

func (m *ProcessStateMachine) RecordAnimalCost(ctx context.Context, cmd RecordAnimalCostCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpRecordAnimalCost, cmd, func(p *process.Process, now time.Time) error {
		_, err := p.RecordAnimalCost(cmd.Cost(), cmd.Actor(), now)
		return err
	})
}

func (m *ProcessStateMachine) RegisterPayment(ctx context.Context, cmd RegisterPaymentCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpRegisterPayment, cmd, func(p *process.Process, now time.Time) error {
		_, err := p.RegisterPayment(cmd.Amount(), cmd.Reference(), cmd.Actor(), now)
		return err
	})
}

func (m *ProcessStateMachine) MarkPaymentOverdue(ctx context.Context, cmd MarkPaymentOverdueCommand) (*process.Process, error) {
	return m.mutate(ctx, process.OpMarkPaymentOverdue, cmd, func(p *process.Process, now time.Time) error {
		return p.MarkPaymentOverdue(cmd.Actor(), now)
	})
}

// mutate runs fn against the stored process.
func (m *ProcessStateMachine) mutate(ctx context.Context, op string, cmd command, fn mutation) (*process.Process, error) {
	return m.run(ctx, op, cmd, func(uow ProcessUoW, now time.Time) (applied, error) {
		p, err := uow.ProcessRepository().Load(ctx, cmd.ProcessID())
		if err != nil {
			return applied{}, err
		}
		a := applied{process: p, entriesBefore: p.TimelineLen(), stageBefore: p.Stage()}
		return a, fn(p, now)
	})
}

// applied is the aggregate produced by a step together with what it looked like before.
type applied struct {
	process       *process.Process
	entriesBefore int
	stageBefore   process.Stage
}

type step func(uow ProcessUoW, now time.Time) (applied, error)

func (m *ProcessStateMachine) run(ctx context.Context, op string, cmd command, apply step) (*process.Process, error) {
	started := time.Now()
	if err := cmd.Validate(); err != nil {
		m.finish(ctx, op, cmd, started, err)
		return nil, err
	}

	unlock := m.locks.Lock(cmd.ProcessID().String())
	defer unlock()

	a, err := m.transact(ctx, cmd, apply)

	var rejection persistRejection
	if errors.As(err, &rejection) {
		m.publish(ctx, op, a)
		m.finish(ctx, op, cmd, started, rejection.error)
		return a.process, rejection.error
	}
	if err != nil {
		m.finish(ctx, op, cmd, started, err)
		return nil, err
	}

	m.publish(ctx, op, a)
	m.finish(ctx, op, cmd, started, nil)
	return a.process, nil
}

// transact applies the step inside a unit of work. A persistRejection is committed like a
// success and returned unchanged.
func (m *ProcessStateMachine) transact(ctx context.Context, cmd command, apply step) (applied, error) {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return applied{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	a, err := apply(uow, m.now())
	var rejection persistRejection
	if err != nil && !errors.As(err, &rejection) {
		return applied{}, err
	}

	if saveErr := uow.ProcessRepository().Save(ctx, a.process); saveErr != nil {
		return applied{}, saveErr
	}
	if commitErr := uow.Commit(ctx); commitErr != nil {
		return applied{}, fmt.Errorf("commit process %s: %w", cmd.ProcessID(), commitErr)
	}
	return a, err
}

func (m *ProcessStateMachine) publish(ctx context.Context, op string, a applied) {
	p := a.process
	if m.metrics != nil && a.stageBefore != process.UnknownStage && a.stageBefore != p.Stage() {
		m.metrics.ObserveTransition(a.stageBefore, p.Stage())
	}
	if m.audit == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, entry := range p.TimelineSince(a.entriesBefore) {
		if err := m.audit.Append(ctx, p.ID(), entry); err != nil {
			m.logger.ErrorContext(ctx, "audit sink rejected timeline entry",
				"process_id", p.ID().String(),
				"operation", op,
				"sequence", entry.Sequence,
				"error", err,
			)
			if m.metrics != nil {
				m.metrics.ObserveAuditFailure(op)
			}
		}
	}
}

func (m *ProcessStateMachine) finish(ctx context.Context, op string, cmd command, started time.Time, err error) {
	outcome := Outcome(err)
	if m.metrics != nil {
		m.metrics.ObserveOperation(op, outcome, time.Since(started))
	}

	attrs := []any{
		"operation", op,
		"process_id", cmd.ProcessID().String(),
		"actor", cmd.Actor(),
		"outcome", outcome,
	}
	switch outcome {
	case ports.OutcomeSuccess:
		m.logger.DebugContext(ctx, "operation applied", attrs...)
	case ports.OutcomeValidation, ports.OutcomePrecondition, ports.OutcomeNotFound:
		m.logger.InfoContext(ctx, "operation rejected", append(attrs, "reason", err.Error())...)
	case ports.OutcomeConflict:
		m.logger.WarnContext(ctx, "operation lost a concurrent update", append(attrs, "error", err)...)
	default:
		m.logger.ErrorContext(ctx, "operation failed", append(attrs, "error", err)...)
	}
}

// Outcome classifies an operation error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return ports.OutcomeSuccess
	case errs.IsValidation(err):
		return ports.OutcomeValidation
	case errors.Is(err, errs.ErrPreconditionFailed):
		return ports.OutcomePrecondition
	case errors.Is(err, errs.ErrObjectNotFound):
		return ports.OutcomeNotFound
	case errors.Is(err, errs.ErrConflict):
		return ports.OutcomeConflict
	default:
		return ports.OutcomeError
	}
}
