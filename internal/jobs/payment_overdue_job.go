package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// OverdueActor is recorded on timeline entries written by PaymentOverdueJob.
const OverdueActor = "system:payment-overdue-job"

// OverdueMarker is satisfied by *commands.ProcessStateMachine.
type OverdueMarker interface {
	MarkPaymentOverdue(ctx context.Context, cmd commands.MarkPaymentOverdueCommand) (*process.Process, error)
}

// PaymentOverdueJob marks live processes whose balance is still open after the grace period.
type PaymentOverdueJob struct {
	reader  ports.ProcessReader
	machine OverdueMarker
	spec    string
	grace   time.Duration
	now     func() time.Time
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewPaymentOverdueJob parses the cron expression up front; an empty one means @hourly.
func NewPaymentOverdueJob(
	reader ports.ProcessReader, machine OverdueMarker, spec string, grace time.Duration, logger *slog.Logger,
) (*PaymentOverdueJob, error) {
	if spec == "" {
		spec = "@hourly"
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("overdueCron", err)
	}
	if grace < 0 {
		return nil, errs.NewValueIsOutOfRangeError("paymentGracePeriod", grace, 0, "any")
	}
	return &PaymentOverdueJob{
		reader:  reader,
		machine: machine,
		spec:    spec,
		grace:   grace,
		now:     time.Now,
		cron:    cron.New(),
		logger:  logger.With("component", "payment_overdue_job"),
	}, nil
}

// RunOnce performs one sweep and reports how many processes it marked.
func (j *PaymentOverdueJob) RunOnce(ctx context.Context) (int, error) {
	candidates, err := j.reader.List(ctx, ports.ProcessFilter{
		PaymentStatuses: []finance.PaymentStatus{finance.Pending, finance.Partial},
		ReceivedBefore:  j.now().Add(-j.grace),
	})
	if err != nil {
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	marked := 0
	var failures []error
	for _, p := range candidates {
		if p.Stage().IsTerminal() || !p.Totals().Outstanding.IsPositive() {
			continue
		}
		cmd, err := commands.NewMarkPaymentOverdueCommand(p.ID(), OverdueActor)
		if err != nil {
			return marked, err
		}

		_, err = j.machine.MarkPaymentOverdue(ctx, cmd)
		switch {
		case err == nil:
			marked++
		case isSkippable(err):
			j.logger.DebugContext(ctx, "process skipped", "process_id", p.ID().String(), "reason", err.Error())
		default:
			failures = append(failures, fmt.Errorf("process %s: %w", p.ID(), err))
		}
	}
	return marked, errors.Join(failures...)
}

func isSkippable(err error) bool {
	return errs.IsExpected(err) ||
		errors.Is(err, errs.ErrConflict) ||
		errors.Is(err, errs.ErrObjectNotFound)
}

func (j *PaymentOverdueJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx := context.Background()
		marked, err := j.RunOnce(ctx)
		if err != nil {
			j.logger.ErrorContext(ctx, "Payment overdue job failed", "error", err, "marked", marked)
			return
		}
		if marked > 0 {
			j.logger.InfoContext(ctx, "Payments marked overdue", "marked", marked)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Payment overdue job started", "schedule", j.spec, "grace", j.grace)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *PaymentOverdueJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Payment overdue job stopped")
}
