package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"slaughterhouse/internal/core/ports"
)

// Config holds the schedules of the background jobs.
type Config struct {
	OverdueCron        string
	PaymentGracePeriod time.Duration
}

// JobManager starts and stops every scheduled job together.
type JobManager struct {
	paymentOverdueJob *PaymentOverdueJob
}

func NewJobManager(cfg Config, reader ports.ProcessReader, machine OverdueMarker, logger *slog.Logger) (*JobManager, error) {
	overdue, err := NewPaymentOverdueJob(reader, machine, cfg.OverdueCron, cfg.PaymentGracePeriod, logger)
	if err != nil {
		return nil, err
	}
	return &JobManager{paymentOverdueJob: overdue}, nil
}

// StartAll returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.paymentOverdueJob.Start(); err != nil {
		return fmt.Errorf("failed to start payment overdue job: %w", err)
	}
	return nil
}

func (jm *JobManager) StopAll() {
	jm.paymentOverdueJob.Stop()
}
