package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"slaughterhouse/internal/adapters/out/memory"
	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepAt = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type uowFactory func() commands.ProcessUoW

func (f uowFactory) Create() commands.ProcessUoW { return f() }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seed(t *testing.T, store *memory.Store, receivedAt time.Time, fee int64) *process.Process {
	t.Helper()
	p, err := process.NewProcess(kernel.NewUUID(), process.ReceptionInput{
		CertificateID: "CZ-1",
		IntroducerID:  "INT-1",
		Animals:       []animal.Record{{ID: "P-1", Species: animal.Porcine, ArrivalWeightKg: 110, ArrivalCondition: "good"}},
		Method:        "truck",
	}, decimal.Zero, "clerk", receivedAt)
	require.NoError(t, err)
	if fee > 0 {
		_, err = p.RecordAnimalCost(process.AnimalCost{AnimalID: "P-1", SlaughterFee: decimal.NewFromInt(fee)}, "clerk", receivedAt)
		require.NoError(t, err)
	}

	uow := memory.NewUnitOfWorkFactory(store).Create()
	require.NoError(t, uow.Begin(t.Context()))
	require.NoError(t, uow.ProcessRepository().Save(t.Context(), p))
	require.NoError(t, uow.Commit(t.Context()))
	return p
}

func newJob(t *testing.T, store *memory.Store, marker OverdueMarker) *PaymentOverdueJob {
	t.Helper()
	job, err := NewPaymentOverdueJob(store, marker, "", 72*time.Hour, discard())
	require.NoError(t, err)
	job.now = func() time.Time { return sweepAt }
	return job
}

func newMachine(t *testing.T, store *memory.Store) *commands.ProcessStateMachine {
	t.Helper()
	f := memory.NewUnitOfWorkFactory(store)
	m, err := commands.NewProcessStateMachine(uowFactory(func() commands.ProcessUoW { return f.Create() }),
		nil, nil, discard(), commands.WithClock(func() time.Time { return sweepAt }))
	require.NoError(t, err)
	return m
}

func TestPaymentOverdueJob_RunOnce(t *testing.T) {
	store := memory.NewStore()
	old := seed(t, store, sweepAt.Add(-96*time.Hour), 120)
	recent := seed(t, store, sweepAt.Add(-time.Hour), 120)
	nothingOwed := seed(t, store, sweepAt.Add(-96*time.Hour), 0)

	job := newJob(t, store, newMachine(t, store))

	marked, err := job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := store.Load(t.Context(), old.ID())
	require.NoError(t, err)
	assert.Equal(t, finance.Overdue, got.PaymentStatus())
	last := got.Timeline()[len(got.Timeline())-1]
	assert.Equal(t, process.OpMarkPaymentOverdue, last.Operation)
	assert.Equal(t, OverdueActor, last.Actor)

	for _, id := range []kernel.UUID{recent.ID(), nothingOwed.ID()} {
		got, err := store.Load(t.Context(), id)
		require.NoError(t, err)
		assert.NotEqual(t, finance.Overdue, got.PaymentStatus())
	}

	// Overdue processes drop out of the candidate set.
	marked, err = job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Zero(t, marked)
}

type markerFunc func(ctx context.Context, cmd commands.MarkPaymentOverdueCommand) (*process.Process, error)

func (f markerFunc) MarkPaymentOverdue(ctx context.Context, cmd commands.MarkPaymentOverdueCommand) (*process.Process, error) {
	return f(ctx, cmd)
}

func TestPaymentOverdueJob_SkipsExpectedErrors(t *testing.T) {
	store := memory.NewStore()
	a := seed(t, store, sweepAt.Add(-96*time.Hour), 50)
	seed(t, store, sweepAt.Add(-96*time.Hour), 50)

	job := newJob(t, store, markerFunc(func(_ context.Context, cmd commands.MarkPaymentOverdueCommand) (*process.Process, error) {
		if cmd.ProcessID() == a.ID() {
			return nil, errs.NewConflictError("process", a.ID(), 1)
		}
		return nil, errs.NewPreconditionFailedError(process.OpMarkPaymentOverdue, "payment is already overdue")
	}))

	marked, err := job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestPaymentOverdueJob_ReportsUnexpectedErrors(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, sweepAt.Add(-96*time.Hour), 50)
	boom := errors.New("disk on fire")

	job := newJob(t, store, markerFunc(func(context.Context, commands.MarkPaymentOverdueCommand) (*process.Process, error) {
		return nil, boom
	}))

	marked, err := job.RunOnce(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Zero(t, marked)
}

type failingReader struct{ ports.ProcessReader }

func (failingReader) List(context.Context, ports.ProcessFilter) ([]*process.Process, error) {
	return nil, errs.NewExternalDependencyError("postgres", errors.New("connection refused"))
}

func TestPaymentOverdueJob_ListFailure(t *testing.T) {
	job, err := NewPaymentOverdueJob(failingReader{}, nil, "@every 1m", time.Hour, discard())
	require.NoError(t, err)

	_, err = job.RunOnce(t.Context())
	require.ErrorIs(t, err, errs.ErrExternalDependency)
}

func TestNewPaymentOverdueJob_Validation(t *testing.T) {
	store := memory.NewStore()

	_, err := NewPaymentOverdueJob(store, nil, "every tuesday", time.Hour, discard())
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = NewPaymentOverdueJob(store, nil, "@daily", -time.Hour, discard())
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestJobManager_StartStop(t *testing.T) {
	store := memory.NewStore()
	jm, err := NewJobManager(Config{OverdueCron: "@every 1h", PaymentGracePeriod: time.Hour}, store, newMachine(t, store), discard())
	require.NoError(t, err)

	require.NoError(t, jm.StartAll())
	jm.StopAll()
}
