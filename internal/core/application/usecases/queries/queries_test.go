package queries_test

import (
	"testing"
	"time"

	"slaughterhouse/internal/adapters/out/memory"
	"slaughterhouse/internal/core/application/usecases/queries"
	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/finance"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actor = "clerk.mora"

var t0 = time.Date(2024, 5, 2, 7, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func newProcess(t *testing.T, species animal.Species, ids ...string) *process.Process {
	t.Helper()
	animals := make([]animal.Record, 0, len(ids))
	for _, id := range ids {
		animals = append(animals, animal.Record{ID: id, Species: species, ArrivalWeightKg: 400, ArrivalCondition: "good"})
	}
	p, err := process.NewProcess(kernel.NewUUID(), process.ReceptionInput{
		CertificateID: "CZ-9",
		IntroducerID:  "INT-3",
		Animals:       animals,
		Method:        "truck",
	}, decimal.RequireFromString("0.10"), actor, t0)
	require.NoError(t, err)
	return p
}

// dispatched drives a two-animal bovine process to Dispatch. Carcasses of 200 and 240 kg give
// yields of 50 and 60; one of four products is confiscated.
func dispatched(t *testing.T) *process.Process {
	t.Helper()
	p := newProcess(t, animal.Bovine, "B-1", "B-2")
	_, err := p.ValidateCertificateAndPayment(process.CertificateResult{IsValid: true},
		process.PaymentResult{CanProceed: true}, actor, at(5))
	require.NoError(t, err)

	for _, id := range []string{"B-1", "B-2"} {
		require.NoError(t, p.EvaluateAnimal(evaluation.Evaluation{
			AnimalID:  id,
			Readings:  evaluation.Readings{TemperatureC: 38.5, HeartRate: 72, RespiratoryRate: 22, GeneralCondition: "alert"},
			Result:    evaluation.SuitableForSlaughter,
			Inspector: actor,
		}, actor, at(10)))
	}
	require.NoError(t, p.CompleteExternalInspection(process.Environment{TemperatureC: 17, HumidityPct: 55}, nil,
		process.UnknownStage, actor, at(20)))
	require.NoError(t, p.StartSlaughter("op.leon", "dr.paz", actor, at(30)))

	for i, carcass := range []float64{200, 240} {
		id := []string{"B-1", "B-2"}[i]
		_, err = p.RecordSlaughter(process.SlaughterRecord{
			AnimalID:        id,
			StartedAt:       at(40),
			EndedAt:         at(60),
			Method:          "stunning",
			CarcassWeightKg: carcass,
			Products: []process.ObtainedProduct{
				{ID: id + "-A", Type: "quarter", WeightKg: 50},
				{ID: id + "-B", Type: "quarter", WeightKg: 50},
			},
		}, actor, at(60))
		require.NoError(t, err)
	}
	require.NoError(t, p.CompleteSlaughter(actor, at(70)))

	classes := map[string]process.Classification{
		"B-1-A": process.SuitableForConsumption,
		"B-1-B": process.SuitableForConsumption,
		"B-2-A": process.SuitableForConsumption,
		"B-2-B": process.TotalConfiscation,
	}
	for id, c := range classes {
		require.NoError(t, p.InspectProduct(process.ProductInspection{
			ProductID:      id,
			Organoleptic:   process.Organoleptic{Color: "red", Odor: "normal", Texture: "firm"},
			Classification: c,
			Inspector:      actor,
		}, actor, at(90)))
	}
	require.NoError(t, p.CompleteInternalInspection(process.StorageConditions{Chamber: "C-2", TemperatureC: 3, HumidityPct: 80},
		"", actor, at(120)))

	_, err = p.RecordAnimalCost(process.AnimalCost{AnimalID: "B-1", SlaughterFee: decimal.NewFromInt(100)}, actor, at(121))
	require.NoError(t, err)
	return p
}

func save(t *testing.T, store *memory.Store, processes ...*process.Process) {
	t.Helper()
	uow := memory.NewUnitOfWorkFactory(store).Create()
	require.NoError(t, uow.Begin(t.Context()))
	for _, p := range processes {
		require.NoError(t, uow.ProcessRepository().Save(t.Context(), p))
	}
	require.NoError(t, uow.Commit(t.Context()))
}

func TestGetProcessQueryHandler(t *testing.T) {
	store := memory.NewStore()
	p := dispatched(t)
	save(t, store, p)
	handler := queries.NewGetProcessQueryHandler(store)

	t.Run("returns snapshot with derived figures", func(t *testing.T) {
		query, err := queries.NewGetProcessQuery(p.ID())
		require.NoError(t, err)

		resp, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Equal(t, p.ID(), resp.ID)
		assert.Equal(t, process.Dispatch, resp.Stage)
		assert.Equal(t, finance.Pending, resp.PaymentStatus)
		assert.True(t, decimal.RequireFromString("110").Equal(resp.Totals.Outstanding))
		assert.True(t, decimal.RequireFromString("10").Equal(resp.TaxRatePercent))
		assert.ElementsMatch(t, []string{"B-1-A", "B-1-B", "B-2-A"}, resp.ApprovedForShip)
		assert.Contains(t, resp.StageDurations, process.Slaughter.String())
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		query, err := queries.NewGetProcessQuery(kernel.NewUUID())
		require.NoError(t, err)

		_, err = handler.Handle(t.Context(), query)

		var notFound *errs.ObjectNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("zero query is rejected", func(t *testing.T) {
		_, err := handler.Handle(t.Context(), queries.GetProcessQuery{})
		assert.ErrorIs(t, err, queries.ErrGetProcessQueryIsNotConstructed)
	})

	t.Run("nil id is rejected", func(t *testing.T) {
		_, err := queries.NewGetProcessQuery(kernel.UUID{})
		assert.Error(t, err)
	})
}

func TestListProcessesQueryHandler(t *testing.T) {
	store := memory.NewStore()
	fresh := newProcess(t, animal.Porcine, "P-1")
	done := dispatched(t)
	save(t, store, fresh, done)
	handler := queries.NewListProcessesQueryHandler(store)

	tests := []struct {
		name   string
		filter ports.ProcessFilter
		want   []kernel.UUID
	}{
		{"empty filter lists all", ports.ProcessFilter{}, []kernel.UUID{fresh.ID(), done.ID()}},
		{"by stage", ports.ProcessFilter{Stages: []process.Stage{process.Dispatch}}, []kernel.UUID{done.ID()}},
		{"by payment status", ports.ProcessFilter{PaymentStatuses: []finance.PaymentStatus{finance.Paid}}, nil},
		{"received before creation", ports.ProcessFilter{ReceivedBefore: t0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := queries.NewListProcessesQuery(tt.filter)
			require.NoError(t, err)

			rows, err := handler.Handle(t.Context(), query)

			require.NoError(t, err)
			require.NotNil(t, rows)
			ids := make([]kernel.UUID, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	t.Run("summary carries animal count and version", func(t *testing.T) {
		query, err := queries.NewListProcessesQuery(ports.ProcessFilter{Stages: []process.Stage{process.Reception}})
		require.NoError(t, err)

		rows, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Animals)
		assert.Equal(t, int64(1), rows[0].Version)
	})

	t.Run("invalid stage in filter is rejected", func(t *testing.T) {
		_, err := queries.NewListProcessesQuery(ports.ProcessFilter{Stages: []process.Stage{process.Stage(99)}})
		assert.True(t, errs.IsValidation(err))
	})
}

func TestGetStatisticsQueryHandler(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		stats, err := queries.NewGetStatisticsQueryHandler(memory.NewStore()).
			Handle(t.Context(), queries.NewGetStatisticsQuery())

		require.NoError(t, err)
		assert.Zero(t, stats.Processes)
		assert.Zero(t, stats.AverageYield)
		assert.Zero(t, stats.ApprovalPercentage)
		assert.True(t, stats.Outstanding.IsZero())
	})

	t.Run("aggregates across processes", func(t *testing.T) {
		store := memory.NewStore()
		save(t, store, newProcess(t, animal.Porcine, "P-1", "P-2"), dispatched(t))

		stats, err := queries.NewGetStatisticsQueryHandler(store).
			Handle(t.Context(), queries.NewGetStatisticsQuery())

		require.NoError(t, err)
		assert.Equal(t, 2, stats.Processes)
		assert.Equal(t, map[string]int{"Reception": 1, "Dispatch": 1}, stats.ByStage)
		assert.Equal(t, 4, stats.AnimalsReceived)
		assert.Equal(t, map[string]int{"Porcine": 2, "Bovine": 2}, stats.AnimalsBySpecies)
		assert.InDelta(t, 1600.0, stats.LiveWeightReceivedKg, 0.001)
		assert.Equal(t, map[string]int{evaluation.SuitableForSlaughter.String(): 2}, stats.Evaluations)
		assert.Equal(t, 2, stats.AnimalsSlaughtered)
		assert.InDelta(t, 55.0, stats.AverageYield, 0.001)
		assert.Equal(t, 4, stats.ProductsInspected)
		assert.InDelta(t, 75.0, stats.ApprovalPercentage, 0.001)
		assert.True(t, decimal.RequireFromString("110").Equal(stats.Outstanding))
	})

	t.Run("zero query is rejected", func(t *testing.T) {
		_, err := queries.NewGetStatisticsQueryHandler(memory.NewStore()).
			Handle(t.Context(), queries.GetStatisticsQuery{})
		assert.ErrorIs(t, err, queries.ErrGetStatisticsQueryIsNotConstructed)
	})
}
