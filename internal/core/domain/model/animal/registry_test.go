package animal_test

import (
	"testing"

	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bovine(id string, kg float64) animal.Record {
	return animal.Record{ID: id, Species: animal.Bovine, ArrivalWeightKg: kg, ArrivalCondition: "good"}
}

func TestNewRegistry(t *testing.T) {
	t.Run("should keep admission order", func(t *testing.T) {
		reg, err := animal.NewRegistry([]animal.Record{
			bovine("EC-3", 410),
			bovine("EC-1", 380),
			{ID: "PG-7", Species: animal.Porcine, ArrivalWeightKg: 110, ArrivalCondition: "good"},
		})

		require.NoError(t, err)
		assert.Equal(t, 3, reg.Len())
		assert.Equal(t, []string{"EC-3", "EC-1", "PG-7"}, reg.IDs())
		assert.Equal(t, map[animal.Species]int{animal.Bovine: 2, animal.Porcine: 1}, reg.CountBySpecies())
		assert.InDelta(t, 900.0, reg.TotalWeightKg(), 0.001)
	})

	t.Run("should reject an empty list", func(t *testing.T) {
		_, err := animal.NewRegistry(nil)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject duplicate ids", func(t *testing.T) {
		_, err := animal.NewRegistry([]animal.Record{bovine("EC-1", 400), bovine("EC-1", 420)})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), `duplicate animal id "EC-1"`)
	})

	t.Run("should reject invalid records", func(t *testing.T) {
		testCases := []struct {
			name     string
			record   animal.Record
			expected string
		}{
			{"missing id", animal.Record{Species: animal.Bovine, ArrivalWeightKg: 1, ArrivalCondition: "ok"}, "id is required"},
			{"unknown species", animal.Record{ID: "X", ArrivalWeightKg: 1, ArrivalCondition: "ok"}, "species has unknown value"},
			{"zero weight", animal.Record{ID: "X", Species: animal.Porcine, ArrivalCondition: "ok"}, "arrivalWeightKg must be gt 0"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := animal.NewRegistry([]animal.Record{tc.record})

				require.True(t, errs.IsValidation(err))
				assert.Contains(t, err.Error(), tc.expected)
			})
		}
	})
}

func TestRegistry_MustExist(t *testing.T) {
	reg, err := animal.NewRegistry([]animal.Record{bovine("EC-1", 400)})
	require.NoError(t, err)

	rec, err := reg.MustExist("EC-1")
	require.NoError(t, err)
	assert.InDelta(t, 400.0, rec.ArrivalWeightKg, 0.001)

	_, err = reg.MustExist("EC-9")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestSpecies_Text(t *testing.T) {
	var s animal.Species
	require.NoError(t, s.UnmarshalText([]byte("Porcine")))
	assert.Equal(t, animal.Porcine, s)

	_, err := animal.UnknownSpecies.MarshalText()
	require.Error(t, err)
}
