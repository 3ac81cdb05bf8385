package process_test

import (
	"testing"

	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_TransitionTo(t *testing.T) {
	t.Run("should follow the regular path", func(t *testing.T) {
		path := []process.Stage{
			process.Reception, process.PaymentVerification, process.ExternalInspection, process.Slaughter,
			process.InternalInspection, process.Dispatch, process.Completed,
		}

		for i := 0; i < len(path)-1; i++ {
			next, err := path[i].TransitionTo(path[i+1])

			require.NoError(t, err, "%s -> %s", path[i], path[i+1])
			assert.Equal(t, path[i+1], next)
		}
	})

	t.Run("should allow interruption from every live stage", func(t *testing.T) {
		for _, s := range process.AllStages() {
			if s.IsTerminal() {
				continue
			}
			for _, target := range []process.Stage{process.Cancelled, process.Suspended} {
				_, err := s.TransitionTo(target)
				require.NoError(t, err, "%s -> %s", s, target)
			}
		}
	})

	t.Run("should never regress or skip", func(t *testing.T) {
		testCases := []struct{ from, to process.Stage }{
			{process.Slaughter, process.ExternalInspection},
			{process.Reception, process.Slaughter},
			{process.Dispatch, process.Reception},
			{process.ExternalInspection, process.Completed},
		}

		for _, tc := range testCases {
			_, err := tc.from.TransitionTo(tc.to)
			require.ErrorIs(t, err, errs.ErrPreconditionFailed, "%s -> %s", tc.from, tc.to)
		}
	})

	t.Run("should reject every move out of a terminal stage", func(t *testing.T) {
		for _, from := range []process.Stage{process.Completed, process.Cancelled, process.Suspended} {
			for _, to := range process.AllStages() {
				_, err := from.TransitionTo(to)
				require.ErrorIs(t, err, errs.ErrPreconditionFailed, "%s -> %s", from, to)
			}
		}
	})

	t.Run("should reject the unknown stage", func(t *testing.T) {
		_, err := process.UnknownStage.TransitionTo(process.Reception)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestParseStage(t *testing.T) {
	s, err := process.ParseStage("InternalInspection")
	require.NoError(t, err)
	assert.Equal(t, process.InternalInspection, s)

	_, err = process.ParseStage("Butchery")
	require.Error(t, err)
}
