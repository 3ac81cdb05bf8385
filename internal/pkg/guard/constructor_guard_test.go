package guard_test

import (
	"errors"
	"testing"

	"slaughterhouse/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("constructed guard passes", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errors.New("not constructed")))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero guard returns the supplied error", func(t *testing.T) {
		var g guard.ConstructorGuard
		expected := errors.New("command not constructed")

		assert.Equal(t, expected, g.Validate(expected))
	})

	t.Run("zero guard falls back to the default error", func(t *testing.T) {
		var g guard.ConstructorGuard

		assert.Equal(t, guard.ErrDefaultConstructorGuard, g.Validate(nil))
	})
}
