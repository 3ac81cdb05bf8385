package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"slaughterhouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("animal", "EC-001")

		assert.Equal(t, "animal", err.ParamName)
		assert.Equal(t, "object not found: animal is EC-001", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("no rows")
		err := errs.NewObjectNotFoundErrorWithCause("process", "123", cause)

		assert.Equal(t, "object not found: param is: process, ID is: 123 (cause: no rows)", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestValueErrors(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		err := errs.NewValueIsInvalidErrorWithCause("animals", errors.New("duplicate id EC-1"))

		assert.Equal(t, "value is invalid: animals (cause: duplicate id EC-1)", err.Error())
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("required", func(t *testing.T) {
		err := errs.NewValueIsRequiredError("certificateID")

		assert.Equal(t, "value is required: certificateID", err.Error())
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("out of range strips newlines", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("note", "a\nb", 0, 10)

		assert.Contains(t, err.Error(), "a b")
		assert.NotContains(t, err.Error(), "\n")
		assert.True(t, errs.IsValidation(err))
	})
}

func TestPreconditionFailedError(t *testing.T) {
	err := errs.NewPreconditionFailedError("CompleteSlaughter", "animal EC-2 has no slaughter record")

	assert.Equal(t,
		"precondition failed: CompleteSlaughter: animal EC-2 has no slaughter record",
		err.Error())
	require.ErrorIs(t, err, errs.ErrPreconditionFailed)
	assert.False(t, errs.IsValidation(err))
	assert.True(t, errs.IsExpected(err))
}

func TestConflictError(t *testing.T) {
	err := errs.NewConflictError("process", "abc", 3)

	assert.Equal(t, "concurrent modification: process abc is no longer at version 3", err.Error())
	require.ErrorIs(t, err, errs.ErrConflict)
	assert.False(t, errs.IsExpected(err))
}

func TestExternalDependencyError(t *testing.T) {
	err := errs.NewExternalDependencyError("certificate validator", errors.New("timeout"))

	assert.Equal(t, "external dependency failed: certificate validator (cause: timeout)", err.Error())
	require.ErrorIs(t, err, errs.ErrExternalDependency)
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("evaluate animal: %w", errs.NewObjectNotFoundError("animal", "X"))

	var notFound *errs.ObjectNotFoundError
	require.ErrorAs(t, wrapped, &notFound)
	assert.Equal(t, "X", notFound.ID)
	require.ErrorIs(t, wrapped, errs.ErrObjectNotFound)
}
