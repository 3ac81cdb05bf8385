package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrValueIsInvalid     = errors.New("value is invalid")
	ErrValueIsOutOfRange  = errors.New("value is out of range")
	ErrValueIsRequired    = errors.New("value is required")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrConflict           = errors.New("concurrent modification")
	ErrExternalDependency = errors.New("external dependency failed")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValueIsInvalid) ||
		errors.Is(err, ErrValueIsRequired) ||
		errors.Is(err, ErrValueIsOutOfRange)
}

// IsExpected reports whether err is a user-facing business outcome rather than a failure.
func IsExpected(err error) bool {
	return IsValidation(err) || errors.Is(err, ErrPreconditionFailed)
}

type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, sanitize(e.ID), e.Cause)
	}
	return fmt.Sprintf("%s: %s is %s", ErrObjectNotFound, e.ParamName, sanitize(e.ID))
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string, value, minValue, maxValue any, cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %s is %v, min value is %v, max value is %v",
		ErrValueIsOutOfRange, e.ParamName, sanitize(e.Value), sanitize(e.Min), sanitize(e.Max))
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// PreconditionFailedError is returned when a stage gate denies an operation.
type PreconditionFailedError struct {
	Operation string
	Reason    string
}

func NewPreconditionFailedError(operation, reason string) *PreconditionFailedError {
	return &PreconditionFailedError{Operation: operation, Reason: reason}
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrPreconditionFailed, e.Operation, e.Reason)
}

func (e *PreconditionFailedError) Unwrap() error {
	return ErrPreconditionFailed
}

// ConflictError is returned when a save is attempted against a stale version.
type ConflictError struct {
	Aggregate string
	ID        any
	Version   int64
}

func NewConflictError(aggregate string, id any, version int64) *ConflictError {
	return &ConflictError{Aggregate: aggregate, ID: id, Version: version}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s is no longer at version %d", ErrConflict, e.Aggregate, sanitize(e.ID), e.Version)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

type ExternalDependencyError struct {
	Dependency string
	Cause      error
}

func NewExternalDependencyError(dependency string, cause error) *ExternalDependencyError {
	return &ExternalDependencyError{Dependency: dependency, Cause: cause}
}

func (e *ExternalDependencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrExternalDependency, e.Dependency, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrExternalDependency, e.Dependency)
}

func (e *ExternalDependencyError) Unwrap() error {
	return ErrExternalDependency
}

func sanitize(v any) string {
	s := fmt.Sprintf("%v", v)
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
