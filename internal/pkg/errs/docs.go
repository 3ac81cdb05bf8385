// Package errs provides the error taxonomy of the slaughterhouse process core.
//
// Every error type follows the same pattern:
//   - a sentinel error variable (e.g. ErrValueIsRequired) used with errors.Is
//   - a struct type carrying the details, usable with errors.As
//   - constructors with and without an underlying cause
//   - Unwrap returning the sentinel
//
// The taxonomy maps onto the outcomes callers have to distinguish:
//   - validation: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError (see IsValidation)
//   - precondition: PreconditionFailedError, a stage gate denied the operation
//   - not found: ObjectNotFoundError
//   - conflict: ConflictError, a concurrent modification was detected
//   - external dependency: ExternalDependencyError, a caller-side validator could not be resolved
package errs
