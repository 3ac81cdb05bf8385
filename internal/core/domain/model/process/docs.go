// Package process provides the slaughter Process aggregate root and the stage gates that
// guard every one of its transitions.
//
// A process tracks one batch of animals through a fixed pipeline:
//
//	Reception -> PaymentVerification -> ExternalInspection -> Slaughter
//	          -> InternalInspection -> Dispatch -> Completed
//
// Any non-terminal stage may also move to Cancelled or Suspended. Completed, Cancelled and
// Suspended are terminal: no further mutation is accepted.
//
// Key business rules:
//   - a stage never regresses
//   - animals evaluated unfit never receive a slaughter record
//   - products classified TotalConfiscation only leave in a Confiscations shipment
//   - every successful mutation appends exactly one timeline entry
//
// Each mutating method first consults its gate (gate.go). A denied gate returns an
// errs.PreconditionFailedError and leaves the process untouched; input is validated before
// anything is written, so a failed call never leaves a partial change behind.
package process
