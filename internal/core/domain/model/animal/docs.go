// Package animal holds the AnimalRegistry: the canonical list of animals admitted into a
// slaughter process and their static attributes recorded at reception.
//
// Key business rules:
//   - an animal id (ear tag) is unique within a process
//   - records are created at reception and never deleted
//   - arrival weight is strictly positive
package animal
