// Package evaluation holds the EvaluationLedger: the ante-mortem (external) inspection
// outcome recorded per animal, and the roll-up of those outcomes into an overall result.
//
// Key business rules:
//   - at most one evaluation per animal; resubmission replaces the previous one
//   - only SuitableForSlaughter admits an animal to slaughter
//   - the overall result is AllSuitable, AllUnsuitable or PartialSuitable
package evaluation
