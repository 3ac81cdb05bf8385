// Package finance holds the FinancialAccumulator of a slaughter process: per-animal cost
// lines, payments received and the payment status derived from them.
//
// Totals are never stored; Recompute derives them from the lines and payments every time,
// so they cannot drift from their source.
package finance
