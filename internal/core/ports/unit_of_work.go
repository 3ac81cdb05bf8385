package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage the transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit makes every saved process visible. Returns an error if no transaction is active
	// or if a saved process was modified concurrently (errs.ConflictError).
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Returns an error if no transaction is active.
	Rollback(ctx context.Context) error

	// ProcessRepository returns a repository bound to the current transaction.
	ProcessRepository() ProcessRepository
}
