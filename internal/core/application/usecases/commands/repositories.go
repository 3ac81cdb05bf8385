// Package commands contains the operations that modify slaughter processes.
// Every command follows the same pattern: validation, per-process locking, transaction
// management, persistence and audit publication, all orchestrated by ProcessStateMachine.
package commands

import (
	"context"

	"slaughterhouse/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for the state machine.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// ProcessRepoFactory provides access to the process repository within a transaction.
	ProcessRepoFactory interface {
		ProcessRepository() ports.ProcessRepository
	}

	// ProcessUoW manages transactions for process operations.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.ProcessRepository()
	//   // ... load, mutate, save
	//
	//   err = uow.Commit(ctx)
	ProcessUoW interface {
		TxManager
		ProcessRepoFactory
	}

	// ProcessUoWFactory creates new process unit of work instances.
	ProcessUoWFactory interface {
		Create() ProcessUoW
	}
)
