package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
)

var ErrNoActiveTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{db: f.store.db}
}

// UnitOfWork wraps one sql.Tx. Without Begin, its repository runs on the pool directly.
type UnitOfWork struct {
	db *sql.DB
	tx *sql.Tx
}

func (uow *UnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}
	tx, err := uow.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	uow.tx = tx
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return ErrNoActiveTransaction
	}
	err := uow.tx.Commit()
	uow.tx = nil
	return err
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return ErrNoActiveTransaction
	}
	err := uow.tx.Rollback()
	uow.tx = nil
	return err
}

func (uow *UnitOfWork) ProcessRepository() ports.ProcessRepository {
	if uow.tx != nil {
		return repository{q: uow.tx}
	}
	return repository{q: uow.db}
}

type repository struct {
	q querier
}

func (r repository) Load(ctx context.Context, id kernel.UUID) (*process.Process, error) {
	return load(ctx, r.q, id)
}

func (r repository) List(ctx context.Context, filter ports.ProcessFilter) ([]*process.Process, error) {
	return list(ctx, r.q, filter)
}

func (r repository) Save(ctx context.Context, p *process.Process) error {
	return save(ctx, r.q, p)
}
