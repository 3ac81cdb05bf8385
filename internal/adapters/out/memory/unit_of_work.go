package memory

import (
	"context"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"
)

type stagedDoc struct {
	document
	expected int64
}

// UnitOfWorkFactory creates buffered units of work over a Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork buffers saved processes and applies them on Commit. Saves are checked against the
// committed version twice: when staged, to fail fast, and again atomically on Commit.
type UnitOfWork struct {
	store  *Store
	active bool
	staged map[kernel.UUID]stagedDoc
	order  []kernel.UUID
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.active = true
	uow.staged = make(map[kernel.UUID]stagedDoc)
	uow.order = nil
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	err := uow.store.apply(uow.staged, uow.order)
	uow.reset()
	return err
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	uow.reset()
	return nil
}

func (uow *UnitOfWork) reset() {
	uow.active = false
	uow.staged = nil
	uow.order = nil
}

func (uow *UnitOfWork) ProcessRepository() ports.ProcessRepository {
	return &repository{uow: uow}
}

type repository struct {
	uow *UnitOfWork
}

func (r *repository) Load(ctx context.Context, id kernel.UUID) (*process.Process, error) {
	if st, ok := r.uow.staged[id]; ok {
		return decode(st.document)
	}
	return r.uow.store.Load(ctx, id)
}

func (r *repository) List(ctx context.Context, filter ports.ProcessFilter) ([]*process.Process, error) {
	return r.uow.store.List(ctx, filter)
}

func (r *repository) Save(_ context.Context, p *process.Process) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := p.Validate(); err != nil {
		return err
	}

	id := p.ID()
	expected := p.Version()
	current, exists := r.uow.store.version(id)
	if st, ok := r.uow.staged[id]; ok {
		current, exists = st.version, true
	}
	if (expected == 0 && exists) || (expected != 0 && (!exists || current != expected)) {
		return errs.NewConflictError("process", id, expected)
	}

	data, err := encode(p)
	if err != nil {
		return err
	}
	committedExpected := expected
	if st, ok := r.uow.staged[id]; ok {
		committedExpected = st.expected
	} else {
		r.uow.order = append(r.uow.order, id)
	}
	r.uow.staged[id] = stagedDoc{
		document: document{data: data, version: expected + 1},
		expected: committedExpected,
	}
	p.SetVersion(expected + 1)
	return nil
}
