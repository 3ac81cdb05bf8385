// Package postgres provides the GORM-based Unit of Work over the processes table.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	p, err := uow.ProcessRepository().Load(ctx, id)
//	...
//	if err := uow.ProcessRepository().Save(ctx, p); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Each UnitOfWork is single-goroutine; concurrent operations take separate instances. Writers
// on the same process are separated by the version column, not by row locks.
package postgres

import (
	"context"

	"slaughterhouse/internal/adapters/out/postgres/processrepo"
	"slaughterhouse/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory hands every business operation a fresh unit of work.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork wraps one GORM transaction.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin starts a transaction. Calling it again while one is open is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}
	return nil
}

// Commit returns gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback returns gorm.ErrInvalidTransaction when no transaction is open, which makes it safe
// to defer after a successful Commit.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// ProcessRepository runs inside the open transaction, or directly on the pool when there is none.
func (uow *GormUnitOfWork) ProcessRepository() ports.ProcessRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return processrepo.NewGormProcessRepository(db)
}

// Migrate creates or updates the schema used by this package.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&processrepo.ProcessDTO{})
}
