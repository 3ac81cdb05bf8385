package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "slaughterhouse/internal/adapters/in/http"
	"slaughterhouse/internal/adapters/in/http/openapi"
	"slaughterhouse/internal/adapters/out/audit"
	"slaughterhouse/internal/adapters/out/memory"
	"slaughterhouse/internal/adapters/out/metrics"
	"slaughterhouse/internal/adapters/out/postgres"
	"slaughterhouse/internal/adapters/out/postgres/processrepo"
	"slaughterhouse/internal/adapters/out/registry"
	"slaughterhouse/internal/adapters/out/sqlite"
	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/jobs"

	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Recorder

	uowFactory ports.UnitOfWorkFactory
	reader     ports.ProcessReader
	audit      ports.AuditSink

	machine *commands.ProcessStateMachine
	closers []func(context.Context) error
}

// NewCompositionRoot opens storage and the audit sink selected by cfg. Call Close when done.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRecorder(),
	}
	if err := c.openStorage(); err != nil {
		return nil, errors.Join(err, c.Close(ctx))
	}
	if err := c.openAudit(ctx); err != nil {
		return nil, errors.Join(err, c.Close(ctx))
	}
	return c, nil
}

func (c *CompositionRoot) openStorage() error {
	switch c.cfg.Storage {
	case StorageSqlite:
		store, err := sqlite.Open(c.cfg.SqlitePath)
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", c.cfg.SqlitePath, err)
		}
		c.closers = append(c.closers, func(context.Context) error { return store.Close() })
		c.uowFactory = sqlite.NewUnitOfWorkFactory(store)
		c.reader = store
	case StoragePostgres:
		db, err := gorm.Open(gorm_postgres.Open(c.cfg.PostgresDSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func(context.Context) error { return sqlDB.Close() })
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.reader = processrepo.NewGormProcessRepository(db)
	default:
		store := memory.NewStore()
		c.uowFactory = memory.NewUnitOfWorkFactory(store)
		c.reader = store
	}
	c.logger.Info("Storage ready", "storage", c.cfg.Storage)
	return nil
}

func (c *CompositionRoot) openAudit(ctx context.Context) error {
	sinks := audit.Fanout{audit.NewLogSink(c.logger)}
	if c.cfg.AuditSink == AuditSinkMongo {
		mongoSink, err := audit.NewMongoSink(ctx, c.cfg.MongoURI, c.cfg.MongoDBName)
		if err != nil {
			return fmt.Errorf("connect mongo audit sink: %w", err)
		}
		c.closers = append(c.closers, mongoSink.Close)
		sinks = append(sinks, mongoSink)
	}
	c.audit = sinks
	return nil
}

func (c *CompositionRoot) CreateProcessStateMachine() (*commands.ProcessStateMachine, error) {
	if c.machine != nil {
		return c.machine, nil
	}
	var f commands.ProcessUoWFactory = FuncProcessUoWFactory(func() commands.ProcessUoW {
		return c.uowFactory.Create()
	})
	m, err := commands.NewProcessStateMachine(f, c.audit, c.metrics, c.logger,
		commands.WithTaxRate(c.cfg.TaxRate))
	if err != nil {
		return nil, err
	}
	c.machine = m
	return m, nil
}

func (c *CompositionRoot) CreateHTTPServer(ctx context.Context) (*httpin.Server, error) {
	m, err := c.CreateProcessStateMachine()
	if err != nil {
		return nil, err
	}
	contract, err := openapi.Load(ctx)
	if err != nil {
		return nil, err
	}
	opts := []registry.Option{registry.WithTimeout(c.cfg.ExternalTimeout)}
	return httpin.NewServer(m, c.reader,
		registry.NewCertificateClient(c.cfg.CertificateServiceURL, opts...),
		registry.NewPaymentClient(c.cfg.PaymentServiceURL, opts...),
		c.logger,
		httpin.WithMetricsHandler(c.metrics.Handler()),
		httpin.WithContract(contract),
	), nil
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	m, err := c.CreateProcessStateMachine()
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(jobs.Config{
		OverdueCron:        c.cfg.OverdueCron,
		PaymentGracePeriod: c.cfg.PaymentGracePeriod,
	}, c.reader, m, c.logger)
}

// Close releases storage and sinks in reverse order of acquisition.
func (c *CompositionRoot) Close(ctx context.Context) error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i](ctx))
	}
	c.closers = nil
	return err
}

type FuncProcessUoWFactory func() commands.ProcessUoW

func (f FuncProcessUoWFactory) Create() commands.ProcessUoW {
	return f()
}
