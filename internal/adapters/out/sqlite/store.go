// Package sqlite stores processes in a single SQLite file through the pure Go modernc driver.
//
// Each process is one row holding its JSON snapshot next to the columns List filters on. The
// pool is limited to one connection, so transactions from different units of work queue up
// instead of failing with SQLITE_BUSY.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `CREATE TABLE IF NOT EXISTS processes (
	id             TEXT PRIMARY KEY,
	number         TEXT NOT NULL UNIQUE,
	stage          TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	version        INTEGER NOT NULL,
	payload        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS processes_stage ON processes(stage);
CREATE INDEX IF NOT EXISTS processes_created_at ON processes(created_at);`

// Store owns the database handle and serves the read side.
type Store struct {
	db   *sql.DB
	path string
}

var _ ports.ProcessReader = (*Store)(nil)

// Open creates the file and schema when missing. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "slaughterhouse.db"
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context, id kernel.UUID) (*process.Process, error) {
	return load(ctx, s.db, id)
}

func (s *Store) List(ctx context.Context, filter ports.ProcessFilter) ([]*process.Process, error) {
	return list(ctx, s.db, filter)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func load(ctx context.Context, q querier, id kernel.UUID) (*process.Process, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	var (
		payload []byte
		version int64
	)
	err := q.QueryRowContext(ctx, `SELECT payload, version FROM processes WHERE id = ?`, id.String()).
		Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("process", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select process %s: %w", id, err)
	}
	return decode(payload, version)
}

// list pushes the stage and date criteria down to SQL and leaves the rest to filter.Matches.
func list(ctx context.Context, q querier, filter ports.ProcessFilter) ([]*process.Process, error) {
	query := `SELECT payload, version FROM processes WHERE 1 = 1`
	var args []any
	if len(filter.Stages) > 0 {
		query += ` AND stage IN (` + placeholders(len(filter.Stages)) + `)`
		for _, s := range filter.Stages {
			args = append(args, s.String())
		}
	}
	if !filter.ReceivedBefore.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.ReceivedBefore.UnixNano())
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select processes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*process.Process, 0)
	for rows.Next() {
		var (
			payload []byte
			version int64
		)
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p, err := decode(payload, version)
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}

func save(ctx context.Context, q querier, p *process.Process) error {
	if err := p.Validate(); err != nil {
		return err
	}
	expected := p.Version()
	payload, err := json.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("encode process %s: %w", p.ID(), err)
	}

	var res sql.Result
	if expected == 0 {
		if err := checkNumberFree(ctx, q, p); err != nil {
			return err
		}
		res, err = q.ExecContext(ctx,
			`INSERT INTO processes (id, number, stage, payment_status, created_at, version, payload)
			 VALUES (?, ?, ?, ?, ?, 1, ?) ON CONFLICT(id) DO NOTHING`,
			p.ID().String(), p.Number(), p.Stage().String(), p.PaymentStatus().String(),
			p.CreatedAt().UnixNano(), payload)
	} else {
		res, err = q.ExecContext(ctx,
			`UPDATE processes SET stage = ?, payment_status = ?, version = version + 1, payload = ?
			 WHERE id = ? AND version = ?`,
			p.Stage().String(), p.PaymentStatus().String(), payload, p.ID().String(), expected)
	}
	if err != nil {
		return fmt.Errorf("save process %s: %w", p.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NewConflictError("process", p.ID(), expected)
	}
	p.SetVersion(expected + 1)
	return nil
}

// checkNumberFree rejects a number already held by a different id. The same id falls through to
// the insert, which reports it as a conflict.
func checkNumberFree(ctx context.Context, q querier, p *process.Process) error {
	var owner string
	err := q.QueryRowContext(ctx, `SELECT id FROM processes WHERE number = ?`, p.Number()).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check number %s: %w", p.Number(), err)
	case owner != p.ID().String():
		return fmt.Errorf("%w: %s is held by %s", ports.ErrProcessNumberTaken, p.Number(), owner)
	}
	return nil
}

func decode(payload []byte, version int64) (*process.Process, error) {
	var snap process.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode process: %w", err)
	}
	snap.Version = version
	return process.Restore(snap)
}

func placeholders(n int) string {
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}
