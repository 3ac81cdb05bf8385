// Package memory keeps processes in process memory. It backs tests and single-node
// deployments where losing state on restart is acceptable.
//
// Processes are stored as JSON snapshots, so every Load hands out an independent aggregate,
// exactly like the SQL-backed adapters.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"
)

var ErrNoActiveTransaction = errors.New("no active transaction")

type document struct {
	data    []byte
	version int64
}

// Store holds the committed processes. It is safe for concurrent use and implements
// ports.ProcessReader for the query side.
type Store struct {
	mu    sync.RWMutex
	docs  map[kernel.UUID]document
	order []kernel.UUID
}

func NewStore() *Store {
	return &Store{docs: make(map[kernel.UUID]document)}
}

var _ ports.ProcessReader = (*Store)(nil)

func (s *Store) Load(_ context.Context, id kernel.UUID) (*process.Process, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("process", id)
	}
	return decode(doc)
}

func (s *Store) List(ctx context.Context, filter ports.ProcessFilter) ([]*process.Process, error) {
	s.mu.RLock()
	docs := make([]document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.docs[id])
	}
	s.mu.RUnlock()

	out := make([]*process.Process, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := decode(doc)
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Len returns the number of committed processes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) version(id kernel.UUID) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc.version, ok
}

// apply commits staged documents all or nothing.
func (s *Store) apply(staged map[kernel.UUID]stagedDoc, order []kernel.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range order {
		st := staged[id]
		current, exists := s.docs[id]
		if (st.expected == 0 && exists) || (st.expected != 0 && (!exists || current.version != st.expected)) {
			return errs.NewConflictError("process", id, st.expected)
		}
	}
	for _, id := range order {
		st := staged[id]
		if _, exists := s.docs[id]; !exists {
			s.order = append(s.order, id)
		}
		s.docs[id] = st.document
	}
	return nil
}

func encode(p *process.Process) ([]byte, error) {
	return json.Marshal(p.Snapshot())
}

func decode(doc document) (*process.Process, error) {
	var snap process.Snapshot
	if err := json.Unmarshal(doc.data, &snap); err != nil {
		return nil, err
	}
	snap.Version = doc.version
	return process.Restore(snap)
}
