package animal

import (
	"fmt"

	"slaughterhouse/internal/pkg/errs"
)

// Registry is an insertion-ordered set of records keyed by animal id.
type Registry struct {
	order   []string
	records map[string]Record
}

// NewRegistry builds a registry from records, rejecting empty input and duplicate ids.
func NewRegistry(records []Record) (*Registry, error) {
	if len(records) == 0 {
		return nil, errs.NewValueIsRequiredError("animals")
	}

	r := &Registry{
		order:   make([]string, 0, len(records)),
		records: make(map[string]Record, len(records)),
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("animals[%d]: %w", i, err)
		}
		if err := r.add(rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(rec Record) error {
	if _, ok := r.records[rec.ID]; ok {
		return errs.NewValueIsInvalidErrorWithCause("animals", fmt.Errorf("duplicate animal id %q", rec.ID))
	}
	r.order = append(r.order, rec.ID)
	r.records[rec.ID] = rec
	return nil
}

func (r *Registry) Get(id string) (Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// MustExist returns the record or a not-found error naming the animal.
func (r *Registry) MustExist(id string) (Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, errs.NewObjectNotFoundError("animal", id)
	}
	return rec, nil
}

func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the records in admission order.
func (r *Registry) All() []Record {
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// CountBySpecies reports how many animals of each species were admitted.
func (r *Registry) CountBySpecies() map[Species]int {
	out := make(map[Species]int)
	for _, rec := range r.records {
		out[rec.Species]++
	}
	return out
}

func (r *Registry) TotalWeightKg() float64 {
	var total float64
	for _, rec := range r.records {
		total += rec.ArrivalWeightKg
	}
	return total
}
