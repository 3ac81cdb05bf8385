package evaluation

// Ledger keeps the latest evaluation per animal id, in first-submission order.
type Ledger struct {
	order   []string
	entries map[string]Evaluation
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Evaluation)}
}

// RestoreLedger rebuilds a ledger from persisted evaluations; later duplicates win.
func RestoreLedger(evaluations []Evaluation) *Ledger {
	l := NewLedger()
	for _, e := range evaluations {
		l.Upsert(e)
	}
	return l
}

// Upsert stores e, replacing any previous evaluation of the same animal.
func (l *Ledger) Upsert(e Evaluation) {
	if _, ok := l.entries[e.AnimalID]; !ok {
		l.order = append(l.order, e.AnimalID)
	}
	l.entries[e.AnimalID] = e
}

func (l *Ledger) Get(animalID string) (Evaluation, bool) {
	e, ok := l.entries[animalID]
	return e, ok
}

func (l *Ledger) Len() int {
	return len(l.order)
}

func (l *Ledger) All() []Evaluation {
	out := make([]Evaluation, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id])
	}
	return out
}

// Missing returns the ids in animalIDs that have no evaluation yet.
func (l *Ledger) Missing(animalIDs []string) []string {
	var missing []string
	for _, id := range animalIDs {
		if _, ok := l.entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// SuitableIDs lists the animals admitted to slaughter, in ledger order.
func (l *Ledger) SuitableIDs() []string {
	var ids []string
	for _, id := range l.order {
		if l.entries[id].Result.IsSuitable() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Overall rolls the ledger up. An empty ledger has no overall result.
func (l *Ledger) Overall() Overall {
	if len(l.order) == 0 {
		return UnknownOverall
	}

	suitable := len(l.SuitableIDs())
	switch suitable {
	case len(l.order):
		return AllSuitable
	case 0:
		return AllUnsuitable
	default:
		return PartialSuitable
	}
}

// CountByResult tallies the latest evaluation per animal by result.
func (l *Ledger) CountByResult() map[Result]int {
	out := make(map[Result]int)
	for _, e := range l.entries {
		out[e.Result]++
	}
	return out
}
