package queries

import (
	"context"

	"slaughterhouse/internal/core/ports"
)

type ListProcessesQueryHandler struct {
	reader ports.ProcessReader
}

func NewListProcessesQueryHandler(reader ports.ProcessReader) ListProcessesQueryHandler {
	return ListProcessesQueryHandler{reader: reader}
}

// Handle returns the matching processes oldest first; never nil.
func (h ListProcessesQueryHandler) Handle(ctx context.Context, query ListProcessesQuery) ([]ProcessSummary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	processes, err := h.reader.List(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	out := make([]ProcessSummary, 0, len(processes))
	for _, p := range processes {
		out = append(out, newProcessSummary(p))
	}
	return out, nil
}
