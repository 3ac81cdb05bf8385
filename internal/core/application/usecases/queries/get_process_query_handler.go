package queries

import (
	"context"

	"slaughterhouse/internal/core/ports"
)

// GetProcessQueryHandler returns errs.ObjectNotFoundError for unknown ids.
//
// Example:
//
//	handler := NewGetProcessQueryHandler(store)
//	query, _ := NewGetProcessQuery(id)
//	resp, err := handler.Handle(ctx, query)
type GetProcessQueryHandler struct {
	reader ports.ProcessReader
}

func NewGetProcessQueryHandler(reader ports.ProcessReader) GetProcessQueryHandler {
	return GetProcessQueryHandler{reader: reader}
}

func (h GetProcessQueryHandler) Handle(ctx context.Context, query GetProcessQuery) (GetProcessQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetProcessQueryResponse{}, err
	}

	p, err := h.reader.Load(ctx, query.ID())
	if err != nil {
		return GetProcessQueryResponse{}, err
	}
	return NewProcessView(p), nil
}
