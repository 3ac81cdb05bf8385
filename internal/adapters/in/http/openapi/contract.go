// Package openapi holds the HTTP contract of the service and checks requests against it.
package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"slaughterhouse/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var document []byte

// Contract is the parsed OpenAPI document plus a router over its operations.
type Contract struct {
	doc    *openapi3.T
	router routers.Router
	json   string
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &Contract{doc: doc, router: router, json: string(raw)}, nil
}

func (c *Contract) Version() string {
	return c.doc.Info.Version
}

// ValidateRequest checks parameters, headers and body of r. Requests the document does not
// describe pass untouched; routing them is the server's job. The body is left readable.
func (c *Contract) ValidateRequest(r *http.Request) error {
	route, pathParams, err := c.router.FindRoute(r)
	if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
		return nil
	}
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request", err)
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request", err)
	}
	return nil
}

// ReadDoc returns the document as JSON, for the swagger UI.
func (c *Contract) ReadDoc() string {
	return c.json
}

var registerOnce sync.Once

// Register publishes the document under swag's default instance name. Only the first
// contract registered in a process is served.
func (c *Contract) Register() {
	registerOnce.Do(func() {
		swag.Register(swag.Name, c)
	})
}
