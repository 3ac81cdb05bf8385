// Package registry calls the external certificate and payment registries over HTTP.
package registry

import (
	"fmt"
	"net/http"
	"time"

	"slaughterhouse/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRetries = 2
)

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// WithRetries sets how many times a failed call is repeated. Only transport errors and 5xx
// responses are retried.
func WithRetries(n int) Option {
	return func(c *resty.Client) { c.SetRetryCount(n) }
}

func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryWaitTime(wait)
		c.SetRetryMaxWaitTime(maxWait)
	}
}

func newClient(baseURL string, opts ...Option) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout).
		SetRetryCount(defaultRetries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// unexpected turns a transport error or an unusable response into an ExternalDependencyError.
func unexpected(dependency string, resp *resty.Response, err error) error {
	if err != nil {
		return errs.NewExternalDependencyError(dependency, err)
	}
	return errs.NewExternalDependencyError(dependency,
		fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), resp.Request.URL))
}
