package registry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"slaughterhouse/internal/adapters/out/registry"
	"slaughterhouse/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = []registry.Option{
	registry.WithTimeout(time.Second),
	registry.WithRetryWait(time.Millisecond, 5*time.Millisecond),
}

func TestCertificateClient_Validate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantValid bool
		wantErrs  []string
	}{
		{"valid", http.StatusOK, `{"isValid":true}`, true, nil},
		{"invalid with reasons", http.StatusOK, `{"isValid":false,"errors":["expired"]}`, false, []string{"expired"}},
		{"unknown certificate", http.StatusNotFound, `{}`, false, []string{"certificate CZ-1 not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/certificates/CZ-1/validation", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := registry.NewCertificateClient(srv.URL, fast...).Validate(t.Context(), "CZ-1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantErrs, got.Errors)
		})
	}

	t.Run("empty id", func(t *testing.T) {
		_, err := registry.NewCertificateClient("http://unused").Validate(t.Context(), "")
		assert.True(t, errs.IsValidation(err))
	})
}

func TestPaymentClient_CanProceed(t *testing.T) {
	t.Run("decodes standing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/introducers/INT-1/standing", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"canProceed":false,"finesPending":true,"pendingAmount":"35.50","reason":"fines"}`))
		}))
		defer srv.Close()

		got, err := registry.NewPaymentClient(srv.URL, fast...).CanProceed(t.Context(), "INT-1")

		require.NoError(t, err)
		assert.False(t, got.CanProceed)
		assert.True(t, got.FinesPending)
		assert.True(t, decimal.RequireFromString("35.5").Equal(got.PendingAmount))
	})

	t.Run("unknown introducer is not inscribed", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		got, err := registry.NewPaymentClient(srv.URL, fast...).CanProceed(t.Context(), "INT-9")

		require.NoError(t, err)
		assert.False(t, got.CanProceed)
		assert.True(t, got.InscriptionPending)
	})
}

func TestClients_RetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":true}`))
	}))
	defer srv.Close()

	got, err := registry.NewCertificateClient(srv.URL, append(fast, registry.WithRetries(2))...).
		Validate(t.Context(), "CZ-1")

	require.NoError(t, err)
	assert.True(t, got.IsValid)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClients_ExternalDependencyErrors(t *testing.T) {
	t.Run("server keeps failing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := registry.NewPaymentClient(srv.URL, append(fast, registry.WithRetries(1))...).
			CanProceed(t.Context(), "INT-1")

		var dep *errs.ExternalDependencyError
		require.ErrorAs(t, err, &dep)
		assert.Equal(t, "payment-registry", dep.Dependency)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		client := registry.NewCertificateClient(srv.URL,
			registry.WithTimeout(20*time.Millisecond), registry.WithRetries(0))
		_, err := client.Validate(context.Background(), "CZ-1")

		assert.ErrorIs(t, err, errs.ErrExternalDependency)
	})
}
