package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	httpadapter "slaughterhouse/internal/adapters/in/http"
	"slaughterhouse/internal/adapters/in/http/openapi"
	"slaughterhouse/internal/adapters/out/memory"
	"slaughterhouse/internal/adapters/out/metrics"
	"slaughterhouse/internal/core/application/usecases/commands"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCertificates struct {
	result process.CertificateResult
	err    error
}

func (s stubCertificates) Validate(context.Context, string) (process.CertificateResult, error) {
	return s.result, s.err
}

type stubPayments struct {
	result process.PaymentResult
	err    error
}

func (s stubPayments) CanProceed(context.Context, string) (process.PaymentResult, error) {
	return s.result, s.err
}

type uowFactory func() commands.ProcessUoW

func (f uowFactory) Create() commands.ProcessUoW { return f() }

// flakyUoW makes the first conflicts saves lose an optimistic-concurrency race.
type flakyUoW struct {
	ports.UnitOfWork
	conflicts *atomic.Int32
}

func (u flakyUoW) ProcessRepository() ports.ProcessRepository {
	return flakyRepo{ProcessRepository: u.UnitOfWork.ProcessRepository(), conflicts: u.conflicts}
}

type flakyRepo struct {
	ports.ProcessRepository
	conflicts *atomic.Int32
}

func (r flakyRepo) Save(ctx context.Context, p *process.Process) error {
	if r.conflicts.Add(-1) >= 0 {
		return errs.NewConflictError("process", p.ID(), p.Version())
	}
	return r.ProcessRepository.Save(ctx, p)
}

type harness struct {
	e         *echo.Echo
	store     *memory.Store
	conflicts *atomic.Int32
}

func newHarness(
	t *testing.T, certs ports.CertificateValidator, pays ports.PaymentValidator, opts ...httpadapter.ServerOption,
) harness {
	t.Helper()
	store := memory.NewStore()
	conflicts := &atomic.Int32{}
	base := memory.NewUnitOfWorkFactory(store)
	factory := uowFactory(func() commands.ProcessUoW {
		return flakyUoW{UnitOfWork: base.Create(), conflicts: conflicts}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewRecorder()
	machine, err := commands.NewProcessStateMachine(factory, nil, recorder, logger)
	require.NoError(t, err)

	opts = append([]httpadapter.ServerOption{
		httpadapter.WithMetricsHandler(recorder.Handler()),
		httpadapter.WithConflictRetry(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
		}),
	}, opts...)
	server := httpadapter.NewServer(machine, store, certs, pays, logger, opts...)
	e := echo.New()
	server.RegisterRoutes(e)
	return harness{e: e, store: store, conflicts: conflicts}
}

func cleared() (stubCertificates, stubPayments) {
	return stubCertificates{result: process.CertificateResult{IsValid: true}},
		stubPayments{result: process.PaymentResult{CanProceed: true}}
}

func (h harness) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(httpadapter.ActorHeader, "clerk.ortiz")
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

var receptionBody = map[string]any{
	"certificateId": "CZ-2024-7",
	"introducerId":  "INT-2",
	"method":        "truck",
	"animals": []map[string]any{
		{"id": "EC-1", "species": "Bovine", "arrivalWeightKg": 420, "arrivalCondition": "good"},
	},
}

func (h harness) start(t *testing.T) string {
	t.Helper()
	rec, body := h.do(t, http.MethodPost, "/api/v1/processes", receptionBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["id"].(string)
}

func mustUUID(t *testing.T, s string) kernel.UUID {
	t.Helper()
	id, err := kernel.UUIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestServer_ProcessLifecycle(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	id := h.start(t)
	base := "/api/v1/processes/" + id

	steps := []struct {
		method string
		path   string
		body   any
		code   int
		stage  string
	}{
		{http.MethodPost, base + "/verification", nil, http.StatusOK, "ExternalInspection"},
		{http.MethodPost, base + "/evaluations", map[string]any{
			"animalId":  "EC-1",
			"readings":  map[string]any{"temperatureC": 38.7, "heartRate": 68, "respiratoryRate": 20, "generalCondition": "alert"},
			"result":    "SuitableForSlaughter",
			"inspector": "dr.vaca",
		}, http.StatusOK, "ExternalInspection"},
		{http.MethodPost, base + "/external-inspection/complete", map[string]any{
			"environment": map[string]any{"temperatureC": 16, "humidityPct": 60},
		}, http.StatusOK, "Slaughter"},
		{http.MethodPost, base + "/slaughter/start", map[string]any{"operator": "op.1", "veterinarian": "dr.vaca"}, http.StatusOK, "Slaughter"},
		{http.MethodPost, base + "/slaughter/records", map[string]any{
			"animalId":        "EC-1",
			"startedAt":       "2024-03-11T08:00:00Z",
			"endedAt":         "2024-03-11T08:30:00Z",
			"method":          "stunning",
			"carcassWeightKg": 231,
			"products":        []map[string]any{{"id": "P-1", "type": "half", "weightKg": 115}},
		}, http.StatusCreated, "Slaughter"},
		{http.MethodPost, base + "/slaughter/complete", nil, http.StatusOK, "InternalInspection"},
		{http.MethodPost, base + "/inspections", map[string]any{
			"productId":      "P-1",
			"organoleptic":   map[string]any{"color": "red", "odor": "normal", "texture": "firm"},
			"classification": "SuitableForConsumption",
			"inspector":      "dr.vaca",
		}, http.StatusOK, "InternalInspection"},
		{http.MethodPost, base + "/internal-inspection/complete", map[string]any{
			"storage": map[string]any{"chamber": "C-1", "temperatureC": 2, "humidityPct": 85},
		}, http.StatusOK, "Dispatch"},
		{http.MethodPost, base + "/costs", map[string]any{"animalId": "EC-1", "slaughterFee": "40"}, http.StatusCreated, "Dispatch"},
		{http.MethodPost, base + "/payments", map[string]any{"amount": "10", "reference": "TX-1"}, http.StatusCreated, "Dispatch"},
		{http.MethodPost, base + "/complete", nil, http.StatusOK, "Completed"},
	}
	for _, s := range steps {
		rec, body := h.do(t, s.method, s.path, s.body)
		require.Equal(t, s.code, rec.Code, "%s %s: %s", s.method, s.path, rec.Body.String())
		assert.Equal(t, s.stage, body["stage"], s.path)
	}

	rec, body := h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Partial", body["paymentStatus"])

	rec, stats := h.do(t, http.MethodGet, "/api/v1/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, stats["processes"])
	assert.EqualValues(t, 100, stats["approvalPercentage"])
	assert.EqualValues(t, 55, stats["averageYield"])
}

func TestServer_Shipments(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	id := h.start(t)
	base := "/api/v1/processes/" + id

	rec, _ := h.do(t, http.MethodPost, base+"/shipments", map[string]any{
		"type":        "Regular",
		"productIds":  []string{"P-1"},
		"destination": map[string]any{"name": "Market", "address": "Main 1"},
		"vehicle":     map[string]any{"plate": "ABC-1", "driver": "R. Vera"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "no shipments before Dispatch")
}

func TestServer_VerificationDenied(t *testing.T) {
	h := newHarness(t,
		stubCertificates{result: process.CertificateResult{IsValid: false, Errors: []string{"expired"}}},
		stubPayments{result: process.PaymentResult{CanProceed: true}},
	)
	id := h.start(t)

	rec, body := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/verification", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, body, "process")
	assert.Equal(t, "PaymentVerification", body["process"].(map[string]any)["stage"])
}

func TestServer_RegistryFailure(t *testing.T) {
	certs, _ := cleared()
	h := newHarness(t, certs, stubPayments{err: errors.New("connection refused")})
	id := h.start(t)

	rec, _ := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/verification", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	rec, body := h.do(t, http.MethodGet, "/api/v1/processes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reception", body["stage"], "process untouched")
}

func TestServer_ErrorMapping(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	id := h.start(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"malformed id", http.MethodGet, "/api/v1/processes/nope", nil, http.StatusBadRequest},
		{"unknown process", http.MethodGet, "/api/v1/processes/8a6e0804-2bd0-4672-b79d-d97027f9071e", nil, http.StatusNotFound},
		{"wrong stage", http.MethodPost, "/api/v1/processes/" + id + "/slaughter/complete", nil, http.StatusUnprocessableEntity},
		{"invalid body", http.MethodPost, "/api/v1/processes/" + id + "/evaluations", map[string]any{"result": "Maybe"}, http.StatusBadRequest},
		{"empty reception", http.MethodPost, "/api/v1/processes", map[string]any{"method": "truck"}, http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/v1/processes?stage=Grilling", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := h.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.EqualValues(t, tt.code, body["code"])
		})
	}

	t.Run("missing actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/"+id+"/suspend", nil)
		rec := httptest.NewRecorder()
		h.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_RetriesConflicts(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	id := h.start(t)

	t.Run("recovers within the retry budget", func(t *testing.T) {
		h.conflicts.Store(2)
		rec, body := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/verification", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "ExternalInspection", body["stage"])
	})

	t.Run("gives up with 409", func(t *testing.T) {
		h.conflicts.Store(10)
		rec, _ := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/suspend", map[string]any{"reason": "x"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_StartReceptionLocation(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	id := kernel.NewUUID()
	body := map[string]any{"processId": id.String()}
	for k, v := range receptionBody {
		body[k] = v
	}

	t.Run("set on success", func(t *testing.T) {
		rec, _ := h.do(t, http.MethodPost, "/api/v1/processes", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "/api/v1/processes/"+id.String(), rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("absent when the id is taken", func(t *testing.T) {
		rec, _ := h.do(t, http.MethodPost, "/api/v1/processes", body)
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("absent when retries run out", func(t *testing.T) {
		h.conflicts.Store(10)
		rec, _ := h.do(t, http.MethodPost, "/api/v1/processes", receptionBody)
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
	})
}

func TestServer_ListAndOperationalEndpoints(t *testing.T) {
	certs, pays := cleared()
	h := newHarness(t, certs, pays)
	h.start(t)
	h.start(t)

	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/processes?stage=Reception", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rec = httptest.NewRecorder()
	h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `slaughterhouse_operations_total{operation="StartReception",outcome="success"} 2`)
}

func TestServer_Contract(t *testing.T) {
	contract, err := openapi.Load(t.Context())
	require.NoError(t, err)
	certs, pays := cleared()
	h := newHarness(t, certs, pays, httpadapter.WithContract(contract))

	id := h.start(t)

	t.Run("conforming requests reach the machine", func(t *testing.T) {
		rec, body := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/verification", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "ExternalInspection", body["stage"])
	})

	t.Run("non-conforming requests are rejected before the machine", func(t *testing.T) {
		rec, body := h.do(t, http.MethodPost, "/api/v1/processes/"+id+"/evaluations", map[string]any{
			"animalId": "EC-1",
			"result":   "Delicious",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["message"], "request")

		got, err := h.store.Load(t.Context(), mustUUID(t, id))
		require.NoError(t, err)
		assert.Empty(t, got.Evaluations())
	})

	t.Run("serves the document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"openapi":"3.0.3"`)
	})
}
