// Package integration provides end-to-end integration tests for the sync
// service: the operator API, the delivery worker and the reconciler running
// against a real database and a fake ministry API.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GarciaKevinFab/academico-sync/internal/app"
	"github.com/GarciaKevinFab/academico-sync/internal/config"
	outboxDTO "github.com/GarciaKevinFab/academico-sync/internal/outbox/http/dto"
	reconciliationDTO "github.com/GarciaKevinFab/academico-sync/internal/reconciliation/http/dto"
	"github.com/GarciaKevinFab/academico-sync/internal/testutil"
)

// fakeMinistry simulates the ministry integration API. The write endpoints
// answer with a configurable status code; the read endpoints serve the
// configured per-entity-type record lists.
type fakeMinistry struct {
	mu          sync.Mutex
	server      *httptest.Server
	writeStatus int
	submissions int
	records     map[string][]map[string]any
}

func newFakeMinistry() *fakeMinistry {
	f := &fakeMinistry{
		writeStatus: http.StatusOK,
		records:     make(map[string][]map[string]any),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// pathToEntityType maps the ministry API paths back to local entity types.
var pathToEntityType = map[string]string{
	"matriculas":     "enrollment",
	"calificaciones": "grade",
	"certificados":   "certificate",
}

func (f *fakeMinistry) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entityType, ok := pathToEntityType[strings.Trim(r.URL.Path, "/")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method == http.MethodPost {
		f.submissions++
		w.WriteHeader(f.writeStatus)
		if f.writeStatus >= 200 && f.writeStatus < 300 {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"confirmacion_id": fmt.Sprintf("CONF-%06d", f.submissions),
				"mensaje":         "registrado",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"mensaje": "rechazado"})
		return
	}

	datos := f.records[entityType]
	if datos == nil {
		datos = []map[string]any{}
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"datos": datos, "total": len(datos)})
}

func (f *fakeMinistry) setWriteStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeStatus = status
}

func (f *fakeMinistry) setRecords(entityType string, records []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[entityType] = records
}

func (f *fakeMinistry) submissionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions
}

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container    *app.Container
	db           *sql.DB
	server       *httptest.Server
	ministry     *fakeMinistry
	dbDriver     string
	cancelWorker context.CancelFunc
	workerDone   chan struct{}
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	ministry := newFakeMinistry()

	// Short intervals so the worker reacts within test timeouts.
	cfg := &config.Config{
		DBDriver:                dbDriver,
		DBConnectionString:      dsn,
		DBMaxOpenConnections:    10,
		DBMaxIdleConnections:    5,
		DBConnMaxLifetime:       time.Hour,
		ServerHost:              "localhost",
		ServerPort:              8080,
		LogLevel:                "error",
		WorkerPollInterval:      50 * time.Millisecond,
		WorkerBatchSize:         50,
		WorkerMaxRetries:        5,
		WorkerBackoffBase:       20 * time.Millisecond,
		WorkerBackoffMax:        100 * time.Millisecond,
		CircuitFailureThreshold: 10,
		CircuitRecoveryTimeout:  100 * time.Millisecond,
		MinistryBaseURL:         ministry.server.URL,
		MinistryToken:           "test-token",
		MinistryInstitutionCode: "IESP-001",
		MinistryTimeout:         5 * time.Second,
		ReportsBucketURL:        "mem://",
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	testServer := httptest.NewServer(httpSrv.GetHandler())

	// Start the delivery worker in the background.
	worker, err := container.WorkerUseCase()
	require.NoError(t, err, "failed to get worker use case")

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Start(workerCtx)
	}()

	return &integrationTestContext{
		container:    container,
		db:           db,
		server:       testServer,
		ministry:     ministry,
		dbDriver:     dbDriver,
		cancelWorker: cancelWorker,
		workerDone:   workerDone,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.cancelWorker != nil {
		ctx.cancelWorker()
		select {
		case <-ctx.workerDone:
		case <-time.After(2 * time.Second):
			t.Log("Warning: worker did not stop in time")
		}
	}

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.ministry != nil {
		ctx.ministry.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// createEvent posts an event and returns the decoded response.
func createEvent(
	t *testing.T,
	ctx *integrationTestContext,
	entityType, entityID, periodID string,
	version int,
) outboxDTO.EventResponse {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/events", map[string]any{
		"entity_type": entityType,
		"entity_id":   entityID,
		"period_id":   periodID,
		"version":     version,
		"payload":     map[string]string{"estado": "ACTIVA"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "unexpected status: %s", string(body))

	var event outboxDTO.EventResponse
	require.NoError(t, json.Unmarshal(body, &event))
	return event
}

// getEvent fetches one event by id.
func getEvent(t *testing.T, ctx *integrationTestContext, id string) outboxDTO.EventResponse {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/events/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event outboxDTO.EventResponse
	require.NoError(t, json.Unmarshal(body, &event))
	return event
}

// waitForEventStatus polls until the event reaches the wanted status.
func waitForEventStatus(t *testing.T, ctx *integrationTestContext, id, want string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return getEvent(t, ctx, id).Status == want
	}, 5*time.Second, 50*time.Millisecond, "event %s never reached status %s", id, want)
}

func TestAPIPostgres(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	runAPITests(t, "postgres")
}

func TestAPIMySQL(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	runAPITests(t, "mysql")
}

func runAPITests(t *testing.T, dbDriver string) {
	t.Run("EventDeliveredAndAcked", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		event := createEvent(t, ctx, "enrollment", "EST-001", "2026-I", 1)
		assert.Equal(t, "enrollment:EST-001:2026-I:v1", event.IdempotentKey)

		waitForEventStatus(t, ctx, event.ID, "acked")
		assert.Equal(t, 1, ctx.ministry.submissionCount())
	})

	t.Run("DuplicateCreateReturnsExistingEvent", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		first := createEvent(t, ctx, "grade", "GRD-001", "2026-I", 1)
		second := createEvent(t, ctx, "grade", "GRD-001", "2026-I", 1)

		assert.Equal(t, first.ID, second.ID, "same key must map to the same event")

		// A new version is a new event.
		third := createEvent(t, ctx, "grade", "GRD-001", "2026-I", 2)
		assert.NotEqual(t, first.ID, third.ID)
	})

	t.Run("PermanentFailureGoesToDeadLetter", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		ctx.ministry.setWriteStatus(http.StatusBadRequest)

		event := createEvent(t, ctx, "certificate", "CERT-001", "2026-I", 1)
		waitForEventStatus(t, ctx, event.ID, "failed")

		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/dead-letters", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deadLetters outboxDTO.ListDeadLettersResponse
		require.NoError(t, json.Unmarshal(body, &deadLetters))
		require.Len(t, deadLetters.DeadLetters, 1)
		assert.Equal(t, event.ID, deadLetters.DeadLetters[0].EventID)
		assert.True(t, deadLetters.DeadLetters[0].RequiresManualReview)
	})

	t.Run("TransientFailureRetriesUntilSuccess", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		ctx.ministry.setWriteStatus(http.StatusServiceUnavailable)

		event := createEvent(t, ctx, "enrollment", "EST-500", "2026-I", 1)

		require.Eventually(t, func() bool {
			return getEvent(t, ctx, event.ID).RetryCount > 0
		}, 5*time.Second, 50*time.Millisecond, "event never entered retry")

		ctx.ministry.setWriteStatus(http.StatusOK)
		waitForEventStatus(t, ctx, event.ID, "acked")
	})

	t.Run("StatsReportPipelineState", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		event := createEvent(t, ctx, "enrollment", "EST-010", "2026-I", 1)
		waitForEventStatus(t, ctx, event.ID, "acked")

		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/stats", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats outboxDTO.StatsResponse
		require.NoError(t, json.Unmarshal(body, &stats))
		assert.Equal(t, 1, stats.EventsByStatus["acked"])
		assert.Equal(t, "closed", stats.BreakerState)
	})

	t.Run("ReconciliationFindsMissingAndMismatched", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		testutil.SeedEnrollment(t, ctx.db, dbDriver, "EST-001", "2026-I", "COMPUTING", "ACTIVA", "2026-03-15")
		testutil.SeedEnrollment(t, ctx.db, dbDriver, "EST-002", "2026-I", "COMPUTING", "ACTIVA", "2026-03-16")
		testutil.SeedEnrollment(t, ctx.db, dbDriver, "EST-003", "2026-I", "NURSING", "RETIRADA", "2026-03-17")

		// EST-002 is missing remotely; EST-003 disagrees on status.
		ctx.ministry.setRecords("enrollment", []map[string]any{
			{"estudiante_id": "EST-001", "estado": "ACTIVA", "periodo": "2026-I", "programa": "COMPUTING"},
			{"estudiante_id": "EST-003", "estado": "ACTIVA", "periodo": "2026-I", "programa": "NURSING"},
		})

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/reconciliations", map[string]string{
			"period_id": "2026-I",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "unexpected status: %s", string(body))

		var result reconciliationDTO.ResultResponse
		require.NoError(t, json.Unmarshal(body, &result))

		assert.Equal(t, "2026-I", result.PeriodID)
		assert.Equal(t, 2, result.DiscrepancyCount)

		types := make(map[string]string)
		for _, d := range result.Discrepancies {
			types[d.Key] = d.Type
		}
		assert.Equal(t, "missing_in_remote", types["EST-002"])
		assert.Equal(t, "data_mismatch", types["EST-003"])

		// The run is persisted and listable by period.
		resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/reconciliations?period_id=2026-I", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list reconciliationDTO.ListResultsResponse
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list.Results, 1)
		assert.Equal(t, result.ID, list.Results[0].ID)
	})

	t.Run("ReconciliationResetsAckedEventForMissingRecord", func(t *testing.T) {
		ctx := setupIntegrationTest(t, dbDriver)
		defer teardownIntegrationTest(t, ctx)

		// Deliver an enrollment so an acked event exists.
		event := createEvent(t, ctx, "enrollment", "EST-001", "2026-I", 1)
		waitForEventStatus(t, ctx, event.ID, "acked")

		testutil.SeedEnrollment(t, ctx.db, dbDriver, "EST-001", "2026-I", "COMPUTING", "ACTIVA", "2026-03-15")

		// The ministry claims it never saw EST-001.
		ctx.ministry.setRecords("enrollment", []map[string]any{})

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/reconciliations", map[string]string{
			"period_id": "2026-I",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "unexpected status: %s", string(body))

		var result reconciliationDTO.ResultResponse
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, 1, result.ReprocessedCount)

		// The reset event is redelivered by the running worker.
		require.Eventually(t, func() bool {
			return ctx.ministry.submissionCount() >= 2
		}, 5*time.Second, 50*time.Millisecond, "event was never redelivered")
		waitForEventStatus(t, ctx, event.ID, "acked")
	})
}
