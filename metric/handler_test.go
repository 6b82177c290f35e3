package metric

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/retrywrap/health"
)

func TestServer_ServesMetricsAndHealth(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordAttempt("served")

	server := NewServer(-1, "", registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	require.Eventually(t, func() bool {
		return server.Address() != ""
	}, 2*time.Second, 10*time.Millisecond)

	address := server.Address()
	assert.True(t, strings.HasSuffix(address, "/metrics"))

	resp, err := http.Get(address)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `retrywrap_executor_attempts_total{function="served"} 1`)

	healthURL := strings.TrimSuffix(address, "/metrics") + "/health"
	resp, err = http.Get(healthURL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not return after Stop")
	}
	assert.Empty(t, server.Address())
}

func TestServer_NilRegistry(t *testing.T) {
	server := NewServer(-1, "/metrics", nil)
	err := server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics registry not provided")
}

func TestServer_StopWhenNotRunning(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry())
	assert.NoError(t, server.Stop())
}

func TestServer_HealthReportsStatus(t *testing.T) {
	server := NewServer(-1, "", NewMetricsRegistry())

	rec := httptest.NewRecorder()
	server.serveHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	monitor := health.NewMonitor()
	server.SetHealth(func() health.Status { return monitor.AggregateHealth("retryrun") })

	monitor.Record("line 1", nil, time.Millisecond)
	rec = httptest.NewRecorder()
	server.serveHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsHealthy())
	require.Len(t, status.SubStatuses, 1)
	assert.Equal(t, int64(1), status.SubStatuses[0].Metrics.Runs)

	monitor.Record("line 2", errors.New("exit status 3"), time.Millisecond)
	rec = httptest.NewRecorder()
	server.serveHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}
