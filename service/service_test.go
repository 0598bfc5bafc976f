package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, handler http.Handler, path string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)
	return rec.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthzServer_Healthz(t *testing.T) {
	resp := get(t, NewHealthzServer("").Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OK", body(t, resp))
}

func TestHealthzServer_ServesReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.html"), []byte("<html>report</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("hidden"), 0644))
	handler := NewHealthzServer(dir).Handler()

	resp := get(t, handler, "/reports/report.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>report</html>", body(t, resp))

	resp = get(t, handler, "/reports/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, handler, "/reports/.secret")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthzServer_NoReportsWithoutDirectory(t *testing.T) {
	resp := get(t, NewHealthzServer("").Handler(), "/reports/report.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsServer_Handler(t *testing.T) {
	resp := get(t, (&MetricsServer{}).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "go_goroutines")
}

func TestService_Defaults(t *testing.T) {
	svc := New(Config{}, log.NewLogger(log.DiscardHandler()))
	assert.False(t, svc.Enabled())
	assert.Equal(t, HealthzPort, svc.cfg.HealthzPort)
	assert.Equal(t, MetricsPort, svc.cfg.MetricsPort)

	svc = New(Config{MetricsEnabled: true}, nil)
	assert.True(t, svc.Enabled())
}

func TestService_ShutdownBeforeStart(t *testing.T) {
	svc := New(Config{HealthzEnabled: true}, log.NewLogger(log.DiscardHandler()))
	assert.NotPanics(t, svc.Shutdown)
}
