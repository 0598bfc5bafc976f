package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/gotest"
)

const passingStream = `{"Time":"2024-05-17T14:03:09Z","Action":"run","Package":"example.com/api","Test":"TestCreate"}
{"Time":"2024-05-17T14:03:09.25Z","Action":"pass","Package":"example.com/api","Test":"TestCreate"}
`

const failingStream = `{"Time":"2024-05-17T14:03:09Z","Action":"run","Package":"example.com/api","Test":"TestCreate"}
{"Time":"2024-05-17T14:03:09.25Z","Action":"pass","Package":"example.com/api","Test":"TestCreate"}
{"Time":"2024-05-17T14:03:09.25Z","Action":"run","Package":"example.com/api","Test":"TestGet"}
{"Time":"2024-05-17T14:03:09.5Z","Action":"output","Package":"example.com/api","Test":"TestGet","Output":"    api_test.go:20: assert 1==2 failed\n"}
{"Time":"2024-05-17T14:03:10Z","Action":"fail","Package":"example.com/api","Test":"TestGet"}
`

// mockTestSource replays a fixed stream and records how often it ran
type mockTestSource struct {
	mock.Mock
	stream string
}

func (m *mockTestSource) RunTests(ctx context.Context, driver *gotest.EventDriver) error {
	args := m.Called(ctx)
	if err := driver.Consume(ctx, strings.NewReader(m.stream)); err != nil {
		return err
	}
	return args.Error(0)
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		TestDir:    t.TempDir(),
		Input:      flags.StdinInput,
		ReportDir:  filepath.Join(t.TempDir(), "reports"),
		ReportName: "report",
		Title:      "API Acceptance Report",
		Log:        log.NewLogger(log.DiscardHandler()),
	}
}

func newTestApp(t *testing.T, cfg *Config, source TestSource, shutdown func(error)) (*reporterApp, *bytes.Buffer) {
	t.Helper()
	app, err := New(cfg, "test", shutdown)
	require.NoError(t, err)
	app.source = source

	var out bytes.Buffer
	app.console = NewConsoleResultFormatter(cfg.Log, &out)
	return app, &out
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, "test", nil)
	assert.EqualError(t, err, "config is required")
}

func TestNew_InvalidTemplate(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "broken.html.tmpl")
	require.NoError(t, os.WriteFile(cfg.TemplatePath, []byte("{{.Title"), 0644))

	_, err := New(cfg, "test", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create report renderer")
}

func TestNew_MissingTemplate(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "missing.html.tmpl")

	_, err := New(cfg, "test", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read report template")
}

func TestReporterApp_PassingRunShutsDown(t *testing.T) {
	cfg := newTestConfig(t)
	source := &mockTestSource{stream: passingStream}
	source.On("RunTests", mock.Anything).Return(nil).Once()

	shutdown := make(chan error, 1)
	app, out := newTestApp(t, cfg, source, func(err error) { shutdown <- err })

	require.NoError(t, app.Start(context.Background()))
	source.AssertExpectations(t)

	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not called")
	}

	assert.Equal(t, filepath.Join(cfg.ReportDir, "report.html"), app.ReportPath())
	assert.FileExists(t, app.ReportPath())
	assert.Equal(t, 1, app.Summary().Total)
	assert.Contains(t, out.String(), "Passed:  1")
	assert.Contains(t, out.String(), "Report: "+app.ReportPath())

	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, app.Stopped())
}

func TestReporterApp_FailingRunReturnsTestFailure(t *testing.T) {
	cfg := newTestConfig(t)
	source := &mockTestSource{stream: failingStream}
	source.On("RunTests", mock.Anything).Return(nil).Once()

	app, _ := newTestApp(t, cfg, source, func(err error) {
		t.Error("shutdown callback must not be called for failing runs")
	})

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.Contains(t, err.Error(), "Total: 2, Passed: 1, Failed: 1")

	content, err := os.ReadFile(app.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "Assertion Failed: api_test.go:20: assert 1==2 failed")
	assert.Contains(t, string(content), "TestGet")
}

const buildFailureStream = `{"ImportPath":"example.com/api [example.com/api.test]","Action":"build-output","Output":"# example.com/api [example.com/api.test]\n"}
{"ImportPath":"example.com/api [example.com/api.test]","Action":"build-output","Output":"./api_test.go:5:2: undefined: createObject\n"}
{"ImportPath":"example.com/api [example.com/api.test]","Action":"build-fail"}
{"Time":"2024-05-17T14:03:09Z","Action":"start","Package":"example.com/api"}
{"Time":"2024-05-17T14:03:09Z","Action":"output","Package":"example.com/api","Output":"FAIL\texample.com/api [build failed]\n"}
{"Time":"2024-05-17T14:03:09Z","Action":"fail","Package":"example.com/api","Elapsed":0,"FailedBuild":"example.com/api [example.com/api.test]"}
`

func TestReporterApp_BuildFailureReturnsTestFailure(t *testing.T) {
	cfg := newTestConfig(t)
	source := &mockTestSource{stream: buildFailureStream}
	source.On("RunTests", mock.Anything).Return(nil).Once()

	app, _ := newTestApp(t, cfg, source, func(err error) {
		t.Error("shutdown callback must not be called when a package fails to build")
	})

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.Equal(t, 1, app.Summary().Failed)

	content, err := os.ReadFile(app.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "example.com/api [package]")
	assert.Contains(t, string(content), "undefined: createObject")
}

func TestReporterApp_SourceErrorStillWritesReport(t *testing.T) {
	cfg := newTestConfig(t)
	source := &mockTestSource{stream: passingStream}
	source.On("RunTests", mock.Anything).Return(errors.New("go test failed with exit code 2")).Once()

	app, _ := newTestApp(t, cfg, source, nil)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "exit code 2")

	assert.FileExists(t, app.ReportPath())
	assert.Equal(t, 1, app.Summary().Total)
}

func TestReporterApp_ReportWriteFailureIsRuntimeError(t *testing.T) {
	cfg := newTestConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.ReportDir = filepath.Join(blocker, "reports")

	source := &mockTestSource{stream: passingStream}
	source.On("RunTests", mock.Anything).Return(nil).Once()

	app, _ := newTestApp(t, cfg, source, nil)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "failed to generate report")
	assert.Empty(t, app.ReportPath())
}

func TestReporterApp_SuccessiveRunsDoNotOverwrite(t *testing.T) {
	cfg := newTestConfig(t)

	var paths []string
	for i := 0; i < 3; i++ {
		source := &mockTestSource{stream: passingStream}
		source.On("RunTests", mock.Anything).Return(nil).Once()
		app, _ := newTestApp(t, cfg, source, nil)
		require.NoError(t, app.Start(context.Background()))
		paths = append(paths, filepath.Base(app.ReportPath()))
	}

	assert.Equal(t, []string{"report.html", "report1.html", "report2.html"}, paths)
}

func TestReporterApp_StopBeforeStart(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig(t), &mockTestSource{}, nil)

	assert.True(t, app.Stopped())
	require.NoError(t, app.Stop(context.Background()))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestReporterApp_ServeKeepsRunning(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Serve = true
	cfg.ServeAddr = "127.0.0.1"
	cfg.ServePort = freePort(t)

	source := &mockTestSource{stream: failingStream}
	source.On("RunTests", mock.Anything).Return(nil).Once()

	app, _ := newTestApp(t, cfg, source, func(err error) {
		t.Error("shutdown callback must not be called while serving")
	})

	require.NoError(t, app.Start(context.Background()))
	assert.False(t, app.Stopped())
	defer func() {
		require.NoError(t, app.Stop(context.Background()))
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/reports/report.html", cfg.ServePort)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(b)
		return true
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, body, "TestGet")
}
