package reporter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/gotest"
	"github.com/ethereum-optimism/infra/op-reporter/recorder"
)

func newStreamDriver(t *testing.T) (*gotest.EventDriver, *recorder.Collection) {
	t.Helper()
	collection := recorder.NewCollection()
	rec, err := recorder.New(recorder.Config{
		Collection: collection,
		Log:        log.NewLogger(log.DiscardHandler()),
		NameFunc:   gotest.DisplayName,
	})
	require.NoError(t, err)
	driver, err := gotest.NewEventDriver(log.NewLogger(log.DiscardHandler()), rec)
	require.NoError(t, err)
	return driver, collection
}

func TestNewTestSource(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())

	source := NewTestSource(&Config{TestDir: "/tmp/module", GoBinary: "go"}, logger)
	goSource, ok := source.(*GoTestSource)
	require.True(t, ok)
	assert.Equal(t, "/tmp/module", goSource.testDir)

	source = NewTestSource(&Config{Input: flags.StdinInput}, logger)
	streamSource, ok := source.(*StreamTestSource)
	require.True(t, ok)
	assert.Equal(t, os.Stdin, streamSource.stdin)
}

func TestStreamTestSource_File(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "events.json")
	raw := filepath.Join(dir, "raw.json")
	require.NoError(t, os.WriteFile(input, []byte(failingStream), 0644))

	source := &StreamTestSource{
		path:      input,
		rawEvents: raw,
		logger:    log.NewLogger(log.DiscardHandler()),
	}
	driver, collection := newStreamDriver(t)

	require.NoError(t, source.RunTests(context.Background(), driver))

	records := collection.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "TestCreate", records[0].TestName)
	assert.True(t, records[0].Passed())
	assert.Equal(t, "TestGet", records[1].TestName)
	assert.False(t, records[1].Passed())

	copied, err := os.ReadFile(raw)
	require.NoError(t, err)
	assert.Equal(t, failingStream, string(copied))
}

func TestStreamTestSource_Stdin(t *testing.T) {
	source := &StreamTestSource{
		path:   flags.StdinInput,
		stdin:  strings.NewReader(passingStream),
		logger: log.NewLogger(log.DiscardHandler()),
	}
	driver, collection := newStreamDriver(t)

	require.NoError(t, source.RunTests(context.Background(), driver))
	require.Len(t, collection.Records(), 1)
	assert.Equal(t, 1, driver.Stats().Completed)
}

func TestStreamTestSource_MissingInput(t *testing.T) {
	source := &StreamTestSource{
		path:   filepath.Join(t.TempDir(), "missing.json"),
		logger: log.NewLogger(log.DiscardHandler()),
	}
	driver, _ := newStreamDriver(t)

	err := source.RunTests(context.Background(), driver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open test events")
}

func TestStreamTestSource_RawEventsCreateFailure(t *testing.T) {
	source := &StreamTestSource{
		path:      flags.StdinInput,
		stdin:     strings.NewReader(passingStream),
		rawEvents: filepath.Join(t.TempDir(), "missing", "raw.json"),
		logger:    log.NewLogger(log.DiscardHandler()),
	}
	driver, _ := newStreamDriver(t)

	err := source.RunTests(context.Background(), driver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create raw events file")
}

func TestGoTestSource_MissingBinary(t *testing.T) {
	source := &GoTestSource{
		testDir:  t.TempDir(),
		goBinary: filepath.Join(t.TempDir(), "no-such-go"),
		logger:   log.NewLogger(log.DiscardHandler()),
	}
	driver, _ := newStreamDriver(t)

	err := source.RunTests(context.Background(), driver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start go test")
}
