package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

func TestReportBuilder_Build(t *testing.T) {
	tests := []struct {
		name           string
		records        []types.ResultRecord
		expectedStats  types.Summary
		expectedFailed []string
		expectedText   string
	}{
		{
			name:           "empty run",
			records:        nil,
			expectedStats:  types.Summary{},
			expectedFailed: []string{},
			expectedText:   "0.00 s",
		},
		{
			name: "all passed",
			records: []types.ResultRecord{
				{TestName: "a", Status: types.TestStatusPassed, Duration: time.Second},
				{TestName: "b", Status: types.TestStatusPassed, Duration: 500 * time.Millisecond},
			},
			expectedStats:  types.Summary{Total: 2, Passed: 2, PassRate: 100},
			expectedFailed: []string{},
			expectedText:   "1.50 s",
		},
		{
			name: "mixed results",
			records: []types.ResultRecord{
				{TestName: "a", Status: types.TestStatusFailed, Duration: 250 * time.Millisecond},
				{TestName: "b", Status: types.TestStatusPassed, Duration: 250 * time.Millisecond},
				{TestName: "c", Status: types.TestStatusFailed},
				{TestName: "d", Status: types.TestStatusPassed},
			},
			expectedStats:  types.Summary{Total: 4, Passed: 2, Failed: 2, PassRate: 50},
			expectedFailed: []string{"a", "c"},
			expectedText:   "0.50 s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := fixedBuilder().Build(tt.records)

			assert.Equal(t, "API Acceptance Report", data.Title)
			assert.Equal(t, "run-123", data.RunID)
			assert.Equal(t, fixedTime, data.Timestamp)
			assert.Equal(t, tt.expectedStats, data.Stats)
			assert.Equal(t, tt.expectedFailed, data.FailedTestNames)
			assert.Equal(t, tt.expectedText, data.DurationText)
			assert.Equal(t, tt.expectedStats.Failed > 0, data.HasFailures)
			assert.Len(t, data.Tests, len(tt.records))
		})
	}
}

func TestReportBuilder_RowsKeepInsertionOrder(t *testing.T) {
	records := roundTripRecords()
	data := fixedBuilder().Build(records)

	require.Len(t, data.Tests, len(records))
	for i, item := range data.Tests {
		assert.Equal(t, i+1, item.ExecutionOrder)
		assert.Equal(t, records[i].TestName, item.Name)
		assert.Equal(t, records[i].Status, item.Status)
		assert.Equal(t, records[i].Message+"\n"+records[i].Payload, item.Details)
		assert.Equal(t, records[i].FormattedDuration(), item.DurationText)
	}
}

func TestReportBuilder_Defaults(t *testing.T) {
	data := NewReportBuilder().WithTitle("").WithClock(nil).Build(nil)
	assert.Equal(t, DefaultTitle, data.Title)
	assert.Empty(t, data.RunID)
	assert.False(t, data.Timestamp.IsZero())
	assert.Equal(t, "0.0", data.PassRateText)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "", firstLine(""))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "first", firstLine("first\nsecond\nthird"))
}
