package recorder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

func TestCollection_PreservesInsertionOrder(t *testing.T) {
	c := NewCollection()
	for i := 0; i < 10; i++ {
		c.Append(types.ResultRecord{TestName: fmt.Sprintf("test-%d", i), Status: types.TestStatusPassed})
	}

	records := c.Records()
	require.Len(t, records, 10)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("test-%d", i), r.TestName)
	}
}

func TestCollection_RecordsReturnsCopy(t *testing.T) {
	c := NewCollection()
	c.Append(types.ResultRecord{TestName: "original", Status: types.TestStatusPassed})

	records := c.Records()
	records[0].TestName = "mutated"

	assert.Equal(t, "original", c.Records()[0].TestName)
}

func TestCollection_EmptySummary(t *testing.T) {
	c := NewCollection()
	assert.Equal(t, 0, c.Len())
	assert.NotNil(t, c.Records())
	assert.Empty(t, c.Records())

	s := c.Summary()
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.Passed)
	assert.Equal(t, 0, s.Failed)
}
