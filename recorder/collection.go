package recorder

import (
	"sync"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Collection is the ordered, append-only set of results for one session.
// Insertion order is the order in which tests completed.
type Collection struct {
	mu      sync.Mutex
	records []types.ResultRecord
}

// NewCollection creates an empty result collection
func NewCollection() *Collection {
	return &Collection{
		records: make([]types.ResultRecord, 0),
	}
}

// Append adds a record at the end of the collection
func (c *Collection) Append(record types.ResultRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
}

// Records returns a copy of the records in insertion order
func (c *Collection) Records() []types.ResultRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ResultRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records collected so far
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Summary partitions the collected records by status
func (c *Collection) Summary() types.Summary {
	return types.Summarize(c.Records())
}
