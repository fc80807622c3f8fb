package caas

import (
	"os"
	"strconv"
	"time"
)

// DefaultBatchSize is the number of record hashes aggregated into one
// Merkle batch before the tree is closed (§4.3).
const DefaultBatchSize = 100

// DefaultQueueCapacity is the default bound on CEI's pull queue (§5).
const DefaultQueueCapacity = 10000

// Config bundles the knobs an operator can set when wiring the audit
// substrate together. Resolution order for BatchSize follows the
// teacher's own flag > env > default precedence (see
// cmd/velocity/main.go's getDBPath): an explicit struct field wins,
// then the CAAS_BATCH_SIZE environment variable, then DefaultBatchSize.
type Config struct {
	// BatchSize is the number of record hashes per Merkle batch. Zero
	// means "resolve from environment, falling back to default".
	BatchSize int

	// QueueCapacity bounds CEI's pull queue. Zero means "resolve from
	// environment, falling back to default".
	QueueCapacity int

	// RetentionPeriod is informational only: no component reads it, it
	// is not copied into proof bundles, and it drives no deletion (the
	// core never deletes records).
	RetentionPeriod time.Duration
}

// resolveBatchSize applies the flag > env > default precedence.
func (c Config) resolveBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	if v := os.Getenv("CAAS_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultBatchSize
}

// resolveQueueCapacity applies the flag > env > default precedence.
func (c Config) resolveQueueCapacity() int {
	if c.QueueCapacity > 0 {
		return c.QueueCapacity
	}
	if v := os.Getenv("CAAS_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultQueueCapacity
}
