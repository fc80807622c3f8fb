package caas

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the audit substrate. Callers should use
// errors.Is to classify failures rather than matching on message text.
var (
	// ErrNotFound is returned when a record, policy, or batch is not present.
	ErrNotFound = errors.New("caas: not found")

	// ErrInvalidInput is returned when a Policy or ComplianceEvent is
	// malformed (missing required fields). The core rejects before
	// mutating any state.
	ErrInvalidInput = errors.New("caas: invalid input")

	// ErrInvariantViolation marks a recomputed hash, chain link, or
	// Merkle path that does not match its stored value.
	ErrInvariantViolation = errors.New("caas: invariant violation")

	// ErrBatchSizeLocked is returned by SetBatchSize once the ledger
	// has already accepted an append; changing batch size mid-stream
	// would make batch boundaries ambiguous.
	ErrBatchSizeLocked = errors.New("caas: batch size cannot change after first append")
)

// wrapInvalid wraps a reason under ErrInvalidInput so callers can
// still errors.Is(err, ErrInvalidInput) while getting a specific message.
func wrapInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// wrapNotFound wraps a reason under ErrNotFound.
func wrapNotFound(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, reason)
}
