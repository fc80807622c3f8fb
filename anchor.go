package caas

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Anchorer publishes a Merkle batch root to a destination outside this
// process — a blockchain, a notary service, a write-once object-store
// key — so a closed batch's root becomes independently checkable even
// if the ledger itself is later compromised. External anchoring
// destinations are out of scope (§7 non-goals); Anchorer is the seam a
// caller wires a real destination into.
type Anchorer interface {
	Anchor(ctx context.Context, batchIndex int, rootHash string) (AnchorReceipt, error)
}

// AnchorReceipt records where and under what fingerprint a root was
// anchored.
type AnchorReceipt struct {
	BatchIndex  int
	RootHash    string
	Fingerprint string
}

// FingerprintAnchorer is a reference Anchorer that never leaves the
// process: it derives a BLAKE2b-256 fingerprint of each root and keeps
// receipts in memory. It exists to give callers something concrete to
// test against before wiring a real external destination, and to keep
// a second hash primitive (distinct from the SHA-256 used for chain
// and Merkle hashing) available for anchor fingerprints, the way a
// notarization layer typically wants a visibly different algorithm
// from the ledger's own.
type FingerprintAnchorer struct {
	receipts []AnchorReceipt
}

// NewFingerprintAnchorer creates an empty in-memory anchorer.
func NewFingerprintAnchorer() *FingerprintAnchorer {
	return &FingerprintAnchorer{}
}

// Anchor computes a BLAKE2b-256 fingerprint of rootHash and records it.
func (a *FingerprintAnchorer) Anchor(ctx context.Context, batchIndex int, rootHash string) (AnchorReceipt, error) {
	_, end := startSpan(ctx, "caas.FingerprintAnchorer.Anchor")
	var err error
	defer end(&err)

	sum := blake2b.Sum256([]byte(rootHash))
	receipt := AnchorReceipt{
		BatchIndex:  batchIndex,
		RootHash:    rootHash,
		Fingerprint: hex.EncodeToString(sum[:]),
	}
	a.receipts = append(a.receipts, receipt)
	return receipt, nil
}

// Receipts returns every receipt issued so far, oldest first.
func (a *FingerprintAnchorer) Receipts() []AnchorReceipt {
	out := make([]AnchorReceipt, len(a.receipts))
	copy(out, a.receipts)
	return out
}
