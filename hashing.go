package caas

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// GenesisHash is the all-zero 64-char hex value used as the
// previous-hash of the first record appended to a ledger (§3, §6).
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// sha256Hex returns the lowercase hex-encoded SHA-256 digest of b.
func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// hashHexPair computes sha256(left || right) over the UTF-8 bytes of
// the hex-encoded strings themselves, per §4.3/§9: Merkle internal
// nodes hash the *hex representations* of their children, not the raw
// 32-byte digests. This choice is pinned for bundle compatibility and
// must never change.
func hashHexPair(left, right string) string {
	return sha256Hex([]byte(left + right))
}

// sortedStrings returns a sorted copy of ss (ASCII lexicographic).
func sortedStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}

// isValidHexHash reports whether s looks like a 64-char lowercase hex
// SHA-256 digest.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
