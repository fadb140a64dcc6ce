package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// Checksum fingerprints the raw bytes of a pulled export.
	Checksum Hash
	// Fingerprint identifies an analysis run: input checksum plus parameters.
	Fingerprint Hash
)

// Constructors
func NewChecksum(data []byte) Checksum { return Checksum(NewHash(data)) }

// String conversions
func (h Checksum) String() string    { return Hash(h).String() }
func (h Fingerprint) String() string { return Hash(h).String() }

// ComputeFingerprint derives a deterministic run fingerprint from the input
// checksum and the run parameters (sorted by key so map order cannot leak in).
func ComputeFingerprint(input Checksum, params map[string]string) Fingerprint {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(input.String())
	for _, key := range keys {
		data.WriteString("|")
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(params[key])
	}

	return Fingerprint(NewHash([]byte(data.String())))
}

// ComputeColumnsFingerprint fingerprints an ordered column selection.
func ComputeColumnsFingerprint(columns []string) Fingerprint {
	return Fingerprint(NewHash([]byte(fmt.Sprintf("%q", columns))))
}
