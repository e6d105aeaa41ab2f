package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a deterministic content digest, rendered as 16 hex characters.
type Fingerprint string

// ComputeFingerprint derives a content fingerprint from a locator, a resolved
// revision and the fetched content bytes. The same triple always yields the
// same fingerprint.
func ComputeFingerprint(locator Locator, revision string, content []byte) Fingerprint {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(locator.String())
	_, _ = hasher.Write([]byte{0}) // Separator
	_, _ = hasher.WriteString(revision)
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write(content)

	return Fingerprint(fmt.Sprintf("%016x", hasher.Sum64()))
}

// EnvironmentID creates a deterministic identity for a resolved input set.
// It is used to key evaluation caches and environment descriptors.
func EnvironmentID(refs map[string]LockedReference) string {
	// Sort names for deterministic ordering
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	slices.Sort(names)

	var builder strings.Builder
	for _, name := range names {
		builder.WriteString(name)
		builder.WriteString(":")
		builder.WriteString(string(refs[name].Fingerprint))
		builder.WriteString(";")
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(builder.String()))
}
