package domain

import "slices"

// LockRecordVersion is the current lock record format version.
const LockRecordVersion = 1

// LockedReference is a reproducible binding from an input name to an exact
// content revision of its source.
type LockedReference struct {
	// Name is the input name this reference pins.
	Name InternedString

	// Locator is the raw locator string the pin was created from.
	Locator string

	// Fingerprint is the deterministic content digest of the pinned source.
	Fingerprint Fingerprint

	// Revision is the exact resolved revision (e.g., a commit SHA).
	Revision string
}

// LockRecord is the complete set of pinned input references.
// It provides a reproducible snapshot of all inputs of a descriptor.
type LockRecord struct {
	// Version is the lock record format version.
	// This allows for future schema migrations and backward compatibility.
	Version int

	// Inputs maps input names to their pinned references.
	// A given name appears at most once.
	Inputs map[string]LockedReference
}

// NewLockRecord creates an empty lock record at the current format version.
func NewLockRecord() LockRecord {
	return LockRecord{
		Version: LockRecordVersion,
		Inputs:  make(map[string]LockedReference),
	}
}

// Lookup returns the pinned reference for an input name, if present.
func (r LockRecord) Lookup(name string) (LockedReference, bool) {
	ref, ok := r.Inputs[name]
	return ref, ok
}

// SortedNames returns the input names in lexical order.
// The persisted form uses this ordering so lock diffs stay readable.
func (r LockRecord) SortedNames() []string {
	names := make([]string, 0, len(r.Inputs))
	for name := range r.Inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
