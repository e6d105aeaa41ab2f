package domain

import "strings"

// ValueKind discriminates the forms an evaluated value can take.
type ValueKind int

const (
	// ValueString is a plain string.
	ValueString ValueKind = iota

	// ValueAttrs is an attribute set. Only the child names are materialized;
	// the children themselves stay lazy until navigated into.
	ValueAttrs

	// ValuePackage is a resolved package reference.
	ValuePackage

	// ValueShell is a shell declaration whose build inputs have been forced.
	ValueShell
)

// Value is the result of forcing one output node. It is a tagged variant
// navigated explicitly, never through dynamic lookup.
type Value struct {
	Kind ValueKind

	// Str holds the string for ValueString.
	Str string

	// AttrNames lists the child names of a ValueAttrs in lexical order.
	AttrNames []string

	// Package holds the reference for ValuePackage.
	Package PackageReference

	// BuildInputs holds the forced build inputs of a ValueShell in
	// declaration order.
	BuildInputs []PackageReference
}

// PackageReference is an opaque handle to a buildable unit exposed by a
// resolved input.
type PackageReference struct {
	// Name is the package name (e.g., "hello").
	Name InternedString

	// AttrPath is the attribute path the package was looked up under.
	AttrPath string

	// Version is the version string declared by the repository, if any.
	Version string

	// InputName is the declared name of the input that exposes the package.
	InputName InternedString

	// InputFingerprint is the content fingerprint of the resolved input.
	InputFingerprint Fingerprint

	// InputLocator is the raw locator of the pinned input, for builders
	// that address packages through the input's source.
	InputLocator string

	// InputRevision is the exact revision of the pinned input.
	InputRevision string

	// BuildInputs are the names of the package's own declared build inputs.
	// The core treats them opaquely.
	BuildInputs []string
}

// Identity returns the deduplication identity of the reference: the same
// attribute path from the same pinned input is the same package.
func (r PackageReference) Identity() string {
	return string(r.InputFingerprint) + "#" + r.AttrPath
}

// EnvironmentDescriptor is the resolved set of package references and shell
// variables constituting one environment. It is created per assembly call
// and never cached across differing input sets.
type EnvironmentDescriptor struct {
	// ID is the deterministic identity of the resolved input set the
	// descriptor was assembled against.
	ID string

	// Packages are the deduplicated references in first-seen order.
	// Order carries variable precedence.
	Packages []PackageReference

	// Vars are the derived shell variables as sorted "KEY=VALUE" strings.
	Vars []string
}

// Var returns the value of a named variable and whether it is set.
func (d EnvironmentDescriptor) Var(key string) (string, bool) {
	prefix := key + "="
	for _, v := range d.Vars {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix), true
		}
	}
	return "", false
}
