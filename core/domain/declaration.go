// Package domain contains the core domain models for input resolution,
// lazy output evaluation and environment assembly.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// LocatorType identifies the scheme of a source locator.
type LocatorType string

const (
	// LocatorGitHub is a "github:<owner>/<repo>[/<ref>]" locator.
	LocatorGitHub LocatorType = "github"

	// LocatorPath is a "path:<dir>" locator pointing at a local directory.
	LocatorPath LocatorType = "path"

	// LocatorTarball is a "tarball+https:<url>" locator pointing at an archive.
	LocatorTarball LocatorType = "tarball+https"
)

// Locator is a parsed source locator for an input.
type Locator struct {
	// Type is the locator scheme.
	Type LocatorType

	// Owner is the repository owner for github locators.
	Owner string

	// Repo is the repository name for github locators.
	Repo string

	// Ref is the optional branch, tag or commit the locator names.
	// An empty Ref is a floating reference to the default branch.
	Ref string

	// Target is the directory or URL for path and tarball locators.
	Target string
}

// ParseLocator parses a raw locator string into its structured form.
func ParseLocator(raw string) (Locator, error) {
	scheme, rest, found := strings.Cut(raw, ":")
	if !found || rest == "" {
		return Locator{}, WithDetail(ErrInvalidLocator, "locator", raw)
	}

	switch LocatorType(scheme) {
	case LocatorGitHub:
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Locator{}, WithDetail(ErrInvalidLocator, "locator", raw)
		}
		loc := Locator{Type: LocatorGitHub, Owner: parts[0], Repo: parts[1]}
		if len(parts) == 3 {
			loc.Ref = parts[2]
		}
		return loc, nil
	case LocatorPath:
		return Locator{Type: LocatorPath, Target: rest}, nil
	case LocatorTarball:
		return Locator{Type: LocatorTarball, Target: rest}, nil
	default:
		return Locator{}, zerr.With(WithDetail(ErrInvalidLocator, "locator", raw), "scheme", scheme)
	}
}

// String renders the locator back into its canonical raw form.
func (l Locator) String() string {
	switch l.Type {
	case LocatorGitHub:
		var builder strings.Builder
		builder.WriteString(string(LocatorGitHub))
		builder.WriteString(":")
		builder.WriteString(l.Owner)
		builder.WriteString("/")
		builder.WriteString(l.Repo)
		if l.Ref != "" {
			builder.WriteString("/")
			builder.WriteString(l.Ref)
		}
		return builder.String()
	default:
		return string(l.Type) + ":" + l.Target
	}
}

// IsPinned reports whether the locator deterministically names one revision.
// A 40-character hex ref is treated as a commit hash.
func (l Locator) IsPinned() bool {
	if l.Type != LocatorGitHub {
		return true
	}
	if len(l.Ref) != 40 {
		return false
	}
	for _, c := range l.Ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// InputDeclaration is a named, immutable declaration of an external source
// of package definitions, as written in the descriptor file.
type InputDeclaration struct {
	// Name is the unique input name (e.g., "nixpkgs").
	Name InternedString

	// Locator is the parsed source locator.
	Locator Locator

	// Follows optionally names another declaration whose resolved
	// reference this input reuses instead of fetching its own.
	Follows InternedString
}
