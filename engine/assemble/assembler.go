// Package assemble implements the environment assembler: it turns an ordered
// list of package references into a shell environment descriptor.
package assemble

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/zerr"
)

// Assembler realizes package references through a Builder and derives the
// shell variables of the resulting environment.
type Assembler struct {
	builder ports.Builder
}

// New creates a new Assembler.
func New(builder ports.Builder) *Assembler {
	return &Assembler{builder: builder}
}

// Assemble produces an environment descriptor for the given references.
//
// References are deduplicated by identity while preserving first-seen order;
// order carries variable precedence, so the first occurrence wins. A
// reference the builder cannot realize fails the whole assembly: that is a
// declaration error, not a transient condition, and is not retried.
func (a *Assembler) Assemble(
	ctx context.Context,
	envID string,
	refs []domain.PackageReference,
) (domain.EnvironmentDescriptor, error) {
	unique := dedupe(refs)

	var pathEntries []string
	for _, ref := range unique {
		storePaths, err := a.builder.Build(ctx, ref)
		if err != nil {
			buildErr := zerr.Wrap(err, domain.ErrUnbuildableReference.Error())
			buildErr = zerr.With(buildErr, "package", ref.Name.String())
			return domain.EnvironmentDescriptor{}, zerr.With(buildErr, "attr_path", ref.AttrPath)
		}
		for _, storePath := range storePaths {
			pathEntries = append(pathEntries, filepath.Join(storePath, "bin"))
		}
	}

	names := make([]string, 0, len(unique))
	for _, ref := range unique {
		names = append(names, ref.Name.String())
	}

	vars := []string{
		"PIN_ENV_ID=" + envID,
		"PIN_PACKAGES=" + strings.Join(names, " "),
	}
	if len(pathEntries) > 0 {
		vars = append(vars, "PATH="+strings.Join(pathEntries, string(filepath.ListSeparator)))
	}
	slices.Sort(vars)

	return domain.EnvironmentDescriptor{
		ID:       envID,
		Packages: unique,
		Vars:     vars,
	}, nil
}

// dedupe removes duplicate references by identity, keeping first-seen order.
func dedupe(refs []domain.PackageReference) []domain.PackageReference {
	seen := make(map[string]bool, len(refs))
	unique := make([]domain.PackageReference, 0, len(refs))
	for _, ref := range refs {
		id := ref.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, ref)
	}
	return unique
}
