// Package nixcli implements the Builder port by shelling out to the Nix CLI.
package nixcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/zerr"
)

// Builder implements ports.Builder using `nix build`.
type Builder struct{}

// NewBuilder creates a Builder backed by the Nix CLI.
func NewBuilder() *Builder {
	return &Builder{}
}

// buildResults models the JSON output of `nix build --json`.
type buildResults []struct {
	Outputs map[string]string `json:"outputs"`
}

// Build realizes the reference in the Nix store and returns its store paths.
func (b *Builder) Build(ctx context.Context, ref domain.PackageReference) ([]string, error) {
	flakeRef, err := flakeRefFor(ref)
	if err != nil {
		return nil, err
	}

	// --no-link avoids creating result symlinks in the working directory.
	//nolint:gosec // flakeRef is constructed from a validated locked reference
	cmd := exec.CommandContext(ctx, "nix", "build", "--json", "--no-link", flakeRef)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			buildErr := zerr.Wrap(exitErr, domain.ErrUnbuildableReference.Error())
			buildErr = zerr.With(buildErr, "package", ref.Name.String())
			return nil, zerr.With(buildErr, "stderr", stderr)
		}
		buildErr := zerr.Wrap(err, domain.ErrUnbuildableReference.Error())
		return nil, zerr.With(buildErr, "package", ref.Name.String())
	}

	return storePathsFromOutput(output, ref.Name.String())
}

// storePathsFromOutput extracts the store paths from `nix build --json`
// output, ordered by output name so repeated builds assemble identical
// environments.
func storePathsFromOutput(output []byte, pkg string) ([]string, error) {
	var results buildResults
	if err := json.Unmarshal(output, &results); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse nix build JSON output")
		return nil, zerr.With(parseErr, "package", pkg)
	}
	if len(results) == 0 {
		emptyErr := domain.WithDetail(domain.ErrUnbuildableReference, "package", pkg)
		return nil, zerr.With(emptyErr, "reason", "empty build results from nix build")
	}

	names := make([]string, 0, len(results[0].Outputs))
	for name := range results[0].Outputs {
		names = append(names, name)
	}
	slices.Sort(names)

	var storePaths []string
	for _, name := range names {
		if path := results[0].Outputs[name]; path != "" {
			storePaths = append(storePaths, path)
		}
	}
	if len(storePaths) == 0 {
		emptyErr := domain.WithDetail(domain.ErrUnbuildableReference, "package", pkg)
		return nil, zerr.With(emptyErr, "reason", "no outputs found in build results")
	}

	return storePaths, nil
}

// flakeRefFor renders the locked reference as a flake installable,
// e.g. "github:NixOS/nixpkgs/<rev>#hello".
func flakeRefFor(ref domain.PackageReference) (string, error) {
	locator, err := domain.ParseLocator(ref.InputLocator)
	if err != nil {
		return "", zerr.With(err, "package", ref.Name.String())
	}
	if locator.Type != domain.LocatorGitHub {
		err := zerr.New("nix builder supports only github inputs")
		return "", zerr.With(err, "locator", ref.InputLocator)
	}

	return fmt.Sprintf("github:%s/%s/%s#%s", locator.Owner, locator.Repo, ref.InputRevision, ref.AttrPath), nil
}
