// Package registry implements the RepositoryQuerier port over the package
// index file a fetched input exposes.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// IndexFilename is the package index file looked up in a fetched source tree.
const IndexFilename = "packages.yaml"

// Querier implements ports.RepositoryQuerier by reading packages.yaml from
// the fetched source of an input. Parsed indexes are cached per fingerprint;
// a pinned input's index never changes.
type Querier struct {
	fetcher ports.Fetcher

	mu      sync.RWMutex
	indexes map[domain.Fingerprint]packageIndex
}

// NewQuerier creates a Querier that locates input sources through the fetcher.
func NewQuerier(fetcher ports.Fetcher) *Querier {
	return &Querier{
		fetcher: fetcher,
		indexes: make(map[domain.Fingerprint]packageIndex),
	}
}

// packageIndex is the parsed form of packages.yaml.
type packageIndex struct {
	Packages map[string]packageDTO `yaml:"packages"`
}

// packageDTO is one package entry of the index.
type packageDTO struct {
	Version     string   `yaml:"version"`
	BuildInputs []string `yaml:"buildInputs"`
}

// Lookup returns the package the input exposes under the attribute path.
func (q *Querier) Lookup(
	ctx context.Context,
	input domain.LockedReference,
	attrPath []string,
) (domain.PackageReference, bool, error) {
	index, err := q.loadIndex(ctx, input)
	if err != nil {
		return domain.PackageReference{}, false, err
	}

	joined := strings.Join(attrPath, ".")
	pkg, ok := index.Packages[joined]
	if !ok {
		return domain.PackageReference{}, false, nil
	}

	name := attrPath[len(attrPath)-1]
	return domain.PackageReference{
		Name:             domain.NewInternedString(name),
		AttrPath:         joined,
		Version:          pkg.Version,
		InputName:        input.Name,
		InputFingerprint: input.Fingerprint,
		InputLocator:     input.Locator,
		InputRevision:    input.Revision,
		BuildInputs:      pkg.BuildInputs,
	}, true, nil
}

// Attrs lists the attribute paths the input exposes.
func (q *Querier) Attrs(ctx context.Context, input domain.LockedReference) ([]string, error) {
	index, err := q.loadIndex(ctx, input)
	if err != nil {
		return nil, err
	}

	attrs := make([]string, 0, len(index.Packages))
	for attr := range index.Packages {
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (q *Querier) loadIndex(ctx context.Context, input domain.LockedReference) (packageIndex, error) {
	q.mu.RLock()
	index, ok := q.indexes[input.Fingerprint]
	q.mu.RUnlock()
	if ok {
		return index, nil
	}

	locator, err := domain.ParseLocator(input.Locator)
	if err != nil {
		return packageIndex{}, zerr.With(err, "input", input.Name.String())
	}

	// The fetch is pinned and memoized by the fetcher, so locating the
	// source tree of an already-resolved input is cheap.
	result, err := q.fetcher.Fetch(ctx, locator, input.Revision)
	if err != nil {
		fetchErr := zerr.Wrap(err, "failed to locate input source")
		return packageIndex{}, zerr.With(fetchErr, "input", input.Name.String())
	}

	path := filepath.Join(result.LocalPath, IndexFilename)
	data, err := os.ReadFile(path) //nolint:gosec // Path is within the fetch cache
	if err != nil {
		readErr := zerr.Wrap(err, "input exposes no package index")
		return packageIndex{}, zerr.With(readErr, "input", input.Name.String())
	}

	if err := yaml.Unmarshal(data, &index); err != nil {
		parseErr := zerr.Wrap(err, "malformed package index")
		return packageIndex{}, zerr.With(parseErr, "input", input.Name.String())
	}

	q.mu.Lock()
	q.indexes[input.Fingerprint] = index
	q.mu.Unlock()

	return index, nil
}
