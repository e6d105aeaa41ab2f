// Package resolve implements the input resolver: it turns symbolic input
// declarations into pinned, reproducible locked references.
package resolve

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Mode selects how the resolver treats missing or stale pins.
type Mode int

const (
	// ModeLocked reproduces an existing lock: no re-pinning, no lock writes.
	// A floating locator without a lock entry fails instead of being pinned.
	ModeLocked Mode = iota

	// ModeUpdate re-pins declarations whose lock entry is missing or stale
	// and persists the merged record once resolution completes.
	ModeUpdate
)

// Resolver implements input resolution against a Fetcher and a LockStore.
type Resolver struct {
	fetcher ports.Fetcher
	store   ports.LockStore
}

// New creates a new Resolver.
func New(fetcher ports.Fetcher, store ports.LockStore) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		store:   store,
	}
}

// Resolve turns one declaration into a locked reference.
//
// Pin stability: when the existing record pins this name and the declared
// locator is unchanged, the existing reference is returned verbatim and no
// fetch happens. This holds in every mode.
func (r *Resolver) Resolve(
	ctx context.Context,
	decl domain.InputDeclaration,
	existing domain.LockRecord,
	mode Mode,
) (domain.LockedReference, error) {
	name := decl.Name.String()

	if ref, ok := existing.Lookup(name); ok && ref.Locator == decl.Locator.String() {
		return ref, nil
	}

	if mode == ModeLocked && !decl.Locator.IsPinned() {
		err := domain.WithDetail(domain.ErrAmbiguousRevision, "input", name)
		return domain.LockedReference{}, zerr.With(err, "locator", decl.Locator.String())
	}

	pinnedRev := ""
	if decl.Locator.IsPinned() && decl.Locator.Type == domain.LocatorGitHub {
		pinnedRev = decl.Locator.Ref
	}

	result, err := r.fetcher.Fetch(ctx, decl.Locator, pinnedRev)
	if err != nil {
		if errors.Is(err, domain.ErrAmbiguousRevision) {
			return domain.LockedReference{}, zerr.With(err, "input", name)
		}
		fetchErr := zerr.Wrap(err, domain.ErrUnresolvableInput.Error())
		fetchErr = zerr.With(fetchErr, "input", name)
		return domain.LockedReference{}, zerr.With(fetchErr, "locator", decl.Locator.String())
	}

	return domain.LockedReference{
		Name:        decl.Name,
		Locator:     decl.Locator.String(),
		Fingerprint: result.Fingerprint,
		Revision:    result.Revision,
	}, nil
}

// ResolveAll resolves every declared input of the descriptor.
//
// Independent inputs are fetched in parallel; results are merged into a fresh
// record under a single lock. In ModeUpdate the merged record is written to
// the lock store exactly once after the whole group succeeds, so the store is
// never partially updated. In ModeLocked the store is never written.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	desc *domain.Descriptor,
	existing domain.LockRecord,
	mode Mode,
) (domain.LockRecord, error) {
	record := domain.NewLockRecord()

	var mu sync.Mutex
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, decl := range desc.Declarations() {
		if decl.Follows.String() != "" {
			continue // filled in from the resolved target below
		}
		g.Go(func() error {
			ref, err := r.Resolve(groupCtx, decl, existing, mode)
			if err != nil {
				return err
			}
			mu.Lock()
			record.Inputs[decl.Name.String()] = ref
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.LockRecord{}, err
	}

	for _, decl := range desc.Declarations() {
		target := decl.Follows.String()
		if target == "" {
			continue
		}
		ref, ok := record.Lookup(target)
		if !ok {
			err := domain.WithDetail(domain.ErrUnknownInput, "input", decl.Name.String())
			return domain.LockRecord{}, zerr.With(err, "follows", target)
		}
		ref.Name = decl.Name
		record.Inputs[decl.Name.String()] = ref
	}

	if mode == ModeUpdate {
		if err := r.store.Write(record); err != nil {
			return domain.LockRecord{}, zerr.Wrap(err, "failed to persist lock record")
		}
	}

	return record, nil
}
