package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/pin/core/ports/mocks"
	"go.trai.ch/pin/engine/resolve"
	"go.uber.org/mock/gomock"
)

func mustLocator(t *testing.T, raw string) domain.Locator {
	t.Helper()
	loc, err := domain.ParseLocator(raw)
	require.NoError(t, err)
	return loc
}

func declaration(t *testing.T, name, locator string) domain.InputDeclaration {
	t.Helper()
	return domain.InputDeclaration{
		Name:    domain.NewInternedString(name),
		Locator: mustLocator(t, locator),
	}
}

func TestResolve_PinStability(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)
	// No Fetch expectation: a stable pin must not trigger any fetch.

	r := resolve.New(fetcher, store)

	existing := domain.NewLockRecord()
	existing.Inputs["nixpkgs"] = domain.LockedReference{
		Name:        domain.NewInternedString("nixpkgs"),
		Locator:     "github:NixOS/nixpkgs",
		Fingerprint: "aabbccddeeff0011",
		Revision:    "rev-1",
	}

	decl := declaration(t, "nixpkgs", "github:NixOS/nixpkgs")

	first, err := r.Resolve(context.Background(), decl, existing, resolve.ModeLocked)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), decl, existing, resolve.ModeLocked)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, existing.Inputs["nixpkgs"], first)
}

func TestResolve_LocatorChangeRepins(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), "").
		Return(ports.FetchResult{Revision: "rev-2", Fingerprint: "f2f2f2f2f2f2f2f2"}, nil)

	r := resolve.New(fetcher, store)

	existing := domain.NewLockRecord()
	existing.Inputs["nixpkgs"] = domain.LockedReference{
		Locator:  "github:NixOS/nixpkgs",
		Revision: "rev-1",
	}

	// Same name, different locator: the stale pin must not be reused.
	decl := declaration(t, "nixpkgs", "github:fork/nixpkgs")

	ref, err := r.Resolve(context.Background(), decl, existing, resolve.ModeUpdate)
	require.NoError(t, err)
	require.Equal(t, "rev-2", ref.Revision)
	require.Equal(t, "github:fork/nixpkgs", ref.Locator)
}

func TestResolve_LockedModeFloatingRefFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	r := resolve.New(fetcher, store)

	decl := declaration(t, "nixpkgs", "github:NixOS/nixpkgs/master")

	_, err := r.Resolve(context.Background(), decl, domain.NewLockRecord(), resolve.ModeLocked)
	require.ErrorIs(t, err, domain.ErrAmbiguousRevision)
}

func TestResolve_LockedModePinnedLocatorFetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	const rev = "0123456789abcdef0123456789abcdef01234567"
	fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), rev).
		Return(ports.FetchResult{Revision: rev, Fingerprint: "abcdefabcdefabcd"}, nil)

	r := resolve.New(fetcher, store)

	decl := declaration(t, "nixpkgs", "github:NixOS/nixpkgs/"+rev)

	ref, err := r.Resolve(context.Background(), decl, domain.NewLockRecord(), resolve.ModeLocked)
	require.NoError(t, err)
	require.Equal(t, rev, ref.Revision)
}

func TestResolve_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.FetchResult{}, errors.New("connection refused"))

	r := resolve.New(fetcher, store)

	decl := declaration(t, "nixpkgs", "github:NixOS/nixpkgs")

	_, err := r.Resolve(context.Background(), decl, domain.NewLockRecord(), resolve.ModeUpdate)
	require.Error(t, err)
	require.Contains(t, err.Error(), domain.ErrUnresolvableInput.Error())
}

func TestResolveAll_UpdateModeWritesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.FetchResult{Revision: "rev-a", Fingerprint: "aaaaaaaaaaaaaaaa"}, nil).
		Times(2)
	store.EXPECT().
		Write(gomock.Any()).
		DoAndReturn(func(record domain.LockRecord) error {
			require.Len(t, record.Inputs, 2)
			return nil
		}).
		Times(1)

	r := resolve.New(fetcher, store)

	desc := &domain.Descriptor{
		Inputs: map[string]domain.InputDeclaration{
			"nixpkgs": declaration(t, "nixpkgs", "github:NixOS/nixpkgs"),
			"utils":   declaration(t, "utils", "github:numtide/flake-utils"),
		},
	}

	record, err := r.ResolveAll(context.Background(), desc, domain.NewLockRecord(), resolve.ModeUpdate)
	require.NoError(t, err)
	require.Len(t, record.Inputs, 2)
}

func TestResolveAll_LockedModeNeverWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)
	// No Write expectation: locked mode must leave the store untouched,
	// even though every input resolves from its existing pin.

	r := resolve.New(fetcher, store)

	existing := domain.NewLockRecord()
	existing.Inputs["nixpkgs"] = domain.LockedReference{
		Name:        domain.NewInternedString("nixpkgs"),
		Locator:     "github:NixOS/nixpkgs",
		Fingerprint: "aabbccddeeff0011",
		Revision:    "rev-1",
	}

	desc := &domain.Descriptor{
		Inputs: map[string]domain.InputDeclaration{
			"nixpkgs": declaration(t, "nixpkgs", "github:NixOS/nixpkgs"),
		},
	}

	record, err := r.ResolveAll(context.Background(), desc, existing, resolve.ModeLocked)
	require.NoError(t, err)
	require.Equal(t, existing.Inputs["nixpkgs"], record.Inputs["nixpkgs"])
}

func TestResolveAll_Follows(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := mocks.NewMockLockStore(ctrl)

	fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.FetchResult{Revision: "rev-a", Fingerprint: "aaaaaaaaaaaaaaaa"}, nil).
		Times(1)
	store.EXPECT().Write(gomock.Any()).Return(nil)

	r := resolve.New(fetcher, store)

	desc := &domain.Descriptor{
		Inputs: map[string]domain.InputDeclaration{
			"nixpkgs": declaration(t, "nixpkgs", "github:NixOS/nixpkgs"),
			"pkgs": {
				Name:    domain.NewInternedString("pkgs"),
				Follows: domain.NewInternedString("nixpkgs"),
			},
		},
	}

	record, err := r.ResolveAll(context.Background(), desc, domain.NewLockRecord(), resolve.ModeUpdate)
	require.NoError(t, err)
	require.Len(t, record.Inputs, 2)

	follower := record.Inputs["pkgs"]
	target := record.Inputs["nixpkgs"]
	require.Equal(t, target.Fingerprint, follower.Fingerprint)
	require.Equal(t, target.Revision, follower.Revision)
	require.Equal(t, "pkgs", follower.Name.String())
}
