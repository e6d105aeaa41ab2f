package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pin/adapters/descriptor"
	"go.trai.ch/pin/adapters/lockfile"
	"go.trai.ch/pin/adapters/registry"
	"go.trai.ch/pin/adapters/telemetry"
	"go.trai.ch/pin/app"
	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/pin/core/ports/mocks"
	"go.trai.ch/pin/engine/assemble"
	"go.trai.ch/pin/engine/resolve"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const testDescriptor = `
version: "1"
inputs:
  pkgs: path:%s
outputs:
  devShells:
    test-system:
      default:
        shell:
          buildInputs:
            - pkgs#hello
  packages:
    hello: pkgs#hello
`

const testIndex = `
packages:
  hello:
    version: "2.12"
`

// localFetcher serves path locators directly and counts every fetch.
type localFetcher struct {
	calls atomic.Int64
}

func (f *localFetcher) Fetch(
	_ context.Context,
	locator domain.Locator,
	_ string,
) (ports.FetchResult, error) {
	f.calls.Add(1)
	revision, err := hashSource(locator.Target)
	if err != nil {
		return ports.FetchResult{}, err
	}
	return ports.FetchResult{
		Revision:    revision,
		Fingerprint: domain.ComputeFingerprint(locator, revision, nil),
		LocalPath:   locator.Target,
	}, nil
}

func hashSource(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, registry.IndexFilename))
	if err != nil {
		return "", err
	}
	return string(domain.ComputeFingerprint(domain.Locator{}, "", data)), nil
}

type fixture struct {
	app     *app.App
	fetcher *localFetcher
	builder *mocks.MockBuilder
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(source, registry.IndexFilename), []byte(testIndex), 0o644))

	dir := t.TempDir()
	content := strings.ReplaceAll(testDescriptor, "%s", source)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, descriptor.DefaultFilename), []byte(content), 0o644))

	ctrl := gomock.NewController(t)
	builder := mocks.NewMockBuilder(ctrl)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	fetcher := &localFetcher{}
	store := lockfile.NewStore(filepath.Join(dir, lockfile.DefaultFilename))

	return &fixture{
		app: app.New(
			descriptor.NewLoader(),
			store,
			resolve.New(fetcher, store),
			registry.NewQuerier(fetcher),
			assemble.New(builder),
			telemetry.NewNoOpTracer(),
			log,
		),
		fetcher: fetcher,
		builder: builder,
		dir:     dir,
	}
}

var shellPath = []string{"devShells", "test-system", "default"}

func TestEnter_HelloEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.builder.EXPECT().
		Build(gomock.Any(), gomock.Any()).
		Return([]string{"/nix/store/abc-hello-2.12"}, nil).
		Times(2)

	// First run pins fresh and persists the lock record.
	first, err := f.app.Enter(context.Background(), f.dir, shellPath)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	path, ok := first.Var("PATH")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/nix/store/abc-hello-2.12", "bin"), path)

	pkgs, ok := first.Var("PIN_PACKAGES")
	require.True(t, ok)
	require.Equal(t, "hello", pkgs)

	_, err = os.Stat(filepath.Join(f.dir, lockfile.DefaultFilename))
	require.NoError(t, err, "first run must create the lock file")

	fetchesAfterFirstRun := f.fetcher.calls.Load()

	// Second run reuses the pins verbatim: no input is fetched again and the
	// assembled environment is identical.
	second, err := f.app.Enter(context.Background(), f.dir, shellPath)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, fetchesAfterFirstRun, f.fetcher.calls.Load())
}

func TestEnter_PackageOutput(t *testing.T) {
	f := newFixture(t)
	f.builder.EXPECT().
		Build(gomock.Any(), gomock.Any()).
		Return([]string{"/nix/store/abc-hello-2.12"}, nil)

	env, err := f.app.Enter(context.Background(), f.dir, []string{"packages", "hello"})
	require.NoError(t, err)
	require.Len(t, env.Packages, 1)
	require.Equal(t, "hello", env.Packages[0].Name.String())
}

func TestEnter_NonBuildableOutput(t *testing.T) {
	f := newFixture(t)
	// No Build expectation: an attribute set cannot be entered.

	_, err := f.app.Enter(context.Background(), f.dir, []string{"devShells"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a shell or package")
}

func TestShow_DoesNotBuild(t *testing.T) {
	f := newFixture(t)
	// No Build expectation: showing a value never touches the builder.

	value, err := f.app.Show(context.Background(), f.dir, shellPath)
	require.NoError(t, err)
	require.Equal(t, domain.ValueShell, value.Kind)
	require.Len(t, value.BuildInputs, 1)
	require.Equal(t, "2.12", value.BuildInputs[0].Version)
}

func TestShow_MissingKeyNamesSiblings(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Show(context.Background(), f.dir, []string{"devShells", "other-system", "default"})
	require.ErrorIs(t, err, domain.ErrMissingOutput)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	meta := zErr.Metadata()
	require.Equal(t, "other-system", meta["segment"])
	require.Equal(t, "test-system", meta["available"])
}

func TestLock_PersistsRecord(t *testing.T) {
	f := newFixture(t)

	record, err := f.app.Lock(context.Background(), f.dir)
	require.NoError(t, err)

	ref, ok := record.Lookup("pkgs")
	require.True(t, ok)
	require.NotEmpty(t, ref.Revision)
	require.NotEmpty(t, ref.Fingerprint)

	// The persisted record round-trips through the store.
	persisted, found, err := lockfile.NewStore(filepath.Join(f.dir, lockfile.DefaultFilename)).Read()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ref.Revision, persisted.Inputs["pkgs"].Revision)
}

func TestLock_PinStability(t *testing.T) {
	f := newFixture(t)

	before, err := f.app.Lock(context.Background(), f.dir)
	require.NoError(t, err)

	// An existing pin with an unchanged locator is kept verbatim, even when
	// the source content has moved on.
	desc, err := descriptor.NewLoader().Load(f.dir)
	require.NoError(t, err)
	source := desc.Inputs["pkgs"].Locator.Target
	require.NoError(t, os.WriteFile(
		filepath.Join(source, registry.IndexFilename),
		[]byte(testIndex+"  cowsay:\n    version: \"3.04\"\n"), 0o644))

	after, err := f.app.Lock(context.Background(), f.dir)
	require.NoError(t, err)
	require.Equal(t, before.Inputs["pkgs"].Revision, after.Inputs["pkgs"].Revision)
	require.Equal(t, before.Inputs["pkgs"].Fingerprint, after.Inputs["pkgs"].Fingerprint)
}
