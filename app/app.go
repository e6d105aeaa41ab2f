// Package app implements the application layer tying resolution, evaluation
// and assembly together.
package app

import (
	"context"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/pin/engine/assemble"
	"go.trai.ch/pin/engine/eval"
	"go.trai.ch/pin/engine/resolve"
	"go.trai.ch/zerr"
)

// App is the facade over the resolution and evaluation kernel.
type App struct {
	loader    ports.DescriptorLoader
	lockStore ports.LockStore
	resolver  *resolve.Resolver
	querier   ports.RepositoryQuerier
	assembler *assemble.Assembler
	tracer    ports.Tracer
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.DescriptorLoader,
	lockStore ports.LockStore,
	resolver *resolve.Resolver,
	querier ports.RepositoryQuerier,
	assembler *assemble.Assembler,
	tracer ports.Tracer,
	logger ports.Logger,
) *App {
	return &App{
		loader:    loader,
		lockStore: lockStore,
		resolver:  resolver,
		querier:   querier,
		assembler: assembler,
		tracer:    tracer,
		logger:    logger,
	}
}

// Lock re-pins every declared input and persists the merged lock record.
func (a *App) Lock(ctx context.Context, dir string) (domain.LockRecord, error) {
	desc, err := a.loader.Load(dir)
	if err != nil {
		return domain.LockRecord{}, zerr.Wrap(err, "failed to load descriptor")
	}

	existing, _, err := a.lockStore.Read()
	if err != nil {
		return domain.LockRecord{}, err
	}

	a.tracer.EmitPlan(ctx, desc.InputNames())
	ctx, span := a.tracer.Start(ctx, "resolve")
	defer span.End()

	record, err := a.resolver.ResolveAll(ctx, desc, existing, resolve.ModeUpdate)
	if err != nil {
		span.RecordError(err)
		return domain.LockRecord{}, err
	}

	a.logger.Info("lock record updated")
	return record, nil
}

// Show evaluates the output named by keyPath and returns its value without
// assembling an environment. An empty keyPath defaults to the dev shell of
// the current system.
func (a *App) Show(ctx context.Context, dir string, keyPath []string) (domain.Value, error) {
	_, value, err := a.evaluate(ctx, dir, keyPath)
	return value, err
}

// Enter evaluates the dev shell named by keyPath and assembles its
// environment descriptor.
//
// With an existing lock the run is fully reproducible: pins are reused
// verbatim and the lock store is never written. Without one, declarations
// are pinned fresh and the new record is persisted.
func (a *App) Enter(ctx context.Context, dir string, keyPath []string) (domain.EnvironmentDescriptor, error) {
	evaluator, value, err := a.evaluate(ctx, dir, keyPath)
	if err != nil {
		return domain.EnvironmentDescriptor{}, err
	}

	var refs []domain.PackageReference
	switch value.Kind {
	case domain.ValueShell:
		refs = value.BuildInputs
	case domain.ValuePackage:
		refs = []domain.PackageReference{value.Package}
	default:
		return domain.EnvironmentDescriptor{}, zerr.New("output is not a shell or package")
	}

	ctx, span := a.tracer.Start(ctx, "assemble")
	defer span.End()

	descriptor, err := a.assembler.Assemble(ctx, evaluator.ID(), refs)
	if err != nil {
		span.RecordError(err)
		return domain.EnvironmentDescriptor{}, err
	}

	return descriptor, nil
}

func (a *App) evaluate(
	ctx context.Context,
	dir string,
	keyPath []string,
) (*eval.Evaluator, domain.Value, error) {
	desc, err := a.loader.Load(dir)
	if err != nil {
		return nil, domain.Value{}, zerr.Wrap(err, "failed to load descriptor")
	}

	existing, found, err := a.lockStore.Read()
	if err != nil {
		return nil, domain.Value{}, err
	}

	mode := resolve.ModeLocked
	if !found {
		// First run: nothing is pinned yet, so create and persist the pins.
		mode = resolve.ModeUpdate
	}

	a.tracer.EmitPlan(ctx, desc.InputNames())
	ctx, span := a.tracer.Start(ctx, "resolve")
	record, err := a.resolver.ResolveAll(ctx, desc, existing, mode)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, domain.Value{}, err
	}
	span.End()

	if len(keyPath) == 0 {
		keyPath = []string{"devShells", CurrentSystem(), "default"}
	}

	ctx, span = a.tracer.Start(ctx, "evaluate")
	defer span.End()
	span.SetAttribute("key_path", keyPath)

	evaluator := eval.New(desc.Outputs, record, a.querier)
	value, err := evaluator.Evaluate(ctx, keyPath)
	if err != nil {
		span.RecordError(err)
		return nil, domain.Value{}, err
	}

	return evaluator, value, nil
}
