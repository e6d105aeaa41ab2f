package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/adapters/descriptor" //nolint:depguard // Wired in app layer
	"go.trai.ch/pin/adapters/lockfile"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pin/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/pin/adapters/registry"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pin/adapters/telemetry"  //nolint:depguard // Wired in app layer
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/pin/engine/assemble"
	"go.trai.ch/pin/engine/resolve"
)

// NodeID is the unique identifier for the main App Graft node.
const NodeID graft.ID = "app.main"

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			descriptor.NodeID,
			lockfile.NodeID,
			resolve.NodeID,
			registry.NodeID,
			assemble.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.DescriptorLoader](ctx)
			if err != nil {
				return nil, err
			}

			lockStore, err := graft.Dep[ports.LockStore](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[*resolve.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			querier, err := graft.Dep[ports.RepositoryQuerier](ctx)
			if err != nil {
				return nil, err
			}

			assembler, err := graft.Dep[*assemble.Assembler](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, lockStore, resolver, querier, assembler, tracer, log), nil
		},
	})
}
