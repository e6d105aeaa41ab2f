package resolve

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/adapters/fetch"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pin/adapters/lockfile" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pin/core/ports"
)

// NodeID is the unique identifier for the input resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fetch.NodeID,
			lockfile.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.LockStore](ctx)
			if err != nil {
				return nil, err
			}

			return New(fetcher, store), nil
		},
	})
}
