package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/adapters/fetch"
	"go.trai.ch/pin/core/ports"
)

// NodeID is the unique identifier for the repository querier adapter Graft node.
const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.RepositoryQuerier]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fetch.NodeID},
		Run: func(ctx context.Context) (ports.RepositoryQuerier, error) {
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			return NewQuerier(fetcher), nil
		},
	})
}
