package fetch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/core/ports"
)

// NodeID is the unique identifier for the fetcher adapter Graft node.
const NodeID graft.ID = "adapter.fetcher"

func init() {
	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Fetcher, error) {
			fetcher, err := NewFetcher()
			if err != nil {
				return nil, err
			}
			return fetcher, nil
		},
	})
}
