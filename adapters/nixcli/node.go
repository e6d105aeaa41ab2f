package nixcli

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/core/ports"
)

// NodeID is the unique identifier for the nix builder adapter Graft node.
const NodeID graft.ID = "adapter.nix_builder"

func init() {
	graft.Register(graft.Node[ports.Builder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Builder, error) {
			return NewBuilder(), nil
		},
	})
}
