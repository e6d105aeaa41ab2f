package assemble

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pin/adapters/nixcli" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pin/core/ports"
)

// NodeID is the unique identifier for the environment assembler Graft node.
const NodeID graft.ID = "engine.assembler"

func init() {
	graft.Register(graft.Node[*Assembler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			nixcli.NodeID,
		},
		Run: func(ctx context.Context) (*Assembler, error) {
			builder, err := graft.Dep[ports.Builder](ctx)
			if err != nil {
				return nil, err
			}

			return New(builder), nil
		},
	})
}
