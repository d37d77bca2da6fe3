package state

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/threecrickets/resolve/internal/core/ports"
)

const NodeID graft.ID = "adapter.state_store"

func init() {
	graft.Register(graft.Node[ports.StateStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StateStore, error) {
			return New(), nil
		},
	})
}
