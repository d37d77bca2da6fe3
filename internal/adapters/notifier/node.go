package notifier

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/vito/progrock"

	"github.com/threecrickets/resolve/internal/core/ports"
)

const NodeID graft.ID = "adapter.notifier"

func init() {
	graft.Register(graft.Node[ports.Notifier]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Notifier, error) {
			return New(progrock.NewTape()), nil
		},
	})
}
