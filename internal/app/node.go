package app

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/threecrickets/resolve/internal/adapters/config"
	"github.com/threecrickets/resolve/internal/adapters/logger"
	"github.com/threecrickets/resolve/internal/adapters/notifier"
	"github.com/threecrickets/resolve/internal/adapters/state"
	"github.com/threecrickets/resolve/internal/core/ports"
)

// ComponentsNodeID identifies the Graft node that resolves Components.
const ComponentsNodeID graft.ID = "app.components"

// Components bundles the adapters that are independent of the run
// configuration being loaded, resolved once through Graft. The digest
// adapter is deliberately absent: its algorithm comes from the
// configuration Components.ConfigLoader loads, so it can only be built
// after that load, by the caller.
type Components struct {
	ConfigLoader ports.ConfigLoader
	Logger       ports.Logger
	State        ports.StateStore
	Notifier     ports.Notifier
}

func init() {
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			state.NodeID,
			notifier.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.StateStore](ctx)
	if err != nil {
		return nil, err
	}

	notif, err := graft.Dep[ports.Notifier](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		ConfigLoader: loader,
		Logger:       log,
		State:        store,
		Notifier:     notif,
	}, nil
}
