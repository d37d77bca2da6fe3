// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes. digest has none: its algorithm comes from
	// the run configuration, so it is never a cacheable graft singleton
	// and is built directly after the configuration loads.
	_ "github.com/threecrickets/resolve/internal/adapters/config"
	_ "github.com/threecrickets/resolve/internal/adapters/logger"
	_ "github.com/threecrickets/resolve/internal/adapters/notifier"
	_ "github.com/threecrickets/resolve/internal/adapters/state"
)
