// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tend/internal/adapters/assets"
	_ "go.trai.ch/tend/internal/adapters/config"
	_ "go.trai.ch/tend/internal/adapters/esbuild"
	_ "go.trai.ch/tend/internal/adapters/fs"
	_ "go.trai.ch/tend/internal/adapters/linear"
	_ "go.trai.ch/tend/internal/adapters/liveserver"
	_ "go.trai.ch/tend/internal/adapters/logger"
	_ "go.trai.ch/tend/internal/adapters/sass"
	_ "go.trai.ch/tend/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/tend/internal/app"
	_ "go.trai.ch/tend/internal/engine/dispatcher"
)
