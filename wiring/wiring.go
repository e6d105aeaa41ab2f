// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pin/adapters/descriptor"
	_ "go.trai.ch/pin/adapters/fetch"
	_ "go.trai.ch/pin/adapters/lockfile"
	_ "go.trai.ch/pin/adapters/logger"
	_ "go.trai.ch/pin/adapters/nixcli"
	_ "go.trai.ch/pin/adapters/registry"
	_ "go.trai.ch/pin/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/pin/app"
	_ "go.trai.ch/pin/engine/assemble"
	_ "go.trai.ch/pin/engine/resolve"
)
