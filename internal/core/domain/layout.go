package domain

import "time"

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "tend.yaml"

	// DefaultSourceDir is the directory application sources live in.
	DefaultSourceDir = "app"

	// DefaultOutputDir is the directory every build artifact is written to.
	DefaultOutputDir = "dist"

	// DefaultPort is the port the development server listens on.
	DefaultPort = 8000

	// DefaultSettleWindow is the quiet period after a delete before rebuilding.
	DefaultSettleWindow = 500 * time.Millisecond

	// DefaultTarget is the task run when no target is named.
	DefaultTarget = "default"

	// ReservedTaskName cannot be used as a task name.
	ReservedTaskName = "all"

	// LiveReloadPath is the websocket endpoint browsers connect to for reloads.
	LiveReloadPath = "/__tend/livereload"

	// LiveReloadScriptPath serves the client script injected into HTML pages.
	LiveReloadScriptPath = "/__tend/livereload.js"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
