package ports

import "context"

//go:generate mockgen -source=liveserver.go -destination=mocks/mock_liveserver.go -package=mocks

// LiveReloader notifies connected browsers about changed output files.
type LiveReloader interface {
	// Reload asks browsers to reload the page because paths changed.
	Reload(paths []string)
	// Inject pushes paths to browsers as in-place asset replacements.
	Inject(paths []string)
}

// DevServer serves the output directory over HTTP with live reload.
type DevServer interface {
	LiveReloader
	// Start binds the listener and serves dir in the background.
	// It returns once the server accepts connections.
	Start(ctx context.Context, dir string, port int) error
	// Addr returns the bound address, or an empty string before Start.
	Addr() string
	// Wait blocks until the server has shut down.
	Wait() error
}
