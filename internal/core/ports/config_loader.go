package ports

import "go.trai.ch/tend/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the configuration file by walking up from cwd and returns
	// the resolved project. Built-in defaults are used when no file exists.
	Load(cwd string) (*domain.Project, error)

	// LoadFile reads the configuration at path. The file must exist.
	LoadFile(path string) (*domain.Project, error)

	// DiscoverRoot walks up from cwd to find the directory holding tend.yaml.
	// It returns cwd itself when no configuration file exists.
	DiscoverRoot(cwd string) (string, error)
}
