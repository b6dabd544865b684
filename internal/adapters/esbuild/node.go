package esbuild

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/core/ports"
)

const (
	// BundlerNodeID is the unique identifier for the bundler Graft node.
	BundlerNodeID graft.ID = "adapter.esbuild.bundler"
	// PrefixerNodeID is the unique identifier for the prefixer Graft node.
	PrefixerNodeID graft.ID = "adapter.esbuild.prefixer"
)

func init() {
	graft.Register(graft.Node[ports.Bundler]{
		ID:        BundlerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Bundler, error) {
			return NewBundler(), nil
		},
	})

	graft.Register(graft.Node[ports.Prefixer]{
		ID:        PrefixerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Prefixer, error) {
			return NewPrefixer(), nil
		},
	})
}
