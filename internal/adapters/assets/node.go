package assets

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/esbuild"
	"go.trai.ch/tend/internal/adapters/fs"
	"go.trai.ch/tend/internal/adapters/liveserver"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/adapters/sass"
	"go.trai.ch/tend/internal/core/ports"
)

// NodeID is the unique identifier for the asset executor Graft node.
const NodeID graft.ID = "adapter.assets"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ResolverNodeID,
			fs.HasherNodeID,
			sass.NodeID,
			esbuild.PrefixerNodeID,
			esbuild.BundlerNodeID,
			liveserver.NodeID,
			logger.NodeID,
		},
		Run: runNode,
	})
}

func runNode(ctx context.Context) (ports.Executor, error) {
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	styles, err := graft.Dep[ports.StyleCompiler](ctx)
	if err != nil {
		return nil, err
	}

	prefixer, err := graft.Dep[ports.Prefixer](ctx)
	if err != nil {
		return nil, err
	}

	bundler, err := graft.Dep[ports.Bundler](ctx)
	if err != nil {
		return nil, err
	}

	server, err := graft.Dep[ports.DevServer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return NewExecutor(resolver, hasher, styles, prefixer, bundler, server, log), nil
}
