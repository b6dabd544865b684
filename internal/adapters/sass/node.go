package sass

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/ports"
)

// NodeID is the unique identifier for the Sass compiler Graft node.
const NodeID graft.ID = "adapter.sass"

func init() {
	graft.Register(graft.Node[ports.StyleCompiler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.StyleCompiler, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewCompiler(DefaultBinary, log), nil
		},
	})
}
