package liveserver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/ports"
)

// NodeID is the unique identifier for the dev server Graft node.
const NodeID graft.ID = "adapter.liveserver"

func init() {
	graft.Register(graft.Node[ports.DevServer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.DevServer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewServer(log), nil
		},
	})
}
