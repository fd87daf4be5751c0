package gallery

import (
	"context"

	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/performances"
)

// Broadcaster fans an event out to every connected page. Satisfied by the
// stage hub.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Synchronizer subscribes to the performance live query and pushes the fully
// re-rendered gallery to every page on each snapshot.
type Synchronizer struct {
	source   performances.Source
	renderer *Renderer
	hub      Broadcaster
	logger   *zap.Logger
}

// NewSynchronizer creates a gallery synchronizer.
func NewSynchronizer(source performances.Source, renderer *Renderer, hub Broadcaster, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{source: source, renderer: renderer, hub: hub, logger: logger}
}

// Run consumes snapshots until ctx is done. The subscription stays live for
// the process lifetime; cancelling ctx releases it.
func (s *Synchronizer) Run(ctx context.Context) error {
	snapshots, err := s.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	for snap := range snapshots {
		clips := s.renderer.Render(snap)
		s.hub.Broadcast("gallery", clips)
		s.logger.Debug("gallery re-rendered", zap.Int("clips", len(clips)))
	}
	return ctx.Err()
}
