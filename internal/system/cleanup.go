package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/world"
)

// CleanupSystem queues dead non-player entities and flushes the removal
// queue at tick end. Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.World
	log   *zap.Logger
}

func NewCleanupSystem(w *world.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: w, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, e := range s.world.DynamicEntities() {
		if !e.Alive() {
			s.world.QueueRemoval(e)
		}
	}
	if n := s.world.FlushRemovals(); n > 0 {
		s.log.Debug("removed dynamic entities", zap.Int("count", n))
	}
}
