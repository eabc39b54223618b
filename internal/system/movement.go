package system

import (
	"time"

	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/world"
)

// MovementSystem integrates velocity into position and applies damping.
// Phase 2 (Update), after input set velocities and before collision.
type MovementSystem struct {
	world *world.World
}

func NewMovementSystem(w *world.World) *MovementSystem {
	return &MovementSystem{world: w}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	for _, e := range s.world.DynamicEntities() {
		e.Pos = e.Pos.Add(e.Vel.Scale(secs))
		if e.Damping > 0 {
			e.Vel = e.Vel.Scale(1 - e.Damping)
			if abs(e.Vel.X) < stopEpsilon {
				e.Vel.X = 0
			}
			if abs(e.Vel.Y) < stopEpsilon {
				e.Vel.Y = 0
			}
		}
	}
}

const stopEpsilon = 1e-3

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
