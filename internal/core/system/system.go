package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: drain intent queue, set velocities, gate placements
	PhasePreUpdate              // 1: deliver last tick's notifications
	PhaseUpdate                 // 2: integrate velocity into position
	PhaseCollision              // 3: resolve overlaps before anything reads positions
	PhaseOutput                 // 4: build observer frames
	PhaseCleanup                // 5: remove queued dynamic entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "collision", "output", "cleanup"}

func (p Phase) String() string {
	if p < PhaseInput || p > PhaseCleanup {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
