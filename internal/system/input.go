package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/observerproto"
	"github.com/dungeoncrawler/server/internal/world"
)

// IntentKind enumerates what an input collaborator can ask of the player.
type IntentKind uint8

const (
	IntentMove  IntentKind = iota // set velocity along non-zero axes of (DX, DY)
	IntentStop                    // zero velocity
	IntentPlace                   // place Kind at Pos
	IntentBreak                   // break whatever is at Pos
	IntentUse                     // place Kind if Pos is empty, otherwise break
)

// Intent is one input request, already converted to world space.
type Intent struct {
	Kind     IntentKind
	DX, DY   float64
	Pos      world.Position
	KindName string
}

// KindLookup resolves a kind name to its shared descriptor.
type KindLookup interface {
	Kind(name string) *world.GameEntity
}

// InputSystem drains the intent queue and applies intents to the player.
// Submit may be called from any goroutine; Update runs on the game loop.
// Phase 0 (Input).
type InputSystem struct {
	world      *world.World
	kinds      KindLookup
	queue      chan Intent
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(w *world.World, kinds KindLookup, queueSize, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		world:      w,
		kinds:      kinds,
		queue:      make(chan Intent, queueSize),
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Submit enqueues an intent. It returns false when the queue is full.
func (s *InputSystem) Submit(in Intent) bool {
	select {
	case s.queue <- in:
		return true
	default:
		return false
	}
}

// SubmitCommand converts an observer command into an intent and enqueues it.
func (s *InputSystem) SubmitCommand(cmd observerproto.CommandMsg) bool {
	in := Intent{DX: cmd.DX, DY: cmd.DY, Pos: world.Position{X: cmd.X, Y: cmd.Y}, KindName: cmd.Kind}
	switch cmd.Action {
	case "move":
		in.Kind = IntentMove
	case "stop":
		in.Kind = IntentStop
	case "place":
		in.Kind = IntentPlace
	case "break":
		in.Kind = IntentBreak
	case "use":
		in.Kind = IntentUse
	default:
		return false
	}
	return s.Submit(in)
}

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case in := <-s.queue:
			s.apply(in)
		default:
			return
		}
	}
}

func (s *InputSystem) apply(in Intent) {
	player := s.world.Player()
	if player == nil {
		return
	}
	switch in.Kind {
	case IntentMove:
		if in.DX != 0 {
			player.SetVelocityX(sign(in.DX) * player.MovementSpeed)
		}
		if in.DY != 0 {
			player.SetVelocityY(sign(in.DY) * player.MovementSpeed)
		}
	case IntentStop:
		player.Vel = world.Position{}
	case IntentPlace:
		s.place(player, in)
	case IntentBreak:
		s.breakAt(player, in.Pos)
	case IntentUse:
		if s.world.EntityAt(in.Pos) == nil {
			s.place(player, in)
		} else {
			s.breakAt(player, in.Pos)
		}
	}
}

func (s *InputSystem) place(player *world.DynamicEntity, in Intent) {
	kind := s.kinds.Kind(in.KindName)
	if kind == nil {
		s.log.Debug("place: unknown kind", zap.String("kind", in.KindName))
		return
	}
	if s.world.EntityAt(in.Pos) != nil {
		return
	}
	placed, err := s.world.PlaceEntity(player, kind, in.Pos)
	switch {
	case errors.Is(err, world.ErrNoChunk), errors.Is(err, world.ErrNotPlaceable):
		s.log.Debug("place rejected", zap.String("kind", kind.Name), zap.Stringer("pos", in.Pos), zap.Error(err))
	case err != nil:
		s.log.Warn("place failed", zap.String("kind", kind.Name), zap.Stringer("pos", in.Pos), zap.Error(err))
	case !placed:
		s.log.Debug("place cancelled", zap.String("kind", kind.Name), zap.Stringer("pos", in.Pos))
	}
}

func (s *InputSystem) breakAt(player *world.DynamicEntity, pos world.Position) {
	if _, err := s.world.BreakEntity(player, pos); err != nil {
		s.log.Debug("break rejected", zap.Stringer("pos", pos), zap.Error(err))
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
