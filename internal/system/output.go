package system

import (
	"strings"
	"time"

	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/observerproto"
	"github.com/dungeoncrawler/server/internal/world"
)

// FrameSink receives read-only frames built on the game loop. Publish must
// not block.
type FrameSink interface {
	Publish(frame observerproto.FrameMsg)
}

// OutputSystem snapshots dynamic entities and chunk maps into frames every
// `every` ticks. Phase 4 (Output): positions are final for the tick.
type OutputSystem struct {
	world *world.World
	sink  FrameSink
	every int
	tick  uint64
}

func NewOutputSystem(w *world.World, sink FrameSink, every int) *OutputSystem {
	if every <= 0 {
		every = 1
	}
	return &OutputSystem{world: w, sink: sink, every: every}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%uint64(s.every) != 0 {
		return
	}
	s.sink.Publish(BuildFrame(s.world, s.tick))
}

// BuildFrame copies everything a renderer needs out of w.
func BuildFrame(w *world.World, tick uint64) observerproto.FrameMsg {
	frame := observerproto.FrameMsg{
		Type:            "FRAME",
		ProtocolVersion: observerproto.Version,
		Tick:            tick,
	}
	if p := w.Player(); p != nil {
		frame.PlayerID = p.ID
	}

	entities := w.DynamicEntities()
	frame.Entities = make([]observerproto.EntityView, 0, len(entities))
	for _, e := range entities {
		v := observerproto.EntityView{
			ID:      e.ID,
			Name:    e.Name,
			Texture: e.Texture,
			Pos:     [2]float64{e.Pos.X, e.Pos.Y},
			Vel:     [2]float64{e.Vel.X, e.Vel.Y},
			Size:    [2]float64{e.Width, e.Height},
			Health:  e.Health,
		}
		for _, c := range e.Contacts {
			v.Contacts = append(v.Contacts, c.ID)
		}
		frame.Entities = append(frame.Entities, v)
	}

	for _, ch := range w.Chunks() {
		c := ch.Coord()
		frame.Chunks = append(frame.Chunks, observerproto.ChunkView{
			X:    c.X,
			Y:    c.Y,
			Rows: strings.Split(strings.TrimSuffix(ch.Visualize(), "\n"), "\n"),
		})
	}
	return frame
}
