package world

import (
	"fmt"

	"github.com/dungeoncrawler/server/internal/core/event"
)

// World owns every chunk and dynamic entity of a session.
// Accessed only from the game loop goroutine, no locks.
type World struct {
	bus  *event.Bus
	wall *GameEntity

	chunks map[ChunkCoord]*Chunk
	order  []*Chunk // creation order

	dynamics []*DynamicEntity
	player   *DynamicEntity
	nextID   uint64
	removals []*DynamicEntity
}

// New creates an empty world. wall is the kind chunk generation writes to
// borders; bus receives placement events and change notifications.
func New(bus *event.Bus, wall *GameEntity) *World {
	return &World{
		bus:      bus,
		wall:     wall,
		chunks:   make(map[ChunkCoord]*Chunk, 16),
		dynamics: make([]*DynamicEntity, 0, 16),
	}
}

func (w *World) Bus() *event.Bus        { return w.bus }
func (w *World) WallKind() *GameEntity  { return w.wall }
func (w *World) Player() *DynamicEntity { return w.player }

// Chunk returns the chunk at c, or nil.
func (w *World) Chunk(c ChunkCoord) *Chunk {
	return w.chunks[c]
}

// ChunkAt returns the chunk containing p, or nil.
func (w *World) ChunkAt(p Position) *Chunk {
	return w.chunks[WorldToChunk(p)]
}

// Chunks returns chunks in creation order. Callers must not modify the slice.
func (w *World) Chunks() []*Chunk {
	return w.order
}

// GenerateRegion creates and generates every chunk in the inclusive
// rectangle [min, max].
func (w *World) GenerateRegion(min, max ChunkCoord) error {
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			ch, err := NewChunk(w, ChunkCoord{X: x, Y: y})
			if err != nil {
				return fmt.Errorf("generate region: %w", err)
			}
			ch.Generate()
		}
	}
	return nil
}

// EntityAt returns the kind at p. Positions without a backing chunk read as empty.
func (w *World) EntityAt(p Position) *GameEntity {
	ch := w.ChunkAt(p)
	if ch == nil {
		return nil
	}
	return ch.EntityAt(p)
}

// SetEntityAt writes e (nil clears) at p. Writes outside every chunk are
// rejected with ErrNoChunk. A BlockChangedEvent is emitted when the cell changed.
func (w *World) SetEntityAt(e *GameEntity, p Position) error {
	ch := w.ChunkAt(p)
	if ch == nil {
		return fmt.Errorf("set %s: %w", p, ErrNoChunk)
	}
	old := ch.EntityAt(p)
	if err := ch.SetEntityAt(e, p); err != nil {
		return err
	}
	if old != e && w.bus != nil {
		event.Emit(w.bus, BlockChangedEvent{Pos: p.Floor(), Old: old, New: e})
	}
	return nil
}

// PlaceEntity posts a BlockPlacedEvent for kind at p and writes it unless a
// subscriber cancelled. It reports whether the placement happened.
func (w *World) PlaceEntity(actor *DynamicEntity, kind *GameEntity, p Position) (bool, error) {
	if kind == nil || !kind.Placeable {
		return false, ErrNotPlaceable
	}
	if w.ChunkAt(p) == nil {
		return false, fmt.Errorf("place %s at %s: %w", kind.Name, p, ErrNoChunk)
	}
	if w.bus != nil {
		if event.Post(w.bus, &BlockPlacedEvent{Actor: actor, Kind: kind, Pos: p.Floor()}) {
			return false, nil
		}
	}
	if err := w.SetEntityAt(kind, p); err != nil {
		return false, err
	}
	return true, nil
}

// BreakEntity posts a BlockBrokenEvent for the kind at p and clears the cell
// unless a subscriber cancelled. Empty cells report false.
func (w *World) BreakEntity(actor *DynamicEntity, p Position) (bool, error) {
	ch := w.ChunkAt(p)
	if ch == nil {
		return false, fmt.Errorf("break at %s: %w", p, ErrNoChunk)
	}
	kind := ch.EntityAt(p)
	if kind == nil {
		return false, nil
	}
	if w.bus != nil {
		if event.Post(w.bus, &BlockBrokenEvent{Actor: actor, Kind: kind, Pos: p.Floor()}) {
			return false, nil
		}
	}
	if err := w.SetEntityAt(nil, p); err != nil {
		return false, err
	}
	return true, nil
}

// DynamicEntities returns the live collection, not a copy. The collision
// pass and the output pass both iterate it within one tick, in that order.
func (w *World) DynamicEntities() []*DynamicEntity {
	return w.dynamics
}

// EachDynamic calls fn for every dynamic entity in insertion order.
func (w *World) EachDynamic(fn func(*DynamicEntity)) {
	for _, e := range w.dynamics {
		fn(e)
	}
}

// DynamicByID returns the dynamic entity with id, or nil.
func (w *World) DynamicByID(id uint64) *DynamicEntity {
	for _, e := range w.dynamics {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// SpawnDynamic creates a dynamic entity at pos and appends it to the world.
func (w *World) SpawnDynamic(pos Position, spec EntitySpec) *DynamicEntity {
	w.nextID++
	e := newDynamicEntity(w.nextID, pos, spec)
	w.dynamics = append(w.dynamics, e)
	return e
}

// SpawnPlayer creates the player. The player is designated once and never
// reassigned; a second call fails with ErrPlayerAssigned.
func (w *World) SpawnPlayer(pos Position, spec EntitySpec) (*DynamicEntity, error) {
	if w.player != nil {
		return nil, ErrPlayerAssigned
	}
	w.player = w.SpawnDynamic(pos, spec)
	return w.player, nil
}

// QueueRemoval marks e for removal at the end of the tick. The player is
// never removed; queuing it returns false.
func (w *World) QueueRemoval(e *DynamicEntity) bool {
	if e == nil || e == w.player || e.pendingRemoval {
		return false
	}
	e.pendingRemoval = true
	w.removals = append(w.removals, e)
	return true
}

// FlushRemovals drops every queued entity from the dynamic collection,
// keeping the order of the rest, and returns how many were removed.
func (w *World) FlushRemovals() int {
	if len(w.removals) == 0 {
		return 0
	}
	kept := w.dynamics[:0]
	for _, e := range w.dynamics {
		if e.pendingRemoval {
			if w.bus != nil {
				event.Emit(w.bus, EntityRemovedEvent{Entity: e})
			}
			continue
		}
		kept = append(kept, e)
	}
	clear(w.dynamics[len(kept):])
	w.dynamics = kept
	n := len(w.removals)
	clear(w.removals)
	w.removals = w.removals[:0]
	return n
}
