package world

import "github.com/dungeoncrawler/server/internal/core/event"

// BlockPlacedEvent is posted before a kind is written into an empty cell.
// Cancelling it aborts the placement.
type BlockPlacedEvent struct {
	event.Cancelable
	Actor *DynamicEntity // nil for world-driven placements
	Kind  *GameEntity
	Pos   Position
}

// BlockBrokenEvent is posted before an occupied cell is cleared.
// Cancelling it keeps the block.
type BlockBrokenEvent struct {
	event.Cancelable
	Actor *DynamicEntity
	Kind  *GameEntity
	Pos   Position
}

// BlockChangedEvent is emitted after a cell's content changed.
type BlockChangedEvent struct {
	Pos Position
	Old *GameEntity
	New *GameEntity
}

// EntityCollisionEvent is emitted once per tick for each overlapping pair.
type EntityCollisionEvent struct {
	A *DynamicEntity
	B *DynamicEntity
}

// TileCollisionEvent is emitted when an entity was pushed out of a solid tile.
type TileCollisionEvent struct {
	Entity *DynamicEntity
	Kind   *GameEntity
	Tile   Position
}

// EntityRemovedEvent is emitted when a queued dynamic entity leaves the world.
type EntityRemovedEvent struct {
	Entity *DynamicEntity
}
