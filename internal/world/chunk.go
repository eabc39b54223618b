package world

import "fmt"

// Chunk is one fixed-size square partition of the world grid.
// Chunks are never removed or relocated once created.
type Chunk struct {
	tiles TileMap
	coord ChunkCoord
	world *World
}

// NewChunk creates the chunk at c and registers it with w. It fails without
// registering anything if w already has a chunk at c.
func NewChunk(w *World, c ChunkCoord) (*Chunk, error) {
	if _, exists := w.chunks[c]; exists {
		return nil, fmt.Errorf("chunk %s: %w", c, ErrDuplicateChunk)
	}
	ch := &Chunk{coord: c, world: w}
	w.chunks[c] = ch
	w.order = append(w.order, ch)
	return ch, nil
}

func (c *Chunk) Coord() ChunkCoord { return c.coord }
func (c *Chunk) World() *World     { return c.world }

// EntityAt returns the kind at world position p. Positions outside this
// chunk read as empty.
func (c *Chunk) EntityAt(p Position) *GameEntity {
	return c.tiles.EntityAt(c.TilePosForWorldPos(p))
}

// SetEntityAt writes e at world position p, which must lie inside this chunk.
func (c *Chunk) SetEntityAt(e *GameEntity, p Position) error {
	if err := c.tiles.PutEntityAt(e, c.TilePosForWorldPos(p)); err != nil {
		return fmt.Errorf("chunk %s at %s: %w", c.coord, p, err)
	}
	return nil
}

// EntityAtTile returns the kind at a chunk-local cell.
func (c *Chunk) EntityAtTile(t TileCoord) *GameEntity {
	return c.tiles.EntityAt(t)
}

// Generate writes the world's wall kind into every border cell. The
// interior is left as is, which for a fresh chunk means empty.
func (c *Chunk) Generate() {
	wall := c.world.wall
	last := int32(ChunkLength - 1)
	for i := int32(0); i < ChunkLength; i++ {
		c.tiles.cells[index(TileCoord{i, 0})] = wall
		c.tiles.cells[index(TileCoord{i, last})] = wall
		c.tiles.cells[index(TileCoord{0, i})] = wall
		c.tiles.cells[index(TileCoord{last, i})] = wall
	}
}

// WorldPosForTilePos returns the world position of local cell t.
func (c *Chunk) WorldPosForTilePos(t TileCoord) Position {
	return ChunkTileToWorld(c.coord, t)
}

// TilePosForWorldPos returns p relative to this chunk. Out of range when p
// belongs to another chunk.
func (c *Chunk) TilePosForWorldPos(p Position) TileCoord {
	return WorldToTile(p, c.coord)
}

// BlockPositions lists every cell holding the world's wall kind.
// Debug and visualization only; it scans the whole chunk.
func (c *Chunk) BlockPositions() []TileCoord {
	return c.tiles.PositionsFor(c.world.wall)
}

// PositionsFor lists every cell holding kind.
func (c *Chunk) PositionsFor(kind *GameEntity) []TileCoord {
	return c.tiles.PositionsFor(kind)
}

func (c *Chunk) Occupied() int { return c.tiles.Occupied() }

func (c *Chunk) Visualize() string {
	return c.tiles.Visualize()
}
