package world

import (
	"fmt"
	"math"
)

// ChunkLength is the side length of a chunk in tiles.
const ChunkLength = 16

// Position is a point in world space. One unit is one tile.
type Position struct {
	X float64
	Y float64
}

func (p Position) Add(o Position) Position  { return Position{p.X + o.X, p.Y + o.Y} }
func (p Position) Scale(f float64) Position { return Position{p.X * f, p.Y * f} }
func (p Position) Floor() Position          { return Position{math.Floor(p.X), math.Floor(p.Y)} }
func (p Position) String() string           { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// ChunkCoord addresses a chunk in the chunk grid.
type ChunkCoord struct {
	X int32
	Y int32
}

func (c ChunkCoord) String() string { return fmt.Sprintf("[%d, %d]", c.X, c.Y) }

// TileCoord addresses a cell inside a chunk, each axis in [0, ChunkLength).
type TileCoord struct {
	X int32
	Y int32
}

func (t TileCoord) InBounds() bool {
	return t.X >= 0 && t.X < ChunkLength && t.Y >= 0 && t.Y < ChunkLength
}

func floorTile(v float64) int32 {
	return int32(math.Floor(v))
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(v, d int32) int32 {
	q := v / d
	if v%d != 0 && (v < 0) != (d < 0) {
		q--
	}
	return q
}

// WorldToChunk returns the chunk containing p.
func WorldToChunk(p Position) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(floorTile(p.X), ChunkLength),
		Y: floorDiv(floorTile(p.Y), ChunkLength),
	}
}

// WorldToTile returns p's cell relative to chunk c. The result is only in
// range when c == WorldToChunk(p).
func WorldToTile(p Position, c ChunkCoord) TileCoord {
	return TileCoord{
		X: floorTile(p.X) - c.X*ChunkLength,
		Y: floorTile(p.Y) - c.Y*ChunkLength,
	}
}

// ChunkTileToWorld returns the world position of the bottom-left corner of
// tile t in chunk c.
func ChunkTileToWorld(c ChunkCoord, t TileCoord) Position {
	return Position{
		X: float64(c.X*ChunkLength + t.X),
		Y: float64(c.Y*ChunkLength + t.Y),
	}
}
