package world

import "strings"

// TileMap is a fixed ChunkLength x ChunkLength grid of optional kinds.
// Flat array indexed [x*ChunkLength + y].
type TileMap struct {
	cells [ChunkLength * ChunkLength]*GameEntity
}

func index(t TileCoord) int {
	return int(t.X)*ChunkLength + int(t.Y)
}

// EntityAt returns the kind at t, or nil if the cell is empty or t is out of range.
func (m *TileMap) EntityAt(t TileCoord) *GameEntity {
	if !t.InBounds() {
		return nil
	}
	return m.cells[index(t)]
}

// PutEntityAt stores e at t. A nil e clears the cell.
func (m *TileMap) PutEntityAt(e *GameEntity, t TileCoord) error {
	if !t.InBounds() {
		return ErrTileOutOfRange
	}
	m.cells[index(t)] = e
	return nil
}

// PositionsFor scans every cell and returns those holding kind, x outer, y inner.
func (m *TileMap) PositionsFor(kind *GameEntity) []TileCoord {
	if kind == nil {
		return nil
	}
	var out []TileCoord
	for x := int32(0); x < ChunkLength; x++ {
		for y := int32(0); y < ChunkLength; y++ {
			if m.cells[index(TileCoord{x, y})] == kind {
				out = append(out, TileCoord{X: x, Y: y})
			}
		}
	}
	return out
}

// Occupied counts non-empty cells.
func (m *TileMap) Occupied() int {
	n := 0
	for _, c := range m.cells {
		if c != nil {
			n++
		}
	}
	return n
}

// Visualize draws the map top row first: '#' solid, '+' passable, '.' empty.
func (m *TileMap) Visualize() string {
	var sb strings.Builder
	sb.Grow((ChunkLength + 1) * ChunkLength)
	for y := int32(ChunkLength - 1); y >= 0; y-- {
		for x := int32(0); x < ChunkLength; x++ {
			switch e := m.cells[index(TileCoord{x, y})]; {
			case e == nil:
				sb.WriteByte('.')
			case e.Passable:
				sb.WriteByte('+')
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
