package world

import (
	"math"
	"sort"
)

const gridCellSize = 4 // tiles

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / gridCellSize))
}

// EntityGrid buckets dynamic entities into square cells so the collision
// pass only tests pairs that share a cell. An entity is inserted into every
// cell its box touches. Rebuilt once per tick.
// Accessed only from the game loop goroutine, no locks.
type EntityGrid struct {
	cells map[cellKey][]*DynamicEntity
}

func NewEntityGrid() *EntityGrid {
	return &EntityGrid{
		cells: make(map[cellKey][]*DynamicEntity),
	}
}

// Reset empties every cell while keeping allocated buckets.
func (g *EntityGrid) Reset() {
	for k, bucket := range g.cells {
		clear(bucket)
		g.cells[k] = bucket[:0]
	}
}

// Add places e into each cell its bounding box overlaps.
func (g *EntityGrid) Add(e *DynamicEntity) {
	b := e.Bounds()
	x0, y0 := toCellCoord(b.MinX), toCellCoord(b.MinY)
	x1, y1 := toCellCoord(b.MaxX), toCellCoord(b.MaxY)
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			k := cellKey{cx: cx, cy: cy}
			g.cells[k] = append(g.cells[k], e)
		}
	}
}

// Rebuild resets the grid and inserts all of entities.
func (g *EntityGrid) Rebuild(entities []*DynamicEntity) {
	g.Reset()
	for _, e := range entities {
		g.Add(e)
	}
}

// EachPair calls fn once for every pair of entities sharing at least one
// cell, lower ID first, pairs ordered by ID. Caller does the fine-grained
// overlap test.
func (g *EntityGrid) EachPair(fn func(a, b *DynamicEntity)) {
	type pair struct{ a, b uint64 }
	seen := make(map[pair]struct{})
	var pairs [][2]*DynamicEntity
	for _, bucket := range g.cells {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if a.ID > b.ID {
					a, b = b, a
				}
				k := pair{a.ID, b.ID}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				pairs = append(pairs, [2]*DynamicEntity{a, b})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0].ID != pairs[j][0].ID {
			return pairs[i][0].ID < pairs[j][0].ID
		}
		return pairs[i][1].ID < pairs[j][1].ID
	})
	for _, p := range pairs {
		fn(p[0], p[1])
	}
}

// Nearby returns every entity sharing a cell with p's cell or one of its
// eight neighbours.
func (g *EntityGrid) Nearby(p Position) []*DynamicEntity {
	cx, cy := toCellCoord(p.X), toCellCoord(p.Y)
	var result []*DynamicEntity
	seen := make(map[uint64]struct{})
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for _, e := range g.cells[cellKey{cx: cx + dx, cy: cy + dy}] {
				if _, dup := seen[e.ID]; dup {
					continue
				}
				seen[e.ID] = struct{}{}
				result = append(result, e)
			}
		}
	}
	return result
}
