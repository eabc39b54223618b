package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/dungeoncrawler/server/internal/core/event"
	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/world"
)

// maxTilePasses caps how many solid tiles one entity is pushed out of per tick.
const maxTilePasses = 8

// CollisionSystem resolves overlaps between dynamic entities and solid tiles
// and reports overlapping entity pairs. Phase 3 (Collision), after movement
// and before output reads positions.
//
// Entity pairs are separated first, half each along the axis of least
// penetration. Tiles are resolved last so that no entity ends a tick inside
// a solid tile it could be pushed out of.
type CollisionSystem struct {
	world *world.World
	grid  *world.EntityGrid
	log   *zap.Logger
}

func NewCollisionSystem(w *world.World, log *zap.Logger) *CollisionSystem {
	return &CollisionSystem{world: w, grid: world.NewEntityGrid(), log: log}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

func (s *CollisionSystem) Update(_ time.Duration) {
	entities := s.world.DynamicEntities()
	for _, e := range entities {
		clear(e.Contacts)
		e.Contacts = e.Contacts[:0]
	}

	s.grid.Rebuild(entities)
	s.grid.EachPair(s.resolvePair)

	for _, e := range entities {
		s.resolveTiles(e)
	}
}

func (s *CollisionSystem) resolvePair(a, b *world.DynamicEntity) {
	ab, bb := a.Bounds(), b.Bounds()
	if !ab.Overlaps(bb) {
		return
	}
	a.Contacts = append(a.Contacts, b)
	b.Contacts = append(b.Contacts, a)

	dx, dy := ab.Penetration(bb)
	acx, acy := center(ab)
	bcx, bcy := center(bb)
	if dx <= dy {
		half := dx / 2
		if acx <= bcx {
			a.Pos.X -= half
			b.Pos.X += half
		} else {
			a.Pos.X += half
			b.Pos.X -= half
		}
	} else {
		half := dy / 2
		if acy <= bcy {
			a.Pos.Y -= half
			b.Pos.Y += half
		} else {
			a.Pos.Y += half
			b.Pos.Y -= half
		}
	}

	if bus := s.world.Bus(); bus != nil {
		event.Emit(bus, world.EntityCollisionEvent{A: a, B: b})
	}
}

// resolveTiles pushes e out of the solid tile it overlaps most, repeating
// until it overlaps none or the pass cap is reached. Only tiles under the
// entity's box are examined.
func (s *CollisionSystem) resolveTiles(e *world.DynamicEntity) {
	for pass := 0; pass < maxTilePasses; pass++ {
		b := e.Bounds()
		kind, tile, ok := s.deepestSolid(b)
		if !ok {
			return
		}
		s.pushOut(e, b, tile)
		if bus := s.world.Bus(); bus != nil {
			event.Emit(bus, world.TileCollisionEvent{
				Entity: e,
				Kind:   kind,
				Tile:   world.Position{X: tile.MinX, Y: tile.MinY},
			})
		}
	}
	s.log.Debug("collision pass cap reached",
		zap.Uint64("entity", e.ID),
		zap.Stringer("pos", e.Pos),
	)
}

func (s *CollisionSystem) deepestSolid(b world.Rect) (*world.GameEntity, world.Rect, bool) {
	var (
		bestKind *world.GameEntity
		bestRect world.Rect
		bestArea float64
	)
	x0, y0, x1, y1 := b.TileSpan()
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			origin := world.Position{X: float64(x), Y: float64(y)}
			kind := s.world.EntityAt(origin)
			if kind == nil || kind.Passable {
				continue
			}
			tb := world.TileBounds(kind, origin)
			if !b.Overlaps(tb) {
				continue
			}
			dx, dy := b.Penetration(tb)
			if area := dx * dy; area > bestArea {
				bestKind, bestRect, bestArea = kind, tb, area
			}
		}
	}
	return bestKind, bestRect, bestKind != nil
}

// pushOut moves e out of tile along the axis of least penetration and zeroes
// its velocity on that axis. On a tie the axis e moves faster along wins.
// When centers coincide e is pushed against its velocity.
func (s *CollisionSystem) pushOut(e *world.DynamicEntity, b, tile world.Rect) {
	dx, dy := b.Penetration(tile)
	useX := dx < dy || (dx == dy && abs(e.Vel.X) > abs(e.Vel.Y))

	ecx, ecy := center(b)
	tcx, tcy := center(tile)
	if useX {
		if towardNegative(ecx, tcx, e.Vel.X) {
			e.Pos.X = tile.MinX - e.Width
		} else {
			e.Pos.X = tile.MaxX
		}
		e.Vel.X = 0
		return
	}
	if towardNegative(ecy, tcy, e.Vel.Y) {
		e.Pos.Y = tile.MinY - e.Height
	} else {
		e.Pos.Y = tile.MaxY
	}
	e.Vel.Y = 0
}

func towardNegative(entityCenter, tileCenter, vel float64) bool {
	if entityCenter != tileCenter {
		return entityCenter < tileCenter
	}
	return vel >= 0
}

func center(r world.Rect) (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}
