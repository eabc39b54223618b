package world

import "math"

// GameEntity is the shared, immutable descriptor of a static entity kind.
// The same pointer occupies every cell holding that kind; never copy it per cell.
type GameEntity struct {
	Name      string
	Texture   string
	Width     float64 // tiles
	Height    float64 // tiles
	Placeable bool    // may be placed by the player
	Passable  bool    // ignored by tile collision
}

// TileBounds returns the box of kind k occupying the cell whose bottom-left
// corner is origin. Occupants are clipped to their cell.
func TileBounds(k *GameEntity, origin Position) Rect {
	w, h := k.Width, k.Height
	if w <= 0 || w > 1 {
		w = 1
	}
	if h <= 0 || h > 1 {
		h = 1
	}
	return RectAt(origin, w, h)
}

// EntitySpec describes a dynamic entity to spawn.
type EntitySpec struct {
	Name          string
	Texture       string
	Width         float64
	Height        float64
	MovementSpeed float64 // tiles per second
	Damping       float64 // fraction of velocity removed per tick
	Health        int32
}

// DefaultPlayerSpec returns the stock player: one tile wide, two tall.
func DefaultPlayerSpec() EntitySpec {
	return EntitySpec{
		Name:          "player",
		Texture:       "player",
		Width:         1,
		Height:        2,
		MovementSpeed: 6,
		Damping:       0.08,
		Health:        100,
	}
}

// DynamicEntity is a movable object uniquely owned by its World.
// Pos is the bottom-left corner of its bounding box.
// Accessed only from the game loop goroutine.
type DynamicEntity struct {
	ID            uint64
	Name          string
	Texture       string
	Pos           Position
	Vel           Position // tiles per second
	Width         float64
	Height        float64
	MovementSpeed float64
	Damping       float64
	Health        int32
	MaxHealth     int32

	// Contacts holds the entities this one overlapped during the last
	// collision pass. Reset at the start of every pass.
	Contacts []*DynamicEntity

	pendingRemoval bool
}

func newDynamicEntity(id uint64, pos Position, spec EntitySpec) *DynamicEntity {
	return &DynamicEntity{
		ID:            id,
		Name:          spec.Name,
		Texture:       spec.Texture,
		Pos:           pos,
		Width:         spec.Width,
		Height:        spec.Height,
		MovementSpeed: spec.MovementSpeed,
		Damping:       spec.Damping,
		Health:        spec.Health,
		MaxHealth:     spec.Health,
	}
}

func (e *DynamicEntity) Bounds() Rect {
	return RectAt(e.Pos, e.Width, e.Height)
}

func (e *DynamicEntity) SetVelocityX(v float64) { e.Vel.X = v }
func (e *DynamicEntity) SetVelocityY(v float64) { e.Vel.Y = v }

func (e *DynamicEntity) Alive() bool { return e.Health > 0 }

// Damage lowers health, never below zero.
func (e *DynamicEntity) Damage(n int32) {
	e.Health -= n
	if e.Health < 0 {
		e.Health = 0
	}
}

// Rect is an axis-aligned box in world space.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func RectAt(p Position, w, h float64) Rect {
	return Rect{MinX: p.X, MinY: p.Y, MaxX: p.X + w, MaxY: p.Y + h}
}

// Overlaps reports whether the interiors intersect. Touching edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && r.MaxX > o.MinX && r.MinY < o.MaxY && r.MaxY > o.MinY
}

// Penetration returns the depth of overlap between r and o on each axis.
// Both are positive when the boxes overlap.
func (r Rect) Penetration(o Rect) (float64, float64) {
	dx := math.Min(r.MaxX-o.MinX, o.MaxX-r.MinX)
	dy := math.Min(r.MaxY-o.MinY, o.MaxY-r.MinY)
	return dx, dy
}

// TileSpan returns the inclusive range of tile columns and rows r touches.
func (r Rect) TileSpan() (minX, minY, maxX, maxY int32) {
	return floorTile(r.MinX), floorTile(r.MinY),
		int32(math.Ceil(r.MaxX)) - 1, int32(math.Ceil(r.MaxY)) - 1
}
