package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungeoncrawler/server/internal/core/event"
)

var (
	testWall  = &GameEntity{Name: "block", Texture: "block", Width: 1, Height: 1, Placeable: true}
	testStone = &GameEntity{Name: "block2", Texture: "block2", Width: 1, Height: 1, Placeable: true}
	testMoss  = &GameEntity{Name: "moss", Texture: "moss", Width: 1, Height: 1, Passable: true}
)

func newTestWorld(t *testing.T) (*World, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	return New(bus, testWall), bus
}

func TestNewChunkRejectsDuplicates(t *testing.T) {
	w, _ := newTestWorld(t)

	a, err := NewChunk(w, ChunkCoord{0, 0})
	require.NoError(t, err)
	b, err := NewChunk(w, ChunkCoord{1, 0})
	require.NoError(t, err)

	dup, err := NewChunk(w, ChunkCoord{0, 0})
	require.ErrorIs(t, err, ErrDuplicateChunk)
	assert.Nil(t, dup)

	assert.Same(t, a, w.Chunk(ChunkCoord{0, 0}))
	assert.Same(t, b, w.Chunk(ChunkCoord{1, 0}))
	assert.Equal(t, []*Chunk{a, b}, w.Chunks(), "failed construction registers nothing")
	assert.Same(t, w, a.World())
}

func TestGenerateFillsBorderOnly(t *testing.T) {
	w, _ := newTestWorld(t)
	ch, err := NewChunk(w, ChunkCoord{-1, 2})
	require.NoError(t, err)
	ch.Generate()

	last := int32(ChunkLength - 1)
	for x := int32(0); x < ChunkLength; x++ {
		for y := int32(0); y < ChunkLength; y++ {
			got := ch.EntityAtTile(TileCoord{x, y})
			if x == 0 || y == 0 || x == last || y == last {
				assert.Same(t, testWall, got, "border (%d,%d)", x, y)
			} else {
				assert.Nil(t, got, "interior (%d,%d)", x, y)
			}
		}
	}
	assert.Len(t, ch.BlockPositions(), 4*ChunkLength-4)
}

func TestSetThenGet(t *testing.T) {
	w, _ := newTestWorld(t)
	require.NoError(t, w.GenerateRegion(ChunkCoord{-1, -1}, ChunkCoord{0, 0}))

	for _, p := range []Position{{0, 0}, {5.5, 7.2}, {-3, -3}, {-16, 15}, {-0.5, -15.9}} {
		require.NoError(t, w.SetEntityAt(testStone, p))
		assert.Same(t, testStone, w.EntityAt(p), "after set at %s", p)
		require.NoError(t, w.SetEntityAt(nil, p))
		assert.Nil(t, w.EntityAt(p), "after clear at %s", p)
	}
}

func TestOffGridDefaults(t *testing.T) {
	w, _ := newTestWorld(t)
	require.NoError(t, w.GenerateRegion(ChunkCoord{0, 0}, ChunkCoord{0, 0}))

	far := Position{100, 100}
	assert.Nil(t, w.EntityAt(far))
	assert.ErrorIs(t, w.SetEntityAt(testWall, far), ErrNoChunk)

	ch := w.Chunk(ChunkCoord{0, 0})
	assert.Nil(t, ch.EntityAt(Position{20, 3}), "other chunk's position reads empty")
	assert.ErrorIs(t, ch.SetEntityAt(testWall, Position{20, 3}), ErrTileOutOfRange)

	var m TileMap
	assert.Nil(t, m.EntityAt(TileCoord{-1, 0}))
	assert.ErrorIs(t, m.PutEntityAt(testWall, TileCoord{0, ChunkLength}), ErrTileOutOfRange)
}

func TestSingleChunkScenario(t *testing.T) {
	w, _ := newTestWorld(t)
	ch, err := NewChunk(w, ChunkCoord{0, 0})
	require.NoError(t, err)
	ch.Generate()

	require.NoError(t, w.SetEntityAt(testWall, Position{0, 0}))
	assert.Same(t, testWall, w.EntityAt(Position{0, 0}))
	assert.Nil(t, w.EntityAt(Position{1, 1}))

	blocks := ch.BlockPositions()
	assert.Len(t, blocks, 60)
	for _, b := range blocks {
		assert.True(t, b.X == 0 || b.Y == 0 || b.X == 15 || b.Y == 15, "%+v is not a border cell", b)
	}
}

func TestChunkConversionWrappers(t *testing.T) {
	w, _ := newTestWorld(t)
	ch, err := NewChunk(w, ChunkCoord{-2, 3})
	require.NoError(t, err)

	p := ch.WorldPosForTilePos(TileCoord{4, 9})
	assert.Equal(t, Position{-28, 57}, p)
	assert.Equal(t, TileCoord{4, 9}, ch.TilePosForWorldPos(p))
	assert.Equal(t, TileCoord{4, 9}, ch.TilePosForWorldPos(Position{-27.1, 57.9}))
}

func TestPlaceEntityRespectsCancellation(t *testing.T) {
	w, bus := newTestWorld(t)
	require.NoError(t, w.GenerateRegion(ChunkCoord{0, 0}, ChunkCoord{0, 0}))
	player, err := w.SpawnPlayer(Position{3, 3}, DefaultPlayerSpec())
	require.NoError(t, err)

	var seen []*BlockPlacedEvent
	event.Subscribe(bus, event.PriorityHigh, func(ev *BlockPlacedEvent) {
		seen = append(seen, ev)
		if ev.Kind == testStone {
			ev.Cancel()
		}
	})

	ok, err := w.PlaceEntity(player, testStone, Position{5, 5})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, w.EntityAt(Position{5, 5}))

	ok, err = w.PlaceEntity(player, testWall, Position{5.7, 5.2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, testWall, w.EntityAt(Position{5, 5}))

	require.Len(t, seen, 2)
	assert.Same(t, player, seen[1].Actor)
	assert.Equal(t, Position{5, 5}, seen[1].Pos)

	_, err = w.PlaceEntity(player, testMoss, Position{6, 6})
	assert.ErrorIs(t, err, ErrNotPlaceable)
	_, err = w.PlaceEntity(player, testWall, Position{-6, 6})
	assert.ErrorIs(t, err, ErrNoChunk)
}

func TestBreakEntity(t *testing.T) {
	w, bus := newTestWorld(t)
	require.NoError(t, w.GenerateRegion(ChunkCoord{0, 0}, ChunkCoord{0, 0}))

	protected := Position{0, 0}
	event.Subscribe(bus, event.PriorityNormal, func(ev *BlockBrokenEvent) {
		if ev.Pos == protected {
			ev.Cancel()
		}
	})

	ok, err := w.BreakEntity(nil, Position{0, 0})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, testWall, w.EntityAt(Position{0, 0}))

	ok, err = w.BreakEntity(nil, Position{0, 5})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, w.EntityAt(Position{0, 5}))

	ok, err = w.BreakEntity(nil, Position{4, 4})
	require.NoError(t, err)
	assert.False(t, ok, "nothing to break")
}

func TestSetEntityEmitsChange(t *testing.T) {
	w, bus := newTestWorld(t)
	require.NoError(t, w.GenerateRegion(ChunkCoord{0, 0}, ChunkCoord{0, 0}))

	var changes []BlockChangedEvent
	event.Listen(bus, func(ev BlockChangedEvent) { changes = append(changes, ev) })

	require.NoError(t, w.SetEntityAt(testStone, Position{2.5, 3.5}))
	require.NoError(t, w.SetEntityAt(testStone, Position{2, 3}))
	bus.SwapBuffers()
	bus.DispatchAll()

	require.Len(t, changes, 1, "rewriting the same kind is not a change")
	assert.Equal(t, BlockChangedEvent{Pos: Position{2, 3}, Old: nil, New: testStone}, changes[0])
}

func TestPlayerDesignatedOnce(t *testing.T) {
	w, _ := newTestWorld(t)
	p, err := w.SpawnPlayer(Position{1, 1}, DefaultPlayerSpec())
	require.NoError(t, err)
	_, err = w.SpawnPlayer(Position{2, 2}, DefaultPlayerSpec())
	require.ErrorIs(t, err, ErrPlayerAssigned)

	assert.Same(t, p, w.Player())
	assert.Equal(t, []*DynamicEntity{p}, w.DynamicEntities())
	assert.Equal(t, 1.0, p.Width)
	assert.Equal(t, 2.0, p.Height)
	assert.Equal(t, int32(100), p.Health)
}

func TestRemovalQueue(t *testing.T) {
	w, bus := newTestWorld(t)
	p, err := w.SpawnPlayer(Position{1, 1}, DefaultPlayerSpec())
	require.NoError(t, err)
	a := w.SpawnDynamic(Position{2, 2}, EntitySpec{Name: "slime", Width: 1, Height: 1, Health: 5})
	b := w.SpawnDynamic(Position{3, 3}, EntitySpec{Name: "bat", Width: 1, Height: 1, Health: 5})

	var removed []uint64
	event.Listen(bus, func(ev EntityRemovedEvent) { removed = append(removed, ev.Entity.ID) })

	assert.False(t, w.QueueRemoval(p), "player is never removed")
	assert.True(t, w.QueueRemoval(a))
	assert.False(t, w.QueueRemoval(a), "already queued")
	assert.Equal(t, 3, len(w.DynamicEntities()), "nothing leaves before the flush")

	assert.Equal(t, 1, w.FlushRemovals())
	assert.Equal(t, []*DynamicEntity{p, b}, w.DynamicEntities())
	assert.Nil(t, w.DynamicByID(a.ID))
	assert.Same(t, b, w.DynamicByID(b.ID))

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, []uint64{a.ID}, removed)
	assert.Equal(t, 0, w.FlushRemovals())
}

func TestVisualize(t *testing.T) {
	w, _ := newTestWorld(t)
	ch, err := NewChunk(w, ChunkCoord{0, 0})
	require.NoError(t, err)
	ch.Generate()
	require.NoError(t, ch.SetEntityAt(testMoss, Position{1, 14}))

	rows := ch.Visualize()
	assert.Equal(t, "################\n", rows[:17])
	assert.Equal(t, "#+.............#\n", rows[17:34])
	assert.Equal(t, 16*4-4+1, ch.Occupied())
}

func TestEntityGridPairs(t *testing.T) {
	w, _ := newTestWorld(t)
	a := w.SpawnDynamic(Position{1, 1}, EntitySpec{Width: 1, Height: 1})
	b := w.SpawnDynamic(Position{3.5, 1}, EntitySpec{Width: 1, Height: 1}) // straddles a cell edge
	c := w.SpawnDynamic(Position{40, 40}, EntitySpec{Width: 1, Height: 1})

	g := NewEntityGrid()
	g.Rebuild(w.DynamicEntities())

	var pairs [][2]uint64
	g.EachPair(func(x, y *DynamicEntity) { pairs = append(pairs, [2]uint64{x.ID, y.ID}) })
	assert.Equal(t, [][2]uint64{{a.ID, b.ID}}, pairs)

	near := g.Nearby(Position{39, 39})
	assert.Equal(t, []*DynamicEntity{c}, near)

	g.Reset()
	pairs = nil
	g.EachPair(func(x, y *DynamicEntity) { pairs = append(pairs, [2]uint64{x.ID, y.ID}) })
	assert.Empty(t, pairs)
}

func TestRectPenetration(t *testing.T) {
	a := RectAt(Position{0, 0}, 1, 2)
	b := RectAt(Position{0.75, 1.5}, 1, 1)
	require.True(t, a.Overlaps(b))
	dx, dy := a.Penetration(b)
	assert.InDelta(t, 0.25, dx, 1e-9)
	assert.InDelta(t, 0.5, dy, 1e-9)

	assert.False(t, a.Overlaps(RectAt(Position{1, 0}, 1, 1)), "touching edges")

	x0, y0, x1, y1 := RectAt(Position{-0.5, 2}, 1, 2).TileSpan()
	assert.Equal(t, []int32{-1, 2, 0, 3}, []int32{x0, y0, x1, y1})
}
