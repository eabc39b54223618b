package system

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dungeoncrawler/server/internal/core/event"
	"github.com/dungeoncrawler/server/internal/world"
)

var (
	wallKind  = &world.GameEntity{Name: "block", Texture: "block", Width: 1, Height: 1, Placeable: true}
	stoneKind = &world.GameEntity{Name: "block2", Texture: "block2", Width: 1, Height: 1, Placeable: true}
	mossKind  = &world.GameEntity{Name: "moss", Texture: "moss", Width: 1, Height: 1, Passable: true}
)

type kindMap map[string]*world.GameEntity

func (m kindMap) Kind(name string) *world.GameEntity { return m[name] }

var testKinds = kindMap{"block": wallKind, "block2": stoneKind, "moss": mossKind}

// newTestWorld builds a single generated chunk at (0,0) with borders walled.
func newTestWorld(t *testing.T) (*world.World, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	w := world.New(bus, wallKind)
	require.NoError(t, w.GenerateRegion(world.ChunkCoord{}, world.ChunkCoord{}))
	return w, bus
}

func box(w, h float64) world.EntitySpec {
	return world.EntitySpec{Name: "box", Width: w, Height: h, Health: 10}
}
