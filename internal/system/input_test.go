package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dungeoncrawler/server/internal/core/event"
	"github.com/dungeoncrawler/server/internal/observerproto"
	"github.com/dungeoncrawler/server/internal/world"
)

func newInput(t *testing.T, w *world.World, queue, perTick int) *InputSystem {
	t.Helper()
	return NewInputSystem(w, testKinds, queue, perTick, zaptest.NewLogger(t))
}

func TestMoveSetsVelocityFromSpeed(t *testing.T) {
	w, _ := newTestWorld(t)
	p, err := w.SpawnPlayer(world.Position{X: 4, Y: 4}, world.DefaultPlayerSpec())
	require.NoError(t, err)
	in := newInput(t, w, 8, 8)

	require.True(t, in.Submit(Intent{Kind: IntentMove, DX: 1}))
	in.Update(0)
	assert.Equal(t, world.Position{X: 6, Y: 0}, p.Vel)

	require.True(t, in.Submit(Intent{Kind: IntentMove, DY: -0.2}))
	in.Update(0)
	assert.Equal(t, world.Position{X: 6, Y: -6}, p.Vel, "untouched axis keeps its velocity")

	require.True(t, in.Submit(Intent{Kind: IntentStop}))
	in.Update(0)
	assert.Equal(t, world.Position{}, p.Vel)
}

func TestPlaceGoesThroughEventBus(t *testing.T) {
	w, bus := newTestWorld(t)
	_, err := w.SpawnPlayer(world.Position{X: 4, Y: 4}, world.DefaultPlayerSpec())
	require.NoError(t, err)
	event.Subscribe(bus, event.PriorityNormal, func(ev *world.BlockPlacedEvent) {
		if ev.Kind == stoneKind {
			ev.Cancel()
		}
	})
	in := newInput(t, w, 8, 8)

	in.Submit(Intent{Kind: IntentPlace, KindName: "block2", Pos: world.Position{X: 5, Y: 5}})
	in.Submit(Intent{Kind: IntentPlace, KindName: "block", Pos: world.Position{X: 6, Y: 5}})
	in.Submit(Intent{Kind: IntentPlace, KindName: "lava", Pos: world.Position{X: 7, Y: 5}})
	in.Submit(Intent{Kind: IntentPlace, KindName: "moss", Pos: world.Position{X: 8, Y: 5}})
	in.Submit(Intent{Kind: IntentPlace, KindName: "block", Pos: world.Position{X: 90, Y: 5}})
	in.Update(0)

	assert.Nil(t, w.EntityAt(world.Position{X: 5, Y: 5}), "cancelled")
	assert.Same(t, wallKind, w.EntityAt(world.Position{X: 6, Y: 5}))
	assert.Nil(t, w.EntityAt(world.Position{X: 7, Y: 5}), "unknown kind")
	assert.Nil(t, w.EntityAt(world.Position{X: 8, Y: 5}), "not placeable")
}

func TestUseTogglesCell(t *testing.T) {
	w, _ := newTestWorld(t)
	_, err := w.SpawnPlayer(world.Position{X: 4, Y: 4}, world.DefaultPlayerSpec())
	require.NoError(t, err)
	in := newInput(t, w, 8, 8)
	pos := world.Position{X: 9.4, Y: 9.9}

	in.Submit(Intent{Kind: IntentUse, KindName: "block2", Pos: pos})
	in.Update(0)
	assert.Same(t, stoneKind, w.EntityAt(pos))

	in.Submit(Intent{Kind: IntentUse, KindName: "block2", Pos: pos})
	in.Update(0)
	assert.Nil(t, w.EntityAt(pos))

	in.Submit(Intent{Kind: IntentBreak, Pos: world.Position{X: 0, Y: 3}})
	in.Update(0)
	assert.Nil(t, w.EntityAt(world.Position{X: 0, Y: 3}))
}

func TestQueueLimits(t *testing.T) {
	w, _ := newTestWorld(t)
	p, err := w.SpawnPlayer(world.Position{X: 4, Y: 4}, world.DefaultPlayerSpec())
	require.NoError(t, err)
	in := newInput(t, w, 2, 1)

	assert.True(t, in.Submit(Intent{Kind: IntentMove, DX: 1}))
	assert.True(t, in.Submit(Intent{Kind: IntentStop}))
	assert.False(t, in.Submit(Intent{Kind: IntentMove, DX: -1}), "queue full")

	in.Update(0)
	assert.Equal(t, 6.0, p.Vel.X, "one intent per tick")
	in.Update(0)
	assert.Equal(t, 0.0, p.Vel.X)
}

func TestSubmitCommand(t *testing.T) {
	w, _ := newTestWorld(t)
	p, err := w.SpawnPlayer(world.Position{X: 4, Y: 4}, world.DefaultPlayerSpec())
	require.NoError(t, err)
	in := newInput(t, w, 8, 8)

	assert.True(t, in.SubmitCommand(observerproto.CommandMsg{Type: "COMMAND", Action: "move", DX: -1}))
	assert.True(t, in.SubmitCommand(observerproto.CommandMsg{Type: "COMMAND", Action: "place", Kind: "block", X: 3, Y: 3}))
	assert.False(t, in.SubmitCommand(observerproto.CommandMsg{Type: "COMMAND", Action: "fly"}))
	in.Update(0)

	assert.Equal(t, -6.0, p.Vel.X)
	assert.Same(t, wallKind, w.EntityAt(world.Position{X: 3, Y: 3}))
}
