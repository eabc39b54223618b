package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dungeoncrawler/server/internal/core/event"
	"github.com/dungeoncrawler/server/internal/world"
)

// Engine wraps a single gopher-lua VM whose scripts hook into the event bus.
// Single-goroutine access only (game loop).
//
// Scripts register hooks at load time:
//
//	subscribe("block_placed", "high", function(ev) return ev.kind == "lava" end)
//	listen("entity_collision", function(ev) log("bump " .. ev.a.name) end)
//
// A subscriber cancels by returning true or by setting ev.cancelled = true,
// and may clear an earlier cancellation by returning false.
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	bus   *event.Bus
	hooks int
}

// NewEngine creates a Lua engine bound to bus and loads all scripts from
// scriptsDir/core, then scriptsDir/world, then scriptsDir/rules.
// Missing directories are skipped.
func NewEngine(scriptsDir string, bus *event.Bus, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, bus: bus}
	vm.SetGlobal("subscribe", vm.NewFunction(e.luaSubscribe))
	vm.SetGlobal("listen", vm.NewFunction(e.luaListen))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	for _, sub := range []string{"core", "world", "rules"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source. Hooks it registers stay for the
// life of the engine.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Hooks reports how many subscribe/listen calls scripts have made.
func (e *Engine) Hooks() int { return e.hooks }

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) luaSubscribe(L *lua.LState) int {
	name := L.CheckString(1)
	prio, ok := event.ParsePriority(L.CheckString(2))
	if !ok {
		L.ArgError(2, "unknown priority")
		return 0
	}
	fn := L.CheckFunction(3)

	switch name {
	case "block_placed":
		event.Subscribe(e.bus, prio, func(ev *world.BlockPlacedEvent) {
			e.callCancellable(name, fn, e.blockTable(ev.Actor, ev.Kind, ev.Pos), ev)
		})
	case "block_broken":
		event.Subscribe(e.bus, prio, func(ev *world.BlockBrokenEvent) {
			e.callCancellable(name, fn, e.blockTable(ev.Actor, ev.Kind, ev.Pos), ev)
		})
	default:
		L.ArgError(1, "unknown cancellable event "+name)
		return 0
	}
	e.hooks++
	return 0
}

func (e *Engine) luaListen(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	switch name {
	case "block_changed":
		event.Listen(e.bus, func(ev world.BlockChangedEvent) {
			t := e.vm.NewTable()
			t.RawSetString("x", lua.LNumber(ev.Pos.X))
			t.RawSetString("y", lua.LNumber(ev.Pos.Y))
			t.RawSetString("old", kindName(ev.Old))
			t.RawSetString("new", kindName(ev.New))
			e.call(name, fn, t)
		})
	case "entity_collision":
		event.Listen(e.bus, func(ev world.EntityCollisionEvent) {
			t := e.vm.NewTable()
			t.RawSetString("a", e.entityTable(ev.A))
			t.RawSetString("b", e.entityTable(ev.B))
			e.call(name, fn, t)
		})
	case "tile_collision":
		event.Listen(e.bus, func(ev world.TileCollisionEvent) {
			t := e.vm.NewTable()
			t.RawSetString("entity", e.entityTable(ev.Entity))
			t.RawSetString("kind", kindName(ev.Kind))
			t.RawSetString("x", lua.LNumber(ev.Tile.X))
			t.RawSetString("y", lua.LNumber(ev.Tile.Y))
			e.call(name, fn, t)
		})
	case "entity_removed":
		event.Listen(e.bus, func(ev world.EntityRemovedEvent) {
			t := e.vm.NewTable()
			t.RawSetString("entity", e.entityTable(ev.Entity))
			e.call(name, fn, t)
		})
	default:
		L.ArgError(1, "unknown notification "+name)
		return 0
	}
	e.hooks++
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// callCancellable runs a subscriber and folds its verdict into c.
// Script errors are logged and leave c untouched.
func (e *Engine) callCancellable(name string, fn *lua.LFunction, t *lua.LTable, c event.Cancellable) {
	t.RawSetString("cancelled", lua.LBool(c.Cancelled()))
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua hook error", zap.String("event", name), zap.Error(err))
		return
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	switch ret {
	case lua.LTrue:
		c.Cancel()
	case lua.LFalse:
		c.SetCancelled(false)
	default:
		c.SetCancelled(t.RawGetString("cancelled") == lua.LTrue)
	}
}

func (e *Engine) call(name string, fn *lua.LFunction, t *lua.LTable) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua hook error", zap.String("event", name), zap.Error(err))
	}
}

func (e *Engine) blockTable(actor *world.DynamicEntity, kind *world.GameEntity, pos world.Position) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("kind", kindName(kind))
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("actor", e.entityTable(actor))
	return t
}

func (e *Engine) entityTable(d *world.DynamicEntity) lua.LValue {
	if d == nil {
		return lua.LNil
	}
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(d.ID))
	t.RawSetString("name", lua.LString(d.Name))
	t.RawSetString("x", lua.LNumber(d.Pos.X))
	t.RawSetString("y", lua.LNumber(d.Pos.Y))
	t.RawSetString("health", lua.LNumber(d.Health))
	return t
}

func kindName(k *world.GameEntity) lua.LValue {
	if k == nil {
		return lua.LNil
	}
	return lua.LString(k.Name)
}
