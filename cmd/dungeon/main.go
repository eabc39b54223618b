package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dungeoncrawler/server/internal/config"
	"github.com/dungeoncrawler/server/internal/core/event"
	coresys "github.com/dungeoncrawler/server/internal/core/system"
	"github.com/dungeoncrawler/server/internal/data"
	"github.com/dungeoncrawler/server/internal/observer"
	"github.com/dungeoncrawler/server/internal/observerproto"
	"github.com/dungeoncrawler/server/internal/scripting"
	"github.com/dungeoncrawler/server/internal/system"
	"github.com/dungeoncrawler/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("DUNGEON_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Entity catalog
	printSection("data")
	entities, err := data.LoadEntityTable(cfg.Data.EntitiesPath)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	printStat("entity kinds", entities.Count())
	wall := entities.Kind(cfg.World.WallKind)
	if wall == nil {
		return fmt.Errorf("wall kind %q not in %s", cfg.World.WallKind, cfg.Data.EntitiesPath)
	}

	// 4. Event bus and scripts
	bus := event.NewBus()
	if cfg.Scripting.Enabled {
		lua, err := scripting.NewEngine(cfg.Scripting.Dir, bus, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer lua.Close()
		printStat("lua hooks", lua.Hooks())
	}

	// 5. World
	printSection("world")
	w := world.New(bus, wall)
	minChunk := world.ChunkCoord{X: cfg.World.MinChunkX, Y: cfg.World.MinChunkY}
	maxChunk := world.ChunkCoord{X: cfg.World.MaxChunkX, Y: cfg.World.MaxChunkY}
	if err := w.GenerateRegion(minChunk, maxChunk); err != nil {
		return fmt.Errorf("generate world: %w", err)
	}
	printStat("chunks", len(w.Chunks()))

	spawn := world.Position{X: cfg.World.SpawnX, Y: cfg.World.SpawnY}
	if _, err := w.SpawnPlayer(spawn, playerSpec(cfg.Player)); err != nil {
		return fmt.Errorf("spawn player: %w", err)
	}
	printStat("creatures", spawnCreatures(w, entities, log))
	fmt.Println()

	// 6. Systems
	input := system.NewInputSystem(w, entities, cfg.Simulation.IntentQueueSize, cfg.Simulation.MaxIntentsPerTick, log)
	runner := coresys.NewRunner()
	runner.Register(input)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewMovementSystem(w))
	runner.Register(system.NewCollisionSystem(w, log))
	runner.Register(system.NewCleanupSystem(w, log))

	// 7. Debug observer
	var httpServer *http.Server
	if cfg.Observer.Enabled {
		obs := observer.NewServer(input, log)
		runner.Register(system.NewOutputSystem(w, obs, cfg.Observer.FrameEvery))
		httpServer = &http.Server{
			Addr:              cfg.Observer.BindAddress,
			Handler:           obs.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("observer server", zap.Error(err))
			}
		}()
		printOK(fmt.Sprintf("observer listening on %s", cfg.Observer.BindAddress))
	} else {
		// one debug line per second of simulated time
		every := int(time.Second / cfg.Simulation.TickRate)
		runner.Register(system.NewOutputSystem(w, logSink{log: log}, every))
	}

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printOK(fmt.Sprintf("game loop started (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()), zap.Uint64("ticks", runner.Ticks()))
			if httpServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = httpServer.Shutdown(ctx)
				cancel()
			}
			log.Info("stopped")
			return nil
		}
	}
}

func playerSpec(c config.PlayerConfig) world.EntitySpec {
	spec := world.DefaultPlayerSpec()
	spec.Width = c.Width
	spec.Height = c.Height
	spec.Health = c.Health
	spec.MovementSpeed = c.MovementSpeed
	spec.Damping = c.Damping
	return spec
}

// spawnCreatures lays out each spawn entry in a row, skipping cells that are
// off the generated region or solid.
func spawnCreatures(w *world.World, entities *data.EntityTable, log *zap.Logger) int {
	total := 0
	for _, sp := range entities.Spawns() {
		spec := entities.Creature(sp.Creature).Spec()
		for i := 0; i < sp.Count; i++ {
			pos := world.Position{X: sp.X + float64(i)*(spec.Width+1), Y: sp.Y}
			if w.ChunkAt(pos) == nil {
				log.Warn("spawn outside world", zap.String("creature", sp.Creature), zap.Stringer("pos", pos))
				continue
			}
			if k := w.EntityAt(pos); k != nil && !k.Passable {
				log.Warn("spawn blocked", zap.String("creature", sp.Creature), zap.Stringer("pos", pos))
				continue
			}
			w.SpawnDynamic(pos, spec)
			total++
		}
	}
	return total
}

// logSink stands in for the observer when it is disabled.
type logSink struct {
	log *zap.Logger
}

func (s logSink) Publish(f observerproto.FrameMsg) {
	for _, e := range f.Entities {
		if e.ID != f.PlayerID {
			continue
		}
		s.log.Debug("player",
			zap.Uint64("tick", f.Tick),
			zap.Float64("x", e.Pos[0]),
			zap.Float64("y", e.Pos[1]),
			zap.Int32("health", e.Health),
		)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
