package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akmonengine/voxelphys"
	"github.com/akmonengine/voxelphys/actor"
	"github.com/akmonengine/voxelphys/journal"
	"github.com/akmonengine/voxelphys/observer"
	"github.com/akmonengine/voxelphys/scene"
	"github.com/akmonengine/voxelphys/snapshot"
)

const DefaultScenePath = "example/scene/scene.yaml"

// report sums up the world between two ticks
type report struct {
	tick     uint64
	entities int
	chunks   int
	grounded int
	queries  []queryResult
}

type queryResult struct {
	name string
	ids  []uint64
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path := flag.String("scene", DefaultScenePath, "scene YAML file, or a go-getter source")
	resume := flag.String("resume", "", "snapshot to restore entities from")
	save := flag.String("save", "", "write a snapshot here when the run ends")
	journalPath := flag.String("journal", "", "SQLite file to record world events in")
	listen := flag.String("listen", "", "serve the observer websocket on this address")
	flag.Parse()

	cfg, err := scene.LoadSource(ctx, *path)
	if err != nil {
		return fmt.Errorf("loading scene: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	sc, err := cfg.Build(logger)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}
	subscribe(sc.World, logger)

	if *resume != "" {
		snap, err := snapshot.ReadFile(*resume)
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}
		if err := snap.Restore(sc.World); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
		slog.Info("snapshot restored", "path", *resume, "tick", snap.Header.Tick, "entities", snap.Header.Entities)
	}

	if *journalPath != "" {
		j, err := journal.Open(*journalPath)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		j.Logger = logger
		defer func() {
			if err := j.Close(); err != nil {
				slog.Error("closing journal", "err", err)
			}
		}()
		j.Attach(sc.World)
	}

	slog.Info("scene loaded",
		"path", *path,
		"entities", sc.World.EntityCount(),
		"chunks", sc.World.ChunkCount(),
		"ticks", cfg.Ticks,
		"workers", sc.World.Workers)

	reports := make(chan report, 4)
	g, gctx := errgroup.WithContext(ctx)
	simCtx, stop := context.WithCancel(gctx)
	defer stop()

	var hub *observer.Hub
	if *listen != "" {
		hub = observer.NewHub()
		hub.Logger = logger
		hub.Attach(sc.World)

		mux := http.NewServeMux()
		mux.Handle("/observer", hub.Handler())
		srv := &http.Server{Addr: *listen, Handler: mux}

		g.Go(func() error {
			slog.Info("observer listening", "addr", *listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("observer server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-simCtx.Done()
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer close(reports)
		defer stop()
		return simulate(simCtx, sc, cfg, hub, reports)
	})

	g.Go(func() error {
		for r := range reports {
			attrs := []any{"tick", r.tick, "entities", r.entities, "chunks", r.chunks, "grounded", r.grounded}
			for _, q := range r.queries {
				attrs = append(attrs, slog.Any(q.name, q.ids))
			}
			slog.Info("world report", attrs...)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if *save != "" {
		snap := snapshot.Capture(sc.World)
		if err := snapshot.WriteFile(*save, snap); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		slog.Info("snapshot saved", "path", *save, "tick", snap.Header.Tick)
	}
	return nil
}

// simulate runs cfg.Ticks steps, or until ctx is done
func simulate(ctx context.Context, sc *scene.Scene, cfg scene.Config, hub *observer.Hub, reports chan<- report) error {
	var tick <-chan time.Time
	if cfg.TickInterval > 0 {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	every := uint64(max(1, cfg.ReportEvery))
	w := sc.World
	start := w.Tick()
	for cfg.Ticks == 0 || w.Tick()-start < uint64(cfg.Ticks) {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		w.Step()
		if hub != nil {
			if err := hub.PublishTick(w); err != nil {
				return fmt.Errorf("publishing tick: %w", err)
			}
		}
		if w.Tick()%every == 0 {
			select {
			case reports <- newReport(sc):
			case <-ctx.Done():
				return nil
			}
		}
	}

	slog.Info("simulation finished", "tick", w.Tick())
	return nil
}

func newReport(sc *scene.Scene) report {
	w := sc.World
	r := report{
		tick:     w.Tick(),
		entities: w.EntityCount(),
		chunks:   w.ChunkCount(),
	}
	for _, e := range w.Entities() {
		if e.OnGround {
			r.grounded++
		}
	}
	for _, q := range sc.Queries {
		found := q.Run(w)
		ids := make([]uint64, len(found))
		for i, e := range found {
			ids[i] = e.ID
		}
		r.queries = append(r.queries, queryResult{name: q.Name, ids: ids})
	}
	return r
}

func subscribe(w *voxelphys.World, logger *slog.Logger) {
	w.Events.Subscribe(voxelphys.LANDED, func(event voxelphys.Event) {
		e := event.(voxelphys.LandedEvent).Entity
		logger.Info("entity landed", "id", e.ID, "class", e.Class, "y", e.Position.Y())
	})
	w.Events.Subscribe(voxelphys.BLOCK_COLLISION, func(event voxelphys.Event) {
		c := event.(voxelphys.BlockCollisionEvent)
		logger.Debug("block collision", "id", c.Entity.ID, "horizontal", c.Horizontal, "vertical", c.Vertical, "requested", c.Requested)
	})

	contact := func(event voxelphys.Event) {
		var a, b *actor.Entity
		switch c := event.(type) {
		case voxelphys.ContactEnterEvent:
			a, b = c.EntityA, c.EntityB
		case voxelphys.ContactExitEvent:
			a, b = c.EntityA, c.EntityB
		default:
			return
		}
		logger.Info("contact", "event", event.Type(), "a", a.ID, "b", b.ID)
	}
	w.Events.Subscribe(voxelphys.CONTACT_ENTER, contact)
	w.Events.Subscribe(voxelphys.CONTACT_EXIT, contact)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
