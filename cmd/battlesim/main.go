// Command battlesim runs a headless Shanghai 1937 battle. It plays AI
// against AI, or until the configured human side has to act, and keeps the
// game in SQLite so a later run resumes where this one stopped.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/redstrait/internal/api"
	"github.com/talgya/redstrait/internal/config"
	"github.com/talgya/redstrait/internal/engine"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/persistence"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/world"
)

func main() {
	cfgPath := os.Getenv("BATTLESIM_CONFIG")
	if cfgPath == "" {
		cfgPath = "battlesim.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	human, _ := cfg.HumanFaction()

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario loaded", "id", sc.ID, "name", sc.Name, "turns", sc.MaxTurns, "units", len(sc.Units))

	rng := entropy.New(cfg.Seed)
	gameOpts := engine.Options{
		Human:           human,
		AutoAcknowledge: cfg.AutoAcknowledge,
		MaxTurns:        cfg.MaxTurns,
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.DBPath != "" {
		os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	}

	// ── Load or start the game ────────────────────────────────────────
	g, err := resume(db, sc, rng, gameOpts)
	if err != nil {
		slog.Error("failed to resume game", "error", err)
		os.Exit(1)
	}
	if g == nil {
		slog.Info("no saved game found, starting a new battle", "seed", cfg.Seed, "human", human)
		g, err = engine.New(sc, rng, gameOpts)
		if err != nil {
			slog.Error("failed to set up game", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observer API ──────────────────────────────────────────────────
	var observer *api.Server
	if cfg.HTTPAddr != "" {
		observer = &api.Server{DB: db, Addr: cfg.HTTPAddr, Origins: cfg.CORSOrigins}
		if cfg.RateLimit > 0 {
			observer.Limiter = api.NewRateLimiter(cfg.RateLimit, time.Minute)
		}
		save(db, g)
		if err := observer.Start(ctx); err != nil {
			slog.Error("failed to start HTTP API", "error", err)
			os.Exit(1)
		}
	}

	// ── Play ──────────────────────────────────────────────────────────
	runner := &engine.Runner{
		Game:      g,
		Interval:  cfg.Pace,
		OnAdvance: func(g *engine.Game) { record(db, g) },
	}
	if cfg.Autosave {
		runner.OnTurn = func(g *engine.Game) { save(db, g) }
	}
	runner.Run(ctx)

	if ctx.Err() != nil {
		slog.Info("received signal, stopping")
	}
	save(db, g)
	report(g, human)

	if observer != nil && ctx.Err() == nil {
		slog.Info("battle paused, observer still serving until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}
}

// resume restores the saved game, or returns nil when there is none or it
// belongs to another scenario.
func resume(db *persistence.DB, sc *scenario.Scenario, rng entropy.Source, opts engine.Options) (*engine.Game, error) {
	if db == nil {
		return nil, nil
	}
	id, st, err := db.LoadState()
	if errors.Is(err, persistence.ErrNoSave) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if id != sc.ID {
		slog.Warn("saved game is for another scenario, ignoring it", "saved", id, "scenario", sc.ID)
		return nil, nil
	}
	slog.Info("saved game restored", "turn", st.Turn, "phase", st.Phase, "units", len(st.Units))
	return engine.Restore(sc, st, rng, opts), nil
}

func record(db *persistence.DB, g *engine.Game) {
	evs := g.Drain()
	for _, e := range evs {
		if e.Kind == engine.EventRejected {
			slog.Debug("rejected", "turn", e.Turn, "faction", e.Faction, "message", e.Message)
		}
	}
	if db == nil {
		return
	}
	if err := db.SaveEvents(evs); err != nil {
		slog.Error("event log save failed", "error", err)
	}
}

func save(db *persistence.DB, g *engine.Game) {
	if db == nil {
		return
	}
	record(db, g)
	if err := db.SaveState(g.Scenario().ID, g.State()); err != nil {
		slog.Error("save failed", "error", err)
	}
}

func report(g *engine.Game, human world.Faction) {
	st := g.State()
	if st.Phase != engine.PhaseGameOver {
		if st.Current == human {
			fmt.Printf("\nTurn %d (%s): waiting for %s orders.\n", st.Turn, st.Phase, human)
		} else {
			fmt.Printf("\nStopped on the %s turn. Game saved.\n", humanize.Ordinal(st.Turn))
		}
		return
	}

	fmt.Printf("\nThe battle ended on the %s turn: %s (%s).\n", humanize.Ordinal(st.Turn), winnerText(st.Winner), st.Reason)
	for _, f := range world.Sides {
		fmt.Printf("  %-5s  VP %s  CP %s  steps lost %s\n",
			f, humanize.Comma(int64(st.VP[f])), humanize.Comma(int64(st.CP[f])), humanize.Comma(int64(st.Casualties[f])))
	}
}

func winnerText(f world.Faction) string {
	if f == world.FactionNeutral {
		return "no side prevails"
	}
	return f.String() + " wins"
}
