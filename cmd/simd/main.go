// Package main provides the simulation daemon that runs a dynasty game from
// a YAML scenario, tick by tick, with optional snapshot persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/config"
	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/events"
	"github.com/cory-johannsen/dynasty/internal/game/sim"
	"github.com/cory-johannsen/dynasty/internal/game/victory"
	"github.com/cory-johannsen/dynasty/internal/game/world"
	"github.com/cory-johannsen/dynasty/internal/narrative"
	"github.com/cory-johannsen/dynasty/internal/observability"
	"github.com/cory-johannsen/dynasty/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "content/scenarios/three-kingdoms.yaml", "path to scenario YAML file")
	ticks := flag.Int("ticks", 100, "maximum number of ticks to simulate")
	gameID := flag.String("game-id", "", "game identifier for snapshot persistence")
	save := flag.Bool("save", false, "persist a snapshot to Postgres after every tick")
	load := flag.Bool("load", false, "resume from the latest persisted snapshot for -game-id")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := dice.NewSeededSource(seed)
	if cfg.Logging.Level == "debug" {
		src = dice.NewLoggedSource(src, logger)
	}

	logger.Info("starting simulation",
		zap.String("scenario", *scenarioPath),
		zap.String("player_faction", cfg.Simulation.PlayerFactionID),
		zap.Int64("seed", seed),
	)

	// Load world
	scenarioStart := time.Now()
	reg, roadDefs, err := world.LoadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	logger.Info("scenario loaded",
		zap.Int("factions", len(reg.Factions())),
		zap.Int("cities", len(reg.Cities())),
		zap.Int("roads", len(roadDefs)),
		zap.Duration("elapsed", time.Since(scenarioStart)),
	)

	// Connect to PostgreSQL for snapshot persistence
	var snapRepo *postgres.SnapshotRepository
	if *save || *load {
		if !cfg.Database.Enabled {
			logger.Fatal("-save/-load require database.enabled in config")
		}
		if *gameID == "" {
			logger.Fatal("-save/-load require -game-id")
		}
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		snapRepo = postgres.NewSnapshotRepository(pool.DB())
	}

	if *load {
		snap, err := snapRepo.LoadLatest(ctx, *gameID)
		if err != nil {
			logger.Fatal("loading snapshot", zap.String("game_id", *gameID), zap.Error(err))
		}
		reg, err = world.FromSnapshot(snap)
		if err != nil {
			logger.Fatal("restoring snapshot", zap.Error(err))
		}
		logger.Info("resumed from snapshot",
			zap.String("game_id", *gameID),
			zap.Int("tick", snap.Game.Tick),
		)
	}

	roads := sim.NewRoadMap(reg, roadDefs)

	// Load event cards
	var deck *events.Deck
	if cfg.Simulation.CardDir != "" {
		if info, statErr := os.Stat(cfg.Simulation.CardDir); statErr == nil && info.IsDir() {
			deck = events.NewDeck(events.DefaultInstructionLimit, logger)
			if err := deck.LoadDir(cfg.Simulation.CardDir); err != nil {
				logger.Fatal("loading event cards", zap.Error(err))
			}
			defer deck.Close()
			deck.AdjustMorale = func(factionID string, delta int) { reg.AdjustMorale(factionID, float64(delta)) }
			deck.AddGold = reg.AddGold
			deck.AddFood = reg.AddFood
			deck.AddGarrison = reg.AddGarrison
			deck.AdjustTrust = func(a, b string, delta int) { reg.AdjustTrust(a, b, float64(delta)) }
			logger.Info("event cards loaded", zap.Int("count", len(deck.Cards())))
		} else {
			logger.Warn("card dir not found, skipping", zap.String("dir", cfg.Simulation.CardDir))
		}
	}

	victoryCfg := victory.Config{
		PlayerFactionID:       cfg.Simulation.PlayerFactionID,
		DiplomaticStreakTicks: cfg.Simulation.DiplomaticStreakTicks,
		EconomicStreakTicks:   cfg.Simulation.EconomicStreakTicks,
		EconomicGoldShare:     cfg.Simulation.EconomicGoldShare,
	}

	orch := sim.New(sim.Options{
		Registry:                 reg,
		Queue:                    command.NewQueue(),
		Roads:                    roads,
		Source:                   src,
		Logger:                   logger,
		PlayerFactionID:          cfg.Simulation.PlayerFactionID,
		TicksPerSeason:           cfg.Simulation.TicksPerSeason,
		GarrisonRecoveryInterval: cfg.Simulation.GarrisonRecoveryInterval,
		NPCIncomeMultiplier:      cfg.Simulation.NPCIncomeMultiplier,
		Deck:                     deck,
		Narrator:                 narrative.New(cfg.Narrative, logger),
		Victory:                  &victoryCfg,
		HistoryDepth:             cfg.Simulation.HistoryDepth,
		NarrativeTimeout:         cfg.Narrative.Timeout,
	})

	logger.Info("simulation initialized", zap.Duration("startup", time.Since(start)))

	for i := 0; i < *ticks; i++ {
		res := orch.AdvanceDay()
		printTick(res)

		if *save {
			if err := snapRepo.Save(ctx, *gameID, reg.Snapshot()); err != nil {
				logger.Error("saving snapshot", zap.Int("tick", res.Tick), zap.Error(err))
			}
		}

		if res.Status.Terminal() {
			logger.Info("game over",
				zap.String("status", string(res.Status.Status)),
				zap.String("winner", res.Status.WinnerFactionID),
				zap.String("win_type", string(res.Status.WinType)),
				zap.Int("tick", res.Tick),
			)
			break
		}
	}

	logger.Info("simulation complete", zap.Duration("elapsed", time.Since(start)))
}

func printTick(res sim.TickResult) {
	fmt.Printf("tick %d (%s): %d battles, %d diplomatic events, %d deaths\n",
		res.Tick, res.Season, len(res.Battles), len(res.Diplomacy), len(res.Deaths))
	for _, line := range res.Log {
		fmt.Printf("  %s\n", line)
	}
	if res.Narrative != "" {
		fmt.Printf("  ~ %s\n", res.Narrative)
	}
}
