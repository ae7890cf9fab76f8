// Package sim drives the tick pipeline. The pipeline is an explicit ordered
// list of named steps; each step sees every earlier step's writes, and the
// order is part of the package's contract (troop transfers land before
// battles, deaths are processed after battles, victory is checked last
// before the history snapshot).
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/battle"
	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/economy"
	"github.com/cory-johannsen/dynasty/internal/game/events"
	"github.com/cory-johannsen/dynasty/internal/game/lifecycle"
	"github.com/cory-johannsen/dynasty/internal/game/victory"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Defaults for optional orchestrator settings.
const (
	DefaultTicksPerSeason           = 4
	DefaultGarrisonRecoveryInterval = 2
	DefaultHistoryDepth             = 32
	defaultNarrativeTimeout         = 2 * time.Second
)

// Narrator produces an optional prose summary of a tick's events. It runs
// off the hot path; a summary that misses the deadline is simply dropped.
type Narrator interface {
	Summarize(ctx context.Context, res TickResult) (string, error)
}

// Step is one named stage of the tick pipeline.
type Step struct {
	Name string
	Run  func(t *tickState)
}

// tickState is the per-tick scratch shared by the steps.
type tickState struct {
	tick   int
	season world.Season
	res    *TickResult
	// held are the demand and sow-discord commands pulled aside by the
	// player-commands step for the later demand-processing step.
	held []command.Command
}

// Options wires an Orchestrator. Registry, Queue, Roads, Source, and Logger
// are required; every other collaborator has a default.
type Options struct {
	Registry *world.Registry
	Queue    *command.Queue
	Roads    RoadService
	Source   dice.Source
	Logger   *zap.Logger

	PlayerFactionID          string
	TicksPerSeason           int
	GarrisonRecoveryInterval int
	NPCIncomeMultiplier      float64

	// Relationships defaults to the ledger-backed implementation.
	Relationships RelationshipEngine
	// Advisor defaults to the built-in NPC advisor.
	Advisor NPCAdvisor
	// Deck is the optional Lua event-card deck.
	Deck *events.Deck
	// Narrator is the optional tick summarizer.
	Narrator Narrator
	// NewID mints ids for spawned heirs; defaults to uuid.NewString.
	NewID lifecycle.IDSource
	// Victory overrides the default victory tuning.
	Victory *victory.Config
	// HistoryDepth bounds the retained snapshot ring.
	HistoryDepth int
	// NarrativeTimeout bounds how long a tick waits for its summary.
	NarrativeTimeout time.Duration
}

// Orchestrator owns the world for the duration of each AdvanceDay call and
// runs the fixed step pipeline over it.
type Orchestrator struct {
	reg             *world.Registry
	queue           *command.Queue
	roads           RoadService
	src             dice.Source
	logger          *zap.Logger
	playerFactionID string
	ticksPerSeason  int

	rel      RelationshipEngine
	advisor  NPCAdvisor
	deck     *events.Deck
	narrator Narrator

	exec    *executor
	economy *economy.Engine
	battle  *battle.Engine
	diplo   *diplomacy.Engine
	life    *lifecycle.Engine
	vict    *victory.Evaluator
	events  *events.Engine

	steps            []Step
	history          []world.Snapshot
	historyDepth     int
	narrativeTimeout time.Duration
	last             *TickResult
}

// New builds an Orchestrator and its engines.
//
// Precondition: opts.Registry, Queue, Roads, Source, Logger, and
// PlayerFactionID must be set.
func New(opts Options) *Orchestrator {
	if opts.Registry == nil || opts.Queue == nil || opts.Roads == nil || opts.Source == nil || opts.Logger == nil {
		panic("sim: Registry, Queue, Roads, Source, and Logger are required")
	}
	if opts.PlayerFactionID == "" {
		panic("sim: PlayerFactionID is required")
	}
	if opts.TicksPerSeason <= 0 {
		opts.TicksPerSeason = DefaultTicksPerSeason
	}
	if opts.GarrisonRecoveryInterval <= 0 {
		opts.GarrisonRecoveryInterval = DefaultGarrisonRecoveryInterval
	}
	if opts.HistoryDepth <= 0 {
		opts.HistoryDepth = DefaultHistoryDepth
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = defaultNarrativeTimeout
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Relationships == nil {
		opts.Relationships = NewLedgerRelationships(opts.Registry)
	}
	if opts.Advisor == nil {
		opts.Advisor = NewNPCAdvisor(opts.Registry, opts.Roads, opts.Source, opts.PlayerFactionID, opts.Logger)
	}
	vcfg := victory.DefaultConfig(opts.PlayerFactionID)
	if opts.Victory != nil {
		vcfg = *opts.Victory
	}

	o := &Orchestrator{
		reg:              opts.Registry,
		queue:            opts.Queue,
		roads:            opts.Roads,
		src:              opts.Source,
		logger:           opts.Logger,
		playerFactionID:  opts.PlayerFactionID,
		ticksPerSeason:   opts.TicksPerSeason,
		rel:              opts.Relationships,
		advisor:          opts.Advisor,
		deck:             opts.Deck,
		narrator:         opts.Narrator,
		historyDepth:     opts.HistoryDepth,
		narrativeTimeout: opts.NarrativeTimeout,
	}
	o.economy = economy.NewEngine(opts.Registry, economy.Config{
		GarrisonRecoveryInterval: opts.GarrisonRecoveryInterval,
		NPCIncomeMultiplier:      opts.NPCIncomeMultiplier,
		PlayerFactionID:          opts.PlayerFactionID,
	}, opts.Logger)
	o.battle = battle.NewEngine(opts.Registry, opts.Source, opts.PlayerFactionID, opts.Logger)
	o.diplo = diplomacy.NewEngine(opts.Registry, opts.Source, opts.Logger)
	o.life = lifecycle.NewEngine(opts.Registry, opts.Source, opts.NewID, opts.Logger)
	o.vict = victory.NewEvaluator(opts.Registry, vcfg, opts.Logger)
	o.events = events.NewEngine(opts.Registry, opts.Source, opts.Logger)
	o.exec = &executor{reg: opts.Registry, roads: opts.Roads, src: opts.Source, diplo: o.diplo, logger: opts.Logger}
	o.steps = o.buildSteps()
	return o
}

// buildSteps assembles the pipeline. The order here is the contract the
// package documents; changing it changes simulation outcomes.
func (o *Orchestrator) buildSteps() []Step {
	return []Step{
		{"relationship_decay", func(t *tickState) { o.rel.Decay(t.tick) }},
		{"relationship_sync", func(t *tickState) { o.rel.Sync(t.tick) }},
		{"gold_production", func(t *tickState) { o.economy.ProduceGold(t.tick) }},
		{"food_production", func(t *tickState) {
			t.res.Log = append(t.res.Log, o.economy.ProduceFood(t.tick, t.season)...)
		}},
		{"garrison_recovery", func(t *tickState) { o.economy.RecoverGarrisons(t.tick) }},
		{"player_commands", o.playerCommands},
		{"npc_movement", func(t *tickState) { o.advisor.DecideMovements(t.tick, t.season) }},
		{"npc_spending", func(t *tickState) { o.advisor.Spend(t.tick) }},
		{"npc_bonuses", o.npcBonuses},
		{"specialty_passives", o.specialtyPassives},
		{"siege_attrition", func(t *tickState) {
			t.res.Sieges = append(t.res.Sieges, o.battle.SiegeTick(t.tick, t.season)...)
		}},
		{"treaty_expiry", o.treatyExpiry},
		{"idle_movement", o.idleMovement},
		{"transfer_arrivals", o.transferArrivals},
		{"battle_resolution", o.battleResolution},
		{"captive_recruitment", o.recruitCaptives},
		{"spy_resolution", o.resolveSpyMissions},
		{"diplomacy_evaluation", func(t *tickState) {
			t.res.Diplomacy = append(t.res.Diplomacy, o.diplo.EvaluateAlliances(t.tick)...)
		}},
		{"demand_processing", o.demandProcessing},
		{"trust_drift", func(t *tickState) { o.diplo.DriftTrust() }},
		{"betrayal_evaluation", func(t *tickState) {
			t.res.Betrayals = append(t.res.Betrayals, o.diplo.EvaluateBetrayals(t.tick)...)
		}},
		{"research_progress", o.progressResearch},
		{"npc_hiring", func(t *tickState) { o.advisor.HireNeutrals(t.tick) }},
		{"world_events", func(t *tickState) {
			t.res.World = append(t.res.World, o.events.WorldEvents(t.tick)...)
		}},
		{"seasonal_event", func(t *tickState) {
			t.res.Seasonal = append(t.res.Seasonal, o.events.SeasonalEvent(t.tick, o.ticksPerSeason)...)
		}},
		{"death_processing", o.deathProcessing},
		{"route_cleanup", func(t *tickState) {
			t.res.Log = append(t.res.Log, o.economy.CleanupRoutes(t.tick)...)
		}},
		{"supply_effects", func(t *tickState) { o.economy.UpdateSupply(t.tick) }},
		{"morale_update", o.updateMorale},
		{"exhaustion_update", o.updateExhaustion},
		{"prestige_update", func(t *tickState) { o.life.UpdatePrestige(t.tick) }},
		{"path_bonuses", o.pathBonuses},
		{"favorability_update", o.updateFavorability},
		{"mentorship", func(t *tickState) {
			t.res.Lifecycle = append(t.res.Lifecycle, o.life.Mentorship(t.tick)...)
		}},
		{"event_card", o.drawEventCard},
		{"loyalty_update", o.updateLoyalty},
		{"tradition_evaluation", o.evaluateTraditions},
		{"elimination_sweep", func(t *tickState) {
			t.res.Eliminations = append(t.res.Eliminations, o.vict.EliminateFactions(t.tick)...)
		}},
		{"victory_check", func(t *tickState) { t.res.Status = o.vict.Evaluate(t.tick) }},
		{"history_snapshot", o.snapshotHistory},
	}
}

// Steps returns the pipeline in execution order.
func (o *Orchestrator) Steps() []Step {
	out := make([]Step, len(o.steps))
	copy(out, o.steps)
	return out
}

// AdvanceDay advances the world one tick and returns everything that
// happened. On a terminal game state it is a pure no-op returning the last
// result unchanged.
func (o *Orchestrator) AdvanceDay() TickResult {
	if g := o.reg.Game(); g.Terminal() {
		if o.last == nil {
			o.last = &TickResult{Tick: g.Tick, Season: world.SeasonAt(g.Tick, o.ticksPerSeason), Status: g}
		}
		return *o.last
	}
	tick := o.reg.AdvanceTick()
	season := world.SeasonAt(tick, o.ticksPerSeason)
	t := &tickState{tick: tick, season: season, res: &TickResult{Tick: tick, Season: season}}

	for _, step := range o.steps {
		step.Run(t)
	}
	t.res.Status = o.reg.Game()

	if o.narrator != nil {
		t.res.Narrative = o.narrate(*t.res)
	}
	o.last = t.res
	o.logger.Info("tick complete",
		zap.Int("tick", tick),
		zap.String("season", season.String()),
		zap.String("status", string(t.res.Status.Status)),
		zap.Int("battles", len(t.res.Battles)),
	)
	return *t.res
}

// History returns the retained end-of-tick snapshots, oldest first.
func (o *Orchestrator) History() []world.Snapshot {
	out := make([]world.Snapshot, len(o.history))
	copy(out, o.history)
	return out
}

// playerCommands drains the queue and executes everything except demands and
// sow-discord plots, which are held for their dedicated later step.
func (o *Orchestrator) playerCommands(t *tickState) {
	t.held = o.queue.DrainKinds(command.KindDemand, command.KindSowDiscord)
	for _, cmd := range o.queue.Drain() {
		o.exec.execute(t.tick, t.season, cmd, t.res)
	}
}

// treatyExpiry drops lapsed treaties and pays out mutual-defense support to
// besieged allies.
func (o *Orchestrator) treatyExpiry(t *tickState) {
	for _, tr := range o.reg.ExpireTreaties(t.tick) {
		t.res.Log = append(t.res.Log, fmt.Sprintf("the %s pact between %s and %s lapses", tr.Kind, tr.FactionA, tr.FactionB))
	}
	o.diplo.SupportBesiegedAllies(t.tick)
}

// battleResolution consumes this tick's arrivals, resolves the battles they
// trigger, and awards the winners their prestige.
func (o *Orchestrator) battleResolution(t *tickState) {
	arrivals := o.reg.ConsumeArrivals(t.tick)
	results := o.battle.ResolveArrivals(t.tick, t.season, arrivals)
	for _, r := range results {
		if r.PactBroken {
			continue
		}
		if r.Captured {
			o.life.AwardBattlePrestige(r.AttackerIDs)
		} else if len(r.LoserIDs) > 0 {
			o.life.AwardBattlePrestige(r.DefenderIDs)
		}
	}
	t.res.Battles = append(t.res.Battles, results...)
}

// demandProcessing resolves the held demand and sow-discord commands. Each
// is consumed whether it succeeds or not.
func (o *Orchestrator) demandProcessing(t *tickState) {
	for _, cmd := range t.held {
		switch c := cmd.(type) {
		case command.Demand:
			t.res.Diplomacy = append(t.res.Diplomacy, o.diplo.Demand(t.tick, c))
		case command.SowDiscord:
			t.res.Diplomacy = append(t.res.Diplomacy, o.diplo.SowDiscord(t.tick, c))
		}
	}
	t.held = nil
}

// deathProcessing rolls battle deaths for this tick's losers, then runs the
// periodic aging pass. Both can cascade into succession, heirs, and legacy.
func (o *Orchestrator) deathProcessing(t *tickState) {
	for _, r := range t.res.Battles {
		if len(r.LoserIDs) == 0 {
			continue
		}
		t.res.Deaths = append(t.res.Deaths, o.life.ProcessBattleDeaths(t.tick, r.LoserIDs, r.LoserTactic)...)
	}
	t.res.Deaths = append(t.res.Deaths, o.life.AgeCharacters(t.tick)...)
}

// drawEventCard draws and applies at most one card from the deck.
func (o *Orchestrator) drawEventCard(t *tickState) {
	if o.deck == nil {
		return
	}
	card, ok := o.deck.Draw(o.src)
	if !ok {
		return
	}
	if err := o.deck.Apply(card.ID, t.tick); err != nil {
		o.logger.Warn("event card failed", zap.String("card", card.ID), zap.Error(err))
		return
	}
	t.res.Card = card.ID
	t.res.World = append(t.res.World, events.Event{Kind: events.KindCard, CardID: card.ID})
}

// snapshotHistory appends the end-of-tick snapshot to the bounded ring.
func (o *Orchestrator) snapshotHistory(t *tickState) {
	o.history = append(o.history, o.reg.Snapshot())
	if len(o.history) > o.historyDepth {
		o.history = o.history[len(o.history)-o.historyDepth:]
	}
}

// narrate waits for the summarizer up to the configured deadline and drops
// the summary past it.
func (o *Orchestrator) narrate(res TickResult) string {
	ctx, cancel := context.WithTimeout(context.Background(), o.narrativeTimeout)
	defer cancel()
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := o.narrator.Summarize(ctx, res)
		done <- outcome{text, err}
	}()
	select {
	case <-ctx.Done():
		return ""
	case v := <-done:
		if v.err != nil {
			o.logger.Warn("narrative generation failed", zap.Error(v.err))
			return ""
		}
		return v.text
	}
}
