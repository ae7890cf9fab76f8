// Package victory tracks win and defeat conditions and runs the
// faction-elimination sweep.
package victory

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Config holds the tunable victory thresholds.
type Config struct {
	PlayerFactionID string
	// DiplomaticStreakTicks is how many consecutive ticks the player must be
	// allied with every surviving rival.
	DiplomaticStreakTicks int
	// EconomicStreakTicks is how many consecutive ticks the player's gold
	// share must exceed EconomicGoldShare.
	EconomicStreakTicks int
	// EconomicGoldShare is the fraction of all controlled-city gold the
	// player must hold, in (0, 1].
	EconomicGoldShare float64
}

// DefaultConfig returns the standard victory thresholds.
func DefaultConfig(playerFactionID string) Config {
	return Config{
		PlayerFactionID:       playerFactionID,
		DiplomaticStreakTicks: 15,
		EconomicStreakTicks:   10,
		EconomicGoldShare:     0.6,
	}
}

// Elimination records one faction absorbed during the sweep.
type Elimination struct {
	FactionID   string
	AbsorbedBy  string
	MemberCount int
}

// Evaluator owns the streak counters and the terminal-state decision.
type Evaluator struct {
	reg    *world.Registry
	cfg    Config
	logger *zap.Logger

	diplomaticStreak int
	economicStreak   int
}

func NewEvaluator(reg *world.Registry, cfg Config, logger *zap.Logger) *Evaluator {
	return &Evaluator{reg: reg, cfg: cfg, logger: logger}
}

// DiplomaticStreak returns the current consecutive-tick count for the
// diplomatic condition.
func (e *Evaluator) DiplomaticStreak() int { return e.diplomaticStreak }

// EconomicStreak returns the current consecutive-tick count for the economic
// condition.
func (e *Evaluator) EconomicStreak() int { return e.economicStreak }

// EliminateFactions absorbs every faction that controls zero cities into the
// strongest surviving rival by controlled-city count. The player faction is
// never absorbed; its collapse is a defeat, not an elimination.
func (e *Evaluator) EliminateFactions(tick int) []Elimination {
	var out []Elimination
	for _, f := range e.reg.Factions() {
		if f.ID == e.cfg.PlayerFactionID || len(e.reg.ControlledCities(f.ID)) > 0 {
			continue
		}
		absorber := e.strongestRival(f.ID)
		members := append([]string(nil), f.MemberIDs...)
		for _, id := range members {
			target := ""
			if absorber != nil {
				target = absorber.ID
			}
			if err := e.reg.TransferMember(id, target); err != nil {
				e.logger.Warn("member stranded during elimination", zap.String("character", id), zap.Error(err))
			}
		}
		e.reg.RemoveFaction(f.ID)
		el := Elimination{FactionID: f.ID, MemberCount: len(members)}
		if absorber != nil {
			el.AbsorbedBy = absorber.ID
		}
		out = append(out, el)
		e.logger.Info("faction eliminated",
			zap.Int("tick", tick),
			zap.String("faction", f.ID),
			zap.String("absorbed_by", el.AbsorbedBy),
		)
	}
	return out
}

// strongestRival picks the surviving faction with the most controlled
// cities, ties resolved by id.
func (e *Evaluator) strongestRival(exceptID string) *world.Faction {
	var best *world.Faction
	bestCount := -1
	for _, f := range e.reg.Factions() {
		if f.ID == exceptID {
			continue
		}
		if count := len(e.reg.ControlledCities(f.ID)); count > bestCount {
			best, bestCount = f, count
		}
	}
	return best
}

// Evaluate checks defeat, conquest, diplomatic, and economic conditions in
// that order and writes any terminal state to the registry.
//
// Precondition: the elimination sweep for this tick has already run.
func (e *Evaluator) Evaluate(tick int) world.GameState {
	game := e.reg.Game()
	if game.Terminal() {
		return game
	}

	if tick > 0 && len(e.reg.ControlledCities(e.cfg.PlayerFactionID)) == 0 {
		return e.finish(world.GameState{Status: world.StatusDefeat, Tick: tick})
	}

	if winner := e.conquestWinner(); winner != "" {
		status := world.StatusDefeat
		if winner == e.cfg.PlayerFactionID {
			status = world.StatusVictory
		}
		return e.finish(world.GameState{Status: status, WinnerFactionID: winner, WinType: world.WinConquest, Tick: tick})
	}

	e.updateDiplomaticStreak()
	if e.diplomaticStreak >= e.cfg.DiplomaticStreakTicks {
		return e.finish(world.GameState{Status: world.StatusVictory, WinnerFactionID: e.cfg.PlayerFactionID, WinType: world.WinDiplomacy, Tick: tick})
	}

	e.updateEconomicStreak()
	if e.economicStreak >= e.cfg.EconomicStreakTicks {
		return e.finish(world.GameState{Status: world.StatusVictory, WinnerFactionID: e.cfg.PlayerFactionID, WinType: world.WinEconomy, Tick: tick})
	}

	return game
}

func (e *Evaluator) finish(g world.GameState) world.GameState {
	e.reg.SetGame(g)
	e.logger.Info("game over",
		zap.Int("tick", g.Tick),
		zap.String("status", string(g.Status)),
		zap.String("winner", g.WinnerFactionID),
		zap.String("win_type", string(g.WinType)),
	)
	return g
}

// conquestWinner returns the faction controlling every major-tier city, or
// "" when no faction does. A map with no major cities has no conquest.
func (e *Evaluator) conquestWinner() string {
	winner := ""
	for _, city := range e.reg.Cities() {
		if city.Tier != world.TierMajor {
			continue
		}
		f, ok := e.reg.ControllerFaction(city.ID)
		if !ok {
			return ""
		}
		if winner == "" {
			winner = f.ID
		} else if winner != f.ID {
			return ""
		}
	}
	return winner
}

// updateDiplomaticStreak advances the streak when the player is allied with
// every surviving rival, and resets it to zero the tick that stops holding.
func (e *Evaluator) updateDiplomaticStreak() {
	rivals := 0
	for _, f := range e.reg.Factions() {
		if f.ID == e.cfg.PlayerFactionID {
			continue
		}
		rivals++
		if !e.reg.Allied(e.cfg.PlayerFactionID, f.ID) {
			e.diplomaticStreak = 0
			return
		}
	}
	if rivals == 0 {
		e.diplomaticStreak = 0
		return
	}
	e.diplomaticStreak++
}

// updateEconomicStreak advances the streak while the player's share of all
// controlled-city gold exceeds the threshold, resetting the tick it drops.
func (e *Evaluator) updateEconomicStreak() {
	total, player := 0, 0
	for _, city := range e.reg.Cities() {
		f, ok := e.reg.ControllerFaction(city.ID)
		if !ok {
			continue
		}
		total += city.Gold
		if f.ID == e.cfg.PlayerFactionID {
			player += city.Gold
		}
	}
	if total == 0 || float64(player)/float64(total) <= e.cfg.EconomicGoldShare {
		e.economicStreak = 0
		return
	}
	e.economicStreak++
}
