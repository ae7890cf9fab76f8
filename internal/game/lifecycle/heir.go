package lifecycle

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// heirIntroductionAge is the age in years at which a spawned heir enters
// play.
const heirIntroductionAge = 18

var traitPool = []world.Trait{
	world.TraitLoyal,
	world.TraitTreacherous,
	world.TraitBrave,
	world.TraitCautious,
	world.TraitAmbitious,
	world.TraitScholarly,
	world.TraitCharismatic,
}

// spawnHeir generates a successor for a deceased prestigious character: one
// or two inherited traits plus one fresh trait, 60-80% of the parent's stats
// per stat, and a share of the parent's prestige.
func (e *Engine) spawnHeir(tick int, parent *world.Character, faction *world.Faction, cityID string, parentPrestige int) *world.Character {
	heir := &world.Character{
		ID:        e.newID(),
		Name:      parent.Name + " the Younger",
		Traits:    e.heirTraits(parent),
		Stats:     e.inheritStats(parent.Stats),
		Role:      world.RoleNone,
		CityID:    e.heirCity(cityID, faction),
		BirthTick: tick - heirIntroductionAge*TicksPerYear,
		ParentID:  parent.ID,
	}
	if err := e.reg.AddCharacter(heir); err != nil {
		e.logger.Warn("heir discarded", zap.Error(err))
		return heir
	}
	if err := e.reg.TransferMember(heir.ID, faction.ID); err != nil {
		e.logger.Warn("heir left factionless", zap.Error(err))
	}
	e.reg.AdjustPrestige(heir.ID, float64(parentPrestige)*heirPrestigeShare)
	e.logger.Info("heir born",
		zap.Int("tick", tick),
		zap.String("parent", parent.ID),
		zap.String("heir", heir.ID),
		zap.String("faction", faction.ID),
	)
	return heir
}

// heirTraits inherits 1-2 of the parent's traits and adds one fresh trait
// the heir does not already carry.
func (e *Engine) heirTraits(parent *world.Character) []world.Trait {
	var traits []world.Trait
	if n := len(parent.Traits); n > 0 {
		take := 1
		if n > 1 && dice.Chance(e.src, 50) {
			take = 2
		}
		perm := e.src.Intn(n)
		for i := 0; i < take; i++ {
			traits = appendTrait(traits, parent.Traits[(perm+i)%n])
		}
	}
	for range traitPool {
		fresh := traitPool[e.src.Intn(len(traitPool))]
		if !hasTrait(traits, fresh) {
			traits = append(traits, fresh)
			break
		}
	}
	return traits
}

// inheritStats scales each parent stat by an independent 60-80% factor.
func (e *Engine) inheritStats(parent world.Stats) world.Stats {
	return world.Stats{
		Military:     e.scaleStat(parent.Military),
		Intelligence: e.scaleStat(parent.Intelligence),
		Charm:        e.scaleStat(parent.Charm),
	}
}

func (e *Engine) scaleStat(v int) int {
	pct := dice.Between(e.src, 60, 80)
	scaled := v * pct / 100
	if scaled > world.MaxStat {
		scaled = world.MaxStat
	}
	return scaled
}

func (e *Engine) heirCity(cityID string, faction *world.Faction) string {
	if cityID != "" {
		return cityID
	}
	if capital, ok := e.reg.Capital(faction.ID); ok {
		return capital.ID
	}
	return ""
}

func appendTrait(traits []world.Trait, t world.Trait) []world.Trait {
	if hasTrait(traits, t) {
		return traits
	}
	return append(traits, t)
}

func hasTrait(traits []world.Trait, t world.Trait) bool {
	for _, have := range traits {
		if have == t {
			return true
		}
	}
	return false
}
