// Package events produces the simulation's random happenings: world events
// (plague, drought, bandits), seasonal effects, and Lua-scripted event cards.
package events

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Per-tick permille chances for each world event. At most one world event
// fires per tick.
const (
	plagueChancePermille  = 15
	droughtChancePermille = 20
	banditsChancePermille = 30
)

const (
	plagueGarrisonLoss  = 2
	plagueFoodLoss      = 20
	droughtDuration     = 6
	banditGoldLoss      = 15
	banditGarrisonLoss  = 1
	winterMoralePenalty = -1
	springMoraleBonus   = 1
	harvestFoodBonus    = 10
)

// Kind classifies a produced event.
type Kind string

const (
	KindPlague  Kind = "plague"
	KindDrought Kind = "drought"
	KindBandits Kind = "bandits"
	KindSeason  Kind = "season"
	KindCard    Kind = "card"
)

// Event is one world, seasonal, or card happening.
type Event struct {
	Kind   Kind
	CityID string
	// CardID is set for card events.
	CardID string
	Detail string
}

// Engine rolls world and seasonal events against the shared registry.
type Engine struct {
	reg    *world.Registry
	src    dice.Source
	logger *zap.Logger
}

func NewEngine(reg *world.Registry, src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, src: src, logger: logger}
}

// WorldEvents rolls for at most one calamity this tick, striking a random
// controlled city.
func (e *Engine) WorldEvents(tick int) []Event {
	cities := e.controlledCities()
	if len(cities) == 0 {
		return nil
	}
	target := cities[e.src.Intn(len(cities))]

	switch {
	case dice.ChancePermille(e.src, plagueChancePermille):
		e.reg.AddGarrison(target.ID, -plagueGarrisonLoss)
		e.reg.AddFood(target.ID, -plagueFoodLoss)
		e.logger.Info("plague", zap.Int("tick", tick), zap.String("city", target.ID))
		return []Event{{Kind: KindPlague, CityID: target.ID, Detail: "plague thins the garrison and spoils stores"}}
	case dice.ChancePermille(e.src, droughtChancePermille):
		target.DroughtUntil = tick + droughtDuration
		e.logger.Info("drought", zap.Int("tick", tick), zap.String("city", target.ID))
		return []Event{{Kind: KindDrought, CityID: target.ID, Detail: "drought withers the fields"}}
	case dice.ChancePermille(e.src, banditsChancePermille):
		e.reg.AddGold(target.ID, -banditGoldLoss)
		e.reg.AddGarrison(target.ID, -banditGarrisonLoss)
		e.logger.Info("bandits", zap.Int("tick", tick), zap.String("city", target.ID))
		return []Event{{Kind: KindBandits, CityID: target.ID, Detail: "bandits raid the granaries and roads"}}
	}
	return nil
}

// SeasonalEvent applies the once-per-season transition effect. It fires only
// on the first tick of a season.
func (e *Engine) SeasonalEvent(tick, ticksPerSeason int) []Event {
	if ticksPerSeason <= 0 || tick == 0 || tick%ticksPerSeason != 0 {
		return nil
	}
	season := world.SeasonAt(tick, ticksPerSeason)
	switch season {
	case world.SeasonWinter:
		for _, f := range e.reg.Factions() {
			e.reg.AdjustMorale(f.ID, winterMoralePenalty)
		}
		return []Event{{Kind: KindSeason, Detail: "winter sets in; spirits dim"}}
	case world.SeasonSpring:
		for _, f := range e.reg.Factions() {
			e.reg.AdjustMorale(f.ID, springMoraleBonus)
		}
		return []Event{{Kind: KindSeason, Detail: "spring thaw lifts spirits"}}
	case world.SeasonAutumn:
		for _, city := range e.controlledCities() {
			e.reg.AddFood(city.ID, harvestFoodBonus)
		}
		return []Event{{Kind: KindSeason, Detail: "the harvest comes in"}}
	}
	return nil
}

func (e *Engine) controlledCities() []*world.City {
	var out []*world.City
	for _, city := range e.reg.Cities() {
		if _, ok := e.reg.ControllerFaction(city.ID); ok {
			out = append(out, city)
		}
	}
	return out
}
