// Package economy implements gold and food production, garrison recovery,
// trade routes, and supply-line reachability.
package economy

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Base per-tick production by city tier.
const (
	GoldBaseMajor = 20
	GoldBaseMinor = 10
	FoodBaseMajor = 160
	FoodBaseMinor = 80
)

// FoodPerGarrison is each garrison point's per-tick food consumption.
// Doubled while the city is under siege.
const FoodPerGarrison = 5

// Garrison caps by tier, the ceiling for passive recovery.
const (
	GarrisonCapMajor = 30
	GarrisonCapMinor = 15
)

// UnsuppliedDecayInterval is how often an unsupplied city loses garrison.
const UnsuppliedDecayInterval = 3

// Additive income multiplier contributions.
const (
	developmentGoldBonus  = 0.10 // per development level
	marketBonus           = 0.20
	commerceSkillBonus    = 0.05 // per point of the best commerce skill in the city
	governorBonus         = 0.15
	commerceDistrictBonus = 0.20
	tradeHubBonus         = 0.25
	economyTechBonus      = 0.10 // per completed economy tech level
	unsuppliedPenalty     = 0.30
	exhaustionPenalty     = 0.20 // when faction war exhaustion > 50

	developmentFoodBonus = 0.10
	granaryBonus         = 0.25
	agricultureBonus     = 0.20
	breadbasketBonus     = 0.30
	winterFoodPenalty    = 0.40
	droughtFoodPenalty   = 0.50
)

// Config carries the economy tuning the engine needs.
type Config struct {
	// GarrisonRecoveryInterval is the tick interval for +1 garrison recovery.
	GarrisonRecoveryInterval int
	// NPCIncomeMultiplier scales non-player faction gold income.
	NPCIncomeMultiplier float64
	// PlayerFactionID identifies the player faction.
	PlayerFactionID string
}

// Engine computes the per-tick economy. It mutates gold, food, and garrison
// through the registry's clamped mutators only.
type Engine struct {
	reg    *world.Registry
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an economy Engine.
//
// Precondition: reg and logger must be non-nil; cfg.GarrisonRecoveryInterval > 0.
func NewEngine(reg *world.Registry, cfg Config, logger *zap.Logger) *Engine {
	if cfg.GarrisonRecoveryInterval <= 0 {
		panic("economy: GarrisonRecoveryInterval must be > 0")
	}
	if cfg.NPCIncomeMultiplier <= 0 {
		cfg.NPCIncomeMultiplier = 1
	}
	return &Engine{reg: reg, cfg: cfg, logger: logger}
}

// ProduceGold applies one tick of gold income to every controlled,
// non-besieged city, then adds trade-route flat bonuses unconditionally
// (sieged cities keep the bonus of routes not yet cleaned up).
//
// Postcondition: no city's gold decreases.
func (e *Engine) ProduceGold(tick int) {
	for _, city := range e.reg.Cities() {
		faction, controlled := e.reg.ControllerFaction(city.ID)
		if !controlled || city.Besieged() {
			continue
		}
		income := e.goldIncome(city, faction)
		if income > 0 {
			e.reg.AddGold(city.ID, income)
			e.logger.Debug("gold income",
				zap.Int("tick", tick),
				zap.String("city", city.ID),
				zap.String("faction", faction.ID),
				zap.Int("income", income),
			)
		}
	}
	e.applyRouteBonuses(tick)
}

// goldIncome computes a city's rounded gold income before route bonuses.
func (e *Engine) goldIncome(city *world.City, faction *world.Faction) int {
	base := GoldBaseMinor
	if city.Tier == world.TierMajor {
		base = GoldBaseMajor
	}

	mult := 1.0
	mult += developmentGoldBonus * float64(city.Development)
	if city.Specialty == world.ImprovementMarket {
		mult += marketBonus
	}
	mult += commerceSkillBonus * float64(e.bestCommerce(city.ID))
	if e.hasGovernor(city.ID) {
		mult += governorBonus
	}
	if city.HasDistrict(world.DistrictCommerce) {
		mult += commerceDistrictBonus
	}
	if city.Path == world.PathTradeHub {
		mult += tradeHubBonus
	}
	mult += economyTechBonus * float64(faction.TechLevel(world.TechEconomy))
	if e.reg.Unsupplied(city.ID) {
		mult -= unsuppliedPenalty
	}
	if e.reg.Exhaustion(faction.ID) > 50 {
		mult -= exhaustionPenalty
	}
	if mult < 0 {
		mult = 0
	}

	income := float64(base) * mult
	if faction.ID != e.cfg.PlayerFactionID {
		income *= e.cfg.NPCIncomeMultiplier
	}
	return int(math.Round(income))
}

// bestCommerce returns the highest commerce skill among living characters in
// the city.
func (e *Engine) bestCommerce(cityID string) int {
	best := 0
	for _, c := range e.reg.CharactersIn(cityID) {
		if c.Skills.Commerce > best {
			best = c.Skills.Commerce
		}
	}
	return best
}

func (e *Engine) hasGovernor(cityID string) bool {
	for _, c := range e.reg.CharactersIn(cityID) {
		if c.Role == world.RoleGovernor {
			return true
		}
	}
	return false
}

// applyRouteBonuses adds each route's flat gold bonus to both endpoints.
// Blockaded endpoints are skipped; sieged ones are not (route cleanup, not
// the siege, removes a dead route's income).
func (e *Engine) applyRouteBonuses(tick int) {
	for _, rt := range e.reg.TradeRoutes() {
		for _, cityID := range []string{rt.FromCityID, rt.ToCityID} {
			city, ok := e.reg.City(cityID)
			if !ok || city.BlockadedUntil >= tick {
				continue
			}
			e.reg.AddGold(cityID, rt.GoldBonus)
		}
	}
}

// ProduceFood applies one tick of food production minus garrison consumption.
// A city at exactly zero food after the update suffers 1 garrison decay.
//
// Postcondition: every city's food remains in [0, MaxFood].
func (e *Engine) ProduceFood(tick int, season world.Season) []string {
	var events []string
	for _, city := range e.reg.Cities() {
		if _, controlled := e.reg.ControllerFaction(city.ID); !controlled {
			continue
		}
		production := e.foodProduction(city, season, tick)
		consumption := city.Garrison * FoodPerGarrison
		if city.Besieged() {
			consumption *= 2
		}
		e.reg.AddFood(city.ID, production-consumption)

		refreshed, _ := e.reg.City(city.ID)
		if refreshed.Food == 0 && refreshed.Garrison > 0 {
			e.reg.AddGarrison(city.ID, -1)
			events = append(events, fmt.Sprintf("%s is starving: the garrison thins", city.Name))
			e.logger.Debug("starvation decay",
				zap.Int("tick", tick),
				zap.String("city", city.ID),
			)
		}
	}
	return events
}

func (e *Engine) foodProduction(city *world.City, season world.Season, tick int) int {
	base := FoodBaseMinor
	if city.Tier == world.TierMajor {
		base = FoodBaseMajor
	}

	mult := 1.0
	mult += developmentFoodBonus * float64(city.Development)
	if city.Specialty == world.ImprovementGranary {
		mult += granaryBonus
	}
	if city.HasDistrict(world.DistrictAgriculture) {
		mult += agricultureBonus
	}
	if city.Path == world.PathBreadbasket {
		mult += breadbasketBonus
	}
	if season == world.SeasonWinter {
		mult -= winterFoodPenalty
	}
	if city.DroughtUntil >= tick {
		mult -= droughtFoodPenalty
	}
	if mult < 0 {
		mult = 0
	}
	return int(math.Round(float64(base) * mult))
}

// RecoverGarrisons applies the fixed-interval +1 garrison recovery up to the
// tier cap, skipping besieged and starving cities.
func (e *Engine) RecoverGarrisons(tick int) {
	if tick%e.cfg.GarrisonRecoveryInterval != 0 {
		return
	}
	for _, city := range e.reg.Cities() {
		if _, controlled := e.reg.ControllerFaction(city.ID); !controlled {
			continue
		}
		if city.Besieged() || city.Food == 0 {
			continue
		}
		cap := GarrisonCapMinor
		if city.Tier == world.TierMajor {
			cap = GarrisonCapMajor
		}
		if city.Garrison < cap {
			e.reg.AddGarrison(city.ID, 1)
		}
	}
}

// CleanupRoutes drops trade routes whose endpoints are no longer both
// controlled by the owning faction, and returns a log line per drop.
func (e *Engine) CleanupRoutes(tick int) []string {
	var events []string
	e.reg.RemoveTradeRoutes(func(rt *world.TradeRoute) bool {
		for _, cityID := range []string{rt.FromCityID, rt.ToCityID} {
			f, ok := e.reg.ControllerFaction(cityID)
			if !ok || f.ID != rt.FactionID {
				events = append(events, fmt.Sprintf("trade route %s-%s collapses", rt.FromCityID, rt.ToCityID))
				e.logger.Debug("trade route removed",
					zap.Int("tick", tick),
					zap.String("from", rt.FromCityID),
					zap.String("to", rt.ToCityID),
				)
				return true
			}
		}
		return false
	})
	return events
}
