package battle

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Attrition delay thresholds in ticks since siege start. Defensive
// infrastructure buys the city time before the garrison starts bleeding.
const (
	siegeBaseDelay          = 2
	siegeForgeDelay         = 1
	siegeDefenseDelay       = 2
	siegeFortressDelay      = 3
	sallyForthChancePercent = 15
	sallySuccessGarrison    = 1
	sallyFailureGarrison    = 3
)

// SiegeEventKind classifies a siege-tick outcome.
type SiegeEventKind string

const (
	SiegeAttrition   SiegeEventKind = "attrition"
	SiegeSallyBroken SiegeEventKind = "sally_broken"
	SiegeSallyFailed SiegeEventKind = "sally_failed"
	SiegeFell        SiegeEventKind = "fell"
	SiegeLifted      SiegeEventKind = "lifted"
)

// SiegeEvent records one besieged city's outcome for a tick.
type SiegeEvent struct {
	CityID            string
	BesiegerFactionID string
	DefenderFactionID string
	Kind              SiegeEventKind
}

// SiegeTick advances every active siege by one tick. It runs before arrival
// resolution so a relieving army fights the post-attrition garrison.
//
// Postcondition: no city has a siege whose besieger equals its controller's
// faction.
func (e *Engine) SiegeTick(tick int, season world.Season) []SiegeEvent {
	var events []SiegeEvent
	for _, city := range e.reg.Cities() {
		if city.Siege == nil {
			continue
		}
		if ev, ok := e.stepSiege(tick, season, city); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (e *Engine) stepSiege(tick int, season world.Season, city *world.City) (SiegeEvent, bool) {
	siege := city.Siege
	defFaction, defended := e.reg.ControllerFaction(city.ID)
	besiegerFaction, besiegerAlive := e.reg.Faction(siege.BesiegerFactionID)

	// A siege cannot outlive its parties, and a faction never besieges its
	// own city.
	if !defended || !besiegerAlive || defFaction.ID == besiegerFaction.ID {
		city.Siege = nil
		return SiegeEvent{CityID: city.ID, BesiegerFactionID: siege.BesiegerFactionID, Kind: SiegeLifted}, true
	}

	besiegers := e.besiegersAt(city, besiegerFaction.ID)
	if len(besiegers) == 0 {
		city.Siege = nil
		e.logger.Debug("siege lifted, no besiegers present",
			zap.String("city", city.ID),
			zap.String("besieger", besiegerFaction.ID),
		)
		return SiegeEvent{CityID: city.ID, BesiegerFactionID: besiegerFaction.ID, DefenderFactionID: defFaction.ID, Kind: SiegeLifted}, true
	}

	ev := SiegeEvent{CityID: city.ID, BesiegerFactionID: besiegerFaction.ID, DefenderFactionID: defFaction.ID}

	if tick-siege.StartTick <= attritionDelay(city) {
		return ev, false
	}

	if city.Garrison > 0 && e.sallyForth() {
		defenders := e.defendersOf(city, defFaction.ID)
		defPower := e.defensePower(city, defenders, season)
		atkPower := e.attackPower(besiegers, besiegerFaction, world.TacticBalanced, world.UnitComposition{}, city.Units, false)
		if defPower > atkPower {
			city.Siege = nil
			e.reg.AddGarrison(city.ID, -sallySuccessGarrison)
			e.reg.AdjustMorale(defFaction.ID, 5)
			e.reg.AdjustMorale(besiegerFaction.ID, -5)
			ev.Kind = SiegeSallyBroken
			e.logger.Info("sally forth broke the siege",
				zap.Int("tick", tick),
				zap.String("city", city.ID),
				zap.String("besieger", besiegerFaction.ID),
			)
			return ev, true
		}
		e.reg.AddGarrison(city.ID, -sallyFailureGarrison)
		if city.Garrison == 0 {
			e.fallToBesiegers(tick, city, besiegers)
			ev.Kind = SiegeFell
			return ev, true
		}
		ev.Kind = SiegeSallyFailed
		return ev, true
	}

	e.reg.AddGarrison(city.ID, -1)
	if city.Garrison == 0 {
		e.fallToBesiegers(tick, city, besiegers)
		ev.Kind = SiegeFell
		e.logger.Info("city fell to siege",
			zap.Int("tick", tick),
			zap.String("city", city.ID),
			zap.String("besieger", besiegerFaction.ID),
		)
		return ev, true
	}
	ev.Kind = SiegeAttrition
	return ev, true
}

// besiegersAt returns the living besieging-faction characters stationed at
// the city, sorted by id so the lead besieger is stable.
func (e *Engine) besiegersAt(city *world.City, besiegerFactionID string) []*world.Character {
	var out []*world.Character
	for _, c := range e.reg.CharactersIn(city.ID) {
		if c.FactionID == besiegerFactionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e *Engine) fallToBesiegers(tick int, city *world.City, besiegers []*world.Character) {
	lead := besiegers[0]
	faction, _ := e.reg.Faction(lead.FactionID)
	e.capture(tick, city, lead, faction)
	for _, c := range besiegers {
		e.rewardVictor(c)
	}
	if faction != nil {
		faction.BattlesWon++
		e.reg.AdjustMorale(faction.ID, 5)
	}
}

func (e *Engine) sallyForth() bool {
	return e.src.Intn(100) < sallyForthChancePercent
}

// attritionDelay is the number of grace ticks before siege attrition bites.
func attritionDelay(city *world.City) int {
	delay := siegeBaseDelay
	if city.Specialty == world.ImprovementForge {
		delay += siegeForgeDelay
	}
	if city.HasDistrict(world.DistrictDefense) {
		delay += siegeDefenseDelay
	}
	if city.Path == world.PathFortress {
		delay += siegeFortressDelay
	}
	return delay
}
