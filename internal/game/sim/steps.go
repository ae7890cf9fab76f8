package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Tuning for the passive pipeline steps.
const (
	underdogGarrisonInterval = 5
	freeGarrisonInterval     = 8
	harborGoldPassive        = 5
	forgeUnitInterval        = 10
	idleMoveChancePercent    = 10

	ceasefireExhaustion       = 80
	ceasefireExhaustionRelief = -10

	fortressPathInterval = 5
	culturalLoyaltyBonus = 1

	loyaltyBaseFloor        = 40
	loyaltyDevelopmentBonus = 5
	loyaltyFedBonus         = 5
	loyaltyStarvingPenalty  = -15
	rebellionLoyaltyFloor   = 15
	rebellionChancePercent  = 25
	rebellionGarrisonLoss   = 5

	martialTraditionBattles   = 10
	mercantileTraditionRoutes = 5
)

// npcBonuses grants NPC factions their catch-up garrisons: every faction
// holding fewer cities than the player gets +1 garrison per city on a fixed
// interval, and every NPC capital gets a slower free trickle regardless.
func (o *Orchestrator) npcBonuses(t *tickState) {
	playerCities := len(o.reg.ControlledCities(o.playerFactionID))
	for _, f := range o.reg.Factions() {
		if f.ID == o.playerFactionID {
			continue
		}
		controlled := o.reg.ControlledCities(f.ID)
		if len(controlled) < playerCities && t.tick%underdogGarrisonInterval == 0 {
			for _, city := range controlled {
				o.reg.AddGarrison(city.ID, 1)
			}
		}
		if t.tick%freeGarrisonInterval == 0 {
			if capital, ok := o.reg.Capital(f.ID); ok {
				o.reg.AddGarrison(capital.ID, 1)
			}
		}
	}
}

// specialtyPassives applies the per-tick specialty effects not already folded
// into the economy multipliers: harbors earn flat gold, forges slowly turn
// out infantry.
func (o *Orchestrator) specialtyPassives(t *tickState) {
	for _, city := range o.reg.Cities() {
		if _, controlled := o.reg.ControllerFaction(city.ID); !controlled || city.Besieged() {
			continue
		}
		switch city.Specialty {
		case world.ImprovementHarbor:
			o.reg.AddGold(city.ID, harborGoldPassive)
		case world.ImprovementForge:
			if t.tick%forgeUnitInterval == 0 {
				city.Units.Infantry++
			}
		}
	}
}

// idleMovement lets idle NPC rank-and-file wander to a neighboring city.
// Leaders and generals stay put unless the advisor marches them.
func (o *Orchestrator) idleMovement(t *tickState) {
	for _, c := range o.reg.Characters() {
		if c.Dead || c.Imprisoned || c.CityID == "" || c.FactionID == "" || c.FactionID == o.playerFactionID {
			continue
		}
		f, ok := o.reg.Faction(c.FactionID)
		if !ok || c.ID == f.LeaderID || c.Role == world.RoleGeneral {
			continue
		}
		if _, moving := o.reg.MovementFor(c.ID); moving {
			continue
		}
		if !dice.Chance(o.src, idleMoveChancePercent) {
			continue
		}
		neighbors := o.roads.ReachableNeighbors(c.CityID)
		if len(neighbors) == 0 {
			continue
		}
		road := neighbors[o.src.Intn(len(neighbors))]
		o.reg.ScheduleMovement(&world.Movement{
			CharacterID: c.ID,
			FromCityID:  c.CityID,
			ToCityID:    road.To,
			DepartTick:  t.tick,
			ArriveTick:  t.tick + TravelTicks(road, t.season, f.TechLevel(world.TechLogistics)),
		})
	}
}

// transferArrivals delivers due troop transfers. A destination lost since
// departure disbands the column.
func (o *Orchestrator) transferArrivals(t *tickState) {
	for _, tr := range o.reg.ConsumeTransfers(t.tick) {
		owner, owned := o.reg.ControllerFaction(tr.ToCityID)
		if !owned || owner.ID != tr.FactionID {
			t.res.Log = append(t.res.Log, fmt.Sprintf("a relief column disbands outside %s", tr.ToCityID))
			continue
		}
		city, ok := o.reg.City(tr.ToCityID)
		if !ok {
			continue
		}
		o.reg.AddGarrison(city.ID, tr.Garrison)
		city.Units.Infantry += tr.Units.Infantry
		city.Units.Cavalry += tr.Units.Cavalry
		city.Units.Archers += tr.Units.Archers
	}
}

// updateMorale drifts every faction's morale one point toward the baseline.
func (o *Orchestrator) updateMorale(t *tickState) {
	for _, f := range o.reg.Factions() {
		m := o.reg.Morale(f.ID)
		switch {
		case m < world.BaselineMorale:
			o.reg.AdjustMorale(f.ID, 1)
		case m > world.BaselineMorale:
			o.reg.AdjustMorale(f.ID, -1)
		}
	}
}

// updateExhaustion raises exhaustion for factions at war and relieves those
// at peace, then brokers ceasefires: a siege between two exhausted factions
// collapses into an automatic non-aggression pact.
func (o *Orchestrator) updateExhaustion(t *tickState) {
	for _, f := range o.reg.Factions() {
		if o.atWar(f.ID) {
			o.reg.AdjustExhaustion(f.ID, 1)
		} else {
			o.reg.AdjustExhaustion(f.ID, -1)
		}
	}
	for _, city := range o.reg.Cities() {
		if !city.Besieged() {
			continue
		}
		defender, ok := o.reg.ControllerFaction(city.ID)
		if !ok {
			continue
		}
		besiegerID := city.Siege.BesiegerFactionID
		if o.reg.Exhaustion(besiegerID) <= ceasefireExhaustion || o.reg.Exhaustion(defender.ID) <= ceasefireExhaustion {
			continue
		}
		if _, exists := o.reg.ActiveTreaty(world.TreatyNonAggression, besiegerID, defender.ID, t.tick); exists {
			continue
		}
		city.Siege = nil
		o.reg.AddTreaty(&world.Treaty{
			Kind:       world.TreatyNonAggression,
			FactionA:   besiegerID,
			FactionB:   defender.ID,
			StartTick:  t.tick,
			ExpireTick: t.tick + world.TreatyNonAggression.Duration(),
		})
		o.reg.AdjustExhaustion(besiegerID, ceasefireExhaustionRelief)
		o.reg.AdjustExhaustion(defender.ID, ceasefireExhaustionRelief)
		t.res.Diplomacy = append(t.res.Diplomacy, diplomacy.Event{
			Kind:     diplomacy.EventPactAccepted,
			FactionA: besiegerID,
			FactionB: defender.ID,
			CityID:   city.ID,
		})
		t.res.Log = append(t.res.Log, fmt.Sprintf("exhausted armies agree to a ceasefire at %s", city.Name))
		o.logger.Info("ceasefire",
			zap.Int("tick", t.tick),
			zap.String("city", city.ID),
			zap.String("besieger", besiegerID),
			zap.String("defender", defender.ID),
		)
	}
}

// atWar reports whether a faction is besieging, besieged, or marching on an
// enemy city.
func (o *Orchestrator) atWar(factionID string) bool {
	for _, city := range o.reg.Cities() {
		if !city.Besieged() {
			continue
		}
		if city.Siege.BesiegerFactionID == factionID {
			return true
		}
		if owner, ok := o.reg.ControllerFaction(city.ID); ok && owner.ID == factionID {
			return true
		}
	}
	f, ok := o.reg.Faction(factionID)
	if !ok {
		return false
	}
	for _, id := range f.MemberIDs {
		if m, moving := o.reg.MovementFor(id); moving && m.Hostile {
			return true
		}
	}
	return false
}

// pathBonuses applies the long-term city-path effects not folded into the
// economy multipliers: fortress cities slowly fortify, cultural cities hold
// their people's loyalty.
func (o *Orchestrator) pathBonuses(t *tickState) {
	for _, city := range o.reg.Cities() {
		if _, controlled := o.reg.ControllerFaction(city.ID); !controlled {
			continue
		}
		switch city.Path {
		case world.PathFortress:
			if t.tick%fortressPathInterval == 0 && city.Garrison < garrisonCapOf(city) {
				o.reg.AddGarrison(city.ID, 1)
			}
		case world.PathCultural:
			o.reg.AdjustLoyalty(city.ID, culturalLoyaltyBonus)
		}
	}
}

// updateFavorability drifts every living member's favorability toward the
// baseline, with an extra hit while faction morale is low.
func (o *Orchestrator) updateFavorability(t *tickState) {
	for _, c := range o.reg.Characters() {
		if c.Dead || c.FactionID == "" {
			continue
		}
		fav := o.reg.Favorability(c.ID)
		switch {
		case fav < world.BaselineFavorability:
			o.reg.AdjustFavorability(c.ID, 1)
		case fav > world.BaselineFavorability:
			o.reg.AdjustFavorability(c.ID, -1)
		}
		if o.reg.Morale(c.FactionID) < 30 {
			o.reg.AdjustFavorability(c.ID, -1)
		}
	}
}

// updateLoyalty drifts each controlled city's loyalty toward a base set by
// development and food, then rolls rebellions for cities near the breaking
// point. A rebellion costs garrison and throws out the controller.
func (o *Orchestrator) updateLoyalty(t *tickState) {
	for _, city := range o.reg.Cities() {
		owner, controlled := o.reg.ControllerFaction(city.ID)
		if !controlled {
			continue
		}
		target := loyaltyBaseFloor + loyaltyDevelopmentBonus*city.Development
		if city.Food > 0 {
			target += loyaltyFedBonus
		} else {
			target += loyaltyStarvingPenalty
		}
		loyalty := o.reg.Loyalty(city.ID)
		switch {
		case loyalty < target:
			o.reg.AdjustLoyalty(city.ID, 1)
		case loyalty > target:
			o.reg.AdjustLoyalty(city.ID, -1)
		}
		if o.reg.Loyalty(city.ID) >= rebellionLoyaltyFloor {
			continue
		}
		if !dice.Chance(o.src, rebellionChancePercent) {
			continue
		}
		o.reg.AddGarrison(city.ID, -rebellionGarrisonLoss)
		city.ControllerID = ""
		o.reg.SetLoyalty(city.ID, world.BaselineLoyalty)
		t.res.Rebellions = append(t.res.Rebellions, RebellionEvent{CityID: city.ID, FactionID: owner.ID})
		t.res.Log = append(t.res.Log, fmt.Sprintf("%s rises in rebellion against %s", city.Name, owner.Name))
		o.logger.Info("rebellion",
			zap.Int("tick", t.tick),
			zap.String("city", city.ID),
			zap.String("faction", owner.ID),
		)
	}
}

// evaluateTraditions unlocks faction-wide traditions once the play-pattern
// counters cross their thresholds.
func (o *Orchestrator) evaluateTraditions(t *tickState) {
	for _, f := range o.reg.Factions() {
		if f.BattlesWon >= martialTraditionBattles && !f.HasTradition(world.TraditionMartial) {
			f.Traditions = append(f.Traditions, world.TraditionMartial)
			t.res.Log = append(t.res.Log, fmt.Sprintf("%s embraces a martial tradition", f.Name))
		}
		if f.RoutesEstablished >= mercantileTraditionRoutes && !f.HasTradition(world.TraditionMercantile) {
			f.Traditions = append(f.Traditions, world.TraditionMercantile)
			t.res.Log = append(t.res.Log, fmt.Sprintf("%s embraces a mercantile tradition", f.Name))
		}
	}
}
