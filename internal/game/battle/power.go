package battle

import (
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Tactic trade-off weights. An aggressive attacker hits harder but charges
// prepared defenses; a defensive attacker probes carefully, trading attack
// for a larger reduction of the enemy's effective defense.
const (
	aggressiveAttackBonus  = 0.30
	aggressiveDefensePaid  = 0.15
	defensiveAttackPenalty = 0.15
	defensiveDefenseCut    = 0.30
)

// Defense structure bonuses and fixed modifiers.
const (
	forgeDefenseBonus     = 0.15
	districtDefenseBonus  = 0.20
	fortressDefenseBonus  = 0.25
	tierBonusMajor        = 5.0
	tierBonusMinor        = 1.0
	winterDefenseBonus    = 2.0
	siegeWorksBonus       = 0.20
	militaryTechBonus     = 0.10 // per completed military tech level
	martialTraditionBonus = 0.05
	counterWeight         = 0.2
)

// attackTacticMult returns the attack-power multiplier for a tactic.
func attackTacticMult(t world.Tactic) float64 {
	switch t {
	case world.TacticAggressive:
		return 1 + aggressiveAttackBonus
	case world.TacticDefensive:
		return 1 - defensiveAttackPenalty
	default:
		return 1
	}
}

// defenseTacticMult returns the multiplier the attacker's tactic applies to
// the defender's effective defense.
func defenseTacticMult(t world.Tactic) float64 {
	switch t {
	case world.TacticAggressive:
		return 1 + aggressiveDefensePaid
	case world.TacticDefensive:
		return 1 - defensiveDefenseCut
	default:
		return 1
	}
}

// counterMult returns the unit-type counter multiplier for mine against
// theirs. Cavalry beats infantry beats archers beats cavalry; each edge is
// weighted by the product of the relevant composition shares.
//
// Postcondition: result is in [1-counterWeight, 1+counterWeight].
func counterMult(mine, theirs world.UnitComposition) float64 {
	mt, tt := mine.Total(), theirs.Total()
	if mt == 0 || tt == 0 {
		return 1
	}
	mInf, mCav, mArc := share(mine.Infantry, mt), share(mine.Cavalry, mt), share(mine.Archers, mt)
	tInf, tCav, tArc := share(theirs.Infantry, tt), share(theirs.Cavalry, tt), share(theirs.Archers, tt)

	advantage := mCav*tInf + mInf*tArc + mArc*tCav
	disadvantage := mInf*tCav + mArc*tInf + mCav*tArc
	return 1 + counterWeight*(advantage-disadvantage)
}

func share(n, total int) float64 { return float64(n) / float64(total) }

// characterAttack returns one attacker's raw contribution:
// military + 0.5*intelligence + 0.5*tactics skill + a small jitter.
func characterAttack(c *world.Character, src dice.Source) float64 {
	return float64(c.Stats.Military) +
		0.5*float64(c.Stats.Intelligence) +
		0.5*float64(c.Skills.Tactics) +
		dice.Jitter(src, 1)
}

// attackPower computes the full attack power for a group of attackers.
func (e *Engine) attackPower(attackers []*world.Character, faction *world.Faction, tactic world.Tactic, units world.UnitComposition, defUnits world.UnitComposition, siegeWorks bool) float64 {
	sum := 0.0
	hasGeneral := false
	for _, c := range attackers {
		sum += characterAttack(c, e.src)
		if c.Role == world.RoleGeneral {
			hasGeneral = true
		}
	}
	if hasGeneral {
		sum *= 1.10
	}
	sum *= 1 + militaryTechBonus*float64(faction.TechLevel(world.TechMilitary))
	sum *= moraleMult(e.reg.Morale(faction.ID))
	sum *= 1 + faction.LegacyBonus
	if faction.HasTradition(world.TraditionMartial) {
		sum *= 1 + martialTraditionBonus
	}
	if siegeWorks {
		sum *= 1 + siegeWorksBonus
	}
	sum *= attackTacticMult(tactic)
	sum *= counterMult(units, defUnits)
	return sum
}

// moraleMult maps faction morale 0-100 onto a 0.75-1.25 combat multiplier.
func moraleMult(morale int) float64 {
	return 0.75 + float64(morale)/200.0
}

// defensePower computes a city's raw defense before the attacker's tactic
// and counter modifiers are applied.
func (e *Engine) defensePower(city *world.City, defenders []*world.Character, season world.Season) float64 {
	garrison := float64(city.Garrison)
	structure := 1.0
	if city.Specialty == world.ImprovementForge {
		structure += forgeDefenseBonus
	}
	if city.HasDistrict(world.DistrictDefense) {
		structure += districtDefenseBonus
	}
	if city.Path == world.PathFortress {
		structure += fortressDefenseBonus
	}
	power := garrison * structure

	if city.Tier == world.TierMajor {
		power += tierBonusMajor
	} else {
		power += tierBonusMinor
	}
	if season == world.SeasonWinter {
		power += winterDefenseBonus
	}
	power += dice.Jitter(e.src, 2)
	for _, d := range defenders {
		power += 0.5 * float64(d.Stats.Military+d.Skills.Leadership)
	}
	return power
}

// effectiveDefense applies the attacker's tactic-derived reduction and the
// defender's counter multiplier.
func effectiveDefense(raw float64, attackerTactic world.Tactic, defUnits, attUnits world.UnitComposition) float64 {
	return raw * defenseTacticMult(attackerTactic) * counterMult(defUnits, attUnits)
}
