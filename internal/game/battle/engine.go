// Package battle resolves contested cities: arrival grouping, assault power
// computation, capture, and the siege attrition state machine.
package battle

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// ConquestGarrisonPenalty is the flat garrison loss a city suffers on capture.
const ConquestGarrisonPenalty = 3

// CapturedLoyalty is the loyalty a city resets to after changing hands.
const CapturedLoyalty = 20

// NAPViolationTrustPenalty is the trust hit for attacking through a
// non-aggression pact.
const NAPViolationTrustPenalty = -30

// NPC tactic weights when no tactic was queued: 30/30/40
// aggressive/defensive/balanced.
const (
	npcAggressiveWeight = 30
	npcDefensiveWeight  = 30
)

// Side identifies which party a battle detail refers to.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Result records one attacking faction's resolution at one city.
type Result struct {
	CityID            string
	AttackerFactionID string
	DefenderFactionID string
	AttackerIDs       []string
	DefenderIDs       []string
	Tactic            world.Tactic
	AttackPower       float64
	DefensePower      float64
	Captured          bool
	SiegeStarted      bool
	// PactBroken is set when the assault violated a non-aggression pact.
	PactBroken bool
	// LoserIDs are the characters exposed to battle-death processing.
	LoserIDs []string
	// LoserTactic is the stance the losing side fought under.
	LoserTactic world.Tactic
	Rounds      [3]Round
}

// Engine resolves battles and sieges against the shared registry.
type Engine struct {
	reg             *world.Registry
	src             dice.Source
	logger          *zap.Logger
	playerFactionID string
}

// NewEngine creates a battle Engine.
//
// Precondition: reg, src, and logger must be non-nil.
func NewEngine(reg *world.Registry, src dice.Source, playerFactionID string, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, src: src, logger: logger, playerFactionID: playerFactionID}
}

// assault is one attacking faction's grouped arrivals at one city.
type assault struct {
	factionID string
	attackers []*world.Character
	originID  string // lead attacker's origin city, source of units and siege works
}

// ResolveArrivals consumes this tick's movement arrivals and resolves any
// battles they trigger. Attacking factions at one city resolve in ascending
// faction-id order; once a city is captured, later attackers at that city
// produce no further battle result this tick.
//
// Postcondition: every consumed movement's character has a final CityID.
func (e *Engine) ResolveArrivals(tick int, season world.Season, arrivals []*world.Movement) []Result {
	var results []Result
	assaultsByCity := make(map[string][]*assault)
	var cityOrder []string

	for _, m := range arrivals {
		c, ok := e.reg.Character(m.CharacterID)
		if !ok || c.Dead {
			continue
		}
		city, ok := e.reg.City(m.ToCityID)
		if !ok {
			continue
		}

		defFaction, defended := e.reg.ControllerFaction(city.ID)
		attFaction, inFaction := e.reg.FactionOf(c.ID)

		hostile := m.Hostile && inFaction && (!defended || defFaction.ID != attFaction.ID)
		if hostile && defended {
			if e.reg.Allied(attFaction.ID, defFaction.ID) {
				hostile = false
			} else if pact, ok := e.reg.ActiveTreaty(world.TreatyNonAggression, attFaction.ID, defFaction.ID, tick); ok {
				// Marching through a pact voids it and costs trust, but the
				// assault itself is called off.
				pact.Broken = true
				e.reg.AdjustTrust(attFaction.ID, defFaction.ID, NAPViolationTrustPenalty)
				results = append(results, Result{
					CityID:            city.ID,
					AttackerFactionID: attFaction.ID,
					DefenderFactionID: defFaction.ID,
					AttackerIDs:       []string{c.ID},
					PactBroken:        true,
				})
				e.logger.Info("non-aggression pact violated",
					zap.Int("tick", tick),
					zap.String("attacker", attFaction.ID),
					zap.String("defender", defFaction.ID),
				)
				c.CityID = m.FromCityID
				continue
			}
		}

		if !hostile {
			c.CityID = city.ID
			continue
		}
		if !defended {
			// Unowned city: walk in and take it.
			e.capture(tick, city, c, attFaction)
			c.CityID = city.ID
			continue
		}

		group := findAssault(assaultsByCity[city.ID], attFaction.ID)
		if group == nil {
			group = &assault{factionID: attFaction.ID, originID: m.FromCityID}
			if len(assaultsByCity[city.ID]) == 0 {
				cityOrder = append(cityOrder, city.ID)
			}
			assaultsByCity[city.ID] = append(assaultsByCity[city.ID], group)
		}
		group.attackers = append(group.attackers, c)
	}

	sort.Strings(cityOrder)
	for _, cityID := range cityOrder {
		groups := assaultsByCity[cityID]
		sort.Slice(groups, func(i, j int) bool { return groups[i].factionID < groups[j].factionID })

		captured := false
		for _, g := range groups {
			if captured {
				// The city fell to an earlier faction; the column stands down
				// at its origin.
				for _, c := range g.attackers {
					c.CityID = g.originID
				}
				continue
			}
			res, took := e.resolveAssault(tick, season, cityID, g)
			if res != nil {
				results = append(results, *res)
			}
			captured = took
		}
	}
	return results
}

func findAssault(groups []*assault, factionID string) *assault {
	for _, g := range groups {
		if g.factionID == factionID {
			return g
		}
	}
	return nil
}

// resolveAssault fights one attacking faction's group against the city.
// Returns the battle result and whether the city was captured.
func (e *Engine) resolveAssault(tick int, season world.Season, cityID string, g *assault) (*Result, bool) {
	city, ok := e.reg.City(cityID)
	if !ok {
		return nil, false
	}
	defFaction, defended := e.reg.ControllerFaction(cityID)
	attFaction, ok := e.reg.Faction(g.factionID)
	if !ok || !defended {
		return nil, false
	}

	sort.Slice(g.attackers, func(i, j int) bool { return g.attackers[i].ID < g.attackers[j].ID })
	tactic := e.takeTactic(g, attFaction.ID)
	attUnits := e.originUnits(g.originID)
	siegeWorks := e.consumeSiegeWorks(g.originID)
	defenders := e.defendersOf(city, defFaction.ID)

	atk := e.attackPower(g.attackers, attFaction, tactic, attUnits, city.Units, siegeWorks)
	rawDef := e.defensePower(city, defenders, season)
	def := effectiveDefense(rawDef, tactic, city.Units, attUnits)

	res := &Result{
		CityID:            cityID,
		AttackerFactionID: attFaction.ID,
		DefenderFactionID: defFaction.ID,
		AttackerIDs:       characterIDs(g.attackers),
		DefenderIDs:       characterIDs(defenders),
		Tactic:            tactic,
		AttackPower:       atk,
		DefensePower:      def,
	}
	res.Rounds = e.narrateRounds(g.attackers, defenders, atk, def)

	if atk > def {
		lead := g.attackers[0]
		e.capture(tick, city, lead, attFaction)
		for _, d := range defenders {
			d.Imprisoned = true
		}
		for _, c := range g.attackers {
			c.CityID = city.ID
			e.rewardVictor(c)
		}
		attFaction.BattlesWon++
		e.reg.AdjustMorale(attFaction.ID, 5)
		e.reg.AdjustMorale(defFaction.ID, -5)
		res.Captured = true
		res.LoserIDs = res.DefenderIDs
		res.LoserTactic = world.TacticBalanced
		e.logger.Info("city captured",
			zap.Int("tick", tick),
			zap.String("city", cityID),
			zap.String("attacker", attFaction.ID),
			zap.String("defender", defFaction.ID),
		)
		return res, true
	}

	// Assault repelled. The attackers invest the city if it can still hold.
	for _, c := range g.attackers {
		c.CityID = city.ID
	}
	if city.Garrison > 0 && city.Siege == nil {
		city.Siege = &world.Siege{BesiegerFactionID: attFaction.ID, StartTick: tick}
		res.SiegeStarted = true
	}
	e.reg.AdjustMorale(attFaction.ID, -3)
	res.LoserIDs = res.AttackerIDs
	res.LoserTactic = tactic
	e.logger.Info("assault repelled",
		zap.Int("tick", tick),
		zap.String("city", cityID),
		zap.String("attacker", attFaction.ID),
		zap.Bool("siege_started", res.SiegeStarted),
	)
	return res, false
}

// takeTactic returns the queued tactic of the first attacker that queued one.
// NPC factions without a queued tactic roll 30/30/40; the player defaults to
// balanced.
func (e *Engine) takeTactic(g *assault, factionID string) world.Tactic {
	for _, c := range g.attackers {
		if t := e.reg.TakeTactic(c.ID); t != world.TacticNone {
			return t
		}
	}
	if factionID == e.playerFactionID {
		return world.TacticBalanced
	}
	roll := e.src.Intn(100)
	switch {
	case roll < npcAggressiveWeight:
		return world.TacticAggressive
	case roll < npcAggressiveWeight+npcDefensiveWeight:
		return world.TacticDefensive
	default:
		return world.TacticBalanced
	}
}

func (e *Engine) originUnits(originID string) world.UnitComposition {
	if city, ok := e.reg.City(originID); ok {
		return city.Units
	}
	return world.UnitComposition{}
}

func (e *Engine) consumeSiegeWorks(originID string) bool {
	city, ok := e.reg.City(originID)
	if !ok || !city.SiegeWorks {
		return false
	}
	city.SiegeWorks = false
	return true
}

// defendersOf returns living characters of the controlling faction stationed
// in the city. Besieging characters share the city id but never defend it.
func (e *Engine) defendersOf(city *world.City, defFactionID string) []*world.Character {
	var out []*world.Character
	for _, c := range e.reg.CharactersIn(city.ID) {
		if c.FactionID == defFactionID {
			out = append(out, c)
		}
	}
	return out
}

// capture hands the city to the attacker: controller and status transfer,
// conquest garrison penalty, loyalty reset, siege cleared.
//
// Postcondition: city.Siege == nil and the siegedBy/controller invariant holds.
func (e *Engine) capture(tick int, city *world.City, lead *world.Character, attFaction *world.Faction) {
	city.ControllerID = lead.ID
	city.Siege = nil
	e.reg.AddGarrison(city.ID, -ConquestGarrisonPenalty)
	e.reg.SetLoyalty(city.ID, CapturedLoyalty)
}

// rewardVictor grants the winning character +1 military (capped) and a
// tactics skill point (capped).
func (e *Engine) rewardVictor(c *world.Character) {
	if c.Stats.Military < world.MaxStat {
		c.Stats.Military++
	}
	if c.Skills.Tactics < world.MaxSkill {
		c.Skills.Tactics++
	}
}

func characterIDs(cs []*world.Character) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
