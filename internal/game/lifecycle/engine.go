// Package lifecycle ages characters, processes death and succession, spawns
// heirs, and runs mentorship. It is the only writer of prestige and the
// legacy bonus.
package lifecycle

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// TicksPerYear converts tick counts into character ages.
const TicksPerYear = 16

// Age bands for the aging check.
const (
	peakAgeStart = 20
	peakAgeEnd   = 40
	decayAge     = 55
	deathAgeMin  = 60
	deathAgeMax  = 70
)

const (
	peakGainChancePercent  = 10
	decayLossChancePercent = 15
	deathChanceMinPercent  = 5
	deathChanceMaxPercent  = 35
)

// Battle loser death chances by the stance they fought under.
const (
	deathChanceBalancedPercent   = 10
	deathChanceAggressivePercent = 20
	deathChanceDefensivePercent  = 5
)

const (
	heirPrestigeMin         = 5
	heirSpawnChancePercent  = 60
	heirPrestigeShare       = 0.25
	legacyPrestigeFloor     = 10
	legacyBonusPerPrestige  = 0.01
	mentorshipIntervalTicks = 10
	agingCheckIntervalTicks = TicksPerYear
)

// EventKind classifies a lifecycle outcome.
type EventKind string

const (
	EventNaturalDeath EventKind = "natural_death"
	EventBattleDeath  EventKind = "battle_death"
	EventSuccession   EventKind = "succession"
	EventHeirBorn     EventKind = "heir_born"
	EventLegacy       EventKind = "legacy"
	EventStatGain     EventKind = "stat_gain"
	EventStatDecay    EventKind = "stat_decay"
	EventMentorship   EventKind = "mentorship"
)

// Event is one lifecycle outcome.
type Event struct {
	Kind        EventKind
	CharacterID string
	FactionID   string
	// SuccessorID is the new leader for succession events, or the heir for
	// heir-born events.
	SuccessorID string
}

// IDSource mints ids for spawned heirs.
type IDSource func() string

// Engine drives aging, death, succession, heirs, and mentorship.
type Engine struct {
	reg    *world.Registry
	src    dice.Source
	newID  IDSource
	logger *zap.Logger
}

func NewEngine(reg *world.Registry, src dice.Source, newID IDSource, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, src: src, newID: newID, logger: logger}
}

// Age returns a character's age in years at the given tick, or -1 when the
// birth tick is unknown.
func Age(c *world.Character, tick int) int {
	if c.BirthTick == world.NoBirthTick {
		return -1
	}
	return (tick - c.BirthTick) / TicksPerYear
}

// AgeCharacters runs the aging check. It fires only every 16th tick; other
// ticks are a no-op. Characters without a birth tick never age.
func (e *Engine) AgeCharacters(tick int) []Event {
	if tick == 0 || tick%agingCheckIntervalTicks != 0 {
		return nil
	}
	var events []Event
	for _, c := range e.reg.Characters() {
		if c.Dead || c.BirthTick == world.NoBirthTick {
			continue
		}
		age := Age(c, tick)
		switch {
		case age >= peakAgeStart && age <= peakAgeEnd:
			if dice.Chance(e.src, peakGainChancePercent) {
				e.gainRandomStat(c)
				events = append(events, Event{Kind: EventStatGain, CharacterID: c.ID, FactionID: c.FactionID})
			}
		case age > decayAge:
			if dice.Chance(e.src, decayLossChancePercent) {
				e.loseRandomStat(c)
				events = append(events, Event{Kind: EventStatDecay, CharacterID: c.ID, FactionID: c.FactionID})
			}
		}
		if dice.Chance(e.src, deathChance(age)) {
			events = append(events, e.ProcessDeath(tick, c.ID, EventNaturalDeath)...)
		}
	}
	return events
}

// deathChance rises linearly from 5% at age 60 to 35% at age 70 and holds
// there.
func deathChance(age int) int {
	if age < deathAgeMin {
		return 0
	}
	if age >= deathAgeMax {
		return deathChanceMaxPercent
	}
	span := deathChanceMaxPercent - deathChanceMinPercent
	return deathChanceMinPercent + span*(age-deathAgeMin)/(deathAgeMax-deathAgeMin)
}

// ProcessBattleDeaths rolls a death check for each battle loser, weighted by
// the stance the losing side fought under.
func (e *Engine) ProcessBattleDeaths(tick int, loserIDs []string, loserTactic world.Tactic) []Event {
	chance := deathChanceBalancedPercent
	switch loserTactic {
	case world.TacticAggressive:
		chance = deathChanceAggressivePercent
	case world.TacticDefensive:
		chance = deathChanceDefensivePercent
	}
	var events []Event
	for _, id := range loserIDs {
		c, ok := e.reg.Character(id)
		if !ok || c.Dead {
			continue
		}
		if dice.Chance(e.src, chance) {
			events = append(events, e.ProcessDeath(tick, id, EventBattleDeath)...)
		}
	}
	return events
}

// ProcessDeath marks the character dead and runs every consequence:
// succession when a leader died, heir spawning for the prestigious, and
// legacy conversion for prestigious leaders.
func (e *Engine) ProcessDeath(tick int, characterID string, kind EventKind) []Event {
	c, ok := e.reg.Character(characterID)
	if !ok || c.Dead {
		return nil
	}
	faction, hadFaction := e.reg.FactionOf(characterID)
	wasLeader := hadFaction && faction.LeaderID == characterID
	prestige := e.reg.Prestige(characterID)
	cityID := c.CityID

	e.reg.MarkDead(characterID)
	events := []Event{{Kind: kind, CharacterID: characterID, FactionID: factionID(faction)}}
	e.logger.Info("character died",
		zap.Int("tick", tick),
		zap.String("character", characterID),
		zap.String("cause", string(kind)),
	)

	if hadFaction && prestige >= heirPrestigeMin && dice.Chance(e.src, heirSpawnChancePercent) {
		heir := e.spawnHeir(tick, c, faction, cityID, prestige)
		events = append(events, Event{Kind: EventHeirBorn, CharacterID: characterID, FactionID: faction.ID, SuccessorID: heir.ID})
	}

	if wasLeader {
		if prestige > legacyPrestigeFloor {
			faction.LegacyBonus += float64(prestige-legacyPrestigeFloor) * legacyBonusPerPrestige
			events = append(events, Event{Kind: EventLegacy, CharacterID: characterID, FactionID: faction.ID})
		}
		if successor := e.chooseSuccessor(faction); successor != "" {
			faction.LeaderID = successor
			faction.HeirID = ""
			events = append(events, Event{Kind: EventSuccession, CharacterID: characterID, FactionID: faction.ID, SuccessorID: successor})
			e.logger.Info("succession",
				zap.Int("tick", tick),
				zap.String("faction", faction.ID),
				zap.String("leader", successor),
			)
		} else {
			faction.LeaderID = ""
		}
	}
	return events
}

// chooseSuccessor prefers the player-designated heir, then the surviving
// member with the highest military+intelligence. Ties resolve by id.
func (e *Engine) chooseSuccessor(faction *world.Faction) string {
	if faction.HeirID != "" && faction.HasMember(faction.HeirID) {
		if heir, ok := e.reg.Character(faction.HeirID); ok && !heir.Dead {
			return heir.ID
		}
	}
	best := ""
	bestScore := -1
	for _, id := range faction.MemberIDs {
		c, ok := e.reg.Character(id)
		if !ok || c.Dead {
			continue
		}
		score := c.Stats.Military + c.Stats.Intelligence
		if score > bestScore || (score == bestScore && id < best) {
			best, bestScore = id, score
		}
	}
	return best
}

func (e *Engine) gainRandomStat(c *world.Character) {
	switch e.src.Intn(3) {
	case 0:
		if c.Stats.Military < world.MaxStat {
			c.Stats.Military++
		}
	case 1:
		if c.Stats.Intelligence < world.MaxStat {
			c.Stats.Intelligence++
		}
	default:
		if c.Stats.Charm < world.MaxStat {
			c.Stats.Charm++
		}
	}
}

func (e *Engine) loseRandomStat(c *world.Character) {
	switch e.src.Intn(3) {
	case 0:
		if c.Stats.Military > 0 {
			c.Stats.Military--
		}
	case 1:
		if c.Stats.Intelligence > 0 {
			c.Stats.Intelligence--
		}
	default:
		if c.Stats.Charm > 0 {
			c.Stats.Charm--
		}
	}
}

func factionID(f *world.Faction) string {
	if f == nil {
		return ""
	}
	return f.ID
}

// Mentorship transfers one skill point from each mentor's highest skill to
// their apprentice every 10th tick, never past the mentor's own level.
func (e *Engine) Mentorship(tick int) []Event {
	if tick == 0 || tick%mentorshipIntervalTicks != 0 {
		return nil
	}
	var events []Event
	for _, apprentice := range e.reg.Characters() {
		if apprentice.Dead || apprentice.MentorID == "" {
			continue
		}
		mentor, ok := e.reg.Character(apprentice.MentorID)
		if !ok || mentor.Dead {
			continue
		}
		skill, level := mentor.Skills.Highest()
		if apprentice.Skills.Level(skill) >= level {
			continue
		}
		apprentice.Skills.Gain(skill)
		events = append(events, Event{Kind: EventMentorship, CharacterID: apprentice.ID, FactionID: apprentice.FactionID, SuccessorID: mentor.ID})
	}
	return events
}
