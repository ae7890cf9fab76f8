package diplomacy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

const (
	betrayalBaseChance      = 1
	betrayalMaxCityPressure = 5
)

// EvaluateBetrayals rolls a defection check for every living non-leader
// member of every faction. Loyal characters never defect; treacherous ones
// defect at double the computed chance. A defector joins the rival whose
// leader they are closest to, and only when that bond beats the one with
// their own leader.
func (e *Engine) EvaluateBetrayals(tick int) []Event {
	var events []Event
	for _, faction := range e.reg.Factions() {
		// TransferMember edits the member list, so iterate a copy.
		members := append([]string(nil), faction.MemberIDs...)
		for _, memberID := range members {
			if memberID == faction.LeaderID {
				continue
			}
			member, ok := e.reg.Character(memberID)
			if !ok || member.Dead || member.HasTrait(world.TraitLoyal) {
				continue
			}
			rival := e.bestRival(member, faction)
			if rival == nil {
				continue
			}
			chance := e.betrayalChance(member, faction, rival)
			if !dice.Chance(e.src, chance) {
				continue
			}
			if err := e.reg.TransferMember(member.ID, rival.ID); err != nil {
				continue
			}
			events = append(events, Event{Kind: EventBetrayal, ActorID: member.ID, FactionA: faction.ID, FactionB: rival.ID})
			e.logger.Info("betrayal",
				zap.Int("tick", tick),
				zap.String("character", member.ID),
				zap.String("from", faction.ID),
				zap.String("to", rival.ID),
			)
		}
	}
	return events
}

// bestRival returns the rival faction whose leader the member is closest to,
// or nil when no rival bond beats the member's bond with their own leader.
func (e *Engine) bestRival(member *world.Character, own *world.Faction) *world.Faction {
	ownBond := e.reg.Intimacy(member.ID, own.LeaderID)
	var best *world.Faction
	bestBond := ownBond
	for _, f := range e.reg.Factions() {
		if f.ID == own.ID || f.LeaderID == "" {
			continue
		}
		if bond := e.reg.Intimacy(member.ID, f.LeaderID); bond > bestBond {
			best, bestBond = f, bond
		}
	}
	return best
}

// betrayalChance combines low morale, low favorability, and the city-count
// gap against the rival into a defection probability.
func (e *Engine) betrayalChance(member *world.Character, own, rival *world.Faction) int {
	chance := betrayalBaseChance
	if morale := e.reg.Morale(own.ID); morale < 50 {
		chance += (50 - morale) / 10
	}
	if fav := e.reg.Favorability(member.ID); fav < 50 {
		chance += (50 - fav) / 10
	}
	gap := len(e.reg.ControlledCities(rival.ID)) - len(e.reg.ControlledCities(own.ID))
	if gap > betrayalMaxCityPressure {
		gap = betrayalMaxCityPressure
	}
	if gap > 0 {
		chance += gap
	}
	if member.HasTrait(world.TraitTreacherous) {
		chance *= 2
	}
	return chance
}
