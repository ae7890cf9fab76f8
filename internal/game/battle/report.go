package battle

import (
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Round names, in resolution order.
const (
	RoundVanguardClash  = "vanguard_clash"
	RoundTacticalDuel   = "tactical_duel"
	RoundWisdomExchange = "wisdom_exchange"
)

// Round is one reporting-only beat of a battle. Rounds are derived from the
// same inputs as the battle itself but never feed back into the win/lose
// decision.
type Round struct {
	Name               string
	AttackerChampionID string
	DefenderChampionID string
	AttackerScore      float64
	DefenderScore      float64
	Winner             Side
}

// narrateRounds builds the three fixed rounds of a battle report. Champions
// are picked per round by the stat the round showcases; scores blend the
// champion's stat with the side's overall power so a lopsided battle reads
// lopsided.
func (e *Engine) narrateRounds(attackers, defenders []*world.Character, atkPower, defPower float64) [3]Round {
	return [3]Round{
		e.round(RoundVanguardClash, attackers, defenders, atkPower, defPower, vanguardScore),
		e.round(RoundTacticalDuel, attackers, defenders, atkPower, defPower, duelScore),
		e.round(RoundWisdomExchange, attackers, defenders, atkPower, defPower, wisdomScore),
	}
}

func (e *Engine) round(name string, attackers, defenders []*world.Character, atkPower, defPower float64, score func(*world.Character) float64) Round {
	attChamp, attScore := e.champion(attackers, atkPower, score)
	defChamp, defScore := e.champion(defenders, defPower, score)
	r := Round{
		Name:          name,
		AttackerScore: attScore,
		DefenderScore: defScore,
		Winner:        SideDefender,
	}
	if attChamp != nil {
		r.AttackerChampionID = attChamp.ID
	}
	if defChamp != nil {
		r.DefenderChampionID = defChamp.ID
	}
	if attScore > defScore {
		r.Winner = SideAttacker
	}
	return r
}

// champion picks the side's best character for the round and scores the
// matchup: champion stat plus a tenth of the side's power plus jitter.
func (e *Engine) champion(side []*world.Character, power float64, score func(*world.Character) float64) (*world.Character, float64) {
	var best *world.Character
	for _, c := range side {
		if best == nil || score(c) > score(best) {
			best = c
		}
	}
	total := power / 10
	if best != nil {
		total += score(best)
	}
	total += dice.Jitter(e.src, 2.0)
	return best, total
}

func vanguardScore(c *world.Character) float64 {
	return float64(c.Stats.Military) + 0.5*float64(c.Skills.Leadership)
}

func duelScore(c *world.Character) float64 {
	return float64(c.Skills.Tactics)*2 + 0.5*float64(c.Stats.Intelligence)
}

func wisdomScore(c *world.Character) float64 {
	return float64(c.Stats.Intelligence) + 0.5*float64(c.Stats.Charm)
}
