// Package narrative turns a tick's event record into a short prose summary.
// The Anthropic-backed narrator is optional; the static template narrator is
// always available and never fails.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/lifecycle"
	"github.com/cory-johannsen/dynasty/internal/game/sim"
)

// Template composes a summary from fixed phrasing. It is the fallback used
// when no API key is configured and the deterministic choice for tests.
type Template struct{}

// Summarize renders two to three sentences covering the tick's battles,
// diplomacy, and deaths.
//
// Postcondition: Returns a non-empty string and a nil error.
func (Template) Summarize(_ context.Context, res sim.TickResult) (string, error) {
	var sentences []string

	sentences = append(sentences, fmt.Sprintf("The %s of tick %d passes over the realm.", res.Season, res.Tick))

	if line := battleSentence(res); line != "" {
		sentences = append(sentences, line)
	}
	if line := diplomacySentence(res); line != "" {
		sentences = append(sentences, line)
	}
	if line := deathSentence(res); line != "" {
		sentences = append(sentences, line)
	}
	if len(sentences) == 1 {
		sentences = append(sentences, "Markets trade, garrisons drill, and the borders hold quiet.")
	}

	return strings.Join(sentences, " "), nil
}

func battleSentence(res sim.TickResult) string {
	for _, b := range res.Battles {
		if b.Captured {
			return fmt.Sprintf("%s storms the walls of %s and takes the city from %s.",
				b.AttackerFactionID, b.CityID, b.DefenderFactionID)
		}
	}
	for _, b := range res.Battles {
		if b.SiegeStarted {
			return fmt.Sprintf("The assault on %s is thrown back, and %s settles in for a siege.",
				b.CityID, b.AttackerFactionID)
		}
	}
	if len(res.Battles) > 0 {
		b := res.Battles[0]
		return fmt.Sprintf("Blood is spilled before the gates of %s, but the banners do not change.", b.CityID)
	}
	return ""
}

func diplomacySentence(res sim.TickResult) string {
	for _, ev := range res.Betrayals {
		if ev.Kind == diplomacy.EventBetrayal {
			return fmt.Sprintf("Whispers of treachery: %s abandons %s.", ev.ActorID, ev.FactionA)
		}
	}
	for _, ev := range res.Diplomacy {
		switch ev.Kind {
		case diplomacy.EventAllianceFormed:
			return fmt.Sprintf("Envoys seal an alliance between %s and %s.", ev.FactionA, ev.FactionB)
		case diplomacy.EventAllianceBroken:
			return fmt.Sprintf("The alliance between %s and %s collapses.", ev.FactionA, ev.FactionB)
		case diplomacy.EventPactAccepted:
			return fmt.Sprintf("A pact is sworn between %s and %s.", ev.FactionA, ev.FactionB)
		case diplomacy.EventDemandAccepted:
			return fmt.Sprintf("%s bows to the demands of %s.", ev.FactionB, ev.FactionA)
		}
	}
	return ""
}

func deathSentence(res sim.TickResult) string {
	for _, ev := range res.Deaths {
		if ev.Kind == lifecycle.EventBattleDeath {
			return fmt.Sprintf("%s of %s falls in battle.", ev.CharacterID, ev.FactionID)
		}
	}
	for _, ev := range res.Deaths {
		if ev.Kind == lifecycle.EventNaturalDeath {
			return fmt.Sprintf("%s of %s dies of old age.", ev.CharacterID, ev.FactionID)
		}
	}
	for _, ev := range res.Lifecycle {
		if ev.Kind == lifecycle.EventSuccession {
			return fmt.Sprintf("%s rises to lead %s.", ev.SuccessorID, ev.FactionID)
		}
	}
	return ""
}

// prompt renders the tick record as the user message for the API narrator.
func prompt(res sim.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tick %d, %s.\n", res.Tick, res.Season)
	for _, battle := range res.Battles {
		fmt.Fprintf(&b, "Battle at %s: %s vs %s, captured=%t, siege=%t.\n",
			battle.CityID, battle.AttackerFactionID, battle.DefenderFactionID,
			battle.Captured, battle.SiegeStarted)
	}
	for _, ev := range res.Diplomacy {
		fmt.Fprintf(&b, "Diplomacy: %s between %s and %s.\n", ev.Kind, ev.FactionA, ev.FactionB)
	}
	for _, ev := range res.Betrayals {
		fmt.Fprintf(&b, "Betrayal: %s leaves %s.\n", ev.ActorID, ev.FactionA)
	}
	for _, ev := range res.Deaths {
		fmt.Fprintf(&b, "Death: %s of %s (%s).\n", ev.CharacterID, ev.FactionID, ev.Kind)
	}
	for _, ev := range res.Rebellions {
		fmt.Fprintf(&b, "Rebellion in %s against %s.\n", ev.CityID, ev.FactionID)
	}
	for _, ev := range res.World {
		fmt.Fprintf(&b, "Event: %s at %s. %s\n", ev.Kind, ev.CityID, ev.Detail)
	}
	if res.Card != "" {
		fmt.Fprintf(&b, "Card drawn: %s.\n", res.Card)
	}
	return b.String()
}
