package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dynasty/internal/config"
	"github.com/cory-johannsen/dynasty/internal/game/battle"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/lifecycle"
	"github.com/cory-johannsen/dynasty/internal/game/sim"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

func TestTemplateQuietTick(t *testing.T) {
	text, err := Template{}.Summarize(context.Background(), sim.TickResult{
		Tick:   3,
		Season: world.SeasonSummer,
	})
	require.NoError(t, err)
	require.Contains(t, text, "tick 3")
	require.Contains(t, text, "summer")
	require.Contains(t, text, "quiet")
}

func TestTemplateCapturePreferredOverSkirmish(t *testing.T) {
	text, err := Template{}.Summarize(context.Background(), sim.TickResult{
		Season: world.SeasonSpring,
		Battles: []battle.Result{
			{CityID: "hanzhong", AttackerFactionID: "wei", DefenderFactionID: "shu"},
			{CityID: "luoyang", AttackerFactionID: "shu", DefenderFactionID: "wei", Captured: true},
		},
	})
	require.NoError(t, err)
	require.Contains(t, text, "takes the city")
	require.Contains(t, text, "luoyang")
}

func TestTemplateBetrayalPreferredOverPact(t *testing.T) {
	text, err := Template{}.Summarize(context.Background(), sim.TickResult{
		Season: world.SeasonAutumn,
		Diplomacy: []diplomacy.Event{
			{Kind: diplomacy.EventPactAccepted, FactionA: "shu", FactionB: "wu"},
		},
		Betrayals: []diplomacy.Event{
			{Kind: diplomacy.EventBetrayal, ActorID: "wei-yan", FactionA: "shu"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, text, "treachery")
	require.Contains(t, text, "wei-yan")
}

func TestTemplateBattleDeath(t *testing.T) {
	text, err := Template{}.Summarize(context.Background(), sim.TickResult{
		Season: world.SeasonWinter,
		Deaths: []lifecycle.Event{
			{Kind: lifecycle.EventBattleDeath, CharacterID: "xiahou-yuan", FactionID: "wei"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, text, "xiahou-yuan")
	require.Contains(t, text, "falls in battle")
}

func TestPromptCarriesTickFacts(t *testing.T) {
	p := prompt(sim.TickResult{
		Tick:   12,
		Season: world.SeasonWinter,
		Battles: []battle.Result{
			{CityID: "luoyang", AttackerFactionID: "shu", DefenderFactionID: "wei", SiegeStarted: true},
		},
		Rebellions: []sim.RebellionEvent{{CityID: "changan", FactionID: "wei"}},
		Card:       "locust-swarm",
	})
	require.Contains(t, p, "Tick 12, winter.")
	require.Contains(t, p, "Battle at luoyang")
	require.Contains(t, p, "Rebellion in changan")
	require.Contains(t, p, "locust-swarm")
}

func TestNewFallsBackToTemplate(t *testing.T) {
	logger := zaptest.NewLogger(t)

	n := New(config.NarrativeConfig{Enabled: false}, logger)
	require.IsType(t, Template{}, n)

	t.Setenv("ANTHROPIC_API_KEY", "")
	n = New(config.NarrativeConfig{Enabled: true, Model: "claude-sonnet-4-5"}, logger)
	require.IsType(t, Template{}, n)
}

func TestNewUsesChroniclerWithKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	n := New(config.NarrativeConfig{Enabled: true, Model: "claude-sonnet-4-5"}, zaptest.NewLogger(t))
	require.IsType(t, &Chronicler{}, n)
}
