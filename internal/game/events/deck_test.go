package events_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dynasty/internal/game/events"
)

func writeCard(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDeckLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "bumper_harvest.lua", `
card_id = "bumper_harvest"
weight = 3

function apply(tick)
  dynasty.add_food("chengdu", 25)
  dynasty.adjust_morale("shu", 2)
  dynasty.log("a bumper harvest at tick " .. tick)
end
`)

	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.NoError(t, deck.LoadDir(dir))

	cards := deck.Cards()
	require.Len(t, cards, 1)
	require.Equal(t, events.Card{ID: "bumper_harvest", Weight: 3}, cards[0])

	var gotCity string
	var gotFood, gotMorale int
	deck.AddFood = func(cityID string, delta int) { gotCity, gotFood = cityID, delta }
	deck.AdjustMorale = func(factionID string, delta int) { gotMorale = delta }

	require.NoError(t, deck.Apply("bumper_harvest", 7))
	require.Equal(t, "chengdu", gotCity)
	require.Equal(t, 25, gotFood)
	require.Equal(t, 2, gotMorale)
}

func TestDeckApplySurvivesRepeatedDraws(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "tax.lua", `
card_id = "tax"
function apply(tick)
  dynasty.add_gold("chengdu", -5)
end
`)
	deck := events.NewDeck(500, zaptest.NewLogger(t))
	defer deck.Close()
	require.NoError(t, deck.LoadDir(dir))

	calls := 0
	deck.AddGold = func(string, int) { calls++ }
	for i := 0; i < 50; i++ {
		require.NoError(t, deck.Apply("tax", i))
	}
	require.Equal(t, 50, calls, "instruction budget re-arms per apply")
}

func TestDeckRejectsCardWithoutID(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "broken.lua", `function apply(tick) end`)
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.Error(t, deck.LoadDir(dir))
}

func TestDeckRejectsCardWithoutApply(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "broken.lua", `card_id = "broken"`)
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.Error(t, deck.LoadDir(dir))
}

func TestDeckRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "a.lua", `card_id = "same"
function apply(tick) end`)
	writeCard(t, dir, "b.lua", `card_id = "same"
function apply(tick) end`)
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.Error(t, deck.LoadDir(dir))
}

func TestDeckWeightedDraw(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "a.lua", `card_id = "common"
weight = 9
function apply(tick) end`)
	writeCard(t, dir, "b.lua", `card_id = "rare"
function apply(tick) end`)
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.NoError(t, deck.LoadDir(dir))

	card, ok := deck.Draw(&scriptSource{rolls: []int{0}})
	require.True(t, ok)
	require.Equal(t, "common", card.ID)

	card, ok = deck.Draw(&scriptSource{rolls: []int{9}})
	require.True(t, ok)
	require.Equal(t, "rare", card.ID)
}

func TestDeckDrawEmpty(t *testing.T) {
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	_, ok := deck.Draw(&scriptSource{})
	require.False(t, ok)
}

func TestDeckSandboxStripsDangerousGlobals(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "probe.lua", `
card_id = "probe"
function apply(tick)
  if dofile ~= nil or loadfile ~= nil or require ~= nil then
    dynasty.log("escaped")
  end
end
`)
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.NoError(t, deck.LoadDir(dir))
	require.NoError(t, deck.Apply("probe", 1))
}

func TestDeckRunawayCardIsTerminated(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "loop.lua", `
card_id = "loop"
function apply(tick)
  while true do end
end
`)
	deck := events.NewDeck(1000, zaptest.NewLogger(t))
	defer deck.Close()
	require.NoError(t, deck.LoadDir(dir))
	// Apply logs the cancellation and returns; it must not hang.
	require.NoError(t, deck.Apply("loop", 1))
}

func TestDeckUnknownCard(t *testing.T) {
	deck := events.NewDeck(0, zaptest.NewLogger(t))
	defer deck.Close()
	require.Error(t, deck.Apply("nope", 1))
}
