package victory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dynasty/internal/game/victory"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

func newThreeKingdoms(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, r.AddCharacter(&world.Character{ID: "liu-bei", Name: "Liu Bei", CityID: "chengdu"}))
	require.NoError(t, r.AddCharacter(&world.Character{ID: "cao-cao", Name: "Cao Cao", CityID: "luoyang"}))
	require.NoError(t, r.AddCharacter(&world.Character{ID: "sun-quan", Name: "Sun Quan", CityID: "jianye"}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "shu", Name: "Shu", LeaderID: "liu-bei", MemberIDs: []string{"liu-bei"}}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wei", Name: "Wei", LeaderID: "cao-cao", MemberIDs: []string{"cao-cao"}}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wu", Name: "Wu", LeaderID: "sun-quan", MemberIDs: []string{"sun-quan"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "chengdu", Name: "Chengdu", Tier: world.TierMajor, ControllerID: "liu-bei", Garrison: 10, Gold: 100, Food: 100}))
	require.NoError(t, r.AddCity(&world.City{ID: "luoyang", Name: "Luoyang", Tier: world.TierMajor, ControllerID: "cao-cao", Garrison: 10, Gold: 100, Food: 100}))
	require.NoError(t, r.AddCity(&world.City{ID: "jianye", Name: "Jianye", Tier: world.TierMajor, ControllerID: "sun-quan", Garrison: 10, Gold: 100, Food: 100}))
	return r
}

func newEvaluator(t *testing.T, r *world.Registry, cfg victory.Config) *victory.Evaluator {
	t.Helper()
	return victory.NewEvaluator(r, cfg, zaptest.NewLogger(t))
}

func testConfig() victory.Config {
	return victory.Config{
		PlayerFactionID:       "shu",
		DiplomaticStreakTicks: 3,
		EconomicStreakTicks:   2,
		EconomicGoldShare:     0.6,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := victory.DefaultConfig("shu")
	require.Equal(t, "shu", cfg.PlayerFactionID)
	require.Equal(t, 15, cfg.DiplomaticStreakTicks)
	require.Equal(t, 10, cfg.EconomicStreakTicks)
	require.InDelta(t, 0.6, cfg.EconomicGoldShare, 1e-9)
}

func TestOngoingWhileContested(t *testing.T) {
	r := newThreeKingdoms(t)
	e := newEvaluator(t, r, testConfig())
	game := e.Evaluate(5)
	require.Equal(t, world.StatusOngoing, game.Status)
}

func TestConquestVictory(t *testing.T) {
	r := newThreeKingdoms(t)
	for _, id := range []string{"luoyang", "jianye"} {
		city, _ := r.City(id)
		city.ControllerID = "liu-bei"
	}
	e := newEvaluator(t, r, testConfig())

	game := e.Evaluate(8)
	require.Equal(t, world.StatusVictory, game.Status)
	require.Equal(t, world.WinConquest, game.WinType)
	require.Equal(t, "shu", game.WinnerFactionID)
	require.True(t, r.Game().Terminal())
}

func TestRivalConquestIsDefeat(t *testing.T) {
	r := newThreeKingdoms(t)
	for _, id := range []string{"chengdu", "jianye"} {
		city, _ := r.City(id)
		city.ControllerID = "cao-cao"
	}
	e := newEvaluator(t, r, testConfig())

	game := e.Evaluate(8)
	require.Equal(t, world.StatusDefeat, game.Status)
	require.Equal(t, "wei", game.WinnerFactionID)
}

func TestPlayerWithoutCitiesIsDefeated(t *testing.T) {
	r := newThreeKingdoms(t)
	city, _ := r.City("chengdu")
	city.ControllerID = "cao-cao"
	e := newEvaluator(t, r, testConfig())

	game := e.Evaluate(1)
	require.Equal(t, world.StatusDefeat, game.Status)
}

func TestNoDefeatAtTickZero(t *testing.T) {
	r := newThreeKingdoms(t)
	city, _ := r.City("chengdu")
	city.ControllerID = "cao-cao"
	e := newEvaluator(t, r, testConfig())

	game := e.Evaluate(0)
	require.Equal(t, world.StatusOngoing, game.Status)
}

func TestDiplomaticStreakAndVictory(t *testing.T) {
	r := newThreeKingdoms(t)
	r.SetAllied("shu", "wei", true)
	r.SetAllied("shu", "wu", true)
	e := newEvaluator(t, r, testConfig())

	require.Equal(t, world.StatusOngoing, e.Evaluate(1).Status)
	require.Equal(t, 1, e.DiplomaticStreak())
	require.Equal(t, world.StatusOngoing, e.Evaluate(2).Status)

	game := e.Evaluate(3)
	require.Equal(t, world.StatusVictory, game.Status)
	require.Equal(t, world.WinDiplomacy, game.WinType)
}

func TestDiplomaticStreakResets(t *testing.T) {
	r := newThreeKingdoms(t)
	r.SetAllied("shu", "wei", true)
	r.SetAllied("shu", "wu", true)
	e := newEvaluator(t, r, testConfig())

	e.Evaluate(1)
	e.Evaluate(2)
	require.Equal(t, 2, e.DiplomaticStreak())

	r.SetAllied("shu", "wu", false)
	require.Equal(t, world.StatusOngoing, e.Evaluate(3).Status)
	require.Equal(t, 0, e.DiplomaticStreak(), "streak resets the tick the condition breaks")
}

func TestEconomicStreakAndVictory(t *testing.T) {
	r := newThreeKingdoms(t)
	city, _ := r.City("chengdu")
	city.Gold = 700 // 700 of 900 total is just under 78%
	e := newEvaluator(t, r, testConfig())

	require.Equal(t, world.StatusOngoing, e.Evaluate(1).Status)
	require.Equal(t, 1, e.EconomicStreak())

	game := e.Evaluate(2)
	require.Equal(t, world.StatusVictory, game.Status)
	require.Equal(t, world.WinEconomy, game.WinType)
}

func TestEconomicStreakResetsAtThreshold(t *testing.T) {
	r := newThreeKingdoms(t)
	city, _ := r.City("chengdu")
	city.Gold = 700
	e := newEvaluator(t, r, testConfig())
	e.Evaluate(1)

	city.Gold = 100
	require.Equal(t, world.StatusOngoing, e.Evaluate(2).Status)
	require.Equal(t, 0, e.EconomicStreak())
}

func TestEvaluateTerminalStateIsStable(t *testing.T) {
	r := newThreeKingdoms(t)
	for _, id := range []string{"luoyang", "jianye"} {
		city, _ := r.City(id)
		city.ControllerID = "liu-bei"
	}
	e := newEvaluator(t, r, testConfig())

	first := e.Evaluate(8)
	second := e.Evaluate(9)
	require.Equal(t, first, second, "a finished game never re-resolves")
}

func TestEliminationAbsorbsMembers(t *testing.T) {
	r := newThreeKingdoms(t)
	require.NoError(t, r.AddCharacter(&world.Character{ID: "lu-su", Name: "Lu Su", CityID: "jianye"}))
	require.NoError(t, r.TransferMember("lu-su", "wu"))
	require.NoError(t, r.AddCity(&world.City{ID: "xuchang", Name: "Xuchang", Tier: world.TierMinor, ControllerID: "cao-cao", Garrison: 5, Food: 50}))
	// Wu loses its only city but keeps its members.
	city, _ := r.City("jianye")
	city.ControllerID = "cao-cao"
	r.SetAllied("shu", "wu", true)
	e := newEvaluator(t, r, testConfig())

	els := e.EliminateFactions(4)
	require.Len(t, els, 1)
	require.Equal(t, "wu", els[0].FactionID)
	require.Equal(t, "wei", els[0].AbsorbedBy, "strongest rival by controlled cities absorbs")
	require.Equal(t, 2, els[0].MemberCount)

	_, ok := r.Faction("wu")
	require.False(t, ok)
	wei, _ := r.Faction("wei")
	require.Contains(t, wei.MemberIDs, "sun-quan")
	require.Contains(t, wei.MemberIDs, "lu-su")
	require.False(t, r.Allied("shu", "wu"), "alliances involving the eliminated faction drop")
}

func TestPlayerNeverEliminated(t *testing.T) {
	r := newThreeKingdoms(t)
	city, _ := r.City("chengdu")
	city.ControllerID = "cao-cao"
	e := newEvaluator(t, r, testConfig())

	require.Empty(t, e.EliminateFactions(4))
	_, ok := r.Faction("shu")
	require.True(t, ok)
}
