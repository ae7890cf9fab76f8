package world_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

func newTestRegistry(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	chars := []*world.Character{
		{ID: "liu-bei", Name: "Liu Bei", Stats: world.Stats{Military: 7, Intelligence: 7, Charm: 9}, CityID: "chengdu"},
		{ID: "guan-yu", Name: "Guan Yu", Stats: world.Stats{Military: 9, Intelligence: 6, Charm: 6}, CityID: "chengdu"},
		{ID: "cao-cao", Name: "Cao Cao", Stats: world.Stats{Military: 8, Intelligence: 9, Charm: 7}, CityID: "luoyang"},
	}
	for _, c := range chars {
		require.NoError(t, r.AddCharacter(c))
	}
	require.NoError(t, r.AddFaction(&world.Faction{ID: "shu", Name: "Shu", LeaderID: "liu-bei", MemberIDs: []string{"liu-bei", "guan-yu"}}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wei", Name: "Wei", LeaderID: "cao-cao", MemberIDs: []string{"cao-cao"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "chengdu", Name: "Chengdu", Tier: world.TierMajor, ControllerID: "liu-bei", Garrison: 10, Food: 100}))
	require.NoError(t, r.AddCity(&world.City{ID: "luoyang", Name: "Luoyang", Tier: world.TierMajor, ControllerID: "cao-cao", Garrison: 12, Food: 100}))
	return r
}

func TestRegistry_DuplicateIDsRejected(t *testing.T) {
	r := newTestRegistry(t)
	require.Error(t, r.AddCharacter(&world.Character{ID: "liu-bei"}))
	require.Error(t, r.AddFaction(&world.Faction{ID: "shu"}))
	require.Error(t, r.AddCity(&world.City{ID: "chengdu"}))
}

func TestRegistry_ControllerFaction(t *testing.T) {
	r := newTestRegistry(t)
	f, ok := r.ControllerFaction("chengdu")
	require.True(t, ok)
	require.Equal(t, "shu", f.ID)

	cities := r.ControlledCities("shu")
	require.Len(t, cities, 1)
	require.Equal(t, "chengdu", cities[0].ID)
}

func TestRegistry_CapitalIsLeaderCity(t *testing.T) {
	r := newTestRegistry(t)
	cap, ok := r.Capital("shu")
	require.True(t, ok)
	require.Equal(t, "chengdu", cap.ID)
}

// TestRegistry_TransferMember_Partition verifies a character never appears
// in two member lists after a transfer.
func TestRegistry_TransferMember_Partition(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.TransferMember("guan-yu", "wei"))

	shu, _ := r.Faction("shu")
	wei, _ := r.Faction("wei")
	require.False(t, shu.HasMember("guan-yu"))
	require.True(t, wei.HasMember("guan-yu"))

	c, _ := r.Character("guan-yu")
	require.Equal(t, "wei", c.FactionID)
}

func TestRegistry_MarkDead_DetachesEverything(t *testing.T) {
	r := newTestRegistry(t)
	r.MarkDead("liu-bei")

	c, _ := r.Character("liu-bei")
	require.True(t, c.Dead)
	require.Empty(t, c.CityID)
	require.Empty(t, c.FactionID)

	shu, _ := r.Faction("shu")
	require.False(t, shu.HasMember("liu-bei"))

	city, _ := r.City("chengdu")
	require.Empty(t, city.ControllerID, "dead controller must be cleared")
}

func TestRegistry_MarkDead_RecordSurvives(t *testing.T) {
	r := newTestRegistry(t)
	r.MarkDead("guan-yu")
	_, ok := r.Character("guan-yu")
	require.True(t, ok, "dead characters are never purged")
}

func TestPairKey_OrderIndependent(t *testing.T) {
	require.Equal(t, world.PairKey("shu", "wei"), world.PairKey("wei", "shu"))
	a, b := world.SplitPairKey(world.PairKey("wei", "shu"))
	require.Equal(t, "shu", a)
	require.Equal(t, "wei", b)
}

// TestPropertyLedgersStayInBounds hammers the clamped ledgers with random
// deltas and asserts every read stays inside documented bounds.
func TestPropertyLedgersStayInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := world.NewRegistry()
		require.NoError(t, r.AddCharacter(&world.Character{ID: "c1"}))
		require.NoError(t, r.AddFaction(&world.Faction{ID: "f1", LeaderID: "c1", MemberIDs: []string{"c1"}}))
		require.NoError(t, r.AddCity(&world.City{ID: "city1", Garrison: 5, Food: 50}))

		n := rapid.IntRange(1, 50).Draw(t, "ops")
		for i := 0; i < n; i++ {
			delta := rapid.Float64Range(-250, 250).Draw(t, fmt.Sprintf("delta%d", i))
			switch rapid.IntRange(0, 7).Draw(t, fmt.Sprintf("op%d", i)) {
			case 0:
				r.AdjustMorale("f1", delta)
			case 1:
				r.AdjustExhaustion("f1", delta)
			case 2:
				r.AdjustTrust("f1", "f2", delta)
			case 3:
				r.AdjustPrestige("c1", delta)
			case 4:
				r.AdjustFavorability("c1", delta)
			case 5:
				r.AdjustLoyalty("city1", delta)
			case 6:
				r.AddGarrison("city1", int(delta))
			case 7:
				r.AddFood("city1", int(delta))
			}
		}

		requireBetween(t, r.Morale("f1"), 0, world.MaxMorale, "morale")
		requireBetween(t, r.Exhaustion("f1"), 0, world.MaxExhaustion, "exhaustion")
		requireBetween(t, r.Trust("f1", "f2"), 0, world.MaxTrust, "trust")
		requireBetween(t, r.Prestige("c1"), 0, world.MaxPrestige, "prestige")
		requireBetween(t, r.Favorability("c1"), 0, world.MaxFavorability, "favorability")
		requireBetween(t, r.Loyalty("city1"), 0, world.MaxLoyalty, "loyalty")
		city, _ := r.City("city1")
		if city.Garrison < 0 {
			t.Fatalf("garrison went negative: %d", city.Garrison)
		}
		requireBetween(t, city.Food, 0, world.MaxFood, "food")
	})
}

func requireBetween(t *rapid.T, v, lo, hi int, name string) {
	if v < lo || v > hi {
		t.Fatalf("%s = %d, want within [%d, %d]", name, v, lo, hi)
	}
}

func TestRegistry_TrustDefaultsToBaseline(t *testing.T) {
	r := newTestRegistry(t)
	require.Equal(t, world.BaselineTrust, r.Trust("shu", "wei"))
}

func TestRegistry_AllianceSetClearDrop(t *testing.T) {
	r := newTestRegistry(t)
	r.SetAllied("shu", "wei", true)
	require.True(t, r.Allied("wei", "shu"))

	r.DropAlliancesOf("wei")
	require.False(t, r.Allied("shu", "wei"))
}

func TestRegistry_ConsumeArrivals_ExactlyOnce(t *testing.T) {
	r := newTestRegistry(t)
	r.ScheduleMovement(&world.Movement{CharacterID: "guan-yu", FromCityID: "chengdu", ToCityID: "luoyang", DepartTick: 1, ArriveTick: 3, Hostile: true})

	require.Empty(t, r.ConsumeArrivals(2))
	arrived := r.ConsumeArrivals(3)
	require.Len(t, arrived, 1)
	require.Empty(t, r.ConsumeArrivals(3), "a movement is consumed exactly once")
}

func TestRegistry_TakeTactic_ConsumesQueue(t *testing.T) {
	r := newTestRegistry(t)
	r.QueueTactic("guan-yu", world.TacticAggressive)
	require.Equal(t, world.TacticAggressive, r.TakeTactic("guan-yu"))
	require.Equal(t, world.TacticNone, r.TakeTactic("guan-yu"))
}

func TestRegistry_ExpireTreaties(t *testing.T) {
	r := newTestRegistry(t)
	r.AddTreaty(&world.Treaty{Kind: world.TreatyNonAggression, FactionA: "shu", FactionB: "wei", StartTick: 0, ExpireTick: 10})

	_, ok := r.ActiveTreaty(world.TreatyNonAggression, "wei", "shu", 5)
	require.True(t, ok)

	expired := r.ExpireTreaties(10)
	require.Len(t, expired, 1)
	_, ok = r.ActiveTreaty(world.TreatyNonAggression, "shu", "wei", 10)
	require.False(t, ok)
}

func TestRegistry_SetGame_PanicsOnRevival(t *testing.T) {
	r := newTestRegistry(t)
	r.SetGame(world.GameState{Status: world.StatusVictory, WinnerFactionID: "shu", WinType: world.WinConquest, Tick: 5})
	require.Panics(t, func() {
		r.SetGame(world.GameState{Status: world.StatusOngoing})
	})
}

func TestSeasonAt_Cycles(t *testing.T) {
	require.Equal(t, world.SeasonSpring, world.SeasonAt(0, 30))
	require.Equal(t, world.SeasonSummer, world.SeasonAt(30, 30))
	require.Equal(t, world.SeasonWinter, world.SeasonAt(119, 30))
	require.Equal(t, world.SeasonSpring, world.SeasonAt(120, 30))
}
