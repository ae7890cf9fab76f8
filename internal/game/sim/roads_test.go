package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

func newRoadWorld(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, r.AddCity(&world.City{ID: "chengdu", Name: "Chengdu"}))
	require.NoError(t, r.AddCity(&world.City{ID: "hanzhong", Name: "Hanzhong"}))
	require.NoError(t, r.AddCity(&world.City{ID: "jianye", Name: "Jianye"}))
	return r
}

func TestRoadMapBidirectional(t *testing.T) {
	r := newRoadWorld(t)
	m := NewRoadMap(r, []world.ScenarioRoad{
		{From: "chengdu", To: "hanzhong", TravelTime: 2, Kind: "mountain"},
	})

	road, ok := m.FindRoad("chengdu", "hanzhong")
	require.True(t, ok)
	require.Equal(t, RoadMountain, road.Kind)
	require.Equal(t, 2, road.TravelTime)

	back, ok := m.FindRoad("hanzhong", "chengdu")
	require.True(t, ok)
	require.Equal(t, "chengdu", back.To)
}

func TestRoadMapUnknownKindFallsBackToOfficial(t *testing.T) {
	r := newRoadWorld(t)
	m := NewRoadMap(r, []world.ScenarioRoad{
		{From: "chengdu", To: "hanzhong", TravelTime: 1, Kind: "plank"},
	})
	road, ok := m.FindRoad("chengdu", "hanzhong")
	require.True(t, ok)
	require.Equal(t, RoadOfficial, road.Kind)
}

func TestWaterwayRequiresHarbor(t *testing.T) {
	r := newRoadWorld(t)
	m := NewRoadMap(r, []world.ScenarioRoad{
		{From: "chengdu", To: "jianye", TravelTime: 1, Kind: "waterway"},
	})

	_, ok := m.FindRoad("chengdu", "jianye")
	require.False(t, ok, "no harbor at either endpoint")
	require.Empty(t, m.ReachableNeighbors("chengdu"))

	jianye, _ := r.City("jianye")
	jianye.Specialty = world.ImprovementHarbor
	_, ok = m.FindRoad("chengdu", "jianye")
	require.True(t, ok)
	require.Len(t, m.ReachableNeighbors("chengdu"), 1)
}

func TestReachableNeighborsSorted(t *testing.T) {
	r := newRoadWorld(t)
	m := NewRoadMap(r, []world.ScenarioRoad{
		{From: "hanzhong", To: "jianye", TravelTime: 1},
		{From: "hanzhong", To: "chengdu", TravelTime: 1},
	})
	neighbors := m.ReachableNeighbors("hanzhong")
	require.Len(t, neighbors, 2)
	require.Equal(t, "chengdu", neighbors[0].To)
	require.Equal(t, "jianye", neighbors[1].To)
}

func TestTravelTicks(t *testing.T) {
	official := Road{TravelTime: 2, Kind: RoadOfficial}
	mountain := Road{TravelTime: 2, Kind: RoadMountain}

	require.Equal(t, 2, TravelTicks(official, world.SeasonSummer, 0))
	require.Equal(t, 3, TravelTicks(official, world.SeasonWinter, 0))
	require.Equal(t, 4, TravelTicks(mountain, world.SeasonWinter, 0))
	require.Equal(t, 2, TravelTicks(mountain, world.SeasonWinter, 2))
	require.Equal(t, 1, TravelTicks(official, world.SeasonSpring, 3), "travel time floors at one tick")
}
