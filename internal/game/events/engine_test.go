package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dynasty/internal/game/events"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// scriptSource feeds predetermined rolls and then zeroes.
type scriptSource struct {
	rolls []int
}

func (s *scriptSource) Intn(n int) int {
	if len(s.rolls) == 0 {
		return 0
	}
	v := s.rolls[0]
	s.rolls = s.rolls[1:]
	return v % n
}

func newEventWorld(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, r.AddCharacter(&world.Character{ID: "liu-bei", Name: "Liu Bei", CityID: "chengdu"}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "shu", Name: "Shu", LeaderID: "liu-bei", MemberIDs: []string{"liu-bei"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "chengdu", Name: "Chengdu", Tier: world.TierMajor, ControllerID: "liu-bei", Garrison: 10, Gold: 50, Food: 100}))
	return r
}

func TestWorldEventPlague(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{rolls: []int{0, 0}}, zaptest.NewLogger(t))

	evs := e.WorldEvents(5)
	require.Len(t, evs, 1)
	require.Equal(t, events.KindPlague, evs[0].Kind)
	require.Equal(t, "chengdu", evs[0].CityID)

	city, _ := r.City("chengdu")
	require.Equal(t, 8, city.Garrison)
	require.Equal(t, 80, city.Food)
}

func TestWorldEventDrought(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{rolls: []int{0, 999, 0}}, zaptest.NewLogger(t))

	evs := e.WorldEvents(5)
	require.Len(t, evs, 1)
	require.Equal(t, events.KindDrought, evs[0].Kind)

	city, _ := r.City("chengdu")
	require.Equal(t, 11, city.DroughtUntil)
}

func TestWorldEventBandits(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{rolls: []int{0, 999, 999, 0}}, zaptest.NewLogger(t))

	evs := e.WorldEvents(5)
	require.Len(t, evs, 1)
	require.Equal(t, events.KindBandits, evs[0].Kind)

	city, _ := r.City("chengdu")
	require.Equal(t, 35, city.Gold)
	require.Equal(t, 9, city.Garrison)
}

func TestWorldEventQuietTick(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{rolls: []int{0, 999, 999, 999}}, zaptest.NewLogger(t))
	require.Empty(t, e.WorldEvents(5))
}

func TestWorldEventSkipsUnownedCities(t *testing.T) {
	r := newEventWorld(t)
	city, _ := r.City("chengdu")
	city.ControllerID = ""
	e := events.NewEngine(r, &scriptSource{rolls: []int{0, 0}}, zaptest.NewLogger(t))
	require.Empty(t, e.WorldEvents(5))
}

func TestSeasonalEventWinterMorale(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{}, zaptest.NewLogger(t))

	// 10 ticks per season: tick 30 opens winter.
	evs := e.SeasonalEvent(30, 10)
	require.Len(t, evs, 1)
	require.Equal(t, events.KindSeason, evs[0].Kind)
	require.Equal(t, 49, r.Morale("shu"))
}

func TestSeasonalEventAutumnHarvest(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{}, zaptest.NewLogger(t))

	evs := e.SeasonalEvent(20, 10)
	require.Len(t, evs, 1)
	city, _ := r.City("chengdu")
	require.Equal(t, 110, city.Food)
}

func TestSeasonalEventOnlyOnBoundary(t *testing.T) {
	r := newEventWorld(t)
	e := events.NewEngine(r, &scriptSource{}, zaptest.NewLogger(t))
	require.Empty(t, e.SeasonalEvent(31, 10))
	require.Empty(t, e.SeasonalEvent(0, 10))
	require.Equal(t, 50, r.Morale("shu"))
}
