package sim

import (
	"sort"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// RoadKind classifies a road for travel-time and usability rules.
type RoadKind string

const (
	RoadOfficial RoadKind = "official"
	RoadMountain RoadKind = "mountain"
	RoadWaterway RoadKind = "waterway"
)

// Road is one usable edge between two cities.
type Road struct {
	From       string
	To         string
	TravelTime int
	Kind       RoadKind
}

// RoadService is the adjacency contract the pipeline consumes for movement,
// trade routes, and NPC decisions.
type RoadService interface {
	// FindRoad returns the road from one city to another, if a usable one
	// exists. Waterways are only usable when either endpoint has a harbor.
	FindRoad(from, to string) (Road, bool)
	// ReachableNeighbors returns every usable road leaving a city, sorted
	// by destination id.
	ReachableNeighbors(cityID string) []Road
}

// RoadMap is the static in-memory RoadService built from scenario road
// definitions. Every road is bidirectional.
type RoadMap struct {
	reg   *world.Registry
	edges map[string][]Road
}

// NewRoadMap builds a RoadMap from scenario definitions. Unknown road kinds
// fall back to official roads.
//
// Precondition: reg must be non-nil.
func NewRoadMap(reg *world.Registry, defs []world.ScenarioRoad) *RoadMap {
	m := &RoadMap{reg: reg, edges: make(map[string][]Road)}
	for _, d := range defs {
		kind := roadKindOf(d.Kind)
		m.edges[d.From] = append(m.edges[d.From], Road{From: d.From, To: d.To, TravelTime: d.TravelTime, Kind: kind})
		m.edges[d.To] = append(m.edges[d.To], Road{From: d.To, To: d.From, TravelTime: d.TravelTime, Kind: kind})
	}
	for from := range m.edges {
		roads := m.edges[from]
		sort.Slice(roads, func(i, j int) bool { return roads[i].To < roads[j].To })
	}
	return m
}

func roadKindOf(s string) RoadKind {
	switch RoadKind(s) {
	case RoadMountain:
		return RoadMountain
	case RoadWaterway:
		return RoadWaterway
	}
	return RoadOfficial
}

// FindRoad returns the usable road between two cities, if any.
func (m *RoadMap) FindRoad(from, to string) (Road, bool) {
	for _, r := range m.edges[from] {
		if r.To == to && m.usable(r) {
			return r, true
		}
	}
	return Road{}, false
}

// ReachableNeighbors returns the usable roads leaving a city, sorted by
// destination id.
func (m *RoadMap) ReachableNeighbors(cityID string) []Road {
	var out []Road
	for _, r := range m.edges[cityID] {
		if m.usable(r) {
			out = append(out, r)
		}
	}
	return out
}

// usable enforces the harbor requirement: a waterway needs a harbor at one
// of its endpoints.
func (m *RoadMap) usable(r Road) bool {
	if r.Kind != RoadWaterway {
		return true
	}
	return m.hasHarbor(r.From) || m.hasHarbor(r.To)
}

func (m *RoadMap) hasHarbor(cityID string) bool {
	city, ok := m.reg.City(cityID)
	return ok && city.Specialty == world.ImprovementHarbor
}

// TravelTicks adjusts a road's base travel time for the season and the
// mover's logistics technology. Winter slows every road by one tick and
// mountain passes by one more; logistics levels each shave one tick off.
//
// Postcondition: the result is >= 1.
func TravelTicks(r Road, season world.Season, logisticsLevel int) int {
	t := r.TravelTime
	if season == world.SeasonWinter {
		t++
		if r.Kind == RoadMountain {
			t++
		}
	}
	t -= logisticsLevel
	if t < 1 {
		t = 1
	}
	return t
}
