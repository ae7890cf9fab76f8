package world

import (
	"fmt"
	"sort"
)

// SnapshotVersion is the current snapshot schema version.
const SnapshotVersion = 1

// Snapshot is the versioned, serializable capture of a full Registry.
// It is sufficient to resume the tick pipeline from an arbitrary point.
type Snapshot struct {
	Version int `json:"version" yaml:"version"`

	Characters []Character    `json:"characters" yaml:"characters"`
	Factions   []Faction      `json:"factions" yaml:"factions"`
	Cities     []City         `json:"cities" yaml:"cities"`
	Movements  []Movement     `json:"movements,omitempty" yaml:"movements,omitempty"`
	Transfers  []TroopTransfer `json:"transfers,omitempty" yaml:"transfers,omitempty"`
	Missions   []SpyMission   `json:"spy_missions,omitempty" yaml:"spy_missions,omitempty"`
	Routes     []TradeRoute   `json:"trade_routes,omitempty" yaml:"trade_routes,omitempty"`
	Treaties   []Treaty       `json:"treaties,omitempty" yaml:"treaties,omitempty"`

	Morale       map[string]int    `json:"morale" yaml:"morale"`
	Exhaustion   map[string]int    `json:"exhaustion" yaml:"exhaustion"`
	Trust        map[string]int    `json:"trust" yaml:"trust"`
	Intimacy     map[string]int    `json:"intimacy" yaml:"intimacy"`
	Allied       []string          `json:"allied" yaml:"allied"`
	Prestige     map[string]int    `json:"prestige" yaml:"prestige"`
	Favorability map[string]int    `json:"favorability" yaml:"favorability"`
	Loyalty      map[string]int    `json:"loyalty" yaml:"loyalty"`
	Unsupplied   []string          `json:"unsupplied,omitempty" yaml:"unsupplied,omitempty"`
	Tactics      map[string]Tactic `json:"tactics,omitempty" yaml:"tactics,omitempty"`

	Game GameState `json:"game" yaml:"game"`
}

// Snapshot captures the full registry state as a Snapshot value.
//
// Postcondition: the returned snapshot shares no pointers with the registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Version:      SnapshotVersion,
		Morale:       copyIntMap(r.morale),
		Exhaustion:   copyIntMap(r.exhaustion),
		Trust:        copyIntMap(r.trust),
		Intimacy:     copyIntMap(r.intimacy),
		Prestige:     copyIntMap(r.prestige),
		Favorability: copyIntMap(r.favorability),
		Loyalty:      copyIntMap(r.loyalty),
		Game:         r.game,
	}

	for _, c := range sortedValues(r.characters) {
		cc := *c
		cc.Traits = append([]Trait(nil), c.Traits...)
		snap.Characters = append(snap.Characters, cc)
	}
	for _, f := range sortedValues(r.factions) {
		ff := *f
		ff.MemberIDs = append([]string(nil), f.MemberIDs...)
		ff.Traditions = append([]Tradition(nil), f.Traditions...)
		ff.Tech = make(map[TechTrack]int, len(f.Tech))
		for k, v := range f.Tech {
			ff.Tech[k] = v
		}
		if f.Research != nil {
			research := *f.Research
			ff.Research = &research
		}
		snap.Factions = append(snap.Factions, ff)
	}
	for _, c := range sortedValues(r.cities) {
		cc := *c
		cc.Districts = append([]District(nil), c.Districts...)
		if c.Siege != nil {
			siege := *c.Siege
			cc.Siege = &siege
		}
		snap.Cities = append(snap.Cities, cc)
	}
	for _, m := range r.movements {
		snap.Movements = append(snap.Movements, *m)
	}
	for _, t := range r.transfers {
		snap.Transfers = append(snap.Transfers, *t)
	}
	for _, m := range r.spyMissions {
		snap.Missions = append(snap.Missions, *m)
	}
	for _, rt := range r.routes {
		snap.Routes = append(snap.Routes, *rt)
	}
	for _, t := range r.treaties {
		snap.Treaties = append(snap.Treaties, *t)
	}
	for key := range r.allied {
		snap.Allied = append(snap.Allied, key)
	}
	sort.Strings(snap.Allied)
	for id := range r.unsupplied {
		snap.Unsupplied = append(snap.Unsupplied, id)
	}
	sort.Strings(snap.Unsupplied)
	if len(r.tactics) > 0 {
		snap.Tactics = make(map[string]Tactic, len(r.tactics))
		for id, t := range r.tactics {
			snap.Tactics[id] = t
		}
	}
	return snap
}

// FromSnapshot constructs a fresh Registry from a snapshot. Loading never
// mutates an existing registry; the caller swaps in the returned one.
//
// Precondition: snap.Version must equal SnapshotVersion.
func FromSnapshot(snap Snapshot) (*Registry, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("world: unsupported snapshot version %d (want %d)", snap.Version, SnapshotVersion)
	}

	r := NewRegistry()
	for i := range snap.Characters {
		c := snap.Characters[i]
		if err := r.AddCharacter(&c); err != nil {
			return nil, fmt.Errorf("restoring characters: %w", err)
		}
	}
	for i := range snap.Factions {
		f := snap.Factions[i]
		if err := r.AddFaction(&f); err != nil {
			return nil, fmt.Errorf("restoring factions: %w", err)
		}
	}
	for i := range snap.Cities {
		c := snap.Cities[i]
		if err := r.AddCity(&c); err != nil {
			return nil, fmt.Errorf("restoring cities: %w", err)
		}
	}
	for i := range snap.Movements {
		m := snap.Movements[i]
		r.movements = append(r.movements, &m)
	}
	for i := range snap.Transfers {
		t := snap.Transfers[i]
		r.transfers = append(r.transfers, &t)
	}
	for i := range snap.Missions {
		m := snap.Missions[i]
		r.spyMissions = append(r.spyMissions, &m)
	}
	for i := range snap.Routes {
		rt := snap.Routes[i]
		r.routes = append(r.routes, &rt)
	}
	for i := range snap.Treaties {
		t := snap.Treaties[i]
		r.treaties = append(r.treaties, &t)
	}
	mergeIntMap(r.morale, snap.Morale)
	mergeIntMap(r.exhaustion, snap.Exhaustion)
	mergeIntMap(r.trust, snap.Trust)
	mergeIntMap(r.intimacy, snap.Intimacy)
	mergeIntMap(r.prestige, snap.Prestige)
	mergeIntMap(r.favorability, snap.Favorability)
	mergeIntMap(r.loyalty, snap.Loyalty)
	for _, key := range snap.Allied {
		r.allied[key] = true
	}
	for _, id := range snap.Unsupplied {
		r.unsupplied[id] = true
	}
	for id, t := range snap.Tactics {
		r.tactics[id] = t
	}
	r.game = snap.Game
	return r, nil
}

// sortedValues returns map values in ascending key order.
func sortedValues[T any](m map[string]*T) []*T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}


func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeIntMap(dst, src map[string]int) {
	for k, v := range src {
		dst[k] = v
	}
}
