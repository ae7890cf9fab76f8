package world

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Ledger bounds. Every ledger write is clamped into its documented range.
const (
	MaxMorale       = 100
	MaxExhaustion   = 100
	MaxTrust        = 100
	MaxIntimacy     = 100
	MaxLoyalty      = 100
	MaxFavorability = 100
	MaxPrestige     = 100
	MaxDevelopment  = 5
	MaxFood         = 200
	MaxStat         = 10
	MaxSkill        = 5
)

// Neutral starting values for drifting ledgers.
const (
	BaselineMorale       = 50
	BaselineFavorability = 50
	BaselineLoyalty      = 50
	BaselineTrust        = 50
)

// PairKey returns the order-independent ledger key for a pair of ids.
//
// Postcondition: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// SplitPairKey returns the two ids encoded by PairKey.
func SplitPairKey(key string) (string, string) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

// clampRound rounds v half away from zero and clamps it into [lo, hi].
// This is the single rounding policy for every ledger in the registry.
func clampRound(v float64, lo, hi int) int {
	r := int(math.Round(v))
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}

// Registry owns the full world state for one simulation instance. Reset and
// load construct a fresh Registry; there is no package-level state.
//
// All methods are safe for concurrent use, though the tick pipeline itself
// is strictly sequential.
type Registry struct {
	mu sync.RWMutex

	characters map[string]*Character
	factions   map[string]*Faction
	cities     map[string]*City

	movements   []*Movement
	transfers   []*TroopTransfer
	spyMissions []*SpyMission
	routes      []*TradeRoute
	treaties    []*Treaty

	morale       map[string]int // faction id -> 0-100
	exhaustion   map[string]int // faction id -> 0-100
	trust        map[string]int // faction pair key -> 0-100
	intimacy     map[string]int // character pair key -> 0-100
	allied       map[string]bool
	prestige     map[string]int // character id -> 0-100
	favorability map[string]int // character id -> 0-100
	loyalty      map[string]int // city id -> 0-100
	unsupplied   map[string]bool
	tactics      map[string]Tactic

	game GameState
}

// NewRegistry creates an empty Registry with an ongoing game state.
//
// Postcondition: returns a non-nil Registry ready for entity registration.
func NewRegistry() *Registry {
	return &Registry{
		characters:   make(map[string]*Character),
		factions:     make(map[string]*Faction),
		cities:       make(map[string]*City),
		morale:       make(map[string]int),
		exhaustion:   make(map[string]int),
		trust:        make(map[string]int),
		intimacy:     make(map[string]int),
		allied:       make(map[string]bool),
		prestige:     make(map[string]int),
		favorability: make(map[string]int),
		loyalty:      make(map[string]int),
		unsupplied:   make(map[string]bool),
		tactics:      make(map[string]Tactic),
		game:         GameState{Status: StatusOngoing},
	}
}

// Tactic is a queued battle stance for one character.
type Tactic string

const (
	TacticNone       Tactic = ""
	TacticAggressive Tactic = "aggressive"
	TacticDefensive  Tactic = "defensive"
	TacticBalanced   Tactic = "balanced"
)

// --- entity registration and lookup -------------------------------------

// AddCharacter registers c.
//
// Precondition: c must be non-nil with a unique non-empty ID.
func (r *Registry) AddCharacter(c *Character) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("world: AddCharacter requires a character with an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.characters[c.ID]; exists {
		return fmt.Errorf("world: duplicate character id %q", c.ID)
	}
	r.characters[c.ID] = c
	if _, ok := r.favorability[c.ID]; !ok {
		r.favorability[c.ID] = BaselineFavorability
	}
	return nil
}

// AddFaction registers f and seeds its morale and exhaustion ledgers.
//
// Precondition: f must be non-nil with a unique non-empty ID.
func (r *Registry) AddFaction(f *Faction) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("world: AddFaction requires a faction with an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factions[f.ID]; exists {
		return fmt.Errorf("world: duplicate faction id %q", f.ID)
	}
	if f.Tech == nil {
		f.Tech = make(map[TechTrack]int)
	}
	r.factions[f.ID] = f
	if _, ok := r.morale[f.ID]; !ok {
		r.morale[f.ID] = BaselineMorale
	}
	for _, id := range f.MemberIDs {
		if c, ok := r.characters[id]; ok {
			c.FactionID = f.ID
		}
	}
	return nil
}

// AddCity registers c and seeds its loyalty ledger.
//
// Precondition: c must be non-nil with a unique non-empty ID.
func (r *Registry) AddCity(c *City) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("world: AddCity requires a city with an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cities[c.ID]; exists {
		return fmt.Errorf("world: duplicate city id %q", c.ID)
	}
	r.cities[c.ID] = c
	if _, ok := r.loyalty[c.ID]; !ok {
		r.loyalty[c.ID] = BaselineLoyalty
	}
	return nil
}

// Character returns the character with the given id.
func (r *Registry) Character(id string) (*Character, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.characters[id]
	return c, ok
}

// Faction returns the faction with the given id.
func (r *Registry) Faction(id string) (*Faction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factions[id]
	return f, ok
}

// City returns the city with the given id.
func (r *Registry) City(id string) (*City, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cities[id]
	return c, ok
}

// Characters returns all characters sorted by id. Iteration over registry
// entities is always id-ordered so a seeded run replays identically.
func (r *Registry) Characters() []*Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Character, 0, len(r.characters))
	for _, c := range r.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Factions returns all non-eliminated factions sorted by id.
func (r *Registry) Factions() []*Faction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Faction, 0, len(r.factions))
	for _, f := range r.factions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cities returns all cities sorted by id.
func (r *Registry) Cities() []*City {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*City, 0, len(r.cities))
	for _, c := range r.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveFaction deletes a faction record outright (elimination sweep only).
// Its ledgers are dropped; member reassignment is the caller's duty.
func (r *Registry) RemoveFaction(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factions, id)
	delete(r.morale, id)
	delete(r.exhaustion, id)
	for key := range r.allied {
		a, b := SplitPairKey(key)
		if a == id || b == id {
			delete(r.allied, key)
		}
	}
	for key := range r.trust {
		a, b := SplitPairKey(key)
		if a == id || b == id {
			delete(r.trust, key)
		}
	}
}

// --- faction membership ---------------------------------------------------

// FactionOf returns the faction a character belongs to.
func (r *Registry) FactionOf(characterID string) (*Faction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.characters[characterID]
	if !ok || c.FactionID == "" {
		return nil, false
	}
	f, ok := r.factions[c.FactionID]
	return f, ok
}

// TransferMember moves a character into toFactionID, detaching it from any
// current faction first. toFactionID may be "" to leave the character
// factionless.
//
// Postcondition: the character appears in at most one faction's member list.
func (r *Registry) TransferMember(characterID, toFactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.characters[characterID]
	if !ok {
		return fmt.Errorf("world: character %q not found", characterID)
	}
	if c.FactionID != "" {
		if from, ok := r.factions[c.FactionID]; ok {
			from.MemberIDs = removeID(from.MemberIDs, characterID)
		}
	}
	c.FactionID = toFactionID
	if toFactionID == "" {
		return nil
	}
	to, ok := r.factions[toFactionID]
	if !ok {
		c.FactionID = ""
		return fmt.Errorf("world: faction %q not found", toFactionID)
	}
	if !to.HasMember(characterID) {
		to.MemberIDs = append(to.MemberIDs, characterID)
	}
	return nil
}

// MarkDead marks a character dead, detaches it from its city and faction,
// and clears any city it controlled.
//
// Postcondition: no faction member list contains the character; no city
// has the character as controller.
func (r *Registry) MarkDead(characterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.characters[characterID]
	if !ok {
		return
	}
	c.Dead = true
	c.CityID = ""
	c.Role = RoleNone
	if c.FactionID != "" {
		if f, ok := r.factions[c.FactionID]; ok {
			f.MemberIDs = removeID(f.MemberIDs, characterID)
		}
		c.FactionID = ""
	}
	for _, city := range r.cities {
		if city.ControllerID == characterID {
			city.ControllerID = ""
		}
	}
	delete(r.tactics, characterID)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return out
}

// --- city control ---------------------------------------------------------

// ControllerFaction returns the faction controlling a city, resolved through
// the controlling character.
func (r *Registry) ControllerFaction(cityID string) (*Faction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controllerFactionLocked(cityID)
}

func (r *Registry) controllerFactionLocked(cityID string) (*Faction, bool) {
	city, ok := r.cities[cityID]
	if !ok || city.ControllerID == "" {
		return nil, false
	}
	c, ok := r.characters[city.ControllerID]
	if !ok || c.FactionID == "" {
		return nil, false
	}
	f, ok := r.factions[c.FactionID]
	return f, ok
}

// ControlledCities returns the cities controlled by a faction, sorted by id.
func (r *Registry) ControlledCities(factionID string) []*City {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*City
	for _, city := range r.cities {
		if f, ok := r.controllerFactionLocked(city.ID); ok && f.ID == factionID {
			out = append(out, city)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Capital returns the faction's capital: the city its leader is stationed in.
func (r *Registry) Capital(factionID string) (*City, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factions[factionID]
	if !ok {
		return nil, false
	}
	leader, ok := r.characters[f.LeaderID]
	if !ok || leader.CityID == "" {
		return nil, false
	}
	city, ok := r.cities[leader.CityID]
	return city, ok
}

// CharactersIn returns living characters stationed in a city, sorted by id.
func (r *Registry) CharactersIn(cityID string) []*Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Character
	for _, c := range r.characters {
		if !c.Dead && c.CityID == cityID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- in-flight entities ---------------------------------------------------

// ScheduleMovement appends m to the movement list.
func (r *Registry) ScheduleMovement(m *Movement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, m)
}

// ConsumeArrivals removes and returns movements with ArriveTick == tick,
// ordered by character id.
//
// Postcondition: each movement is returned exactly once across all calls.
func (r *Registry) ConsumeArrivals(tick int) []*Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var arrived []*Movement
	rest := r.movements[:0]
	for _, m := range r.movements {
		if m.ArriveTick == tick {
			arrived = append(arrived, m)
		} else {
			rest = append(rest, m)
		}
	}
	r.movements = rest
	sort.Slice(arrived, func(i, j int) bool { return arrived[i].CharacterID < arrived[j].CharacterID })
	return arrived
}

// MovementFor returns the pending movement for a character, if any.
func (r *Registry) MovementFor(characterID string) (*Movement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.movements {
		if m.CharacterID == characterID {
			return m, true
		}
	}
	return nil, false
}

// ScheduleTransfer appends t to the troop-transfer list.
func (r *Registry) ScheduleTransfer(t *TroopTransfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, t)
}

// ConsumeTransfers removes and returns transfers arriving at tick, ordered
// by destination city id.
func (r *Registry) ConsumeTransfers(tick int) []*TroopTransfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var arrived []*TroopTransfer
	rest := r.transfers[:0]
	for _, t := range r.transfers {
		if t.ArriveTick == tick {
			arrived = append(arrived, t)
		} else {
			rest = append(rest, t)
		}
	}
	r.transfers = rest
	sort.Slice(arrived, func(i, j int) bool { return arrived[i].ToCityID < arrived[j].ToCityID })
	return arrived
}

// ScheduleSpyMission appends m to the spy-mission list.
func (r *Registry) ScheduleSpyMission(m *SpyMission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spyMissions = append(r.spyMissions, m)
}

// ConsumeSpyMissions removes and returns missions resolving at tick, ordered
// by spy id.
func (r *Registry) ConsumeSpyMissions(tick int) []*SpyMission {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*SpyMission
	rest := r.spyMissions[:0]
	for _, m := range r.spyMissions {
		if m.ResolveTick == tick {
			due = append(due, m)
		} else {
			rest = append(rest, m)
		}
	}
	r.spyMissions = rest
	sort.Slice(due, func(i, j int) bool { return due[i].SpyID < due[j].SpyID })
	return due
}

// AddTradeRoute appends rt to the route list.
func (r *Registry) AddTradeRoute(rt *TradeRoute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, rt)
}

// TradeRoutes returns a snapshot of all routes, ordered by endpoints.
func (r *Registry) TradeRoutes() []*TradeRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TradeRoute, len(r.routes))
	copy(out, r.routes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromCityID != out[j].FromCityID {
			return out[i].FromCityID < out[j].FromCityID
		}
		return out[i].ToCityID < out[j].ToCityID
	})
	return out
}

// RemoveTradeRoutes drops every route the predicate matches and returns how
// many were removed.
func (r *Registry) RemoveTradeRoutes(match func(*TradeRoute) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	rest := r.routes[:0]
	for _, rt := range r.routes {
		if match(rt) {
			removed++
		} else {
			rest = append(rest, rt)
		}
	}
	r.routes = rest
	return removed
}

// AddTreaty appends t to the treaty list.
func (r *Registry) AddTreaty(t *Treaty) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.treaties = append(r.treaties, t)
}

// Treaties returns a snapshot of all treaties in insertion order.
func (r *Registry) Treaties() []*Treaty {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Treaty, len(r.treaties))
	copy(out, r.treaties)
	return out
}

// ActiveTreaty returns the active treaty of the given kind between two
// factions at tick, if one exists.
func (r *Registry) ActiveTreaty(kind TreatyKind, a, b string, tick int) (*Treaty, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.treaties {
		if t.Kind == kind && t.Binds(a, b) && t.Active(tick) {
			return t, true
		}
	}
	return nil, false
}

// ExpireTreaties drops treaties no longer active at tick and returns them.
func (r *Registry) ExpireTreaties(tick int) []*Treaty {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Treaty
	rest := r.treaties[:0]
	for _, t := range r.treaties {
		if t.Active(tick) {
			rest = append(rest, t)
		} else {
			expired = append(expired, t)
		}
	}
	r.treaties = rest
	return expired
}

// --- tactics --------------------------------------------------------------

// QueueTactic records a battle stance for a character, replacing any queued one.
func (r *Registry) QueueTactic(characterID string, t Tactic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tactics[characterID] = t
}

// TakeTactic removes and returns the queued tactic for a character.
// Returns TacticNone when nothing was queued.
func (r *Registry) TakeTactic(characterID string) Tactic {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tactics[characterID]
	if !ok {
		return TacticNone
	}
	delete(r.tactics, characterID)
	return t
}

// --- ledgers --------------------------------------------------------------

// Morale returns a faction's morale.
func (r *Registry) Morale(factionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.morale[factionID]
}

// AdjustMorale shifts a faction's morale by delta, rounded and clamped.
func (r *Registry) AdjustMorale(factionID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.morale[factionID] = clampRound(float64(r.morale[factionID])+delta, 0, MaxMorale)
}

// Exhaustion returns a faction's war exhaustion.
func (r *Registry) Exhaustion(factionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exhaustion[factionID]
}

// AdjustExhaustion shifts a faction's war exhaustion by delta, rounded and clamped.
func (r *Registry) AdjustExhaustion(factionID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhaustion[factionID] = clampRound(float64(r.exhaustion[factionID])+delta, 0, MaxExhaustion)
}

// Trust returns the trust ledger value for a faction pair, defaulting to
// BaselineTrust for pairs never adjusted.
func (r *Registry) Trust(a, b string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.trust[PairKey(a, b)]; ok {
		return v
	}
	return BaselineTrust
}

// AdjustTrust shifts a faction pair's trust by delta, rounded and clamped.
func (r *Registry) AdjustTrust(a, b string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := PairKey(a, b)
	cur, ok := r.trust[key]
	if !ok {
		cur = BaselineTrust
	}
	r.trust[key] = clampRound(float64(cur)+delta, 0, MaxTrust)
}

// Intimacy returns the relationship value for a character pair.
func (r *Registry) Intimacy(a, b string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.intimacy[PairKey(a, b)]
}

// SetIntimacy stores a relationship value for a character pair, clamped.
func (r *Registry) SetIntimacy(a, b string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intimacy[PairKey(a, b)] = clampRound(float64(v), 0, MaxIntimacy)
}

// AdjustIntimacy shifts a character pair's relationship, rounded and clamped.
func (r *Registry) AdjustIntimacy(a, b string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := PairKey(a, b)
	r.intimacy[key] = clampRound(float64(r.intimacy[key])+delta, 0, MaxIntimacy)
}

// IntimacyPairs returns every recorded relationship key in sorted order.
func (r *Registry) IntimacyPairs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.intimacy))
	for k := range r.intimacy {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Allied reports whether two factions are currently allied.
func (r *Registry) Allied(a, b string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allied[PairKey(a, b)]
}

// SetAllied records or clears an alliance between two factions.
func (r *Registry) SetAllied(a, b string, allied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := PairKey(a, b)
	if allied {
		r.allied[key] = true
	} else {
		delete(r.allied, key)
	}
}

// Alliances returns every allied faction pair key in sorted order.
func (r *Registry) Alliances() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.allied))
	for k := range r.allied {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DropAlliancesOf clears every alliance involving the faction.
func (r *Registry) DropAlliancesOf(factionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.allied {
		a, b := SplitPairKey(key)
		if a == factionID || b == factionID {
			delete(r.allied, key)
		}
	}
}

// Prestige returns a character's prestige.
func (r *Registry) Prestige(characterID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prestige[characterID]
}

// AdjustPrestige shifts a character's prestige by delta, rounded and clamped.
func (r *Registry) AdjustPrestige(characterID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prestige[characterID] = clampRound(float64(r.prestige[characterID])+delta, 0, MaxPrestige)
}

// Favorability returns a character's favorability toward its faction.
func (r *Registry) Favorability(characterID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.favorability[characterID]; ok {
		return v
	}
	return BaselineFavorability
}

// AdjustFavorability shifts a character's favorability, rounded and clamped.
func (r *Registry) AdjustFavorability(characterID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.favorability[characterID]
	if !ok {
		cur = BaselineFavorability
	}
	r.favorability[characterID] = clampRound(float64(cur)+delta, 0, MaxFavorability)
}

// Loyalty returns a city's loyalty to its controller.
func (r *Registry) Loyalty(cityID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loyalty[cityID]
}

// SetLoyalty stores a city's loyalty, clamped.
func (r *Registry) SetLoyalty(cityID string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loyalty[cityID] = clampRound(float64(v), 0, MaxLoyalty)
}

// AdjustLoyalty shifts a city's loyalty, rounded and clamped.
func (r *Registry) AdjustLoyalty(cityID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loyalty[cityID] = clampRound(float64(r.loyalty[cityID])+delta, 0, MaxLoyalty)
}

// SetUnsupplied records whether a city is cut off from its capital.
func (r *Registry) SetUnsupplied(cityID string, unsupplied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if unsupplied {
		r.unsupplied[cityID] = true
	} else {
		delete(r.unsupplied, cityID)
	}
}

// Unsupplied reports whether a city was marked unsupplied by the last supply pass.
func (r *Registry) Unsupplied(cityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unsupplied[cityID]
}

// --- clamped city mutators ------------------------------------------------

// AddGarrison shifts a city's garrison by delta, flooring at zero.
//
// Postcondition: the city's garrison is >= 0.
func (r *Registry) AddGarrison(cityID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	city, ok := r.cities[cityID]
	if !ok {
		return
	}
	city.Garrison += delta
	if city.Garrison < 0 {
		city.Garrison = 0
	}
}

// AddGold shifts a city's gold by delta, flooring at zero.
func (r *Registry) AddGold(cityID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	city, ok := r.cities[cityID]
	if !ok {
		return
	}
	city.Gold += delta
	if city.Gold < 0 {
		city.Gold = 0
	}
}

// AddFood shifts a city's food by delta, clamped into [0, MaxFood].
func (r *Registry) AddFood(cityID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	city, ok := r.cities[cityID]
	if !ok {
		return
	}
	city.Food += delta
	if city.Food < 0 {
		city.Food = 0
	}
	if city.Food > MaxFood {
		city.Food = MaxFood
	}
}

// --- game state -----------------------------------------------------------

// Game returns the current game state.
func (r *Registry) Game() GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game
}

// SetGame replaces the game state.
//
// Precondition: a terminal state must never be overwritten with an ongoing one.
func (r *Registry) SetGame(g GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game.Terminal() && g.Status == StatusOngoing {
		panic("world: attempt to revive a terminal game state")
	}
	r.game = g
}

// AdvanceTick increments the stored tick and returns the new value.
func (r *Registry) AdvanceTick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game.Tick++
	return r.game.Tick
}
