// Package world defines the dynasty simulation's entity model and the
// Registry that owns it. Entities are pure data; every rule lives in an
// engine package.
package world

// Stats are a character's innate attributes, each 0-10.
type Stats struct {
	Military     int `yaml:"military"`
	Intelligence int `yaml:"intelligence"`
	Charm        int `yaml:"charm"`
}

// Skills are a character's learned proficiencies, each 0-5.
type Skills struct {
	Leadership int `yaml:"leadership"`
	Tactics    int `yaml:"tactics"`
	Commerce   int `yaml:"commerce"`
	Espionage  int `yaml:"espionage"`
}

// Highest returns the name and level of the character's best skill.
// Ties resolve in the fixed order leadership, tactics, commerce, espionage.
func (s Skills) Highest() (string, int) {
	name, level := "leadership", s.Leadership
	if s.Tactics > level {
		name, level = "tactics", s.Tactics
	}
	if s.Commerce > level {
		name, level = "commerce", s.Commerce
	}
	if s.Espionage > level {
		name, level = "espionage", s.Espionage
	}
	return name, level
}

// Level returns the skill level for a name produced by Highest.
// Unknown names are level 0.
func (s Skills) Level(name string) int {
	switch name {
	case "leadership":
		return s.Leadership
	case "tactics":
		return s.Tactics
	case "commerce":
		return s.Commerce
	case "espionage":
		return s.Espionage
	}
	return 0
}

// Gain raises the named skill by one, capped at MaxSkill.
func (s *Skills) Gain(name string) {
	switch name {
	case "leadership":
		if s.Leadership < MaxSkill {
			s.Leadership++
		}
	case "tactics":
		if s.Tactics < MaxSkill {
			s.Tactics++
		}
	case "commerce":
		if s.Commerce < MaxSkill {
			s.Commerce++
		}
	case "espionage":
		if s.Espionage < MaxSkill {
			s.Espionage++
		}
	}
}

// Trait is a personality marker influencing probabilistic checks.
type Trait string

// Traits referenced by engine rules. Scenario files may introduce others;
// unknown traits are carried but have no mechanical effect.
const (
	TraitLoyal       Trait = "loyal"
	TraitTreacherous Trait = "treacherous"
	TraitBrave       Trait = "brave"
	TraitCautious    Trait = "cautious"
	TraitAmbitious   Trait = "ambitious"
	TraitScholarly   Trait = "scholarly"
	TraitCharismatic Trait = "charismatic"
)

// Role is an optional assignment altering a character's contribution.
type Role string

const (
	RoleNone      Role = ""
	RoleGeneral   Role = "general"
	RoleGovernor  Role = "governor"
	RoleDiplomat  Role = "diplomat"
	RoleSpymaster Role = "spymaster"
)

// NoBirthTick marks a character whose age is unknown; aging rules skip them.
const NoBirthTick = -1

// Character is a named person in the world. Characters are never deleted:
// death sets Dead and detaches the character from city and faction, but the
// record survives for history and legacy bookkeeping.
type Character struct {
	ID     string
	Name   string
	Traits []Trait
	Stats  Stats
	Skills Skills
	// Role is the character's current assignment, RoleNone if unassigned.
	Role Role
	// CityID is the city the character is stationed in, "" if nowhere.
	CityID string
	// FactionID is maintained by the Registry; mutate via Registry methods only.
	FactionID string
	// BirthTick is the tick of birth, or NoBirthTick when unknown.
	BirthTick int
	// ParentID links a spawned heir to its parent, "" otherwise.
	ParentID string
	// MentorID links an apprentice to its mentor, "" otherwise.
	MentorID   string
	Dead       bool
	Imprisoned bool
}

// HasTrait reports whether the character carries the given trait.
func (c *Character) HasTrait(t Trait) bool {
	for _, have := range c.Traits {
		if have == t {
			return true
		}
	}
	return false
}

// CityTier distinguishes major cities (victory-relevant) from minor ones.
type CityTier int

const (
	TierMinor CityTier = iota
	TierMajor
)

// String returns "minor" or "major".
func (t CityTier) String() string {
	if t == TierMajor {
		return "major"
	}
	return "minor"
}

// Improvement is a city specialty built by a build_improvement command.
type Improvement string

const (
	ImprovementNone    Improvement = ""
	ImprovementMarket  Improvement = "market"
	ImprovementGranary Improvement = "granary"
	ImprovementForge   Improvement = "forge"
	ImprovementHarbor  Improvement = "harbor"
)

// District is one of a city's 0-2 built districts.
type District string

const (
	DistrictCommerce    District = "commerce"
	DistrictAgriculture District = "agriculture"
	DistrictDefense     District = "defense"
)

// MaxDistricts is the per-city district cap.
const MaxDistricts = 2

// CityPath is a long-term development direction chosen by set_path.
type CityPath string

const (
	PathNone        CityPath = ""
	PathFortress    CityPath = "fortress"
	PathTradeHub    CityPath = "trade_hub"
	PathCultural    CityPath = "cultural"
	PathBreadbasket CityPath = "breadbasket"
)

// UnitComposition is a city's stationed troop mix by type.
type UnitComposition struct {
	Infantry int `yaml:"infantry"`
	Cavalry  int `yaml:"cavalry"`
	Archers  int `yaml:"archers"`
}

// Total returns the summed unit count.
func (u UnitComposition) Total() int {
	return u.Infantry + u.Cavalry + u.Archers
}

// Siege marks an ongoing unresolved attack on a city.
//
// Invariant: BesiegerFactionID is never the faction of the city's controller.
type Siege struct {
	BesiegerFactionID string
	StartTick         int
}

// City is a controllable settlement.
//
// Invariant: Garrison >= 0; Food in [0, MaxFood]; Development in [0, MaxDevelopment];
// len(Districts) <= MaxDistricts.
type City struct {
	ID   string
	Name string
	Tier CityTier
	// ControllerID is the controlling character's id, "" when unowned.
	ControllerID string
	Gold         int
	Garrison     int
	Development  int
	Food         int
	Units        UnitComposition
	Specialty    Improvement
	Siege        *Siege
	Districts    []District
	Path         CityPath
	// SiegeWorks marks built siege equipment; the next assault launched from
	// this city consumes it for an attack bonus.
	SiegeWorks bool
	// BlockadedUntil suppresses trade-route income while >= current tick.
	BlockadedUntil int
	// DroughtUntil halves food production while >= current tick.
	DroughtUntil int
}

// HasDistrict reports whether the city has built the given district.
func (c *City) HasDistrict(d District) bool {
	for _, have := range c.Districts {
		if have == d {
			return true
		}
	}
	return false
}

// Besieged reports whether a siege is in progress.
func (c *City) Besieged() bool { return c.Siege != nil }

// TechTrack is a faction research direction.
type TechTrack string

const (
	TechMilitary  TechTrack = "military"
	TechLogistics TechTrack = "logistics"
	TechEconomy   TechTrack = "economy"
)

// MaxTechLevel caps each research track.
const MaxTechLevel = 3

// ResearchState tracks an in-progress technology.
type ResearchState struct {
	Track    TechTrack
	Progress int
	Needed   int
}

// Tradition is a faction-wide modifier unlocked by play patterns.
type Tradition string

const (
	TraditionMartial    Tradition = "martial"
	TraditionMercantile Tradition = "mercantile"
)

// Faction is a named group of characters with one leader and the cities its
// members control.
//
// Invariant: every member belongs to exactly this faction; a faction with
// zero members is eliminated by the sweep step.
type Faction struct {
	ID       string
	Name     string
	LeaderID string
	// MemberIDs is maintained by the Registry; mutate via Registry methods only.
	MemberIDs []string
	Color     string
	// HeirID is the player-designated successor, "" if none.
	HeirID string
	// LegacyBonus is the permanent combat multiplier bonus earned from
	// deceased prestigious leaders. 0.05 means +5% attack power.
	LegacyBonus float64
	Tech        map[TechTrack]int
	Research    *ResearchState
	Traditions  []Tradition
	// BattlesWon and RoutesEstablished feed tradition evaluation.
	BattlesWon        int
	RoutesEstablished int
}

// TechLevel returns the faction's completed level on a track.
func (f *Faction) TechLevel(t TechTrack) int {
	if f.Tech == nil {
		return 0
	}
	return f.Tech[t]
}

// HasTradition reports whether the faction has unlocked the given tradition.
func (f *Faction) HasTradition(tr Tradition) bool {
	for _, have := range f.Traditions {
		if have == tr {
			return true
		}
	}
	return false
}

// HasMember reports whether id is in the faction's member list.
func (f *Faction) HasMember(id string) bool {
	for _, m := range f.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Season is the quarter of the in-game year derived from the tick.
type Season int

const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

// String returns the lowercase season name.
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonAutumn:
		return "autumn"
	default:
		return "winter"
	}
}

// SeasonAt maps a tick to its season given the configured season length.
//
// Precondition: ticksPerSeason > 0.
func SeasonAt(tick, ticksPerSeason int) Season {
	if ticksPerSeason <= 0 {
		panic("world: SeasonAt called with ticksPerSeason <= 0")
	}
	return Season((tick / ticksPerSeason) % 4)
}

// GameStatus is the terminal-state marker for the whole simulation.
type GameStatus string

const (
	StatusOngoing GameStatus = "ongoing"
	StatusVictory GameStatus = "victory"
	StatusDefeat  GameStatus = "defeat"
)

// WinType records how a victory was achieved.
type WinType string

const (
	WinNone      WinType = ""
	WinConquest  WinType = "conquest"
	WinDiplomacy WinType = "diplomacy"
	WinEconomy   WinType = "economy"
)

// GameState is the simulation's top-level status.
//
// Invariant: once Status is not StatusOngoing the state is terminal and
// AdvanceDay becomes a no-op.
type GameState struct {
	Status          GameStatus
	WinnerFactionID string
	WinType         WinType
	Tick            int
}

// Terminal reports whether the game has ended.
func (g GameState) Terminal() bool { return g.Status != StatusOngoing }
