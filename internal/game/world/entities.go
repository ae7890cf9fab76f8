package world

// Movement is a character in transit between cities. It is consumed exactly
// once, at ArriveTick.
type Movement struct {
	CharacterID string
	FromCityID  string
	ToCityID    string
	DepartTick  int
	ArriveTick  int
	// Hostile marks an attack order; a hostile arrival at a city the
	// character's faction does not control triggers battle resolution.
	Hostile bool
}

// TroopTransfer moves garrison and units between two cities of one faction.
// Resolved when the current tick reaches ArriveTick.
type TroopTransfer struct {
	FactionID  string
	FromCityID string
	ToCityID   string
	Garrison   int
	Units      UnitComposition
	DepartTick int
	ArriveTick int
}

// SpyMissionKind selects what a resolved spy mission attempts.
type SpyMissionKind string

const (
	SpyScout    SpyMissionKind = "scout"
	SpySabotage SpyMissionKind = "sabotage"
	SpyUnrest   SpyMissionKind = "unrest"
)

// SpyMission is a scheduled espionage action resolving at ResolveTick.
type SpyMission struct {
	SpyID        string
	FactionID    string
	TargetCityID string
	Kind         SpyMissionKind
	DepartTick   int
	ResolveTick  int
}

// TradeRoute links two cities and grants a flat gold bonus to both endpoints
// each tick. Routes are cleaned up when an endpoint changes hands.
type TradeRoute struct {
	FactionID       string
	FromCityID      string
	ToCityID        string
	EstablishedTick int
	GoldBonus       int
}

// Touches reports whether the route has cityID as an endpoint.
func (r *TradeRoute) Touches(cityID string) bool {
	return r.FromCityID == cityID || r.ToCityID == cityID
}

// TreatyKind distinguishes the supported treaty types.
type TreatyKind string

const (
	TreatyNonAggression TreatyKind = "non_aggression"
	TreatyMutualDefense TreatyKind = "mutual_defense"
)

// Duration returns the fixed lifetime in ticks for the treaty kind.
func (k TreatyKind) Duration() int {
	if k == TreatyMutualDefense {
		return 20
	}
	return 10
}

// Treaty is a time-boxed pact between two factions.
type Treaty struct {
	Kind      TreatyKind
	FactionA  string
	FactionB  string
	StartTick int
	// ExpireTick is the first tick the treaty no longer applies.
	ExpireTick int
	// Broken marks a treaty voided before expiry (e.g. a NAP violation).
	Broken bool
}

// Active reports whether the treaty binds at the given tick.
func (t *Treaty) Active(tick int) bool {
	return !t.Broken && tick >= t.StartTick && tick < t.ExpireTick
}

// Binds reports whether the treaty is between factions a and b, in either order.
func (t *Treaty) Binds(a, b string) bool {
	return (t.FactionA == a && t.FactionB == b) || (t.FactionA == b && t.FactionB == a)
}
