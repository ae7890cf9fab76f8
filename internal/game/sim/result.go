package sim

import (
	"github.com/cory-johannsen/dynasty/internal/game/battle"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/events"
	"github.com/cory-johannsen/dynasty/internal/game/lifecycle"
	"github.com/cory-johannsen/dynasty/internal/game/victory"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// RecruitmentEvent records one character joining a faction, whether by a
// recruit command or by captive persuasion after a capture.
type RecruitmentEvent struct {
	FactionID   string
	CharacterID string
	// RecruiterID is the character whose charm drove the attempt.
	RecruiterID string
	// FromCaptivity distinguishes a persuaded prisoner from a field recruit.
	FromCaptivity bool
}

// RebellionEvent records a city throwing off its controller.
type RebellionEvent struct {
	CityID    string
	FactionID string
}

// SpyReport is the resolved outcome of one scheduled spy mission.
type SpyReport struct {
	SpyID        string
	FactionID    string
	TargetCityID string
	Kind         world.SpyMissionKind
	Success      bool
	// Captured marks a failed spy taken prisoner in the target city.
	Captured bool
	// Detail carries scouted intelligence for successful scout missions.
	Detail string
}

// TickResult is the sole externally observable output of one AdvanceDay
// call: everything that happened during the tick, grouped by subsystem.
type TickResult struct {
	Tick   int
	Season world.Season
	Status world.GameState

	Battles      []battle.Result
	Sieges       []battle.SiegeEvent
	Diplomacy    []diplomacy.Event
	Betrayals    []diplomacy.Event
	Deaths       []lifecycle.Event
	Lifecycle    []lifecycle.Event
	Spy          []SpyReport
	Recruitments []RecruitmentEvent
	World        []events.Event
	Seasonal     []events.Event
	Rebellions   []RebellionEvent
	Eliminations []victory.Elimination

	// Card is the id of the event card drawn this tick, "" if none.
	Card string
	// Narrative is the optional prose summary, attached when it arrives in time.
	Narrative string
	// Log is the raw human-readable event log.
	Log []string
}
