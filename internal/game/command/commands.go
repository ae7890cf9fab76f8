// Package command defines the tagged union of player and NPC orders consumed
// by the tick pipeline. Each command kind is its own struct carrying only the
// fields that kind needs; there is no shared property bag.
//
// Commands have no behavior. The pipeline validates preconditions at
// execution time and silently drops any command that fails them.
package command

import "github.com/cory-johannsen/dynasty/internal/game/world"

// Kind identifies a command variant.
type Kind string

const (
	KindMove             Kind = "move"
	KindAttack           Kind = "attack"
	KindQueueTactic      Kind = "queue_tactic"
	KindRecruit          Kind = "recruit"
	KindReinforce        Kind = "reinforce"
	KindDevelop          Kind = "develop"
	KindBuildImprovement Kind = "build_improvement"
	KindSpy              Kind = "spy"
	KindSabotage         Kind = "sabotage"
	KindBlockade         Kind = "blockade"
	KindHireNeutral      Kind = "hire_neutral"
	KindAssignRole       Kind = "assign_role"
	KindStartResearch    Kind = "start_research"
	KindEstablishTrade   Kind = "establish_trade"
	KindBuildDistrict    Kind = "build_district"
	KindAssignMentor     Kind = "assign_mentor"
	KindBuildSiege       Kind = "build_siege"
	KindDemand           Kind = "demand"
	KindSowDiscord       Kind = "sow_discord"
	KindTrainUnit        Kind = "train_unit"
	KindSetPath          Kind = "set_path"
	KindProposePact      Kind = "propose_pact"
	KindDesignateHeir    Kind = "designate_heir"
	KindTransferTroops   Kind = "transfer_troops"
)

// Command is one queued order. Every variant names its acting character.
type Command interface {
	CommandKind() Kind
	Actor() string
}

// Move orders a character to travel to a city.
type Move struct {
	ActorID  string
	ToCityID string
}

func (c Move) CommandKind() Kind { return KindMove }
func (c Move) Actor() string     { return c.ActorID }

// Attack orders a character to march on a city with hostile intent.
type Attack struct {
	ActorID      string
	TargetCityID string
	// Tactic optionally queues a battle stance for the arrival.
	Tactic world.Tactic
}

func (c Attack) CommandKind() Kind { return KindAttack }
func (c Attack) Actor() string     { return c.ActorID }

// QueueTactic sets a character's stance for their next battle.
type QueueTactic struct {
	ActorID string
	Tactic  world.Tactic
}

func (c QueueTactic) CommandKind() Kind { return KindQueueTactic }
func (c QueueTactic) Actor() string     { return c.ActorID }

// Recruit attempts to bring a factionless character into the actor's faction.
type Recruit struct {
	ActorID  string
	TargetID string
}

func (c Recruit) CommandKind() Kind { return KindRecruit }
func (c Recruit) Actor() string     { return c.ActorID }

// Reinforce spends city gold to raise its garrison.
type Reinforce struct {
	ActorID string
	CityID  string
	Amount  int
}

func (c Reinforce) CommandKind() Kind { return KindReinforce }
func (c Reinforce) Actor() string     { return c.ActorID }

// Develop spends city gold to raise its development level.
type Develop struct {
	ActorID string
	CityID  string
}

func (c Develop) CommandKind() Kind { return KindDevelop }
func (c Develop) Actor() string     { return c.ActorID }

// BuildImprovement constructs a city specialty.
type BuildImprovement struct {
	ActorID     string
	CityID      string
	Improvement world.Improvement
}

func (c BuildImprovement) CommandKind() Kind { return KindBuildImprovement }
func (c BuildImprovement) Actor() string     { return c.ActorID }

// Spy schedules an espionage mission against a city.
type Spy struct {
	ActorID      string
	TargetCityID string
	Mission      world.SpyMissionKind
}

func (c Spy) CommandKind() Kind { return KindSpy }
func (c Spy) Actor() string     { return c.ActorID }

// Sabotage is a spy shorthand targeting a city's garrison stores.
type Sabotage struct {
	ActorID      string
	TargetCityID string
}

func (c Sabotage) CommandKind() Kind { return KindSabotage }
func (c Sabotage) Actor() string     { return c.ActorID }

// Blockade suppresses a city's trade income for a fixed duration.
type Blockade struct {
	ActorID      string
	TargetCityID string
}

func (c Blockade) CommandKind() Kind { return KindBlockade }
func (c Blockade) Actor() string     { return c.ActorID }

// HireNeutral spends gold to recruit a neutral character stationed in a city.
type HireNeutral struct {
	ActorID string
	CityID  string
}

func (c HireNeutral) CommandKind() Kind { return KindHireNeutral }
func (c HireNeutral) Actor() string     { return c.ActorID }

// AssignRole gives a faction member a role.
type AssignRole struct {
	ActorID  string
	TargetID string
	Role     world.Role
}

func (c AssignRole) CommandKind() Kind { return KindAssignRole }
func (c AssignRole) Actor() string     { return c.ActorID }

// StartResearch begins a technology track for the actor's faction.
type StartResearch struct {
	ActorID string
	Track   world.TechTrack
}

func (c StartResearch) CommandKind() Kind { return KindStartResearch }
func (c StartResearch) Actor() string     { return c.ActorID }

// EstablishTrade creates a trade route between two cities of the actor's faction.
type EstablishTrade struct {
	ActorID    string
	FromCityID string
	ToCityID   string
}

func (c EstablishTrade) CommandKind() Kind { return KindEstablishTrade }
func (c EstablishTrade) Actor() string     { return c.ActorID }

// BuildDistrict adds a district to a city.
type BuildDistrict struct {
	ActorID  string
	CityID   string
	District world.District
}

func (c BuildDistrict) CommandKind() Kind { return KindBuildDistrict }
func (c BuildDistrict) Actor() string     { return c.ActorID }

// AssignMentor pairs an apprentice with a mentor for skill transfer.
type AssignMentor struct {
	ActorID      string
	MentorID     string
	ApprenticeID string
}

func (c AssignMentor) CommandKind() Kind { return KindAssignMentor }
func (c AssignMentor) Actor() string     { return c.ActorID }

// BuildSiege constructs siege equipment in a city, boosting its faction's
// next assault from that city.
type BuildSiege struct {
	ActorID string
	CityID  string
}

func (c BuildSiege) CommandKind() Kind { return KindBuildSiege }
func (c BuildSiege) Actor() string     { return c.ActorID }

// DemandKind selects what a demand asks of its target.
type DemandKind string

const (
	DemandTribute    DemandKind = "tribute"
	DemandWithdrawal DemandKind = "withdrawal"
)

// Demand issues a tribute or withdrawal demand against another faction.
type Demand struct {
	ActorID         string
	TargetFactionID string
	Demand          DemandKind
	// CityID names the city to withdraw from; ignored for tribute demands.
	CityID string
}

func (c Demand) CommandKind() Kind { return KindDemand }
func (c Demand) Actor() string     { return c.ActorID }

// SowDiscord bribes to break an alliance between two rival factions.
type SowDiscord struct {
	ActorID        string
	TargetFactionA string
	TargetFactionB string
	Bribe          int
}

func (c SowDiscord) CommandKind() Kind { return KindSowDiscord }
func (c SowDiscord) Actor() string     { return c.ActorID }

// UnitType names a trainable unit class.
type UnitType string

const (
	UnitInfantry UnitType = "infantry"
	UnitCavalry  UnitType = "cavalry"
	UnitArchers  UnitType = "archers"
)

// TrainUnit converts city gold into units of one type.
type TrainUnit struct {
	ActorID string
	CityID  string
	Unit    UnitType
	Count   int
}

func (c TrainUnit) CommandKind() Kind { return KindTrainUnit }
func (c TrainUnit) Actor() string     { return c.ActorID }

// SetPath chooses a city's long-term development path.
type SetPath struct {
	ActorID string
	CityID  string
	Path    world.CityPath
}

func (c SetPath) CommandKind() Kind { return KindSetPath }
func (c SetPath) Actor() string     { return c.ActorID }

// ProposePact proposes a treaty to another faction.
type ProposePact struct {
	ActorID         string
	TargetFactionID string
	Treaty          world.TreatyKind
}

func (c ProposePact) CommandKind() Kind { return KindProposePact }
func (c ProposePact) Actor() string     { return c.ActorID }

// DesignateHeir names the actor's faction successor.
type DesignateHeir struct {
	ActorID string
	HeirID  string
}

func (c DesignateHeir) CommandKind() Kind { return KindDesignateHeir }
func (c DesignateHeir) Actor() string     { return c.ActorID }

// TransferTroops schedules garrison and units to move between two cities.
type TransferTroops struct {
	ActorID    string
	FromCityID string
	ToCityID   string
	Garrison   int
	Units      world.UnitComposition
}

func (c TransferTroops) CommandKind() Kind { return KindTransferTroops }
func (c TransferTroops) Actor() string     { return c.ActorID }
