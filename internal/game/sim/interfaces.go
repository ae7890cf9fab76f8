package sim

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/economy"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// RelationshipEngine is the external relationship collaborator the pipeline
// calls at the head of every tick. The default implementation works the
// intimacy ledger directly; a host embedding the core can substitute its own.
type RelationshipEngine interface {
	// Decay erodes relationships over time.
	Decay(tick int)
	// Sync reconciles the ledger with the current world, seeding entries
	// for member-leader pairs that have none yet.
	Sync(tick int)
}

const (
	relationshipDecayInterval = 4
	memberLeaderSeedIntimacy  = 40
)

// ledgerRelationships is the default RelationshipEngine backed by the
// registry's intimacy ledger.
type ledgerRelationships struct {
	reg *world.Registry
}

// NewLedgerRelationships returns the default RelationshipEngine.
func NewLedgerRelationships(reg *world.Registry) RelationshipEngine {
	return &ledgerRelationships{reg: reg}
}

// Decay lowers every recorded pair by one point every fourth tick.
func (l *ledgerRelationships) Decay(tick int) {
	if tick%relationshipDecayInterval != 0 {
		return
	}
	for _, key := range l.reg.IntimacyPairs() {
		a, b := world.SplitPairKey(key)
		l.reg.AdjustIntimacy(a, b, -1)
	}
}

// Sync seeds a baseline entry for every living member-leader pair that has
// never been recorded, so alliance and betrayal checks have ground to stand on.
func (l *ledgerRelationships) Sync(tick int) {
	recorded := make(map[string]bool)
	for _, key := range l.reg.IntimacyPairs() {
		recorded[key] = true
	}
	for _, f := range l.reg.Factions() {
		leader, ok := l.reg.Character(f.LeaderID)
		if !ok || leader.Dead {
			continue
		}
		for _, id := range f.MemberIDs {
			if id == f.LeaderID {
				continue
			}
			key := world.PairKey(id, f.LeaderID)
			if recorded[key] {
				continue
			}
			l.reg.SetIntimacy(id, f.LeaderID, memberLeaderSeedIntimacy)
			recorded[key] = true
		}
	}
}

// NPCAdvisor decides for non-player factions. The pipeline calls it at three
// fixed points; the default implementation is deliberately simple and fully
// driven by the shared dice source so runs stay replayable.
type NPCAdvisor interface {
	// DecideMovements issues attack, movement, and spy orders.
	DecideMovements(tick int, season world.Season)
	// Spend invests city gold in development and garrisons.
	Spend(tick int)
	// HireNeutrals courts factionless characters in NPC capitals.
	HireNeutrals(tick int)
}

const (
	npcAttackChancePercent = 20
	npcSpyChancePercent    = 15
	npcHireChancePercent   = 40
	npcHireCost            = 50
	npcReinforceGold       = 30
	npcReinforceAmount     = 3
)

type npcAdvisor struct {
	reg             *world.Registry
	roads           RoadService
	src             dice.Source
	playerFactionID string
	logger          *zap.Logger
}

// NewNPCAdvisor returns the default NPCAdvisor.
func NewNPCAdvisor(reg *world.Registry, roads RoadService, src dice.Source, playerFactionID string, logger *zap.Logger) NPCAdvisor {
	return &npcAdvisor{reg: reg, roads: roads, src: src, playerFactionID: playerFactionID, logger: logger}
}

// DecideMovements lets each NPC faction's leader and generals occasionally
// march on a weaker neighboring enemy city, and its spymasters run unrest
// missions against adjacent rivals.
func (a *npcAdvisor) DecideMovements(tick int, season world.Season) {
	for _, f := range a.reg.Factions() {
		if f.ID == a.playerFactionID {
			continue
		}
		for _, id := range f.MemberIDs {
			c, ok := a.reg.Character(id)
			if !ok || c.Dead || c.Imprisoned || c.CityID == "" {
				continue
			}
			if _, moving := a.reg.MovementFor(c.ID); moving {
				continue
			}
			switch {
			case c.ID == f.LeaderID || c.Role == world.RoleGeneral:
				a.considerAttack(tick, season, f, c)
			case c.Role == world.RoleSpymaster:
				a.considerSpying(tick, season, f, c)
			}
		}
	}
}

func (a *npcAdvisor) considerAttack(tick int, season world.Season, f *world.Faction, c *world.Character) {
	if !dice.Chance(a.src, npcAttackChancePercent) {
		return
	}
	target, road, ok := a.weakestEnemyNeighbor(f, c)
	if !ok || target.Garrison >= c.Stats.Military+c.Skills.Tactics {
		return
	}
	travel := TravelTicks(road, season, f.TechLevel(world.TechLogistics))
	a.reg.ScheduleMovement(&world.Movement{
		CharacterID: c.ID,
		FromCityID:  c.CityID,
		ToCityID:    target.ID,
		DepartTick:  tick,
		ArriveTick:  tick + travel,
		Hostile:     true,
	})
	a.logger.Debug("npc marches",
		zap.Int("tick", tick),
		zap.String("character", c.ID),
		zap.String("target", target.ID),
	)
}

func (a *npcAdvisor) considerSpying(tick int, season world.Season, f *world.Faction, c *world.Character) {
	if !dice.Chance(a.src, npcSpyChancePercent) {
		return
	}
	target, road, ok := a.weakestEnemyNeighbor(f, c)
	if !ok {
		return
	}
	travel := TravelTicks(road, season, f.TechLevel(world.TechLogistics))
	a.reg.ScheduleSpyMission(&world.SpyMission{
		SpyID:        c.ID,
		FactionID:    f.ID,
		TargetCityID: target.ID,
		Kind:         world.SpyUnrest,
		DepartTick:   tick,
		ResolveTick:  tick + travel,
	})
}

// weakestEnemyNeighbor returns the lowest-garrison adjacent city controlled
// by another faction.
func (a *npcAdvisor) weakestEnemyNeighbor(f *world.Faction, c *world.Character) (*world.City, Road, bool) {
	var best *world.City
	var bestRoad Road
	for _, road := range a.roads.ReachableNeighbors(c.CityID) {
		city, ok := a.reg.City(road.To)
		if !ok {
			continue
		}
		owner, owned := a.reg.ControllerFaction(city.ID)
		if !owned || owner.ID == f.ID || a.reg.Allied(owner.ID, f.ID) {
			continue
		}
		if best == nil || city.Garrison < best.Garrison {
			best, bestRoad = city, road
		}
	}
	return best, bestRoad, best != nil
}

// Spend develops low-development cities first, then tops up thin garrisons.
func (a *npcAdvisor) Spend(tick int) {
	for _, f := range a.reg.Factions() {
		if f.ID == a.playerFactionID {
			continue
		}
		for _, city := range a.reg.ControlledCities(f.ID) {
			cost := developCostPerLevel * (city.Development + 1)
			switch {
			case city.Development < world.MaxDevelopment && city.Gold >= cost:
				a.reg.AddGold(city.ID, -cost)
				city.Development++
			case city.Garrison < garrisonCapOf(city)/2 && city.Gold >= npcReinforceGold:
				a.reg.AddGold(city.ID, -npcReinforceGold)
				a.reg.AddGarrison(city.ID, npcReinforceAmount)
			}
		}
	}
}

// HireNeutrals has each NPC faction court the first factionless character in
// its capital when the coffers allow.
func (a *npcAdvisor) HireNeutrals(tick int) {
	for _, f := range a.reg.Factions() {
		if f.ID == a.playerFactionID {
			continue
		}
		capital, ok := a.reg.Capital(f.ID)
		if !ok || capital.Gold < npcHireCost {
			continue
		}
		for _, c := range a.reg.CharactersIn(capital.ID) {
			if c.FactionID != "" || c.Imprisoned {
				continue
			}
			if dice.Chance(a.src, npcHireChancePercent) {
				a.reg.AddGold(capital.ID, -npcHireCost)
				if err := a.reg.TransferMember(c.ID, f.ID); err == nil {
					a.logger.Debug("npc hires neutral",
						zap.Int("tick", tick),
						zap.String("faction", f.ID),
						zap.String("character", c.ID),
					)
				}
			}
			break
		}
	}
}

func garrisonCapOf(city *world.City) int {
	if city.Tier == world.TierMajor {
		return economy.GarrisonCapMajor
	}
	return economy.GarrisonCapMinor
}
