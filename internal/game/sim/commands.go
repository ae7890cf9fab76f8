package sim

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Gold costs and tuning for queued orders.
const (
	reinforceCostPerPoint  = 10
	developCostPerLevel    = 50
	improvementCost        = 80
	districtCost           = 60
	siegeWorksCost         = 40
	hireNeutralCost        = 50
	tradeRouteGoldBonus    = 5
	blockadeDurationTicks  = 5
	defaultSpyTravelTicks  = 2
	recruitBaseChance      = 20
	recruitCharmChance     = 8
	hireNeutralBaseChance  = 30
	hireNeutralCharmChance = 6
)

// Per-unit training costs.
const (
	infantryCost = 4
	archerCost   = 6
	cavalryCost  = 8
)

// executor applies queued commands. A command whose preconditions fail is
// dropped without partial effect and without an entry in the tick log.
type executor struct {
	reg    *world.Registry
	roads  RoadService
	src    dice.Source
	diplo  *diplomacy.Engine
	logger *zap.Logger
}

func (x *executor) execute(tick int, season world.Season, cmd command.Command, res *TickResult) {
	actor, ok := x.reg.Character(cmd.Actor())
	if !ok || actor.Dead || actor.Imprisoned {
		x.drop(cmd, "actor unavailable")
		return
	}
	switch c := cmd.(type) {
	case command.Move:
		x.move(tick, season, actor, c.ToCityID, false, world.TacticNone)
	case command.Attack:
		x.move(tick, season, actor, c.TargetCityID, true, c.Tactic)
	case command.QueueTactic:
		x.reg.QueueTactic(actor.ID, c.Tactic)
	case command.Recruit:
		x.recruit(actor, c.TargetID, res)
	case command.Reinforce:
		x.reinforce(actor, c.CityID, c.Amount)
	case command.Develop:
		x.develop(actor, c.CityID)
	case command.BuildImprovement:
		x.buildImprovement(actor, c.CityID, c.Improvement)
	case command.Spy:
		x.spy(tick, season, actor, c.TargetCityID, c.Mission)
	case command.Sabotage:
		x.spy(tick, season, actor, c.TargetCityID, world.SpySabotage)
	case command.Blockade:
		x.blockade(tick, actor, c.TargetCityID)
	case command.HireNeutral:
		x.hireNeutral(actor, c.CityID, res)
	case command.AssignRole:
		x.assignRole(actor, c.TargetID, c.Role)
	case command.StartResearch:
		x.startResearch(actor, c.Track)
	case command.EstablishTrade:
		x.establishTrade(tick, actor, c.FromCityID, c.ToCityID)
	case command.BuildDistrict:
		x.buildDistrict(actor, c.CityID, c.District)
	case command.AssignMentor:
		x.assignMentor(actor, c.MentorID, c.ApprenticeID)
	case command.BuildSiege:
		x.buildSiege(actor, c.CityID)
	case command.TrainUnit:
		x.trainUnit(actor, c.CityID, c.Unit, c.Count)
	case command.SetPath:
		x.setPath(actor, c.CityID, c.Path)
	case command.ProposePact:
		res.Diplomacy = append(res.Diplomacy, x.diplo.ProposePact(tick, c))
	case command.DesignateHeir:
		x.designateHeir(actor, c.HeirID)
	case command.TransferTroops:
		x.transferTroops(tick, season, actor, c)
	default:
		x.drop(cmd, "unrecognized kind")
	}
}

func (x *executor) drop(cmd command.Command, reason string) {
	x.logger.Debug("command dropped",
		zap.String("kind", string(cmd.CommandKind())),
		zap.String("actor", cmd.Actor()),
		zap.String("reason", reason),
	)
}

// move schedules travel along a road. Hostile moves may queue a tactic for
// the arrival battle.
func (x *executor) move(tick int, season world.Season, actor *world.Character, toCityID string, hostile bool, tactic world.Tactic) {
	if actor.CityID == "" || actor.CityID == toCityID {
		return
	}
	if _, moving := x.reg.MovementFor(actor.ID); moving {
		return
	}
	faction, inFaction := x.reg.FactionOf(actor.ID)
	if hostile && !inFaction {
		return
	}
	road, ok := x.roads.FindRoad(actor.CityID, toCityID)
	if !ok {
		return
	}
	if hostile {
		if owner, owned := x.reg.ControllerFaction(toCityID); owned && owner.ID == faction.ID {
			return
		}
		if tactic != world.TacticNone {
			x.reg.QueueTactic(actor.ID, tactic)
		}
	}
	logistics := 0
	if inFaction {
		logistics = faction.TechLevel(world.TechLogistics)
	}
	x.reg.ScheduleMovement(&world.Movement{
		CharacterID: actor.ID,
		FromCityID:  actor.CityID,
		ToCityID:    toCityID,
		DepartTick:  tick,
		ArriveTick:  tick + TravelTicks(road, season, logistics),
		Hostile:     hostile,
	})
}

func (x *executor) recruit(actor *world.Character, targetID string, res *TickResult) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok {
		return
	}
	target, ok := x.reg.Character(targetID)
	if !ok || target.Dead || target.Imprisoned || target.FactionID != "" || target.CityID != actor.CityID {
		return
	}
	if !dice.Chance(x.src, recruitBaseChance+actor.Stats.Charm*recruitCharmChance) {
		return
	}
	if err := x.reg.TransferMember(target.ID, faction.ID); err != nil {
		return
	}
	res.Recruitments = append(res.Recruitments, RecruitmentEvent{
		FactionID:   faction.ID,
		CharacterID: target.ID,
		RecruiterID: actor.ID,
	})
}

// ownedCity resolves a city the actor's faction controls, the shared
// precondition for every build and spending order.
func (x *executor) ownedCity(actor *world.Character, cityID string) (*world.City, bool) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok {
		return nil, false
	}
	city, ok := x.reg.City(cityID)
	if !ok {
		return nil, false
	}
	owner, owned := x.reg.ControllerFaction(cityID)
	if !owned || owner.ID != faction.ID {
		return nil, false
	}
	return city, true
}

func (x *executor) reinforce(actor *world.Character, cityID string, amount int) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || amount <= 0 {
		return
	}
	cost := amount * reinforceCostPerPoint
	if city.Gold < cost {
		return
	}
	x.reg.AddGold(city.ID, -cost)
	x.reg.AddGarrison(city.ID, amount)
}

func (x *executor) develop(actor *world.Character, cityID string) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || city.Development >= world.MaxDevelopment {
		return
	}
	cost := developCostPerLevel * (city.Development + 1)
	if city.Gold < cost {
		return
	}
	x.reg.AddGold(city.ID, -cost)
	city.Development++
}

func (x *executor) buildImprovement(actor *world.Character, cityID string, imp world.Improvement) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || imp == world.ImprovementNone || city.Specialty != world.ImprovementNone || city.Gold < improvementCost {
		return
	}
	x.reg.AddGold(city.ID, -improvementCost)
	city.Specialty = imp
}

// spy schedules a mission resolving after travel. Spies cross territory
// without roads at a fixed fallback pace.
func (x *executor) spy(tick int, season world.Season, actor *world.Character, targetCityID string, mission world.SpyMissionKind) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || actor.CityID == "" {
		return
	}
	if owner, owned := x.reg.ControllerFaction(targetCityID); !owned || owner.ID == faction.ID {
		return
	}
	if mission == "" {
		mission = world.SpyScout
	}
	travel := defaultSpyTravelTicks
	if road, found := x.roads.FindRoad(actor.CityID, targetCityID); found {
		travel = TravelTicks(road, season, faction.TechLevel(world.TechLogistics))
	}
	x.reg.ScheduleSpyMission(&world.SpyMission{
		SpyID:        actor.ID,
		FactionID:    faction.ID,
		TargetCityID: targetCityID,
		Kind:         mission,
		DepartTick:   tick,
		ResolveTick:  tick + travel,
	})
}

func (x *executor) blockade(tick int, actor *world.Character, targetCityID string) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok {
		return
	}
	city, ok := x.reg.City(targetCityID)
	if !ok {
		return
	}
	owner, owned := x.reg.ControllerFaction(targetCityID)
	if !owned || owner.ID == faction.ID || x.reg.Allied(owner.ID, faction.ID) {
		return
	}
	city.BlockadedUntil = tick + blockadeDurationTicks
}

func (x *executor) hireNeutral(actor *world.Character, cityID string, res *TickResult) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok {
		return
	}
	capital, ok := x.reg.Capital(faction.ID)
	if !ok || capital.Gold < hireNeutralCost {
		return
	}
	for _, c := range x.reg.CharactersIn(cityID) {
		if c.FactionID != "" || c.Imprisoned {
			continue
		}
		x.reg.AddGold(capital.ID, -hireNeutralCost)
		if !dice.Chance(x.src, hireNeutralBaseChance+actor.Stats.Charm*hireNeutralCharmChance) {
			return
		}
		if err := x.reg.TransferMember(c.ID, faction.ID); err != nil {
			return
		}
		res.Recruitments = append(res.Recruitments, RecruitmentEvent{
			FactionID:   faction.ID,
			CharacterID: c.ID,
			RecruiterID: actor.ID,
		})
		return
	}
}

func (x *executor) assignRole(actor *world.Character, targetID string, role world.Role) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || actor.ID != faction.LeaderID {
		return
	}
	target, ok := x.reg.Character(targetID)
	if !ok || target.Dead || target.FactionID != faction.ID {
		return
	}
	target.Role = role
}

func (x *executor) startResearch(actor *world.Character, track world.TechTrack) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || faction.Research != nil {
		return
	}
	level := faction.TechLevel(track)
	if level >= world.MaxTechLevel {
		return
	}
	switch track {
	case world.TechMilitary, world.TechLogistics, world.TechEconomy:
	default:
		return
	}
	faction.Research = &world.ResearchState{
		Track:  track,
		Needed: researchBaseNeeded * (level + 1),
	}
}

func (x *executor) establishTrade(tick int, actor *world.Character, fromCityID, toCityID string) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || fromCityID == toCityID {
		return
	}
	if _, ok := x.ownedCity(actor, fromCityID); !ok {
		return
	}
	if _, ok := x.ownedCity(actor, toCityID); !ok {
		return
	}
	if _, ok := x.roads.FindRoad(fromCityID, toCityID); !ok {
		return
	}
	for _, rt := range x.reg.TradeRoutes() {
		if rt.Touches(fromCityID) && rt.Touches(toCityID) {
			return
		}
	}
	x.reg.AddTradeRoute(&world.TradeRoute{
		FactionID:       faction.ID,
		FromCityID:      fromCityID,
		ToCityID:        toCityID,
		EstablishedTick: tick,
		GoldBonus:       tradeRouteGoldBonus,
	})
	faction.RoutesEstablished++
}

func (x *executor) buildDistrict(actor *world.Character, cityID string, district world.District) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || len(city.Districts) >= world.MaxDistricts || city.HasDistrict(district) || city.Gold < districtCost {
		return
	}
	switch district {
	case world.DistrictCommerce, world.DistrictAgriculture, world.DistrictDefense:
	default:
		return
	}
	x.reg.AddGold(city.ID, -districtCost)
	city.Districts = append(city.Districts, district)
}

func (x *executor) assignMentor(actor *world.Character, mentorID, apprenticeID string) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || mentorID == apprenticeID {
		return
	}
	mentor, ok := x.reg.Character(mentorID)
	if !ok || mentor.Dead || mentor.FactionID != faction.ID {
		return
	}
	apprentice, ok := x.reg.Character(apprenticeID)
	if !ok || apprentice.Dead || apprentice.FactionID != faction.ID {
		return
	}
	apprentice.MentorID = mentor.ID
}

func (x *executor) buildSiege(actor *world.Character, cityID string) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || city.SiegeWorks || city.Gold < siegeWorksCost {
		return
	}
	x.reg.AddGold(city.ID, -siegeWorksCost)
	city.SiegeWorks = true
}

func (x *executor) trainUnit(actor *world.Character, cityID string, unit command.UnitType, count int) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || count <= 0 {
		return
	}
	var perUnit int
	switch unit {
	case command.UnitInfantry:
		perUnit = infantryCost
	case command.UnitArchers:
		perUnit = archerCost
	case command.UnitCavalry:
		perUnit = cavalryCost
	default:
		return
	}
	cost := perUnit * count
	if city.Gold < cost {
		return
	}
	x.reg.AddGold(city.ID, -cost)
	switch unit {
	case command.UnitInfantry:
		city.Units.Infantry += count
	case command.UnitArchers:
		city.Units.Archers += count
	case command.UnitCavalry:
		city.Units.Cavalry += count
	}
}

func (x *executor) setPath(actor *world.Character, cityID string, path world.CityPath) {
	city, ok := x.ownedCity(actor, cityID)
	if !ok || city.Path != world.PathNone {
		return
	}
	switch path {
	case world.PathFortress, world.PathTradeHub, world.PathCultural, world.PathBreadbasket:
	default:
		return
	}
	city.Path = path
}

func (x *executor) designateHeir(actor *world.Character, heirID string) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || actor.ID != faction.LeaderID {
		return
	}
	heir, ok := x.reg.Character(heirID)
	if !ok || heir.Dead || heir.FactionID != faction.ID || heir.ID == actor.ID {
		return
	}
	faction.HeirID = heir.ID
}

// transferTroops deducts at departure so the same garrison cannot be sent
// twice; the arrival step delivers or disbands at the destination.
func (x *executor) transferTroops(tick int, season world.Season, actor *world.Character, cmd command.TransferTroops) {
	faction, ok := x.reg.FactionOf(actor.ID)
	if !ok || cmd.FromCityID == cmd.ToCityID {
		return
	}
	from, ok := x.ownedCity(actor, cmd.FromCityID)
	if !ok {
		return
	}
	if _, ok := x.ownedCity(actor, cmd.ToCityID); !ok {
		return
	}
	road, ok := x.roads.FindRoad(cmd.FromCityID, cmd.ToCityID)
	if !ok {
		return
	}
	if cmd.Garrison < 0 || cmd.Garrison > from.Garrison {
		return
	}
	u := cmd.Units
	if u.Infantry < 0 || u.Cavalry < 0 || u.Archers < 0 ||
		u.Infantry > from.Units.Infantry || u.Cavalry > from.Units.Cavalry || u.Archers > from.Units.Archers {
		return
	}
	if cmd.Garrison == 0 && u.Total() == 0 {
		return
	}
	x.reg.AddGarrison(from.ID, -cmd.Garrison)
	from.Units.Infantry -= u.Infantry
	from.Units.Cavalry -= u.Cavalry
	from.Units.Archers -= u.Archers
	x.reg.ScheduleTransfer(&world.TroopTransfer{
		FactionID:  faction.ID,
		FromCityID: cmd.FromCityID,
		ToCityID:   cmd.ToCityID,
		Garrison:   cmd.Garrison,
		Units:      u,
		DepartTick: tick,
		ArriveTick: tick + TravelTicks(road, season, faction.TechLevel(world.TechLogistics)),
	})
}
