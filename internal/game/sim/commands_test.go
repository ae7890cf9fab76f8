package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

func run(o *Orchestrator, cmd command.Command) *TickResult {
	res := &TickResult{}
	o.exec.execute(1, world.SeasonSpring, cmd, res)
	return res
}

func TestCommandDevelopSpendsGold(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Develop{ActorID: "liu-bei", CityID: "chengdu"})

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 1, chengdu.Development)
	require.Equal(t, 50, chengdu.Gold)
}

func TestCommandDevelopInsufficientGoldDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})
	chengdu, _ := r.City("chengdu")
	chengdu.Gold = 30

	run(o, command.Develop{ActorID: "liu-bei", CityID: "chengdu"})
	require.Equal(t, 0, chengdu.Development)
	require.Equal(t, 30, chengdu.Gold)
}

func TestCommandReinforce(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Reinforce{ActorID: "liu-bei", CityID: "chengdu", Amount: 3})

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 13, chengdu.Garrison)
	require.Equal(t, 70, chengdu.Gold)
}

func TestCommandMoveSchedulesTravel(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Move{ActorID: "liu-bei", ToCityID: "hanzhong"})

	m, ok := r.MovementFor("liu-bei")
	require.True(t, ok)
	require.Equal(t, 2, m.ArriveTick)
	require.False(t, m.Hostile)
}

func TestCommandMoveWithoutRoadDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Move{ActorID: "liu-bei", ToCityID: "jianye"})
	_, ok := r.MovementFor("liu-bei")
	require.False(t, ok)
}

func TestCommandAttackQueuesTactic(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Attack{ActorID: "liu-bei", TargetCityID: "luoyang", Tactic: world.TacticAggressive})

	m, ok := r.MovementFor("liu-bei")
	require.True(t, ok)
	require.True(t, m.Hostile)
	require.Equal(t, world.TacticAggressive, r.TakeTactic("liu-bei"))
}

func TestCommandAttackOwnCityDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Attack{ActorID: "liu-bei", TargetCityID: "hanzhong"})
	_, ok := r.MovementFor("liu-bei")
	require.False(t, ok)
}

func TestCommandImprisonedActorDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})
	liuBei, _ := r.Character("liu-bei")
	liuBei.Imprisoned = true

	run(o, command.Develop{ActorID: "liu-bei", CityID: "chengdu"})
	chengdu, _ := r.City("chengdu")
	require.Equal(t, 0, chengdu.Development)
}

func TestCommandRecruit(t *testing.T) {
	r := newRealm(t)
	require.NoError(t, r.AddCharacter(&world.Character{ID: "xu-shu", Name: "Xu Shu", CityID: "chengdu"}))
	o, _ := newOrchestrator(t, r, &scriptSource{})

	res := run(o, command.Recruit{ActorID: "liu-bei", TargetID: "xu-shu"})

	xuShu, _ := r.Character("xu-shu")
	require.Equal(t, "shu", xuShu.FactionID)
	require.Len(t, res.Recruitments, 1)
	require.False(t, res.Recruitments[0].FromCaptivity)
}

func TestCommandRecruitWrongCityDropped(t *testing.T) {
	r := newRealm(t)
	require.NoError(t, r.AddCharacter(&world.Character{ID: "xu-shu", Name: "Xu Shu", CityID: "luoyang"}))
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Recruit{ActorID: "liu-bei", TargetID: "xu-shu"})
	xuShu, _ := r.Character("xu-shu")
	require.Equal(t, "", xuShu.FactionID)
}

func TestCommandEstablishTrade(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.EstablishTrade{ActorID: "liu-bei", FromCityID: "chengdu", ToCityID: "hanzhong"})
	require.Len(t, r.TradeRoutes(), 1)
	shu, _ := r.Faction("shu")
	require.Equal(t, 1, shu.RoutesEstablished)

	// A duplicate route between the same endpoints is dropped.
	run(o, command.EstablishTrade{ActorID: "liu-bei", FromCityID: "hanzhong", ToCityID: "chengdu"})
	require.Len(t, r.TradeRoutes(), 1)
}

func TestCommandEstablishTradeAcrossBordersDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.EstablishTrade{ActorID: "liu-bei", FromCityID: "chengdu", ToCityID: "luoyang"})
	require.Empty(t, r.TradeRoutes())
}

func TestCommandTrainUnit(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.TrainUnit{ActorID: "liu-bei", CityID: "chengdu", Unit: command.UnitCavalry, Count: 2})

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 2, chengdu.Units.Cavalry)
	require.Equal(t, 100-2*cavalryCost, chengdu.Gold)
}

func TestCommandStartResearch(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.StartResearch{ActorID: "liu-bei", Track: world.TechLogistics})
	shu, _ := r.Faction("shu")
	require.NotNil(t, shu.Research)
	require.Equal(t, world.TechLogistics, shu.Research.Track)
	require.Equal(t, researchBaseNeeded, shu.Research.Needed)

	// A second track cannot start while one is active.
	run(o, command.StartResearch{ActorID: "liu-bei", Track: world.TechMilitary})
	require.Equal(t, world.TechLogistics, shu.Research.Track)
}

func TestCommandDesignateHeir(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.DesignateHeir{ActorID: "guan-yu", HeirID: "liu-bei"})
	shu, _ := r.Faction("shu")
	require.Equal(t, "", shu.HeirID, "only the leader designates an heir")

	run(o, command.DesignateHeir{ActorID: "liu-bei", HeirID: "guan-yu"})
	require.Equal(t, "guan-yu", shu.HeirID)
}

func TestCommandAssignRole(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.AssignRole{ActorID: "liu-bei", TargetID: "guan-yu", Role: world.RoleGeneral})
	guanYu, _ := r.Character("guan-yu")
	require.Equal(t, world.RoleGeneral, guanYu.Role)

	run(o, command.AssignRole{ActorID: "guan-yu", TargetID: "liu-bei", Role: world.RoleGovernor})
	liuBei, _ := r.Character("liu-bei")
	require.Equal(t, world.RoleNone, liuBei.Role, "only the leader assigns roles")
}

func TestCommandTransferTroopsDeductsAtDeparture(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.TransferTroops{ActorID: "liu-bei", FromCityID: "chengdu", ToCityID: "hanzhong", Garrison: 4})

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 6, chengdu.Garrison)
	require.Len(t, r.ConsumeTransfers(2), 1)
}

func TestCommandTransferTroopsOverdraftDropped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.TransferTroops{ActorID: "liu-bei", FromCityID: "chengdu", ToCityID: "hanzhong", Garrison: 11})

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 10, chengdu.Garrison)
	require.Empty(t, r.ConsumeTransfers(2))
}

func TestCommandBuildDistrictCapped(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})
	chengdu, _ := r.City("chengdu")
	chengdu.Gold = 300

	run(o, command.BuildDistrict{ActorID: "liu-bei", CityID: "chengdu", District: world.DistrictCommerce})
	run(o, command.BuildDistrict{ActorID: "liu-bei", CityID: "chengdu", District: world.DistrictCommerce})
	require.Len(t, chengdu.Districts, 1, "duplicate district dropped")

	run(o, command.BuildDistrict{ActorID: "liu-bei", CityID: "chengdu", District: world.DistrictDefense})
	run(o, command.BuildDistrict{ActorID: "liu-bei", CityID: "chengdu", District: world.DistrictAgriculture})
	require.Len(t, chengdu.Districts, world.MaxDistricts)
	require.Equal(t, 300-2*districtCost, chengdu.Gold)
}

func TestCommandBuildSiege(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.BuildSiege{ActorID: "liu-bei", CityID: "chengdu"})
	chengdu, _ := r.City("chengdu")
	require.True(t, chengdu.SiegeWorks)
	require.Equal(t, 100-siegeWorksCost, chengdu.Gold)
}

func TestCommandSetPathOnce(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.SetPath{ActorID: "liu-bei", CityID: "chengdu", Path: world.PathFortress})
	chengdu, _ := r.City("chengdu")
	require.Equal(t, world.PathFortress, chengdu.Path)

	run(o, command.SetPath{ActorID: "liu-bei", CityID: "chengdu", Path: world.PathCultural})
	require.Equal(t, world.PathFortress, chengdu.Path, "a chosen path is permanent")
}

func TestCommandBlockade(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Blockade{ActorID: "liu-bei", TargetCityID: "luoyang"})
	luoyang, _ := r.City("luoyang")
	require.Equal(t, 1+blockadeDurationTicks, luoyang.BlockadedUntil)

	run(o, command.Blockade{ActorID: "liu-bei", TargetCityID: "hanzhong"})
	hanzhong, _ := r.City("hanzhong")
	require.Equal(t, 0, hanzhong.BlockadedUntil, "cannot blockade an own city")
}

func TestCommandSpySchedulesMission(t *testing.T) {
	r := newRealm(t)
	o, _ := newOrchestrator(t, r, &scriptSource{})

	run(o, command.Spy{ActorID: "guan-yu", TargetCityID: "luoyang", Mission: world.SpySabotage})

	missions := r.ConsumeSpyMissions(3)
	require.Len(t, missions, 1)
	require.Equal(t, world.SpySabotage, missions[0].Kind)
	require.Equal(t, "shu", missions[0].FactionID)
}
