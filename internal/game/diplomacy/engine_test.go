package diplomacy_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/diplomacy"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// scriptSource feeds predetermined rolls and then zeroes.
type scriptSource struct {
	rolls []int
}

func (s *scriptSource) Intn(n int) int {
	if len(s.rolls) == 0 {
		return 0
	}
	v := s.rolls[0]
	s.rolls = s.rolls[1:]
	return v % n
}

func newCourtWorld(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, r.AddCharacter(&world.Character{
		ID: "liu-bei", Name: "Liu Bei", CityID: "chengdu",
		Stats: world.Stats{Military: 6, Intelligence: 6, Charm: 9},
	}))
	require.NoError(t, r.AddCharacter(&world.Character{
		ID: "guan-yu", Name: "Guan Yu", CityID: "chengdu",
		Stats: world.Stats{Military: 9, Intelligence: 5, Charm: 6},
	}))
	require.NoError(t, r.AddCharacter(&world.Character{
		ID: "cao-cao", Name: "Cao Cao", CityID: "luoyang",
		Stats: world.Stats{Military: 7, Intelligence: 9, Charm: 7},
	}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "shu", Name: "Shu", LeaderID: "liu-bei", MemberIDs: []string{"liu-bei", "guan-yu"}}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wei", Name: "Wei", LeaderID: "cao-cao", MemberIDs: []string{"cao-cao"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "chengdu", Name: "Chengdu", Tier: world.TierMajor, ControllerID: "liu-bei", Garrison: 10, Gold: 100, Food: 100}))
	require.NoError(t, r.AddCity(&world.City{ID: "luoyang", Name: "Luoyang", Tier: world.TierMajor, ControllerID: "cao-cao", Garrison: 12, Gold: 100, Food: 100}))
	return r
}

func newCourtEngine(t *testing.T, r *world.Registry, rolls ...int) *diplomacy.Engine {
	t.Helper()
	return diplomacy.NewEngine(r, &scriptSource{rolls: rolls}, zaptest.NewLogger(t))
}

func TestAllianceFormsAtThreshold(t *testing.T) {
	r := newCourtWorld(t)
	r.SetIntimacy("liu-bei", "cao-cao", diplomacy.AllianceFormThreshold)
	e := newCourtEngine(t, r)

	events := e.EvaluateAlliances(1)
	require.Len(t, events, 1)
	require.Equal(t, diplomacy.EventAllianceFormed, events[0].Kind)
	require.True(t, r.Allied("shu", "wei"))

	// Idempotent while intimacy stays high.
	require.Empty(t, e.EvaluateAlliances(2))
}

func TestAllianceBreaksAtThreshold(t *testing.T) {
	r := newCourtWorld(t)
	r.SetAllied("shu", "wei", true)
	r.SetIntimacy("liu-bei", "cao-cao", diplomacy.AllianceBreakThreshold)
	e := newCourtEngine(t, r)

	events := e.EvaluateAlliances(1)
	require.Len(t, events, 1)
	require.Equal(t, diplomacy.EventAllianceBroken, events[0].Kind)
	require.False(t, r.Allied("shu", "wei"))
}

func TestAllianceStableBetweenThresholds(t *testing.T) {
	r := newCourtWorld(t)
	r.SetIntimacy("liu-bei", "cao-cao", 45)
	e := newCourtEngine(t, r)
	require.Empty(t, e.EvaluateAlliances(1))
	require.False(t, r.Allied("shu", "wei"))

	r.SetAllied("shu", "wei", true)
	require.Empty(t, e.EvaluateAlliances(2))
	require.True(t, r.Allied("shu", "wei"))
}

func TestTrustDriftsForAlliedPairs(t *testing.T) {
	r := newCourtWorld(t)
	r.SetAllied("shu", "wei", true)
	before := r.Trust("shu", "wei")
	e := newCourtEngine(t, r)

	e.DriftTrust()
	drift := r.Trust("shu", "wei") - before
	require.GreaterOrEqual(t, drift, 1)
	require.LessOrEqual(t, drift, 2)
}

func TestTrustDoesNotDriftUnallied(t *testing.T) {
	r := newCourtWorld(t)
	before := r.Trust("shu", "wei")
	e := newCourtEngine(t, r)
	e.DriftTrust()
	require.Equal(t, before, r.Trust("shu", "wei"))
}

func TestProposePactBelowThresholdRejected(t *testing.T) {
	r := newCourtWorld(t)
	// Baseline trust 50 is below the mutual-defense threshold of 60.
	e := newCourtEngine(t, r)

	ev := e.ProposePact(1, command.ProposePact{ActorID: "liu-bei", TargetFactionID: "wei", Treaty: world.TreatyMutualDefense})
	require.Equal(t, diplomacy.EventPactRejected, ev.Kind)
	require.Equal(t, 48, r.Trust("shu", "wei"))
	_, ok := r.ActiveTreaty(world.TreatyMutualDefense, "shu", "wei", 1)
	require.False(t, ok)
}

func TestProposePactAccepted(t *testing.T) {
	r := newCourtWorld(t)
	r.AdjustTrust("shu", "wei", 30) // 80, well over the NAP threshold
	e := newCourtEngine(t, r, 0)

	ev := e.ProposePact(3, command.ProposePact{ActorID: "liu-bei", TargetFactionID: "wei", Treaty: world.TreatyNonAggression})
	require.Equal(t, diplomacy.EventPactAccepted, ev.Kind)
	require.Equal(t, 85, r.Trust("shu", "wei"))

	treaty, ok := r.ActiveTreaty(world.TreatyNonAggression, "wei", "shu", 3)
	require.True(t, ok)
	require.Equal(t, 3+world.TreatyNonAggression.Duration(), treaty.ExpireTick)
}

func TestProposePactDuplicateRejected(t *testing.T) {
	r := newCourtWorld(t)
	r.AdjustTrust("shu", "wei", 50)
	e := newCourtEngine(t, r, 0, 0)

	first := e.ProposePact(1, command.ProposePact{ActorID: "liu-bei", TargetFactionID: "wei", Treaty: world.TreatyNonAggression})
	require.Equal(t, diplomacy.EventPactAccepted, first.Kind)
	second := e.ProposePact(2, command.ProposePact{ActorID: "liu-bei", TargetFactionID: "wei", Treaty: world.TreatyNonAggression})
	require.Equal(t, diplomacy.EventPactRejected, second.Kind)
}

func TestMutualDefenseSupportsBesiegedAlly(t *testing.T) {
	r := newCourtWorld(t)
	r.AddTreaty(&world.Treaty{Kind: world.TreatyMutualDefense, FactionA: "shu", FactionB: "wei", StartTick: 0, ExpireTick: 20})
	city, _ := r.City("luoyang")
	city.Siege = &world.Siege{BesiegerFactionID: "shu", StartTick: 4}
	e := newCourtEngine(t, r)

	e.SupportBesiegedAllies(5)
	require.Equal(t, 13, city.Garrison)

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 10, chengdu.Garrison, "unbesieged cities get nothing")
}

func TestMutualDefenseExpiredNoSupport(t *testing.T) {
	r := newCourtWorld(t)
	r.AddTreaty(&world.Treaty{Kind: world.TreatyMutualDefense, FactionA: "shu", FactionB: "wei", StartTick: 0, ExpireTick: 5})
	city, _ := r.City("luoyang")
	city.Siege = &world.Siege{BesiegerFactionID: "shu", StartTick: 4}
	e := newCourtEngine(t, r)

	e.SupportBesiegedAllies(5)
	require.Equal(t, 12, city.Garrison)
}

func TestDemandTributeAccepted(t *testing.T) {
	r := newCourtWorld(t)
	e := newCourtEngine(t, r, 0)

	ev := e.Demand(1, command.Demand{ActorID: "liu-bei", TargetFactionID: "wei", Demand: command.DemandTribute})
	require.Equal(t, diplomacy.EventDemandAccepted, ev.Kind)

	chengdu, _ := r.City("chengdu")
	luoyang, _ := r.City("luoyang")
	require.Equal(t, 125, chengdu.Gold)
	require.Equal(t, 75, luoyang.Gold)
	require.Equal(t, 40, r.Trust("shu", "wei"))
	require.Equal(t, 47, r.Morale("wei"))
}

func TestDemandRefused(t *testing.T) {
	r := newCourtWorld(t)
	e := newCourtEngine(t, r, 99)

	ev := e.Demand(1, command.Demand{ActorID: "liu-bei", TargetFactionID: "wei", Demand: command.DemandTribute})
	require.Equal(t, diplomacy.EventDemandRefused, ev.Kind)

	chengdu, _ := r.City("chengdu")
	require.Equal(t, 100, chengdu.Gold)
	require.Equal(t, 45, r.Trust("shu", "wei"))
}

func TestDemandWithdrawalMovesCharacters(t *testing.T) {
	r := newCourtWorld(t)
	require.NoError(t, r.AddCity(&world.City{ID: "hanzhong", Name: "Hanzhong", Tier: world.TierMinor, ControllerID: "liu-bei", Garrison: 4, Food: 50}))
	require.NoError(t, r.AddCharacter(&world.Character{ID: "xun-yu", Name: "Xun Yu", CityID: "hanzhong"}))
	require.NoError(t, r.TransferMember("xun-yu", "wei"))

	e := newCourtEngine(t, r, 0)
	ev := e.Demand(1, command.Demand{ActorID: "liu-bei", TargetFactionID: "wei", Demand: command.DemandWithdrawal, CityID: "hanzhong"})
	require.Equal(t, diplomacy.EventDemandAccepted, ev.Kind)

	xunYu, _ := r.Character("xun-yu")
	require.Equal(t, "luoyang", xunYu.CityID, "withdrawn characters return to their capital")
	guanYu, _ := r.Character("guan-yu")
	require.Equal(t, "chengdu", guanYu.CityID, "only the target faction withdraws")
}

func TestSowDiscordBreaksAlliance(t *testing.T) {
	r := newCourtWorld(t)
	require.NoError(t, r.AddCharacter(&world.Character{
		ID: "sun-quan", Name: "Sun Quan", CityID: "jianye",
		Skills: world.Skills{Espionage: 5},
	}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wu", Name: "Wu", LeaderID: "sun-quan", MemberIDs: []string{"sun-quan"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "jianye", Name: "Jianye", Tier: world.TierMajor, ControllerID: "sun-quan", Garrison: 8, Gold: 200, Food: 100}))
	r.SetAllied("shu", "wei", true)

	e := newCourtEngine(t, r, 0)
	ev := e.SowDiscord(1, command.SowDiscord{ActorID: "sun-quan", TargetFactionA: "shu", TargetFactionB: "wei", Bribe: 50})
	require.Equal(t, diplomacy.EventDiscordSown, ev.Kind)
	require.False(t, r.Allied("shu", "wei"))
	require.Equal(t, 35, r.Trust("shu", "wei"))

	jianye, _ := r.City("jianye")
	require.Equal(t, 150, jianye.Gold, "bribe is spent")
}

func TestSowDiscordUnaffordableDropped(t *testing.T) {
	r := newCourtWorld(t)
	require.NoError(t, r.AddCharacter(&world.Character{ID: "sun-quan", Name: "Sun Quan", CityID: "jianye", Skills: world.Skills{Espionage: 5}}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wu", Name: "Wu", LeaderID: "sun-quan", MemberIDs: []string{"sun-quan"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "jianye", Name: "Jianye", Tier: world.TierMajor, ControllerID: "sun-quan", Garrison: 8, Gold: 10, Food: 100}))
	r.SetAllied("shu", "wei", true)

	e := newCourtEngine(t, r, 0)
	ev := e.SowDiscord(1, command.SowDiscord{ActorID: "sun-quan", TargetFactionA: "shu", TargetFactionB: "wei", Bribe: 50})
	require.Equal(t, diplomacy.EventDiscordFailed, ev.Kind)
	require.True(t, r.Allied("shu", "wei"))

	jianye, _ := r.City("jianye")
	require.Equal(t, 10, jianye.Gold)
}

func TestSowDiscordBackfire(t *testing.T) {
	r := newCourtWorld(t)
	require.NoError(t, r.AddCharacter(&world.Character{ID: "sun-quan", Name: "Sun Quan", CityID: "jianye"}))
	require.NoError(t, r.AddFaction(&world.Faction{ID: "wu", Name: "Wu", LeaderID: "sun-quan", MemberIDs: []string{"sun-quan"}}))
	require.NoError(t, r.AddCity(&world.City{ID: "jianye", Name: "Jianye", Tier: world.TierMajor, ControllerID: "sun-quan", Garrison: 8, Gold: 200, Food: 100}))
	r.SetAllied("shu", "wei", true)

	e := newCourtEngine(t, r, 99)
	ev := e.SowDiscord(1, command.SowDiscord{ActorID: "sun-quan", TargetFactionA: "shu", TargetFactionB: "wei", Bribe: 50})
	require.Equal(t, diplomacy.EventDiscordFailed, ev.Kind)
	require.True(t, r.Allied("shu", "wei"))
	require.Equal(t, 40, r.Trust("wu", "shu"))
	require.Equal(t, 40, r.Trust("wu", "wei"))

	jianye, _ := r.City("jianye")
	require.Equal(t, 150, jianye.Gold, "failed bribes are not refunded")
}

func TestBetrayalTransfersMember(t *testing.T) {
	r := newCourtWorld(t)
	guanYu, _ := r.Character("guan-yu")
	guanYu.Traits = []world.Trait{world.TraitTreacherous}
	r.SetIntimacy("guan-yu", "cao-cao", 90)
	r.SetIntimacy("guan-yu", "liu-bei", 10)

	e := newCourtEngine(t, r, 0)
	events := e.EvaluateBetrayals(1)
	require.Len(t, events, 1)
	require.Equal(t, diplomacy.EventBetrayal, events[0].Kind)
	require.Equal(t, "guan-yu", events[0].ActorID)

	wei, _ := r.Faction("wei")
	require.Contains(t, wei.MemberIDs, "guan-yu")
	shu, _ := r.Faction("shu")
	require.NotContains(t, shu.MemberIDs, "guan-yu")
}

func TestBetrayalLoyalImmune(t *testing.T) {
	r := newCourtWorld(t)
	guanYu, _ := r.Character("guan-yu")
	guanYu.Traits = []world.Trait{world.TraitLoyal}
	r.SetIntimacy("guan-yu", "cao-cao", 90)
	r.SetIntimacy("guan-yu", "liu-bei", 10)

	e := newCourtEngine(t, r, 0)
	require.Empty(t, e.EvaluateBetrayals(1))
	shu, _ := r.Faction("shu")
	require.Contains(t, shu.MemberIDs, "guan-yu")
}

func TestBetrayalRequiresStrongerRivalBond(t *testing.T) {
	r := newCourtWorld(t)
	r.SetIntimacy("guan-yu", "cao-cao", 40)
	r.SetIntimacy("guan-yu", "liu-bei", 80)

	e := newCourtEngine(t, r, 0)
	require.Empty(t, e.EvaluateBetrayals(1))
}

func TestLeadersNeverBetray(t *testing.T) {
	r := newCourtWorld(t)
	r.SetIntimacy("liu-bei", "cao-cao", 95)

	e := newCourtEngine(t, r, 0)
	require.Empty(t, e.EvaluateBetrayals(1))
	shu, _ := r.Faction("shu")
	require.Equal(t, "liu-bei", shu.LeaderID)
	require.Contains(t, shu.MemberIDs, "liu-bei")
}
