package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

const (
	spyBaseChancePercent       = 35
	spySkillChancePercent      = 10
	spyCaptureChancePercent    = 30
	spyCaptureFavorabilityLoss = -10
	sabotageGarrisonLoss       = 3
	unrestLoyaltyLoss          = -10

	captiveRecruitBaseChance  = 20
	captiveRecruitCharmChance = 5
)

// resolveSpyMissions applies every mission due this tick. Success is driven
// by the spy's espionage skill; a failed spy risks capture in the target city.
func (o *Orchestrator) resolveSpyMissions(t *tickState) {
	for _, m := range o.reg.ConsumeSpyMissions(t.tick) {
		spy, ok := o.reg.Character(m.SpyID)
		if !ok || spy.Dead || spy.Imprisoned {
			continue
		}
		city, ok := o.reg.City(m.TargetCityID)
		if !ok {
			continue
		}
		report := SpyReport{SpyID: m.SpyID, FactionID: m.FactionID, TargetCityID: m.TargetCityID, Kind: m.Kind}
		chance := spyBaseChancePercent + spy.Skills.Espionage*spySkillChancePercent
		if dice.Chance(o.src, chance) {
			report.Success = true
			switch m.Kind {
			case world.SpyScout:
				report.Detail = fmt.Sprintf("garrison %d, units %d, gold %d", city.Garrison, city.Units.Total(), city.Gold)
			case world.SpySabotage:
				o.reg.AddGarrison(city.ID, -sabotageGarrisonLoss)
			case world.SpyUnrest:
				o.reg.AdjustLoyalty(city.ID, unrestLoyaltyLoss)
			}
		} else if dice.Chance(o.src, spyCaptureChancePercent) {
			report.Captured = true
			spy.Imprisoned = true
			spy.CityID = city.ID
			o.reg.AdjustFavorability(spy.ID, spyCaptureFavorabilityLoss)
			o.logger.Info("spy captured",
				zap.Int("tick", t.tick),
				zap.String("spy", m.SpyID),
				zap.String("city", m.TargetCityID),
			)
		}
		t.res.Spy = append(t.res.Spy, report)
	}
}

// recruitCaptives runs after battle resolution: prisoners held in a city
// another faction controls are courted by that faction's leader. Those who
// resist are released and walk home to their capital.
func (o *Orchestrator) recruitCaptives(t *tickState) {
	for _, c := range o.reg.Characters() {
		if !c.Imprisoned || c.Dead || c.CityID == "" {
			continue
		}
		holder, held := o.reg.ControllerFaction(c.CityID)
		if !held || holder.ID == c.FactionID {
			c.Imprisoned = false
			continue
		}
		charm := 0
		if leader, ok := o.reg.Character(holder.LeaderID); ok {
			charm = leader.Stats.Charm
		}
		c.Imprisoned = false
		if dice.Chance(o.src, captiveRecruitBaseChance+charm*captiveRecruitCharmChance) {
			if err := o.reg.TransferMember(c.ID, holder.ID); err != nil {
				continue
			}
			t.res.Recruitments = append(t.res.Recruitments, RecruitmentEvent{
				FactionID:     holder.ID,
				CharacterID:   c.ID,
				RecruiterID:   holder.LeaderID,
				FromCaptivity: true,
			})
			t.res.Log = append(t.res.Log, fmt.Sprintf("%s swears to %s after capture", c.Name, holder.Name))
			continue
		}
		if c.FactionID != "" {
			if capital, ok := o.reg.Capital(c.FactionID); ok {
				c.CityID = capital.ID
			}
		}
		t.res.Log = append(t.res.Log, fmt.Sprintf("%s is released from captivity", c.Name))
	}
}
