package lifecycle

import "github.com/cory-johannsen/dynasty/internal/game/world"

const (
	battleWinPrestige        = 2
	leaderPrestigeInterval   = 5
	leaderPrestigeCityDiv    = 3
	governorPrestigeInterval = 10
)

// AwardBattlePrestige credits each battle winner.
func (e *Engine) AwardBattlePrestige(winnerIDs []string) {
	for _, id := range winnerIDs {
		e.reg.AdjustPrestige(id, battleWinPrestige)
	}
}

// UpdatePrestige runs the periodic prestige accruals: leaders earn standing
// from the cities they hold, governors from their office.
func (e *Engine) UpdatePrestige(tick int) {
	if tick == 0 {
		return
	}
	if tick%leaderPrestigeInterval == 0 {
		for _, f := range e.reg.Factions() {
			if f.LeaderID == "" {
				continue
			}
			if gain := len(e.reg.ControlledCities(f.ID)) / leaderPrestigeCityDiv; gain > 0 {
				e.reg.AdjustPrestige(f.LeaderID, float64(gain))
			}
		}
	}
	if tick%governorPrestigeInterval == 0 {
		for _, c := range e.reg.Characters() {
			if !c.Dead && c.Role == world.RoleGovernor {
				e.reg.AdjustPrestige(c.ID, 1)
			}
		}
	}
}
