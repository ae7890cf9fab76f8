package economy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// UpdateSupply recomputes every faction's supply reachability and applies
// unsupplied garrison decay on its fixed interval.
//
// A city is supplied when it is reachable from its faction's capital (the
// city hosting the leader) across trade routes confined to that faction's
// own cities. The capital itself is always supplied.
func (e *Engine) UpdateSupply(tick int) {
	for _, faction := range e.reg.Factions() {
		e.updateFactionSupply(tick, faction)
	}
}

func (e *Engine) updateFactionSupply(tick int, faction *world.Faction) {
	controlled := e.reg.ControlledCities(faction.ID)
	if len(controlled) == 0 {
		return
	}

	capital, ok := e.reg.Capital(faction.ID)
	if !ok {
		// A faction with no seated leader supplies nothing beyond marking.
		for _, city := range controlled {
			e.markSupply(tick, city, false)
		}
		return
	}

	owned := make(map[string]bool, len(controlled))
	for _, city := range controlled {
		owned[city.ID] = true
	}
	if !owned[capital.ID] {
		// Leader is seated in a city the faction does not control; nothing
		// can trace a line back to it.
		for _, city := range controlled {
			e.markSupply(tick, city, false)
		}
		return
	}

	// Breadth-first reachability over the faction's own trade routes.
	reachable := map[string]bool{capital.ID: true}
	queue := []string{capital.ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, rt := range e.reg.TradeRoutes() {
			if rt.FactionID != faction.ID || !rt.Touches(cur) {
				continue
			}
			next := rt.FromCityID
			if next == cur {
				next = rt.ToCityID
			}
			if owned[next] && !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, city := range controlled {
		e.markSupply(tick, city, reachable[city.ID])
	}
}

func (e *Engine) markSupply(tick int, city *world.City, supplied bool) {
	e.reg.SetUnsupplied(city.ID, !supplied)
	if supplied {
		return
	}
	if tick%UnsuppliedDecayInterval == 0 && city.Garrison > 0 {
		e.reg.AddGarrison(city.ID, -1)
		e.logger.Debug("unsupplied garrison decay",
			zap.Int("tick", tick),
			zap.String("city", city.ID),
		)
	}
}
