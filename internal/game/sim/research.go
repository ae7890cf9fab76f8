package sim

import (
	"fmt"

	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// researchBaseNeeded scales per-level research cost: level n+1 needs
// researchBaseNeeded*(n+1) accumulated progress.
const researchBaseNeeded = 10

// progressResearch advances every faction's active research. Progress per
// tick is 1 plus a fifth of the best intelligence in the faction, so a
// scholarly court researches noticeably faster.
func (o *Orchestrator) progressResearch(t *tickState) {
	for _, f := range o.reg.Factions() {
		r := f.Research
		if r == nil {
			continue
		}
		r.Progress += 1 + o.bestIntelligence(f)/5
		if r.Progress < r.Needed {
			continue
		}
		if f.Tech == nil {
			f.Tech = make(map[world.TechTrack]int)
		}
		f.Tech[r.Track]++
		f.Research = nil
		t.res.Log = append(t.res.Log, fmt.Sprintf("%s completes %s research level %d", f.Name, r.Track, f.Tech[r.Track]))
	}
}

func (o *Orchestrator) bestIntelligence(f *world.Faction) int {
	best := 0
	for _, id := range f.MemberIDs {
		if c, ok := o.reg.Character(id); ok && !c.Dead && c.Stats.Intelligence > best {
			best = c.Stats.Intelligence
		}
	}
	return best
}
