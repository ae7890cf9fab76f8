// Package diplomacy evaluates alliances, trust, treaties, demands, discord
// plots, and betrayal. Alliances are evaluated from leader relationships, not
// commanded.
package diplomacy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/command"
	"github.com/cory-johannsen/dynasty/internal/game/dice"
	"github.com/cory-johannsen/dynasty/internal/game/world"
)

// Leader-pair intimacy thresholds for alliance state changes.
const (
	AllianceFormThreshold  = 65
	AllianceBreakThreshold = 25
)

// Trust thresholds a treaty proposal must clear before acceptance is even
// rolled.
const (
	nonAggressionTrustThreshold = 40
	mutualDefenseTrustThreshold = 60
)

const (
	pactAcceptTrustGain   = 5
	pactRejectTrustLoss   = -2
	demandRefuseTrustLoss = -5
	demandAcceptTrustLoss = -10
	tributeGold           = 25
	discordSuccessTrust   = -15
	discordBackfireTrust  = -10
)

// EventKind classifies a diplomacy outcome for the tick record.
type EventKind string

const (
	EventAllianceFormed EventKind = "alliance_formed"
	EventAllianceBroken EventKind = "alliance_broken"
	EventPactAccepted   EventKind = "pact_accepted"
	EventPactRejected   EventKind = "pact_rejected"
	EventDemandAccepted EventKind = "demand_accepted"
	EventDemandRefused  EventKind = "demand_refused"
	EventDiscordSown    EventKind = "discord_sown"
	EventDiscordFailed  EventKind = "discord_failed"
	EventBetrayal       EventKind = "betrayal"
)

// Event is one diplomacy outcome.
type Event struct {
	Kind     EventKind
	FactionA string
	FactionB string
	// ActorID is the character that drove the event, when one did.
	ActorID string
	CityID  string
}

// Engine owns alliance state, the trust ledger, treaties, and betrayal
// checks against the shared registry.
type Engine struct {
	reg    *world.Registry
	src    dice.Source
	logger *zap.Logger
}

func NewEngine(reg *world.Registry, src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, src: src, logger: logger}
}

// EvaluateAlliances forms and breaks alliances from leader-pair intimacy.
// Intimacy at or above the form threshold allies the pair; at or below the
// break threshold it dissolves.
func (e *Engine) EvaluateAlliances(tick int) []Event {
	var events []Event
	factions := e.reg.Factions()
	for i, a := range factions {
		for _, b := range factions[i+1:] {
			if a.LeaderID == "" || b.LeaderID == "" {
				continue
			}
			intimacy := e.reg.Intimacy(a.LeaderID, b.LeaderID)
			allied := e.reg.Allied(a.ID, b.ID)
			switch {
			case !allied && intimacy >= AllianceFormThreshold:
				e.reg.SetAllied(a.ID, b.ID, true)
				e.reg.AdjustTrust(a.ID, b.ID, 5)
				events = append(events, Event{Kind: EventAllianceFormed, FactionA: a.ID, FactionB: b.ID})
				e.logger.Info("alliance formed", zap.Int("tick", tick), zap.String("a", a.ID), zap.String("b", b.ID))
			case allied && intimacy <= AllianceBreakThreshold:
				e.reg.SetAllied(a.ID, b.ID, false)
				e.reg.AdjustTrust(a.ID, b.ID, -10)
				events = append(events, Event{Kind: EventAllianceBroken, FactionA: a.ID, FactionB: b.ID})
				e.logger.Info("alliance broken", zap.Int("tick", tick), zap.String("a", a.ID), zap.String("b", b.ID))
			}
		}
	}
	return events
}

// DriftTrust raises trust by 1-2 points for every allied pair.
func (e *Engine) DriftTrust() {
	factions := e.reg.Factions()
	for i, a := range factions {
		for _, b := range factions[i+1:] {
			if e.reg.Allied(a.ID, b.ID) {
				e.reg.AdjustTrust(a.ID, b.ID, float64(dice.Between(e.src, 1, 2)))
			}
		}
	}
}

// ProposePact resolves a treaty proposal. Trust must clear the kind's
// threshold; acceptance is then rolled with a chance growing with the
// surplus trust.
func (e *Engine) ProposePact(tick int, cmd command.ProposePact) Event {
	proposer, ok := e.reg.FactionOf(cmd.ActorID)
	target, tok := e.reg.Faction(cmd.TargetFactionID)
	if !ok || !tok || proposer.ID == target.ID {
		return Event{Kind: EventPactRejected, ActorID: cmd.ActorID, FactionB: cmd.TargetFactionID}
	}
	ev := Event{ActorID: cmd.ActorID, FactionA: proposer.ID, FactionB: target.ID}

	if _, exists := e.reg.ActiveTreaty(cmd.Treaty, proposer.ID, target.ID, tick); exists {
		ev.Kind = EventPactRejected
		return ev
	}

	trust := e.reg.Trust(proposer.ID, target.ID)
	threshold := nonAggressionTrustThreshold
	if cmd.Treaty == world.TreatyMutualDefense {
		threshold = mutualDefenseTrustThreshold
	}
	chance := clampChance((trust - threshold) * 2)
	if trust < threshold || !dice.Chance(e.src, chance) {
		e.reg.AdjustTrust(proposer.ID, target.ID, pactRejectTrustLoss)
		ev.Kind = EventPactRejected
		return ev
	}

	e.reg.AddTreaty(&world.Treaty{
		Kind:       cmd.Treaty,
		FactionA:   proposer.ID,
		FactionB:   target.ID,
		StartTick:  tick,
		ExpireTick: tick + cmd.Treaty.Duration(),
	})
	e.reg.AdjustTrust(proposer.ID, target.ID, pactAcceptTrustGain)
	ev.Kind = EventPactAccepted
	e.logger.Info("treaty accepted",
		zap.Int("tick", tick),
		zap.String("kind", string(cmd.Treaty)),
		zap.String("proposer", proposer.ID),
		zap.String("target", target.ID),
	)
	return ev
}

// SupportBesiegedAllies grants +1 garrison to every besieged city whose
// controller holds an active mutual-defense treaty.
func (e *Engine) SupportBesiegedAllies(tick int) {
	for _, t := range e.reg.Treaties() {
		if t.Kind != world.TreatyMutualDefense || !t.Active(tick) {
			continue
		}
		e.supportParty(t.FactionA)
		e.supportParty(t.FactionB)
	}
}

func (e *Engine) supportParty(factionID string) {
	for _, city := range e.reg.ControlledCities(factionID) {
		if city.Besieged() {
			e.reg.AddGarrison(city.ID, 1)
		}
	}
}

// Demand resolves a tribute or withdrawal demand. The command is consumed
// whether it succeeds or not.
func (e *Engine) Demand(tick int, cmd command.Demand) Event {
	issuer, ok := e.reg.FactionOf(cmd.ActorID)
	target, tok := e.reg.Faction(cmd.TargetFactionID)
	if !ok || !tok || issuer.ID == target.ID {
		return Event{Kind: EventDemandRefused, ActorID: cmd.ActorID, FactionB: cmd.TargetFactionID}
	}
	ev := Event{ActorID: cmd.ActorID, FactionA: issuer.ID, FactionB: target.ID, CityID: cmd.CityID}

	leader, _ := e.reg.Character(issuer.LeaderID)
	chance := demandChance(cmd.Demand, e.reg.Prestige(issuer.LeaderID), e.reg.Exhaustion(target.ID), e.reg.Morale(target.ID), leader)

	if !dice.Chance(e.src, chance) {
		e.reg.AdjustTrust(issuer.ID, target.ID, demandRefuseTrustLoss)
		ev.Kind = EventDemandRefused
		return ev
	}

	switch cmd.Demand {
	case command.DemandTribute:
		e.payTribute(target.ID, issuer.ID)
	case command.DemandWithdrawal:
		e.withdrawFrom(cmd.CityID, target.ID)
	}
	e.reg.AdjustTrust(issuer.ID, target.ID, demandAcceptTrustLoss)
	e.reg.AdjustMorale(target.ID, -3)
	ev.Kind = EventDemandAccepted
	e.logger.Info("demand accepted",
		zap.Int("tick", tick),
		zap.String("demand", string(cmd.Demand)),
		zap.String("issuer", issuer.ID),
		zap.String("target", target.ID),
	)
	return ev
}

// demandChance combines issuer prestige and charm against target morale,
// tempered by the target's war exhaustion.
func demandChance(kind command.DemandKind, prestige, exhaustion, morale int, leader *world.Character) int {
	base := 20
	if kind == command.DemandWithdrawal {
		base = 15
	}
	chance := base + prestige*3 + exhaustion/2 - morale/4
	if leader != nil {
		chance += leader.Stats.Charm * 2
	}
	return clampChance(chance)
}

// payTribute moves a fixed sum from the target's capital to the issuer's.
// A capital short on gold pays what it has.
func (e *Engine) payTribute(fromFactionID, toFactionID string) {
	from, fok := e.reg.Capital(fromFactionID)
	to, tok := e.reg.Capital(toFactionID)
	if !fok || !tok {
		return
	}
	paid := tributeGold
	if from.Gold < paid {
		paid = from.Gold
	}
	e.reg.AddGold(from.ID, -paid)
	e.reg.AddGold(to.ID, paid)
}

// withdrawFrom sends the target faction's characters in the named city back
// to their capital.
func (e *Engine) withdrawFrom(cityID, factionID string) {
	capital, ok := e.reg.Capital(factionID)
	if !ok {
		return
	}
	for _, c := range e.reg.CharactersIn(cityID) {
		if c.FactionID == factionID {
			c.CityID = capital.ID
		}
	}
}

// SowDiscord resolves a bribe to break an alliance between two rivals. The
// bribe is spent from the actor's capital win or lose; a capital that cannot
// cover it drops the plot outright.
func (e *Engine) SowDiscord(tick int, cmd command.SowDiscord) Event {
	actor, aok := e.reg.Character(cmd.ActorID)
	faction, fok := e.reg.FactionOf(cmd.ActorID)
	ev := Event{ActorID: cmd.ActorID, FactionA: cmd.TargetFactionA, FactionB: cmd.TargetFactionB}
	if !aok || !fok || !e.reg.Allied(cmd.TargetFactionA, cmd.TargetFactionB) {
		ev.Kind = EventDiscordFailed
		return ev
	}
	capital, cok := e.reg.Capital(faction.ID)
	if !cok || capital.Gold < cmd.Bribe {
		ev.Kind = EventDiscordFailed
		return ev
	}
	e.reg.AddGold(capital.ID, -cmd.Bribe)

	trust := e.reg.Trust(cmd.TargetFactionA, cmd.TargetFactionB)
	chance := clampChance(10 + actor.Skills.Espionage*8 + cmd.Bribe/10 - trust/2)
	if dice.Chance(e.src, chance) {
		e.reg.SetAllied(cmd.TargetFactionA, cmd.TargetFactionB, false)
		e.reg.AdjustTrust(cmd.TargetFactionA, cmd.TargetFactionB, discordSuccessTrust)
		ev.Kind = EventDiscordSown
		e.logger.Info("alliance undermined",
			zap.Int("tick", tick),
			zap.String("actor", cmd.ActorID),
			zap.String("a", cmd.TargetFactionA),
			zap.String("b", cmd.TargetFactionB),
		)
		return ev
	}
	e.reg.AdjustTrust(faction.ID, cmd.TargetFactionA, discordBackfireTrust)
	e.reg.AdjustTrust(faction.ID, cmd.TargetFactionB, discordBackfireTrust)
	ev.Kind = EventDiscordFailed
	return ev
}

func clampChance(c int) int {
	if c < 5 {
		return 5
	}
	if c > 90 {
		return 90
	}
	return c
}
