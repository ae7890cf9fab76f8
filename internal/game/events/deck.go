package events

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dynasty/internal/game/dice"
)

// Deck owns one sandboxed LState per event card and draws cards by weight.
// Cards are Lua files declaring a card_id string, an optional numeric
// weight, and an apply(tick) function that mutates the world through the
// dynasty.* module.
//
// Deck is safe for concurrent Draw/Apply after LoadDir completes.
type Deck struct {
	mu        sync.RWMutex
	states    map[string]*lua.LState
	cancels   map[string]func()
	cards     []Card
	instLimit int
	logger    *zap.Logger

	// Injected after construction. nil = no-op in dynasty.* modules.
	AdjustMorale func(factionID string, delta int)
	AddGold      func(cityID string, delta int)
	AddFood      func(cityID string, delta int)
	AddGarrison  func(cityID string, delta int)
	AdjustTrust  func(a, b string, delta int)
}

// Card identifies one loaded event card.
type Card struct {
	ID     string
	Weight int
}

// NewDeck creates an empty Deck.
//
// Precondition: logger must be non-nil.
func NewDeck(instLimit int, logger *zap.Logger) *Deck {
	return &Deck{
		states:    make(map[string]*lua.LState),
		cancels:   make(map[string]func()),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadDir loads every *.lua file in dir as one card, in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: every loaded card has a unique card_id and an apply function.
func (d *Deck) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("events: reading card dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, path := range files {
		if err := d.loadCard(path); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deck) loadCard(path string) error {
	L, cancel := newSandboxedState(d.instLimit)
	d.registerModules(L)

	if err := L.DoFile(path); err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("events: loading card %q: %w", path, err)
	}

	id := lua.LVAsString(L.GetGlobal("card_id"))
	if id == "" {
		cancel()
		L.Close()
		return fmt.Errorf("events: card %q declares no card_id", path)
	}
	if L.GetGlobal("apply") == lua.LNil {
		cancel()
		L.Close()
		return fmt.Errorf("events: card %q declares no apply function", path)
	}
	weight := int(lua.LVAsNumber(L.GetGlobal("weight")))
	if weight <= 0 {
		weight = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.states[id]; dup {
		cancel()
		L.Close()
		return fmt.Errorf("events: duplicate card id %q in %q", id, path)
	}
	d.states[id] = L
	d.cancels[id] = cancel
	d.cards = append(d.cards, Card{ID: id, Weight: weight})
	return nil
}

// Cards returns the loaded cards in load order.
func (d *Deck) Cards() []Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Card(nil), d.cards...)
}

// Draw picks one card by weight. ok is false for an empty deck.
func (d *Deck) Draw(src dice.Source) (Card, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, c := range d.cards {
		total += c.Weight
	}
	if total == 0 {
		return Card{}, false
	}
	roll := src.Intn(total)
	for _, c := range d.cards {
		roll -= c.Weight
		if roll < 0 {
			return c, true
		}
	}
	return d.cards[len(d.cards)-1], true
}

// Apply runs the card's apply(tick) function. The instruction budget is
// re-armed per call so long-lived decks keep working. Lua runtime errors are
// logged at Warn level and never propagated.
func (d *Deck) Apply(cardID string, tick int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	L, ok := d.states[cardID]
	if !ok {
		return fmt.Errorf("events: unknown card %q", cardID)
	}

	if cancel := d.cancels[cardID]; cancel != nil {
		cancel()
	}
	limit := d.instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := newCountingContext(limit)
	L.SetContext(ctx)
	d.cancels[cardID] = cancel

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("apply"),
		NRet:    0,
		Protect: true,
	}, lua.LNumber(tick)); err != nil {
		d.logger.Warn("events: card runtime error",
			zap.String("card", cardID),
			zap.Error(err),
		)
	}
	return nil
}

// Close releases every card VM.
func (d *Deck) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, L := range d.states {
		if cancel := d.cancels[id]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	d.states = make(map[string]*lua.LState)
	d.cancels = make(map[string]func())
	d.cards = nil
}

// registerModules installs the dynasty.* table backed by the Deck's injected
// callbacks. Unset callbacks make the corresponding function a no-op.
func (d *Deck) registerModules(L *lua.LState) {
	mod := L.NewTable()

	L.SetField(mod, "adjust_morale", L.NewFunction(func(ls *lua.LState) int {
		if d.AdjustMorale != nil {
			d.AdjustMorale(ls.CheckString(1), ls.CheckInt(2))
		}
		return 0
	}))
	L.SetField(mod, "add_gold", L.NewFunction(func(ls *lua.LState) int {
		if d.AddGold != nil {
			d.AddGold(ls.CheckString(1), ls.CheckInt(2))
		}
		return 0
	}))
	L.SetField(mod, "add_food", L.NewFunction(func(ls *lua.LState) int {
		if d.AddFood != nil {
			d.AddFood(ls.CheckString(1), ls.CheckInt(2))
		}
		return 0
	}))
	L.SetField(mod, "add_garrison", L.NewFunction(func(ls *lua.LState) int {
		if d.AddGarrison != nil {
			d.AddGarrison(ls.CheckString(1), ls.CheckInt(2))
		}
		return 0
	}))
	L.SetField(mod, "adjust_trust", L.NewFunction(func(ls *lua.LState) int {
		if d.AdjustTrust != nil {
			d.AdjustTrust(ls.CheckString(1), ls.CheckString(2), ls.CheckInt(3))
		}
		return 0
	}))
	L.SetField(mod, "log", L.NewFunction(func(ls *lua.LState) int {
		d.logger.Info("events: card log", zap.String("message", ls.CheckString(1)))
		return 0
	}))

	L.SetGlobal("dynasty", mod)
}
