package game

import (
	"errors"
	"fmt"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
)

var (
	ErrUnknownEvent     = errors.New("no effect registered for event")
	ErrEffectUnresolved = errors.New("event has no rules yet")
	ErrEffectPanicked   = errors.New("event effect panicked")
)

// Names of the random events found in the cup
const (
	DarkPlague      = "Dark Plague"
	Defection       = "Defection"
	GoodHarvest     = "Good Harvest"
	MotherLode      = "Mother Lode"
	TeeniePox       = "Teenie Pox"
	TerrainDisaster = "Terrain Disaster"
	Vandalism       = "Vandalism"
	WeatherControl  = "Weather Control"
	WillingWorkers  = "Willing Workers"
	BigJuju         = "Big Juju"
)

// Effect works out what an event does to the game. It reads the game
// through ctx.State and records changes on ctx; nothing is applied
// unless it returns nil.
type Effect func(ctx *EventContext, event tile.Tile, target *tile.Tile) error

// EventContext collects the changes an Effect wants to make
type EventContext struct {
	state  *GameState
	staged []func(*GameState)
}

// State is the game as it was before the event
func (c *EventContext) State() *GameState {
	return c.state
}

// RequireThingsRemoved marks that n pieces must be removed from the hex
func (c *EventContext) RequireThingsRemoved(at Coord, n int) error {
	if _, ok := c.state.board.get(at); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHex, at)
	}
	c.staged = append(c.staged, func(g *GameState) {
		g.thingsToRemove[at] = n
	})
	return nil
}

// AdjustGold changes a player's gold, never below zero
func (c *EventContext) AdjustGold(playerID, delta int) error {
	if _, ok := c.state.players[playerID]; !ok {
		return fmt.Errorf("unknown player %d", playerID)
	}
	c.staged = append(c.staged, func(g *GameState) {
		g.players[playerID].addGold(delta)
	})
	return nil
}

// AddHits gives a player hits to apply to their pieces
func (c *EventContext) AddHits(playerID, hits int) error {
	if _, ok := c.state.players[playerID]; !ok {
		return fmt.Errorf("unknown player %d", playerID)
	}
	c.staged = append(c.staged, func(g *GameState) {
		g.hitsPending[playerID] += hits
	})
	return nil
}

// RequireRoll asks a player to roll dice for the event
func (c *EventContext) RequireRoll(playerID int, target *tile.Tile, numDice int) error {
	if _, ok := c.state.players[playerID]; !ok {
		return fmt.Errorf("unknown player %d", playerID)
	}
	if numDice < 1 {
		return dice.ErrInvalidDiceCount
	}
	c.staged = append(c.staged, func(g *GameState) {
		_, _, _ = g.rolls.Require(dice.RandomEvent, playerID, target, numDice)
	})
	return nil
}

// EventResolver maps event names to their effects
type EventResolver struct {
	effects map[string]Effect
}

// NewEventResolver returns a resolver knowing every event in the cup.
// Only Dark Plague has rules; the rest report ErrEffectUnresolved
// until an effect is registered for them.
func NewEventResolver() *EventResolver {
	r := &EventResolver{effects: map[string]Effect{}}
	r.Register(DarkPlague, darkPlague)
	for _, name := range []string{
		Defection, GoodHarvest, MotherLode, TeeniePox, TerrainDisaster,
		Vandalism, WeatherControl, WillingWorkers, BigJuju,
	} {
		r.Register(name, unresolved)
	}
	return r
}

// Register sets the effect for an event, replacing any existing one
func (r *EventResolver) Register(name string, effect Effect) {
	r.effects[name] = effect
}

// Known reports whether an effect is registered for the event
func (r *EventResolver) Known(name string) bool {
	_, ok := r.effects[name]
	return ok
}

// resolve runs the event's effect and returns its staged changes. A
// failing or panicking effect returns an error and no changes.
func (r *EventResolver) resolve(g *GameState, event tile.Tile, target *tile.Tile) (staged []func(*GameState), err error) {
	effect, ok := r.effects[event.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			staged = nil
			err = fmt.Errorf("%w: %s: %v", ErrEffectPanicked, event.Name, rec)
		}
	}()

	ctx := &EventContext{state: g}
	if err := effect(ctx, event, target); err != nil {
		return nil, fmt.Errorf("%s: %w", event.Name, err)
	}
	return ctx.staged, nil
}

func unresolved(_ *EventContext, event tile.Tile, _ *tile.Tile) error {
	return ErrEffectUnresolved
}

// darkPlague makes every player lose pieces equal to the combat value
// of their forts, cities and villages in each hex they own.
func darkPlague(ctx *EventContext, _ tile.Tile, _ *tile.Tile) error {
	g := ctx.State()
	for _, hex := range g.Hexes() {
		if hex.OwnerID == 0 {
			continue
		}
		sum := 0
		for _, t := range hex.Things {
			if t.IsBuilding() && g.ThingOwner(t.ID) == hex.OwnerID {
				sum += t.Value
			}
		}
		if sum == 0 {
			continue
		}
		if err := ctx.RequireThingsRemoved(hex.Coord, sum); err != nil {
			return err
		}
	}
	return nil
}
