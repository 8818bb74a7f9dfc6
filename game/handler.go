package game

import (
	"fmt"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BuildCost is the gold it takes to put up or upgrade a building
const BuildCost = 5

const recruitSpecialCharacterDice = 2

// DrawPool is where pieces are drawn from during play
type DrawPool interface {
	DrawTile(pool tile.Pool) (tile.Tile, error)
}

type emptyPool struct{}

func (emptyPool) DrawTile(tile.Pool) (tile.Tile, error) {
	return tile.Tile{}, tile.ErrNoMoreTiles
}

// HandlerOpts configures a CommandHandler. Every field is optional.
type HandlerOpts struct {
	Pool   DrawPool
	Bus    *Bus
	Roller dice.Roller
	Events *EventResolver
	Logger *zerolog.Logger
}

// CommandHandler is the single entry point for changing a game. Every
// command is validated before anything is touched, so a rejected
// command leaves the game exactly as it was. It is not safe for
// concurrent use; callers serialise commands.
type CommandHandler struct {
	state  *GameState
	pool   DrawPool
	bus    *Bus
	roller dice.Roller
	events *EventResolver
	log    zerolog.Logger
}

// NewCommandHandler constructs a CommandHandler for the game
func NewCommandHandler(state *GameState, opts HandlerOpts) (*CommandHandler, error) {
	h := &CommandHandler{
		state:  state,
		pool:   opts.Pool,
		bus:    opts.Bus,
		roller: opts.Roller,
		events: opts.Events,
		log:    log.Logger,
	}
	if opts.Logger != nil {
		h.log = *opts.Logger
	}
	h.log = h.log.With().Str("component", "handler").Logger()

	if h.pool == nil {
		h.pool = emptyPool{}
	}
	if h.bus == nil {
		h.bus = NewBus()
	}
	if h.events == nil {
		h.events = NewEventResolver()
	}
	if h.roller == nil {
		switch {
		case state.demo:
			h.roller = dice.DemoRoller{}
		case state.seed != 0:
			h.roller = dice.NewRandomRoller(state.seed)
		default:
			seed, err := dice.NewSeed()
			if err != nil {
				return nil, err
			}
			h.roller = dice.NewRandomRoller(seed)
		}
	}

	return h, nil
}

// State gives read access to the game
func (h *CommandHandler) State() *GameState {
	return h.state
}

// Bus is where the handler's notifications are published
func (h *CommandHandler) Bus() *Bus {
	return h.bus
}

// EndPlayerTurn finishes playerID's go in the current phase. During a
// retreat the retreating side uses it to waive the retreat instead.
func (h *CommandHandler) EndPlayerTurn(playerID int) error {
	if err := ValidateEndPlayerTurn(h.state, playerID); err != nil {
		return err
	}

	if h.state.combatPhase.IsRetreat() {
		h.log.Info().Int("player", playerID).Str("combat", h.state.combatPhase.String()).Msg("retreat waived")
		h.bus.Publish(Notification{Kind: RetreatWaived, PlayerID: playerID})
		h.advanceCombat()
		return nil
	}

	return h.advancePhasePlayer()
}

// RollDice rolls one die towards the roll matching reason, player and
// target. Entertainment rolls are always allowed. Desired is only used
// in demo games.
func (h *CommandHandler) RollDice(reason dice.Reason, playerID int, target *tile.Tile, desired int) (dice.RollSnapshot, error) {
	g := h.state
	if err := ValidateRollDice(g, reason, playerID, target, desired); err != nil {
		return dice.RollSnapshot{}, err
	}

	value, err := h.roller.Roll(desired)
	if err != nil {
		return dice.RollSnapshot{}, err
	}

	if reason == dice.Entertainment {
		r, err := dice.NewRoll(1, target, reason, playerID)
		if err != nil {
			return dice.RollSnapshot{}, err
		}
		g.rolls.Add(r)
	}

	roll, ok := g.rolls.FindOpen(reason, playerID, target)
	if !ok {
		// only a special character recruit can get here without an open roll
		roll, _, err = g.rolls.Require(reason, playerID, target, recruitSpecialCharacterDice)
		if err != nil {
			return dice.RollSnapshot{}, err
		}
	}
	if err := roll.AddBaseRoll(value); err != nil {
		return dice.RollSnapshot{}, err
	}

	snapshot := roll.Snapshot()
	h.log.Info().
		Int("player", playerID).
		Str("reason", reason.String()).
		Ints("rolls", snapshot.FinalRolls).
		Msg("die rolled")
	h.bus.Publish(Notification{Kind: DieRolled, PlayerID: playerID, Roll: &snapshot})

	if reason == dice.Entertainment {
		g.rolls.ConsumeFinishedFor(dice.Entertainment)
	}

	if !g.rolls.IsWaitingForRolls() {
		h.bus.Publish(Notification{Kind: DiceResolved, Rolls: g.rolls.Finished()})
	}

	return snapshot, nil
}

// MakeHexOwnedByPlayer gives the hex to playerID, taking it from
// whoever held it before. It does not check whose turn it is; players
// go through ClaimHex.
func (h *CommandHandler) MakeHexOwnedByPlayer(hex tile.Tile, playerID int) error {
	g := h.state
	if err := ValidateMakeHexOwned(g, hex, playerID); err != nil {
		return err
	}

	for _, id := range g.order {
		p := g.players[id]
		if p.ownsHex(hex.ID) {
			delete(p.ownedHexes, hex.ID)
			break
		}
	}
	g.players[playerID].ownedHexes[hex.ID] = struct{}{}

	c, _ := g.board.find(hex.ID)
	snapshot := g.hexSnapshot(c)
	h.log.Info().Int("player", playerID).Str("hex", c.String()).Msg("hex ownership changed")
	h.bus.Publish(Notification{Kind: HexOwnershipChanged, PlayerID: playerID, Hex: &snapshot})
	return nil
}

// ClaimHex gives the phase player a hex, as a setup pick or by
// being the only player left standing on it.
func (h *CommandHandler) ClaimHex(playerID int, at Coord) error {
	g := h.state
	if err := ValidateClaimHex(g, playerID, at); err != nil {
		return err
	}

	hex, _ := g.board.get(at)
	return h.MakeHexOwnedByPlayer(hex.hex, playerID)
}

// RequireRoll records that a player owes the game a roll
func (h *CommandHandler) RequireRoll(reason dice.Reason, playerID int, target *tile.Tile, numDice int) (dice.RollSnapshot, error) {
	if err := ValidateRequireRoll(h.state, reason, playerID, numDice); err != nil {
		return dice.RollSnapshot{}, err
	}

	roll, created, err := h.state.rolls.Require(reason, playerID, target, numDice)
	if err != nil {
		return dice.RollSnapshot{}, err
	}
	snapshot := roll.Snapshot()
	if created {
		h.bus.Publish(Notification{Kind: RollNeeded, PlayerID: playerID, Roll: &snapshot})
	}
	return snapshot, nil
}

// QueueRollModification adds delta to die index of an open roll, once
func (h *CommandHandler) QueueRollModification(reason dice.Reason, playerID int, target *tile.Tile, index, delta int) error {
	if err := ValidateQueueRollModification(h.state, reason, playerID, target, index, delta); err != nil {
		return err
	}
	return h.state.rolls.Modify(reason, playerID, target, index, delta)
}

// ConsumeFinishedRolls hands over every satisfied roll and forgets it
func (h *CommandHandler) ConsumeFinishedRolls() []dice.RollSnapshot {
	return h.state.rolls.ConsumeFinished()
}

// PlaceThing moves a piece from the player's tray onto a hex they own
func (h *CommandHandler) PlaceThing(playerID, thingID int, at Coord) error {
	g := h.state
	if err := ValidatePlaceThing(g, playerID, thingID, at); err != nil {
		return err
	}

	p := g.players[playerID]
	t, _ := p.takeFromTray(thingID)
	hex, _ := g.board.get(at)
	if err := hex.add(t); err != nil {
		p.tray = append(p.tray, t)
		return err
	}
	p.things[t.ID] = struct{}{}

	h.publishHex(at)
	h.publishPlayerState(p)
	return nil
}

// MoveThing walks a piece to another hex, paying the terrain's cost
// out of its movement allowance.
func (h *CommandHandler) MoveThing(playerID, thingID int, from, to Coord) error {
	g := h.state
	if err := ValidateMoveThing(g, playerID, thingID, from, to); err != nil {
		return err
	}

	src, _ := g.board.get(from)
	dst, _ := g.board.get(to)
	t, _ := src.remove(thingID)
	t.MoveSpeed -= dst.hex.Terrain.MoveCost()
	dst.things = append(dst.things, t)

	h.log.Debug().Int("player", playerID).Int("thing", thingID).
		Str("from", from.String()).Str("to", to.String()).Msg("thing moved")
	h.publishHex(from)
	h.publishHex(to)
	return nil
}

// ConstructBuilding puts up a tower on a hex the player owns, or
// upgrades the fortification already there by one step.
func (h *CommandHandler) ConstructBuilding(playerID int, at Coord) error {
	g := h.state
	if err := ValidateConstructBuilding(g, playerID, at); err != nil {
		return err
	}

	p := g.players[playerID]
	hex, _ := g.board.get(at)
	rank := 1
	if old, ok := hex.building(); ok {
		rank = tile.FortificationRank(old.Name) + 1
		hex.remove(old.ID)
		delete(p.things, old.ID)
	}
	building, _ := tile.NewFortification(g.nextThingID, rank)
	g.nextThingID++
	hex.things = append(hex.things, building)
	p.things[building.ID] = struct{}{}
	p.addGold(-BuildCost)
	g.constructedHexes[at] = struct{}{}

	h.log.Info().Int("player", playerID).Str("at", at.String()).Str("building", building.Name).Msg("building constructed")
	h.publishHex(at)
	h.publishPlayerState(p)
	return nil
}

// ReplaceHex exchanges a sea hex for one drawn from the hex
// pool. Whoever owned the old hex owns the new one.
func (h *CommandHandler) ReplaceHex(playerID int, at Coord) error {
	g := h.state
	if err := ValidateReplaceHex(g, playerID, at); err != nil {
		return err
	}

	hex, err := h.pool.DrawTile(tile.HexPool)
	if err != nil {
		h.log.Warn().Err(err).Int("player", playerID).Str("at", at.String()).Msg("no hex to exchange")
		return reject("ReplaceHex", "no hex left to draw: %s", err.Error())
	}
	if !hex.IsHex() {
		return fmt.Errorf("%w: drew %s from the hex pool", ErrInvalidConfiguration, hex)
	}
	if _, ok := g.board.find(hex.ID); ok {
		return fmt.Errorf("%w: drew %s, which is already on the board", ErrInvalidConfiguration, hex)
	}

	old, err := g.board.replaceHex(at, hex)
	if err != nil {
		return err
	}
	for _, p := range g.players {
		if p.ownsHex(old.ID) {
			delete(p.ownedHexes, old.ID)
			p.ownedHexes[hex.ID] = struct{}{}
		}
	}

	h.publishHex(at)
	return nil
}

// StartCombat begins a battle at a contested hex. The hex's owner
// defends if they have pieces there, otherwise the first other player
// in order with pieces there does.
func (h *CommandHandler) StartCombat(playerID int, at Coord) error {
	g := h.state
	if err := ValidateStartCombat(g, playerID, at); err != nil {
		return err
	}

	owners := g.ownersAt(at)
	hex, _ := g.board.get(at)
	defender := g.ownerOfHex(hex.hex.ID)
	if _, ok := owners[defender]; !ok || defender == playerID {
		defender = 0
		for _, id := range g.order {
			if _, ok := owners[id]; ok && id != playerID {
				defender = id
				break
			}
		}
	}

	loc := at
	g.combatLocation = &loc
	g.defender = defender
	g.combatPhase = DetermineDefenders
	target := hex.hex
	g.players[playerID].target = &target

	h.log.Info().Int("attacker", playerID).Int("defender", defender).Str("at", at.String()).Msg("battle started")
	phase := g.phaseSnapshot()
	h.bus.Publish(Notification{Kind: PhaseChanged, Phase: &phase})
	return nil
}

// AdvanceCombat moves the current battle on to its next step
func (h *CommandHandler) AdvanceCombat(playerID int) error {
	if err := ValidateAdvanceCombat(h.state, playerID); err != nil {
		return err
	}
	h.advanceCombat()
	return nil
}

// AddHits gives a player hits they must take on pieces in the battle
func (h *CommandHandler) AddHits(playerID, hits int) error {
	g := h.state
	if err := ValidateAddHits(g, playerID, hits); err != nil {
		return err
	}

	g.hitsPending[playerID] += hits
	h.bus.Publish(Notification{Kind: HitsChanged, PlayerID: playerID, Hits: g.hitsPending[playerID]})
	return nil
}

// ApplyHit takes one pending hit on one of the player's pieces in the
// battle, removing it from the board.
func (h *CommandHandler) ApplyHit(playerID, thingID int) error {
	g := h.state
	if err := ValidateApplyHit(g, playerID, thingID); err != nil {
		return err
	}

	at := *g.combatLocation
	hex, _ := g.board.get(at)
	hex.remove(thingID)
	delete(g.players[playerID].things, thingID)
	g.hitsPending[playerID]--

	h.publishHex(at)
	h.bus.Publish(Notification{Kind: HitsChanged, PlayerID: playerID, Hits: g.hitsPending[playerID]})
	return nil
}

// ApplyRandomEvent plays an event from the player's tray, aimed at the
// hex or piece with id targetID when there is one. A failing effect is
// logged and changes nothing, but the event is still spent.
func (h *CommandHandler) ApplyRandomEvent(playerID, eventID int, targetID *int) error {
	g := h.state
	if err := ValidateApplyRandomEvent(g, playerID, eventID, targetID); err != nil {
		return err
	}

	p := g.players[playerID]
	event, _ := p.takeFromTray(eventID)
	var target *tile.Tile
	if targetID != nil {
		t, _ := g.tileInPlay(*targetID)
		kept := t
		target = &t
		p.target = &kept
	}

	n := Notification{Kind: EventResolved, PlayerID: playerID, Tiles: []tile.Tile{event}}

	staged, err := h.events.resolve(g, event, target)
	if err != nil {
		h.log.Error().Err(err).Int("player", playerID).Str("event", event.Name).Msg("random event not applied")
		n.Error = err.Error()
		h.bus.Publish(n)
		h.publishPlayerState(p)
		return nil
	}

	for _, apply := range staged {
		apply(g)
	}
	h.log.Info().Int("player", playerID).Str("event", event.Name).Int("changes", len(staged)).Msg("random event applied")
	h.bus.Publish(n)
	h.publishPlayerState(p)
	return nil
}
