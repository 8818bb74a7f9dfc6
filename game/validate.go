package game

import (
	"errors"
	"fmt"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
)

var (
	// ErrPrecondition is matched by every rejected command
	ErrPrecondition = errors.New("precondition failed")
	// ErrInvalidConfiguration means the state machine can no longer be trusted
	ErrInvalidConfiguration = errors.New("invalid game configuration")
)

// PreconditionError explains why a command was rejected. State is
// never changed by a rejected command.
type PreconditionError struct {
	Command string
	Reason  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Command, e.Reason)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func reject(cmd, format string, args ...interface{}) error {
	return &PreconditionError{Command: cmd, Reason: fmt.Sprintf(format, args...)}
}

func requirePlayer(cmd string, g *GameState, playerID int) (*Player, error) {
	p, ok := g.players[playerID]
	if !ok {
		return nil, reject(cmd, "unknown player %d", playerID)
	}
	return p, nil
}

func requirePhasePlayer(cmd string, g *GameState, playerID int) (*Player, error) {
	p, err := requirePlayer(cmd, g, playerID)
	if err != nil {
		return nil, err
	}
	if !p.active {
		return nil, reject(cmd, "it is not player %d's turn to act", playerID)
	}
	return p, nil
}

func requireRegularPhase(cmd string, g *GameState, want RegularPhase) error {
	if g.InSetup() {
		return reject(cmd, "game is still in setup (%s)", g.setupPhase)
	}
	if g.regularPhase != want {
		return reject(cmd, "not allowed during %s", g.regularPhase)
	}
	return nil
}

// ValidateEndPlayerTurn checks that playerID may finish acting in the
// current phase. During a retreat step only the side retreating may
// end it: the attacker for their three steps, the defender for theirs.
func ValidateEndPlayerTurn(g *GameState, playerID int) error {
	const cmd = "EndPlayerTurn"

	p, err := requirePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	switch {
	case g.combatPhase == DefenderRetreat:
		if playerID != g.defender {
			return reject(cmd, "only the defender decides on the %s", g.combatPhase)
		}
	case g.combatPhase.IsRetreat():
		if !p.active {
			return reject(cmd, "only the attacker decides on the %s", g.combatPhase)
		}
	case !p.active:
		return reject(cmd, "it is not player %d's turn to act", playerID)
	}
	if g.rolls.AwaitingPlayer(playerID) {
		return reject(cmd, "player %d still has dice to roll", playerID)
	}
	if g.combatPhase == ApplyHits && g.hitsPending[playerID] > 0 {
		return reject(cmd, "player %d has %d hits to apply", playerID, g.hitsPending[playerID])
	}
	return nil
}

// ValidateRollDice checks that a die may be rolled for the request
func ValidateRollDice(g *GameState, reason dice.Reason, playerID int, target *tile.Tile, desired int) error {
	const cmd = "RollDice"

	p, err := requirePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if g.demo && (desired < 1 || desired > dice.Sides) {
		return reject(cmd, "demo die value %d is not on a die", desired)
	}
	if reason == dice.Entertainment {
		return nil
	}
	if _, ok := g.rolls.FindOpen(reason, playerID, target); ok {
		return nil
	}
	if reason == dice.RecruitSpecialCharacter && p.active &&
		!g.InSetup() && g.regularPhase == RecruitingCharacters {
		return nil
	}
	return reject(cmd, "no %s roll is awaited from player %d", reason, playerID)
}

// ValidateMakeHexOwned checks that the hex is on the board and the
// player exists.
func ValidateMakeHexOwned(g *GameState, hex tile.Tile, playerID int) error {
	const cmd = "MakeHexOwnedByPlayer"

	if _, err := requirePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if !hex.IsHex() {
		return reject(cmd, "%s is not a hex", hex)
	}
	if _, ok := g.board.find(hex.ID); !ok {
		return reject(cmd, "%s is not on the board", hex)
	}
	return nil
}

// hexPicks is how many hexes a player may hold by the end of each
// hex-picking setup phase
var hexPicks = map[SetupPhase]int{
	PickFirstHex:  1,
	PickSecondHex: 2,
	PickThirdHex:  3,
}

// ValidateClaimHex checks that the phase player may take a hex.
// During setup a player picks one free hex per picking phase. Once
// play starts a hex is taken by being the only player with pieces on
// it outside of a battle.
func ValidateClaimHex(g *GameState, playerID int, at Coord) error {
	const cmd = "ClaimHex"

	p, err := requirePhasePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	h, ok := g.board.get(at)
	if !ok {
		return reject(cmd, "no hex at %s", at)
	}
	if p.ownsHex(h.hex.ID) {
		return reject(cmd, "player %d already owns the hex at %s", playerID, at)
	}

	if g.InSetup() {
		limit, ok := hexPicks[g.setupPhase]
		if !ok {
			return reject(cmd, "hexes are not picked during %s", g.setupPhase)
		}
		if owner := g.ownerOfHex(h.hex.ID); owner != 0 {
			return reject(cmd, "the hex at %s belongs to player %d", at, owner)
		}
		if len(p.ownedHexes) >= limit {
			return reject(cmd, "player %d has already picked a hex this phase", playerID)
		}
		return nil
	}

	if g.regularPhase != Movement && g.regularPhase != Combat {
		return reject(cmd, "not allowed during %s", g.regularPhase)
	}
	if g.combatPhase != NoCombat {
		return reject(cmd, "cannot take hexes during a battle")
	}
	owners := g.ownersAt(at)
	if _, ok := owners[playerID]; !ok {
		return reject(cmd, "player %d has nothing at %s", playerID, at)
	}
	if len(owners) > 1 {
		return reject(cmd, "hex at %s is contested", at)
	}
	return nil
}

// ValidateRequireRoll checks a request for a new roll
func ValidateRequireRoll(g *GameState, reason dice.Reason, playerID int, numDice int) error {
	const cmd = "RequireRoll"

	if _, err := requirePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if reason == dice.NoReason {
		return reject(cmd, "a roll needs a reason")
	}
	if numDice < 1 {
		return reject(cmd, "a roll needs at least one die, got %d", numDice)
	}
	return nil
}

// MaxRollModifier bounds a single modifier either way
const MaxRollModifier = dice.Sides - 1

// ValidateQueueRollModification checks that an open roll can take the modifier
func ValidateQueueRollModification(g *GameState, reason dice.Reason, playerID int, target *tile.Tile, index, delta int) error {
	const cmd = "QueueRollModification"

	if _, err := requirePlayer(cmd, g, playerID); err != nil {
		return err
	}
	r, ok := g.rolls.FindOpen(reason, playerID, target)
	if !ok {
		return reject(cmd, "no open %s roll for player %d", reason, playerID)
	}
	if index < 0 || index >= r.Snapshot().Required {
		return reject(cmd, "roll index %d out of range", index)
	}
	if delta == 0 || delta > MaxRollModifier || delta < -MaxRollModifier {
		return reject(cmd, "modifier %d is not between -%d and %d", delta, MaxRollModifier, MaxRollModifier)
	}
	return nil
}

// ValidatePlaceThing checks moving a piece from a player's tray onto
// one of their hexes.
func ValidatePlaceThing(g *GameState, playerID, thingID int, at Coord) error {
	const cmd = "PlaceThing"

	p, err := requirePhasePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if g.combatPhase != NoCombat {
		return reject(cmd, "cannot place pieces during combat")
	}
	i := p.trayIndex(thingID)
	if i < 0 {
		return reject(cmd, "thing %d is not in player %d's tray", thingID, playerID)
	}
	h, ok := g.board.get(at)
	if !ok {
		return reject(cmd, "no hex at %s", at)
	}
	if !p.ownsHex(h.hex.ID) {
		return reject(cmd, "player %d does not own the hex at %s", playerID, at)
	}
	if err := h.canAdd(p.tray[i]); err != nil {
		return reject(cmd, "%s", err.Error())
	}
	return nil
}

// ValidateMoveThing checks a movement-phase move between two hexes
func ValidateMoveThing(g *GameState, playerID, thingID int, from, to Coord) error {
	const cmd = "MoveThing"

	p, err := requirePhasePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if err := requireRegularPhase(cmd, g, Movement); err != nil {
		return err
	}
	src, ok := g.board.get(from)
	if !ok {
		return reject(cmd, "no hex at %s", from)
	}
	dst, ok := g.board.get(to)
	if !ok {
		return reject(cmd, "no hex at %s", to)
	}
	if from == to {
		return reject(cmd, "thing %d is already at %s", thingID, to)
	}
	t, ok := src.thing(thingID)
	if !ok {
		return reject(cmd, "thing %d is not at %s", thingID, from)
	}
	if !p.ownsThing(thingID) {
		return reject(cmd, "player %d does not own thing %d", playerID, thingID)
	}
	if !t.CanMove() {
		return reject(cmd, "%s cannot move", *t)
	}
	if cost := dst.hex.Terrain.MoveCost(); cost > t.MoveSpeed {
		return reject(cmd, "%s has %d movement left, %s costs %d", *t, t.MoveSpeed, dst.hex.Terrain, cost)
	}
	return nil
}

// ValidateConstructBuilding checks a construction-phase build. A hex
// with no building gets a tower; any other fortification the player
// holds there is upgraded one step.
func ValidateConstructBuilding(g *GameState, playerID int, at Coord) error {
	const cmd = "ConstructBuilding"

	p, err := requirePhasePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if err := requireRegularPhase(cmd, g, Construction); err != nil {
		return err
	}
	h, ok := g.board.get(at)
	if !ok {
		return reject(cmd, "no hex at %s", at)
	}
	if !p.ownsHex(h.hex.ID) {
		return reject(cmd, "player %d does not own the hex at %s", playerID, at)
	}
	if old, ok := h.building(); ok {
		if !p.ownsThing(old.ID) {
			return reject(cmd, "%s at %s belongs to another player", old, at)
		}
		rank := tile.FortificationRank(old.Name)
		if rank == 0 {
			return reject(cmd, "%s at %s cannot be upgraded", old, at)
		}
		if rank == len(tile.Fortifications) {
			return reject(cmd, "%s at %s is already the strongest building", old, at)
		}
	}
	if _, built := g.constructedHexes[at]; built {
		return reject(cmd, "already built at %s this phase", at)
	}
	if p.gold < BuildCost {
		return reject(cmd, "player %d has %d gold, building costs %d", playerID, p.gold, BuildCost)
	}
	return nil
}

// ValidateReplaceHex checks that the sea hex at c can be exchanged for
// one drawn from the hex pool
func ValidateReplaceHex(g *GameState, playerID int, at Coord) error {
	const cmd = "ReplaceHex"

	if _, err := requirePhasePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if g.board.finalized {
		return reject(cmd, "%s", ErrBoardFinalized.Error())
	}
	if !g.InSetup() || g.setupPhase != ExchangeSeaHexes {
		return reject(cmd, "hexes are only exchanged during %s", ExchangeSeaHexes)
	}
	h, ok := g.board.get(at)
	if !ok {
		return reject(cmd, "no hex at %s", at)
	}
	if h.hex.Terrain != tile.Sea {
		return reject(cmd, "%s is not a sea hex", h.hex)
	}
	return nil
}

// ValidateStartCombat checks that a battle can begin at the hex
func ValidateStartCombat(g *GameState, playerID int, at Coord) error {
	const cmd = "StartCombat"

	if _, err := requirePhasePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if err := requireRegularPhase(cmd, g, Combat); err != nil {
		return err
	}
	if g.combatPhase != NoCombat {
		return reject(cmd, "a battle is already being fought at %s", *g.combatLocation)
	}
	owners := g.ownersAt(at)
	if len(owners) < 2 {
		return reject(cmd, "hex at %s is not contested", at)
	}
	if _, ok := owners[playerID]; !ok {
		return reject(cmd, "player %d has nothing at %s", playerID, at)
	}
	return nil
}

// ValidateAdvanceCombat checks that the battle can move on a step
func ValidateAdvanceCombat(g *GameState, playerID int) error {
	const cmd = "AdvanceCombat"

	if _, err := requirePhasePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if g.combatPhase == NoCombat {
		return reject(cmd, "no battle in progress")
	}
	if g.rolls.IsWaitingForRolls() {
		return reject(cmd, "dice are still being rolled")
	}
	if g.combatPhase == ApplyHits {
		for id, hits := range g.hitsPending {
			if hits > 0 {
				return reject(cmd, "player %d has %d hits to apply", id, hits)
			}
		}
	}
	return nil
}

// ValidateAddHits checks hits scored against a player in battle
func ValidateAddHits(g *GameState, playerID, hits int) error {
	const cmd = "AddHits"

	if _, err := requirePlayer(cmd, g, playerID); err != nil {
		return err
	}
	if g.combatPhase == NoCombat {
		return reject(cmd, "no battle in progress")
	}
	if _, ok := g.ownersAt(*g.combatLocation)[playerID]; !ok {
		return reject(cmd, "player %d has nothing in the battle at %s", playerID, *g.combatLocation)
	}
	if hits < 1 {
		return reject(cmd, "hits must be positive, got %d", hits)
	}
	return nil
}

// ValidateApplyHit checks that a player can take a hit on one of their pieces
func ValidateApplyHit(g *GameState, playerID, thingID int) error {
	const cmd = "ApplyHit"

	p, err := requirePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if g.combatPhase != ApplyHits {
		return reject(cmd, "not allowed during %s", g.combatPhase)
	}
	if g.hitsPending[playerID] < 1 {
		return reject(cmd, "player %d has no hits to apply", playerID)
	}
	if !p.ownsThing(thingID) {
		return reject(cmd, "player %d does not own thing %d", playerID, thingID)
	}
	h, _ := g.board.get(*g.combatLocation)
	if _, ok := h.thing(thingID); !ok {
		return reject(cmd, "thing %d is not in the battle at %s", thingID, *g.combatLocation)
	}
	return nil
}

// ValidateApplyRandomEvent checks that the player holds the event and
// that its target, if any, is in play
func ValidateApplyRandomEvent(g *GameState, playerID, eventID int, targetID *int) error {
	const cmd = "ApplyRandomEvent"

	p, err := requirePhasePlayer(cmd, g, playerID)
	if err != nil {
		return err
	}
	if err := requireRegularPhase(cmd, g, RandomEvents); err != nil {
		return err
	}
	i := p.trayIndex(eventID)
	if i < 0 {
		return reject(cmd, "player %d does not hold tile %d", playerID, eventID)
	}
	if event := p.tray[i]; event.Kind != tile.Event {
		return reject(cmd, "%s is not an event", event)
	}
	if targetID != nil {
		if _, ok := g.tileInPlay(*targetID); !ok {
			return reject(cmd, "target %d is not on the board", *targetID)
		}
	}
	return nil
}
