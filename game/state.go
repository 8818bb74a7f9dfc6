// Package game holds the authoritative state of one game session and
// the only code allowed to change it.
package game

import (
	"fmt"
	"sort"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
)

const (
	minPlayers = 2
	maxPlayers = 4
)

// GameState is the root of a game. Outside this package it is read
// only; CommandHandler is the single writer.
type GameState struct {
	board        *Board
	players      map[int]*Player
	order        []int
	setupPhase   SetupPhase
	regularPhase RegularPhase
	combatPhase  CombatPhase
	turnPlayer   int

	defender       int
	combatLocation *Coord

	rolls            *dice.Arbiter
	hitsPending      map[int]int
	constructedHexes map[Coord]struct{}
	thingsToRemove   map[Coord]int

	// pieces made during play are numbered after everything in the setup
	nextThingID int

	demo bool
	seed int64
}

// NewGameState validates a startup payload and builds the game from it
func NewGameState(s Setup) (*GameState, error) {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}

	if len(s.Players) < minPlayers || len(s.Players) > maxPlayers {
		return nil, invalid("%d players, need %d to %d", len(s.Players), minPlayers, maxPlayers)
	}
	if !s.SetupPhase.Valid() || !s.RegularPhase.Valid() || !s.CombatPhase.Valid() {
		return nil, invalid("unknown phase ordinal")
	}

	g := &GameState{
		board:            newBoard(),
		players:          map[int]*Player{},
		setupPhase:       s.SetupPhase,
		regularPhase:     s.RegularPhase,
		combatPhase:      s.CombatPhase,
		rolls:            dice.NewArbiter(),
		hitsPending:      map[int]int{},
		constructedHexes: map[Coord]struct{}{},
		thingsToRemove:   map[Coord]int{},
		nextThingID:      s.highestID() + 1,
		demo:             s.Demo,
		seed:             s.Seed,
	}

	for _, ps := range s.Players {
		if ps.ID < 1 {
			return nil, invalid("player ids must be positive, got %d", ps.ID)
		}
		if _, ok := g.players[ps.ID]; ok {
			return nil, invalid("duplicate player %d", ps.ID)
		}
		if ps.Gold < 0 {
			return nil, invalid("player %d starts with negative gold", ps.ID)
		}
		p := newPlayer(ps.ID, ps.Name, ps.Gold)
		p.tray = append(p.tray, ps.Tray...)
		g.players[ps.ID] = p
		g.hitsPending[ps.ID] = 0
	}

	order := s.PlayerOrder
	if len(order) == 0 {
		for _, ps := range s.Players {
			order = append(order, ps.ID)
		}
	}
	if len(order) != len(g.players) {
		return nil, invalid("player order has %d entries for %d players", len(order), len(g.players))
	}
	seen := map[int]bool{}
	for _, id := range order {
		if _, ok := g.players[id]; !ok || seen[id] {
			return nil, invalid("player order %v is not a permutation of the players", order)
		}
		seen[id] = true
	}
	g.order = append([]int{}, order...)

	g.turnPlayer = s.TurnPlayer
	if g.turnPlayer == 0 {
		g.turnPlayer = g.order[0]
	}
	if _, ok := g.players[g.turnPlayer]; !ok {
		return nil, invalid("turn player %d is not playing", g.turnPlayer)
	}
	active := s.ActivePlayer
	if active == 0 {
		active = g.turnPlayer
	}
	p, ok := g.players[active]
	if !ok {
		return nil, invalid("active player %d is not playing", active)
	}
	p.active = true

	hexIDs := map[int]bool{}
	for _, hp := range s.Board {
		if err := g.board.place(hp.At, hp.Hex, hp.FaceUp); err != nil {
			return nil, invalid("%s", err.Error())
		}
		if hexIDs[hp.Hex.ID] {
			return nil, invalid("hex %d placed twice", hp.Hex.ID)
		}
		hexIDs[hp.Hex.ID] = true
		if hp.Owner != 0 {
			owner, ok := g.players[hp.Owner]
			if !ok {
				return nil, invalid("hex %s owned by unknown player %d", hp.At, hp.Owner)
			}
			owner.ownedHexes[hp.Hex.ID] = struct{}{}
		}
		h, _ := g.board.get(hp.At)
		for _, pt := range hp.Things {
			owner, ok := g.players[pt.Owner]
			if !ok {
				return nil, invalid("%s at %s owned by unknown player %d", pt.Tile, hp.At, pt.Owner)
			}
			if _, taken := g.board.findThing(pt.ID); taken {
				return nil, invalid("thing %d placed twice", pt.ID)
			}
			if err := h.add(pt.Tile); err != nil {
				return nil, invalid("%s at %s: %s", pt.Tile, hp.At, err.Error())
			}
			owner.things[pt.ID] = struct{}{}
		}
	}

	for _, hex := range s.Hexes {
		if !hex.IsHex() {
			return nil, invalid("%s in the hex pool is not a hex", hex)
		}
		if hexIDs[hex.ID] {
			return nil, invalid("hex %d is both on the board and in the hex pool", hex.ID)
		}
		hexIDs[hex.ID] = true
	}

	if g.combatPhase != NoCombat {
		if s.CombatLocation == nil {
			return nil, invalid("combat phase %s without a combat location", g.combatPhase)
		}
		if _, ok := g.board.get(*s.CombatLocation); !ok {
			return nil, invalid("combat location %s is not on the board", *s.CombatLocation)
		}
		loc := *s.CombatLocation
		g.combatLocation = &loc
		if _, ok := g.players[s.Defender]; s.Defender != 0 && !ok {
			return nil, invalid("defender %d is not playing", s.Defender)
		}
		g.defender = s.Defender
	}

	if !g.InSetup() {
		g.board.finalize()
	}

	return g, nil
}

// ownerOfHex returns the id of the player owning the hex, or zero
func (g *GameState) ownerOfHex(hexID int) int {
	for _, id := range g.order {
		if g.players[id].ownsHex(hexID) {
			return id
		}
	}
	return 0
}

// ownerOfThing returns the id of the player owning a piece on the board, or zero
func (g *GameState) ownerOfThing(thingID int) int {
	for _, id := range g.order {
		if g.players[id].ownsThing(thingID) {
			return id
		}
	}
	return 0
}

// tileInPlay finds a hex or piece on the board by id
func (g *GameState) tileInPlay(id int) (tile.Tile, bool) {
	if c, ok := g.board.find(id); ok {
		return g.board.hexes[c].hex, true
	}
	if c, ok := g.board.findThing(id); ok {
		t, _ := g.board.hexes[c].thing(id)
		return *t, true
	}
	return tile.Tile{}, false
}

// ownersAt returns every player with a piece at the hex
func (g *GameState) ownersAt(c Coord) map[int]struct{} {
	owners := map[int]struct{}{}
	h, ok := g.board.get(c)
	if !ok {
		return owners
	}
	for _, t := range h.things {
		if id := g.ownerOfThing(t.ID); id != 0 {
			owners[id] = struct{}{}
		}
	}
	return owners
}

func (g *GameState) activePlayer() (*Player, error) {
	var found *Player
	for _, id := range g.order {
		p := g.players[id]
		if !p.active {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: players %d and %d are both active", ErrInvalidConfiguration, found.id, p.id)
		}
		found = p
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no active player", ErrInvalidConfiguration)
	}
	return found, nil
}

func (g *GameState) orderIndex(playerID int) int {
	for i, id := range g.order {
		if id == playerID {
			return i
		}
	}
	return -1
}

func (g *GameState) setActive(playerID int) {
	for id, p := range g.players {
		p.active = id == playerID
	}
}

// income is what a player collects at the start of recruiting:
// one per owned hex, plus the value of their buildings standing on
// hexes they own, plus the value of their income counters in play.
func (g *GameState) income(p *Player) int {
	total := 0
	for _, c := range g.board.coords() {
		h, _ := g.board.get(c)
		owned := p.ownsHex(h.hex.ID)
		if owned {
			total++
		}
		for _, t := range h.things {
			if !p.ownsThing(t.ID) {
				continue
			}
			switch t.Kind {
			case tile.Building:
				if owned {
					total += t.Value
				}
			case tile.IncomeCounter:
				total += t.Value
			}
		}
	}
	return total
}

func (g *GameState) hexSnapshot(c Coord) HexSnapshot {
	h := g.board.hexes[c]
	return HexSnapshot{
		Coord:   c,
		Hex:     h.hex,
		FaceUp:  h.faceUp,
		OwnerID: g.ownerOfHex(h.hex.ID),
		Things:  append([]tile.Tile{}, h.things...),
	}
}

// InSetup reports whether the game is still in its opening sequence
func (g *GameState) InSetup() bool {
	return g.setupPhase != SetupFinished
}

func (g *GameState) SetupPhase() SetupPhase {
	return g.setupPhase
}

func (g *GameState) RegularPhase() RegularPhase {
	return g.regularPhase
}

func (g *GameState) CombatPhase() CombatPhase {
	return g.combatPhase
}

func (g *GameState) ActiveTurnPlayer() int {
	return g.turnPlayer
}

// ActivePhasePlayer returns the id of the one player expected to act
func (g *GameState) ActivePhasePlayer() (int, error) {
	p, err := g.activePlayer()
	if err != nil {
		return 0, err
	}
	return p.id, nil
}

// Defender returns the defending player while a battle is on
func (g *GameState) Defender() (int, bool) {
	return g.defender, g.defender != 0
}

// CombatLocation returns where the current battle is being fought
func (g *GameState) CombatLocation() (Coord, bool) {
	if g.combatLocation == nil {
		return Coord{}, false
	}
	return *g.combatLocation, true
}

func (g *GameState) PlayerOrder() []int {
	return append([]int{}, g.order...)
}

// Player returns a copy of one player's state
func (g *GameState) Player(id int) (PlayerSnapshot, bool) {
	p, ok := g.players[id]
	if !ok {
		return PlayerSnapshot{}, false
	}
	return p.snapshot(g.income(p)), true
}

// Players returns a copy of every player, in player order
func (g *GameState) Players() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]
		out = append(out, p.snapshot(g.income(p)))
	}
	return out
}

// Income returns what the player would collect when recruiting begins
func (g *GameState) Income(playerID int) int {
	p, ok := g.players[playerID]
	if !ok {
		return 0
	}
	return g.income(p)
}

// Hex returns a copy of the hex at c
func (g *GameState) Hex(c Coord) (HexSnapshot, bool) {
	if _, ok := g.board.get(c); !ok {
		return HexSnapshot{}, false
	}
	return g.hexSnapshot(c), true
}

// Hexes returns a copy of the whole board
func (g *GameState) Hexes() []HexSnapshot {
	coords := g.board.coords()
	out := make([]HexSnapshot, 0, len(coords))
	for _, c := range coords {
		out = append(out, g.hexSnapshot(c))
	}
	return out
}

// HexCoord finds where a hex tile sits on the board
func (g *GameState) HexCoord(hexID int) (Coord, bool) {
	return g.board.find(hexID)
}

// ThingOwner returns the player owning a piece on the board, or zero
func (g *GameState) ThingOwner(thingID int) int {
	return g.ownerOfThing(thingID)
}

// BoardFinalized reports whether hexes can still be exchanged
func (g *GameState) BoardFinalized() bool {
	return g.board.finalized
}

// ContestedHexes lists the hexes holding pieces of more than one player
func (g *GameState) ContestedHexes() []Coord {
	out := []Coord{}
	for _, c := range g.board.coords() {
		if len(g.ownersAt(c)) > 1 {
			out = append(out, c)
		}
	}
	return out
}

func (g *GameState) hasContestedHexes() bool {
	for c := range g.board.hexes {
		if len(g.ownersAt(c)) > 1 {
			return true
		}
	}
	return false
}

func (g *GameState) PendingRolls() []dice.RollSnapshot {
	return g.rolls.Pending()
}

// IsWaitingForRolls reports whether any roll still needs dice
func (g *GameState) IsWaitingForRolls() bool {
	return g.rolls.IsWaitingForRolls()
}

func (g *GameState) HitsPending(playerID int) int {
	return g.hitsPending[playerID]
}

// ConstructedHexes lists the hexes built on during the current phase
func (g *GameState) ConstructedHexes() []Coord {
	out := make([]Coord, 0, len(g.constructedHexes))
	for c := range g.constructedHexes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// ThingsToRemove returns how many pieces must be removed from each hex
func (g *GameState) ThingsToRemove() map[Coord]int {
	out := make(map[Coord]int, len(g.thingsToRemove))
	for c, n := range g.thingsToRemove {
		out[c] = n
	}
	return out
}

// Demo reports whether dice land on the values players ask for
func (g *GameState) Demo() bool {
	return g.demo
}

// PhaseSnapshot describes where in the game the session is
type PhaseSnapshot struct {
	Setup        SetupPhase   `json:"setup"`
	Regular      RegularPhase `json:"regular"`
	Combat       CombatPhase  `json:"combat"`
	TurnPlayer   int          `json:"turnPlayer"`
	ActivePlayer int          `json:"activePlayer"`
}

func (g *GameState) phaseSnapshot() PhaseSnapshot {
	s := PhaseSnapshot{
		Setup:      g.setupPhase,
		Regular:    g.regularPhase,
		Combat:     g.combatPhase,
		TurnPlayer: g.turnPlayer,
	}
	if p, err := g.activePlayer(); err == nil {
		s.ActivePlayer = p.id
	}
	return s
}

// Phase returns the current phase markers
func (g *GameState) Phase() PhaseSnapshot {
	return g.phaseSnapshot()
}

// Snapshot is a full copy of the game, suitable for status endpoints
// and for comparing replays.
type Snapshot struct {
	Phase            PhaseSnapshot       `json:"phase"`
	Players          []PlayerSnapshot    `json:"players"`
	Board            []HexSnapshot       `json:"board"`
	PendingRolls     []dice.RollSnapshot `json:"pendingRolls"`
	HitsPending      map[int]int         `json:"hitsPending"`
	ConstructedHexes []Coord             `json:"constructedHexes"`
	CombatLocation   *Coord              `json:"combatLocation,omitempty"`
	Defender         int                 `json:"defender,omitempty"`
}

func (g *GameState) Snapshot() Snapshot {
	s := Snapshot{
		Phase:            g.phaseSnapshot(),
		Players:          g.Players(),
		Board:            g.Hexes(),
		PendingRolls:     g.PendingRolls(),
		HitsPending:      map[int]int{},
		ConstructedHexes: g.ConstructedHexes(),
		Defender:         g.defender,
	}
	for id, n := range g.hitsPending {
		s.HitsPending[id] = n
	}
	if g.combatLocation != nil {
		c := *g.combatLocation
		s.CombatLocation = &c
	}
	return s
}
