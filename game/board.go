package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/minaorangina/kingdoms/tile"
)

var (
	ErrHexInHex        = errors.New("a hex cannot be placed inside a hex")
	ErrSecondBuilding  = errors.New("hex already has a building")
	ErrUnknownHex      = errors.New("no such hex on the board")
	ErrThingNotInHex   = errors.New("thing is not in hex")
	ErrBoardFinalized  = errors.New("board is finalized")
	ErrNotAHexTile     = errors.New("tile is not a hex")
	ErrDuplicateCoords = errors.New("two hexes share a position")
)

// Coord is a position on the hex grid
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// HexState is one cell of the board: the hex tile itself plus the
// pieces standing on it.
type HexState struct {
	hex    tile.Tile
	faceUp bool
	things []tile.Tile
}

func newHexState(hex tile.Tile, faceUp bool) *HexState {
	return &HexState{hex: hex, faceUp: faceUp, things: []tile.Tile{}}
}

// canAdd checks that t may stand on the hex without changing anything
func (h *HexState) canAdd(t tile.Tile) error {
	if t.IsHex() {
		return ErrHexInHex
	}
	if t.IsBuilding() {
		if _, ok := h.building(); ok {
			return ErrSecondBuilding
		}
	}
	return nil
}

func (h *HexState) add(t tile.Tile) error {
	if err := h.canAdd(t); err != nil {
		return err
	}
	h.things = append(h.things, t)
	return nil
}

func (h *HexState) remove(thingID int) (tile.Tile, bool) {
	for i, t := range h.things {
		if t.ID == thingID {
			h.things = append(h.things[:i], h.things[i+1:]...)
			return t, true
		}
	}
	return tile.Tile{}, false
}

func (h *HexState) thing(thingID int) (*tile.Tile, bool) {
	for i := range h.things {
		if h.things[i].ID == thingID {
			return &h.things[i], true
		}
	}
	return nil, false
}

func (h *HexState) building() (tile.Tile, bool) {
	for _, t := range h.things {
		if t.IsBuilding() {
			return t, true
		}
	}
	return tile.Tile{}, false
}

// HexSnapshot is a copy of a hex's state, with its owner filled in
// from the player registry. OwnerID is zero for an unowned hex.
type HexSnapshot struct {
	Coord   Coord       `json:"coord"`
	Hex     tile.Tile   `json:"hex"`
	FaceUp  bool        `json:"faceUp"`
	OwnerID int         `json:"ownerID,omitempty"`
	Things  []tile.Tile `json:"things"`
}

// Board holds every hex in play, keyed by position
type Board struct {
	hexes     map[Coord]*HexState
	finalized bool
}

func newBoard() *Board {
	return &Board{hexes: map[Coord]*HexState{}}
}

func (b *Board) place(c Coord, hex tile.Tile, faceUp bool) error {
	if !hex.IsHex() {
		return fmt.Errorf("%w: %s", ErrNotAHexTile, hex)
	}
	if _, ok := b.hexes[c]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCoords, c)
	}
	b.hexes[c] = newHexState(hex, faceUp)
	return nil
}

func (b *Board) get(c Coord) (*HexState, bool) {
	h, ok := b.hexes[c]
	return h, ok
}

// coords returns every position in a stable order
func (b *Board) coords() []Coord {
	cs := make([]Coord, 0, len(b.hexes))
	for c := range b.hexes {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].X != cs[j].X {
			return cs[i].X < cs[j].X
		}
		return cs[i].Y < cs[j].Y
	})
	return cs
}

func (b *Board) find(hexID int) (Coord, bool) {
	for c, h := range b.hexes {
		if h.hex.ID == hexID {
			return c, true
		}
	}
	return Coord{}, false
}

func (b *Board) findThing(thingID int) (Coord, bool) {
	for c, h := range b.hexes {
		if _, ok := h.thing(thingID); ok {
			return c, true
		}
	}
	return Coord{}, false
}

func (b *Board) flipAllUp() {
	for _, h := range b.hexes {
		h.faceUp = true
	}
}

// replaceHex swaps the hex tile at c, keeping the pieces on it
func (b *Board) replaceHex(c Coord, hex tile.Tile) (tile.Tile, error) {
	if b.finalized {
		return tile.Tile{}, ErrBoardFinalized
	}
	if !hex.IsHex() {
		return tile.Tile{}, fmt.Errorf("%w: %s", ErrNotAHexTile, hex)
	}
	h, ok := b.hexes[c]
	if !ok {
		return tile.Tile{}, fmt.Errorf("%w: %s", ErrUnknownHex, c)
	}
	old := h.hex
	h.hex = hex
	h.faceUp = true
	return old, nil
}

func (b *Board) finalize() {
	b.finalized = true
}
