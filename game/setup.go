package game

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/minaorangina/kingdoms/tile"
	"gopkg.in/yaml.v3"
)

// PlayerSetup describes one participant at game start
type PlayerSetup struct {
	ID   int         `json:"id" yaml:"id"`
	Name string      `json:"name" yaml:"name"`
	Gold int         `json:"gold,omitempty" yaml:"gold,omitempty"`
	Tray []tile.Tile `json:"tray,omitempty" yaml:"tray,omitempty"`
}

// PlacedThing is a piece already on the board at game start
type PlacedThing struct {
	tile.Tile `yaml:",inline"`
	Owner     int `json:"owner" yaml:"owner"`
}

// HexPlacement puts a hex tile on the board
type HexPlacement struct {
	At     Coord         `json:"at" yaml:"at"`
	Hex    tile.Tile     `json:"hex" yaml:"hex"`
	FaceUp bool          `json:"faceUp,omitempty" yaml:"faceUp,omitempty"`
	Owner  int           `json:"owner,omitempty" yaml:"owner,omitempty"`
	Things []PlacedThing `json:"things,omitempty" yaml:"things,omitempty"`
}

// Setup is the startup payload a game is built from. It is consumed
// once by NewGameState.
type Setup struct {
	Players        []PlayerSetup  `json:"players" yaml:"players"`
	PlayerOrder    []int          `json:"playerOrder,omitempty" yaml:"playerOrder,omitempty"`
	TurnPlayer     int            `json:"turnPlayer,omitempty" yaml:"turnPlayer,omitempty"`
	ActivePlayer   int            `json:"activePlayer,omitempty" yaml:"activePlayer,omitempty"`
	SetupPhase     SetupPhase     `json:"setupPhase" yaml:"setupPhase"`
	RegularPhase   RegularPhase   `json:"regularPhase" yaml:"regularPhase"`
	CombatPhase    CombatPhase    `json:"combatPhase" yaml:"combatPhase"`
	CombatLocation *Coord         `json:"combatLocation,omitempty" yaml:"combatLocation,omitempty"`
	Defender       int            `json:"defender,omitempty" yaml:"defender,omitempty"`
	Board          []HexPlacement `json:"board" yaml:"board"`
	Cup            []tile.Tile    `json:"cup,omitempty" yaml:"cup,omitempty"`
	Special        []tile.Tile    `json:"special,omitempty" yaml:"special,omitempty"`
	Hexes          []tile.Tile    `json:"hexes,omitempty" yaml:"hexes,omitempty"`

	// Demo makes every die land on the value the player asks for.
	Demo bool  `json:"demo,omitempty" yaml:"demo,omitempty"`
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// LoadSetup reads a startup payload. JSON payloads are accepted too.
func LoadSetup(r io.Reader) (Setup, error) {
	var s Setup
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Setup{}, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err.Error())
	}
	return s, nil
}

// Pools builds the draw piles for the game. The piles are shuffled
// with the payload's seed unless the game is in demo mode.
func (s Setup) Pools() *tile.Pools {
	cup := tile.NewCup(s.Cup...)
	special := tile.NewCup(s.Special...)
	hexes := tile.NewCup(s.Hexes...)
	if !s.Demo {
		rng := rand.New(rand.NewSource(s.Seed))
		cup.Shuffle(rng)
		special.Shuffle(rng)
		hexes.Shuffle(rng)
	}
	return tile.NewPools(map[tile.Pool]tile.Cup{
		tile.CupPool:     cup,
		tile.SpecialPool: special,
		tile.HexPool:     hexes,
	})
}

// highestID is the largest id of any piece in the payload
func (s Setup) highestID() int {
	highest := 0
	note := func(tiles ...tile.Tile) {
		for _, t := range tiles {
			if t.ID > highest {
				highest = t.ID
			}
		}
	}
	for _, ps := range s.Players {
		note(ps.Tray...)
	}
	for _, hp := range s.Board {
		note(hp.Hex)
		for _, pt := range hp.Things {
			note(pt.Tile)
		}
	}
	note(s.Cup...)
	note(s.Special...)
	note(s.Hexes...)
	return highest
}
