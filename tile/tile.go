package tile

import (
	"fmt"
	"strings"
)

// Kind represents what sort of piece a tile is
type Kind int

const (
	Hex Kind = iota
	Creature
	Building
	SpecialCharacter
	IncomeCounter
	Event
	Magic
	Treasure
	Gold
)

var kindNames = map[Kind]string{
	Hex:              "Hex",
	Creature:         "Creature",
	Building:         "Building",
	SpecialCharacter: "SpecialCharacter",
	IncomeCounter:    "IncomeCounter",
	Event:            "Event",
	Magic:            "Magic",
	Treasure:         "Treasure",
	Gold:             "Gold",
}

var nameToKind = map[string]Kind{}

func init() {
	for k, name := range kindNames {
		nameToKind[name] = k
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets kinds appear by name in setup files and messages
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown tile kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := nameToKind[string(text)]
	if !ok {
		return fmt.Errorf("unknown tile kind %q", string(text))
	}
	*k = kind
	return nil
}

// MaxMoveSpeed is the movement allowance a creature gets back at the start of combat
const MaxMoveSpeed = 4

// Terrain is the biome printed on a hex tile
type Terrain string

const (
	Desert      Terrain = "Desert"
	Forest      Terrain = "Forest"
	FrozenWaste Terrain = "FrozenWaste"
	Jungle      Terrain = "Jungle"
	Mountain    Terrain = "Mountain"
	Plains      Terrain = "Plains"
	Sea         Terrain = "Sea"
	Swamp       Terrain = "Swamp"
)

// MoveCost is what it costs a creature to enter a hex of this terrain
func (t Terrain) MoveCost() int {
	switch t {
	case Swamp, Mountain, Forest, Jungle:
		return 2
	default:
		return 1
	}
}

// Tile is any piece in the game. Kind decides which of the payload
// fields mean anything: Terrain for hexes, MoveSpeed for creatures and
// special characters, Value for combat or income value.
type Tile struct {
	ID        int     `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Kind      Kind    `json:"kind" yaml:"kind"`
	Value     int     `json:"value,omitempty" yaml:"value,omitempty"`
	Terrain   Terrain `json:"terrain,omitempty" yaml:"terrain,omitempty"`
	MoveSpeed int     `json:"moveSpeed,omitempty" yaml:"moveSpeed,omitempty"`
}

// IsHex reports whether the tile is a board hex
func (t Tile) IsHex() bool {
	return t.Kind == Hex
}

// IsBuilding reports whether the tile is a fort, city or village
func (t Tile) IsBuilding() bool {
	return t.Kind == Building
}

// CanMove reports whether the tile has a movement allowance
func (t Tile) CanMove() bool {
	return t.Kind == Creature || t.Kind == SpecialCharacter
}

// Same reports whether two tiles are the same physical piece
func (t Tile) Same(other Tile) bool {
	return t.ID == other.ID && t.Kind == other.Kind
}

func (t Tile) String() string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Name == "" {
		b.WriteString(t.Kind.String())
	}
	fmt.Fprintf(&b, "#%d", t.ID)
	if t.Kind == Hex && t.Terrain != "" {
		fmt.Fprintf(&b, " (%s)", t.Terrain)
	}
	return b.String()
}

// NewHex constructs a hex tile
func NewHex(id int, terrain Terrain) Tile {
	return Tile{ID: id, Name: string(terrain), Kind: Hex, Terrain: terrain}
}

// NewCreature constructs a creature with a full movement allowance
func NewCreature(id int, name string, combatValue int) Tile {
	return Tile{ID: id, Name: name, Kind: Creature, Value: combatValue, MoveSpeed: MaxMoveSpeed}
}

// NewBuilding constructs a fort, city or village with a combat value
func NewBuilding(id int, name string, combatValue int) Tile {
	return Tile{ID: id, Name: name, Kind: Building, Value: combatValue}
}

// Fortifications are the buildings a player can construct, weakest
// first. Each one is built over the one before it, and its rank is
// both its combat value and the income it brings in.
var Fortifications = []string{"Tower", "Keep", "Castle", "Citadel"}

// FortificationRank returns a building's place on the ladder, counting
// from one, or zero when it is not a fortification.
func FortificationRank(name string) int {
	for i, n := range Fortifications {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// NewFortification constructs the building of the given rank
func NewFortification(id, rank int) (Tile, bool) {
	if rank < 1 || rank > len(Fortifications) {
		return Tile{}, false
	}
	return NewBuilding(id, Fortifications[rank-1], rank), true
}
