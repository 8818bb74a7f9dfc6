package tile

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrNoMoreTiles is returned when a pool has nothing left to draw
var ErrNoMoreTiles = errors.New("no more tiles in pool")

// Pool names one of the shared piles tiles are drawn from
type Pool int

const (
	CupPool Pool = iota
	SpecialPool
	HexPool
)

var poolNames = map[Pool]string{
	CupPool:     "Cup",
	SpecialPool: "Special",
	HexPool:     "Hex",
}

func (p Pool) String() string {
	if name, ok := poolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pool(%d)", int(p))
}

// Cup represents a pile of face-down tiles
type Cup []Tile

// NewCup creates a cup holding the given tiles
func NewCup(tiles ...Tile) Cup {
	c := make(Cup, len(tiles))
	copy(c, tiles)
	return c
}

// Shuffle shuffles the cup using the supplied source
func (c *Cup) Shuffle(rng *rand.Rand) {
	actual := *c
	rng.Shuffle(len(actual), func(i, j int) {
		actual[i], actual[j] = actual[j], actual[i]
	})
}

// Draw takes the top tile from the cup, until it is empty
func (c *Cup) Draw() (Tile, error) {
	n := len(*c)
	if n == 0 {
		return Tile{}, ErrNoMoreTiles
	}
	t := (*c)[n-1]
	*c = (*c)[:n-1]
	return t, nil
}

// Return puts tiles back into the cup
func (c *Cup) Return(tiles ...Tile) {
	*c = append(*c, tiles...)
}

// Pools holds every draw pile used during a game
type Pools struct {
	cups map[Pool]*Cup
}

// NewPools constructs Pools with the given cups
func NewPools(cups map[Pool]Cup) *Pools {
	p := &Pools{cups: map[Pool]*Cup{}}
	for name, cup := range cups {
		c := NewCup(cup...)
		p.cups[name] = &c
	}
	return p
}

// DrawTile draws from the named pool
func (p *Pools) DrawTile(pool Pool) (Tile, error) {
	cup, ok := p.cups[pool]
	if !ok {
		return Tile{}, fmt.Errorf("%s pool: %w", pool, ErrNoMoreTiles)
	}
	t, err := cup.Draw()
	if err != nil {
		return Tile{}, fmt.Errorf("%s pool: %w", pool, err)
	}
	return t, nil
}

// Remaining reports how many tiles are left in a pool
func (p *Pools) Remaining(pool Pool) int {
	cup, ok := p.cups[pool]
	if !ok {
		return 0
	}
	return len(*cup)
}
