package game

import (
	"sort"

	"github.com/minaorangina/kingdoms/tile"
)

// Player holds one participant's resources. Only the GameState
// that owns a Player may change it.
type Player struct {
	id         int
	name       string
	ownedHexes map[int]struct{}
	tray       []tile.Tile
	things     map[int]struct{}
	gold       int
	active     bool
	target     *tile.Tile
}

func newPlayer(id int, name string, gold int) *Player {
	return &Player{
		id:         id,
		name:       name,
		ownedHexes: map[int]struct{}{},
		tray:       []tile.Tile{},
		things:     map[int]struct{}{},
		gold:       gold,
	}
}

func (p *Player) ownsHex(hexID int) bool {
	_, ok := p.ownedHexes[hexID]
	return ok
}

func (p *Player) ownsThing(thingID int) bool {
	_, ok := p.things[thingID]
	return ok
}

func (p *Player) trayIndex(thingID int) int {
	for i, t := range p.tray {
		if t.ID == thingID {
			return i
		}
	}
	return -1
}

func (p *Player) takeFromTray(thingID int) (tile.Tile, bool) {
	i := p.trayIndex(thingID)
	if i < 0 {
		return tile.Tile{}, false
	}
	t := p.tray[i]
	p.tray = append(p.tray[:i], p.tray[i+1:]...)
	return t, true
}

func (p *Player) addGold(amount int) {
	p.gold += amount
	if p.gold < 0 {
		p.gold = 0
	}
}

// PlayerSnapshot is a copy of a player's state at one moment
type PlayerSnapshot struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Gold       int         `json:"gold"`
	Income     int         `json:"income"`
	Active     bool        `json:"active"`
	OwnedHexes []int       `json:"ownedHexes"`
	Tray       []tile.Tile `json:"tray"`
	Things     []int       `json:"thingsOnBoard"`
	Target     *tile.Tile  `json:"target,omitempty"`
}

func (p *Player) snapshot(income int) PlayerSnapshot {
	s := PlayerSnapshot{
		ID:         p.id,
		Name:       p.name,
		Gold:       p.gold,
		Income:     income,
		Active:     p.active,
		OwnedHexes: sortedKeys(p.ownedHexes),
		Tray:       append([]tile.Tile{}, p.tray...),
		Things:     sortedKeys(p.things),
	}
	if p.target != nil {
		t := *p.target
		s.Target = &t
	}
	return s
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
