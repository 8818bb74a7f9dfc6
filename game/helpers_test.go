package game

import (
	"fmt"
	"testing"

	"github.com/minaorangina/kingdoms/tile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.notes = append(r.notes, n)
}

func (r *recorder) ofKind(kind NotificationKind) []Notification {
	out := []Notification{}
	for _, n := range r.notes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// countingPool hands out numbered goblins and runs dry on the
// attempts listed in failOn.
type countingPool struct {
	attempts int
	failOn   map[int]bool
}

func (p *countingPool) DrawTile(pool tile.Pool) (tile.Tile, error) {
	p.attempts++
	if p.failOn[p.attempts] {
		return tile.Tile{}, fmt.Errorf("%s pool: %w", pool, tile.ErrNoMoreTiles)
	}
	return tile.NewCreature(1000+p.attempts, "Goblin", 1), nil
}

func testSetup(ids ...int) Setup {
	s := Setup{Demo: true}
	for _, id := range ids {
		s.Players = append(s.Players, PlayerSetup{ID: id, Name: fmt.Sprintf("player-%d", id)})
	}
	return s
}

func regularSetup(phase RegularPhase, ids ...int) Setup {
	s := testSetup(ids...)
	s.SetupPhase = SetupFinished
	s.RegularPhase = phase
	return s
}

func smallBoard() []HexPlacement {
	return []HexPlacement{
		{At: Coord{0, 0}, Hex: tile.NewHex(1, tile.Plains), FaceUp: true},
		{At: Coord{0, 1}, Hex: tile.NewHex(2, tile.Swamp)},
		{At: Coord{1, 0}, Hex: tile.NewHex(3, tile.Mountain)},
		{At: Coord{1, 1}, Hex: tile.NewHex(4, tile.Plains)},
	}
}

func newTestHandler(t *testing.T, s Setup, pool DrawPool) (*CommandHandler, *recorder) {
	t.Helper()

	g, err := NewGameState(s)
	require.NoError(t, err)

	bus := NewBus()
	rec := &recorder{}
	bus.Register(rec)

	logger := zerolog.Nop()
	h, err := NewCommandHandler(g, HandlerOpts{Pool: pool, Bus: bus, Logger: &logger})
	require.NoError(t, err)

	return h, rec
}

func activeID(t *testing.T, g *GameState) int {
	t.Helper()
	id, err := g.ActivePhasePlayer()
	require.NoError(t, err)
	return id
}

func assertOneActive(t *testing.T, g *GameState) {
	t.Helper()
	count := 0
	for _, p := range g.Players() {
		if p.Active {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one active player, got %d", count)
	}
}

func gold(t *testing.T, g *GameState, id int) int {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok)
	return p.Gold
}
