package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/protocol"
	"github.com/minaorangina/kingdoms/tile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const gameEngineTestTimeout = 500 * time.Millisecond

// spyPlayer keeps everything it is sent
type spyPlayer struct {
	id   int
	name string

	mu     sync.Mutex
	msgs   []protocol.OutboundMessage
	closed bool
}

func newSpyPlayer(id int, name string) *spyPlayer {
	return &spyPlayer{id: id, name: name}
}

func (p *spyPlayer) ID() int      { return p.id }
func (p *spyPlayer) Name() string { return p.name }

func (p *spyPlayer) Send(msg protocol.OutboundMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *spyPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *spyPlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *spyPlayer) received(cmd protocol.Cmd) []protocol.OutboundMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []protocol.OutboundMessage{}
	for _, m := range p.msgs {
		if m.Command == cmd {
			out = append(out, m)
		}
	}
	return out
}

func (p *spyPlayer) notifications(kind game.NotificationKind) []game.Notification {
	out := []game.Notification{}
	for _, m := range p.received(protocol.Notification) {
		if m.Notification != nil && m.Notification.Kind == kind {
			out = append(out, *m.Notification)
		}
	}
	return out
}

// spyJournal keeps journal entries in memory
type spyJournal struct {
	mu      sync.Mutex
	entries []protocol.JournalEntry
}

func (j *spyJournal) Append(_ context.Context, entry protocol.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *spyJournal) all() []protocol.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]protocol.JournalEntry{}, j.entries...)
}

func movementSetup() game.Setup {
	return game.Setup{
		Players: []game.PlayerSetup{
			{ID: 1, Name: "Hermione"},
			{ID: 2, Name: "Ron"},
		},
		SetupPhase:   game.SetupFinished,
		RegularPhase: game.Movement,
		Board: []game.HexPlacement{
			{
				At: game.Coord{X: 0, Y: 0}, Hex: tile.NewHex(1, tile.Plains), FaceUp: true, Owner: 1,
				Things: []game.PlacedThing{{Tile: tile.NewCreature(100, "Ogre", 2), Owner: 1}},
			},
			{At: game.Coord{X: 0, Y: 1}, Hex: tile.NewHex(2, tile.Swamp), FaceUp: true},
		},
		Demo: true,
	}
}

// newRunningEngine starts a game that is stopped when the test ends
func newRunningEngine(t *testing.T, setup game.Setup, journal Journal) *GameEngine {
	t.Helper()

	logger := zerolog.Nop()
	ge, err := NewGameEngine(GameEngineOpts{
		GameID:    "some-game-id",
		CreatorID: 1,
		Setup:     setup,
		Journal:   journal,
		Logger:    &logger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go ge.Listen(ctx)
	t.Cleanup(func() {
		cancel()
		<-ge.Done()
	})

	return ge
}

func coord(x, y int) *game.Coord {
	return &game.Coord{X: x, Y: y}
}
