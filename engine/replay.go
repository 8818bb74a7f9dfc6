package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/protocol"
)

var ErrJournalGap = errors.New("journal is missing entries")

// Replay rebuilds a game from its setup and journal. Dice and the cup
// only come out the same if the setup is in demo mode or carries the
// seed the game was played with.
func Replay(setup game.Setup, entries []protocol.JournalEntry, opts game.HandlerOpts) (*game.GameState, error) {
	state, err := game.NewGameState(setup)
	if err != nil {
		return nil, err
	}
	if opts.Pool == nil {
		opts.Pool = setup.Pools()
	}
	h, err := game.NewCommandHandler(state, opts)
	if err != nil {
		return nil, err
	}

	sorted := append([]protocol.JournalEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	for i, entry := range sorted {
		if entry.Seq != int64(i+1) {
			return state, fmt.Errorf("%w: expected %d, found %d", ErrJournalGap, i+1, entry.Seq)
		}
		if _, err := dispatch(h, entry.Message); err != nil {
			return state, fmt.Errorf("replaying %d (%s): %w", entry.Seq, entry.Message.Command, err)
		}
	}
	return state, nil
}
