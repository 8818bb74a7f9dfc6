package store

import (
	"sync"
	"testing"

	"github.com/minaorangina/kingdoms/engine"
	"github.com/minaorangina/kingdoms/game"
	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, gameID string) *engine.GameEngine {
	t.Helper()

	logger := zerolog.Nop()
	ge, err := engine.NewGameEngine(engine.GameEngineOpts{
		GameID: gameID,
		Setup: game.Setup{
			Players: []game.PlayerSetup{{ID: 1, Name: "Hersha"}, {ID: 2, Name: "Penelope"}},
			Demo:    true,
		},
		Logger: &logger,
	})
	require.NoError(t, err)
	return ge
}

func TestInMemoryGameStore(t *testing.T) {
	t.Run("finds games it was given", func(t *testing.T) {
		s := NewInMemoryGameStore()
		ge := newTestGame(t, "game-1")
		utils.AssertNoError(t, s.AddGame(ge, []int{1, 2}))

		got, ok := s.FindGame("game-1")
		utils.AssertTrue(t, ok)
		assert.Same(t, ge, got)

		_, ok = s.FindGame("game-2")
		assert.False(t, ok)
	})

	t.Run("game ids are unique", func(t *testing.T) {
		s := NewInMemoryGameStore()
		utils.AssertNoError(t, s.AddGame(newTestGame(t, "game-1"), []int{1, 2}))
		utils.AssertErrorIs(t, s.AddGame(newTestGame(t, "game-1"), []int{1, 2}), ErrGameExists)
	})

	t.Run("lists and removes games", func(t *testing.T) {
		s := NewInMemoryGameStore()
		utils.AssertNoError(t, s.AddGame(newTestGame(t, "b"), []int{1, 2}))
		utils.AssertNoError(t, s.AddGame(newTestGame(t, "a"), []int{1, 2}))
		assert.Equal(t, []string{"a", "b"}, s.GameIDs())

		s.RemoveGame("a")
		assert.Equal(t, []string{"b"}, s.GameIDs())
		_, err := s.SeatClaimed("a", 1)
		utils.AssertErrorIs(t, err, ErrUnknownGameID)
	})
}

func TestClaimSeat(t *testing.T) {
	s := NewInMemoryGameStore()
	utils.AssertNoError(t, s.AddGame(newTestGame(t, "game-1"), []int{1, 2}))

	t.Run("a seat can only be claimed once", func(t *testing.T) {
		utils.AssertNoError(t, s.ClaimSeat("game-1", 2))
		utils.AssertErrorIs(t, s.ClaimSeat("game-1", 2), ErrSeatTaken)

		claimed, err := s.SeatClaimed("game-1", 2)
		utils.AssertNoError(t, err)
		utils.AssertTrue(t, claimed)
	})

	t.Run("unknown seats and games", func(t *testing.T) {
		utils.AssertErrorIs(t, s.ClaimSeat("game-1", 3), ErrUnknownPlayerID)
		utils.AssertErrorIs(t, s.ClaimSeat("game-9", 1), ErrUnknownGameID)
	})

	t.Run("only one of many claimants wins", func(t *testing.T) {
		var wg sync.WaitGroup
		wins := make(chan struct{}, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.ClaimSeat("game-1", 1) == nil {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)
		utils.AssertEqual(t, len(wins), 1)
	})
}
