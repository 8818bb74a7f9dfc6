package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/minaorangina/kingdoms/engine"
)

var (
	ErrUnknownGameID   = errors.New("unknown game ID")
	ErrUnknownPlayerID = errors.New("unknown player ID")
	ErrGameExists      = errors.New("game already exists")
	ErrSeatTaken       = errors.New("seat has already been claimed")
)

type GameStore interface {
	FindGame(gameID string) (*engine.GameEngine, bool)
	AddGame(game *engine.GameEngine, seats []int) error
	RemoveGame(gameID string)
	GameIDs() []string
	ClaimSeat(gameID string, playerID int) error
	SeatClaimed(gameID string, playerID int) (bool, error)
}

type seat struct {
	claimed bool
}

// InMemoryGameStore maps game id to game engine, and tracks which seats
// in each game have been handed out
type InMemoryGameStore struct {
	mu    sync.RWMutex
	games map[string]*engine.GameEngine
	seats map[string]map[int]*seat
}

// NewInMemoryGameStore constructs an InMemoryGameStore
func NewInMemoryGameStore() *InMemoryGameStore {
	return &InMemoryGameStore{
		games: map[string]*engine.GameEngine{},
		seats: map[string]map[int]*seat{},
	}
}

func (s *InMemoryGameStore) FindGame(gameID string) (*engine.GameEngine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	return game, ok
}

// AddGame registers a game with the seats players may claim
func (s *InMemoryGameStore) AddGame(game *engine.GameEngine, seats []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[game.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, game.ID())
	}

	s.games[game.ID()] = game
	s.seats[game.ID()] = map[int]*seat{}
	for _, id := range seats {
		s.seats[game.ID()][id] = &seat{}
	}
	return nil
}

func (s *InMemoryGameStore) RemoveGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	delete(s.seats, gameID)
}

// GameIDs lists every game, sorted
func (s *InMemoryGameStore) GameIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClaimSeat hands a seat to whoever asked first
func (s *InMemoryGameStore) ClaimSeat(gameID string, playerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.findSeat(gameID, playerID)
	if err != nil {
		return err
	}
	if st.claimed {
		return fmt.Errorf("%w: player %d in %s", ErrSeatTaken, playerID, gameID)
	}
	st.claimed = true
	return nil
}

func (s *InMemoryGameStore) SeatClaimed(gameID string, playerID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.findSeat(gameID, playerID)
	if err != nil {
		return false, err
	}
	return st.claimed, nil
}

func (s *InMemoryGameStore) findSeat(gameID string, playerID int) (*seat, error) {
	seats, ok := s.seats[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameID, gameID)
	}
	st, ok := seats[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayerID, playerID)
	}
	return st, nil
}
