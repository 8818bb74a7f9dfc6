// Package dice tracks the die rolls a game is waiting on and decides
// their outcomes.
package dice

import (
	"errors"
	"fmt"

	"github.com/minaorangina/kingdoms/tile"
)

var (
	ErrInvalidDiceCount = errors.New("a roll needs at least one die")
	ErrRollComplete     = errors.New("roll already has all of its dice")
	ErrInvalidRollIndex = errors.New("roll index out of range")
	ErrNoOpenRoll       = errors.New("no open roll matches")
	ErrInvalidDieValue  = errors.New("die value out of range")
)

// Roll is a request for one or more die outcomes tied to a reason,
// a player and optionally a target piece.
type Roll struct {
	reason   Reason
	playerID int
	target   *tile.Tile
	required int
	base     []int
	pending  map[int][]int
	applied  map[int]int
}

// NewRoll constructs a roll needing the given number of dice
func NewRoll(required int, target *tile.Tile, reason Reason, playerID int) (*Roll, error) {
	if required < 1 {
		return nil, ErrInvalidDiceCount
	}
	r := &Roll{
		reason:   reason,
		playerID: playerID,
		required: required,
		base:     []int{},
		pending:  map[int][]int{},
		applied:  map[int]int{},
	}
	if target != nil {
		t := *target
		r.target = &t
	}
	return r, nil
}

func (r *Roll) Reason() Reason {
	return r.reason
}

func (r *Roll) PlayerID() int {
	return r.playerID
}

// NeedsRoll reports whether the roll is still waiting for dice
func (r *Roll) NeedsRoll() bool {
	return len(r.base) < r.required
}

// Satisfies reports whether this roll is the one described by
// reason, player and target.
func (r *Roll) Satisfies(reason Reason, playerID int, target *tile.Tile) bool {
	if r.reason != reason || r.playerID != playerID {
		return false
	}
	if r.target == nil || target == nil {
		return r.target == nil && target == nil
	}
	return r.target.Same(*target)
}

// QueueModification registers a single-use delta for the die at index.
// It is applied when that die is recorded, or straight away if it
// already has been.
func (r *Roll) QueueModification(index, delta int) error {
	if index < 0 || index >= r.required {
		return fmt.Errorf("%w: %d of %d", ErrInvalidRollIndex, index, r.required)
	}
	if index < len(r.base) {
		r.applied[index] += delta
		return nil
	}
	r.pending[index] = append(r.pending[index], delta)
	return nil
}

// AddBaseRoll records the next die and consumes any modifiers queued
// against its index.
func (r *Roll) AddBaseRoll(value int) error {
	if !r.NeedsRoll() {
		return ErrRollComplete
	}
	index := len(r.base)
	r.base = append(r.base, value)

	for _, delta := range r.pending[index] {
		r.applied[index] += delta
	}
	delete(r.pending, index)

	return nil
}

// FinalRolls returns each recorded die with its modifiers applied
func (r *Roll) FinalRolls() []int {
	final := make([]int, len(r.base))
	for i, v := range r.base {
		final[i] = v + r.applied[i]
	}
	return final
}

// Total sums the modified dice
func (r *Roll) Total() int {
	total := 0
	for _, v := range r.FinalRolls() {
		total += v
	}
	return total
}

// Snapshot copies the roll so it can leave the game's ownership
func (r *Roll) Snapshot() RollSnapshot {
	s := RollSnapshot{
		Reason:     r.reason,
		PlayerID:   r.playerID,
		Required:   r.required,
		BaseRolls:  append([]int{}, r.base...),
		FinalRolls: r.FinalRolls(),
		Modifiers:  map[int]int{},
		Total:      r.Total(),
	}
	if r.target != nil {
		t := *r.target
		s.Target = &t
	}
	for i, d := range r.applied {
		s.Modifiers[i] = d
	}
	return s
}

// RollSnapshot is a read-only copy of a Roll
type RollSnapshot struct {
	Reason     Reason      `json:"reason"`
	PlayerID   int         `json:"playerID"`
	Target     *tile.Tile  `json:"target,omitempty"`
	Required   int         `json:"required"`
	BaseRolls  []int       `json:"baseRolls"`
	FinalRolls []int       `json:"finalRolls"`
	Modifiers  map[int]int `json:"modifiers,omitempty"`
	Total      int         `json:"total"`
}

// Complete reports whether every die of the roll was recorded
func (s RollSnapshot) Complete() bool {
	return len(s.BaseRolls) >= s.Required
}
