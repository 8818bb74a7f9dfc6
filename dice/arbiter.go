package dice

import (
	"fmt"

	"github.com/minaorangina/kingdoms/tile"
)

// Arbiter holds the rolls a game is waiting on, in the order they
// were requested.
type Arbiter struct {
	rolls []*Roll
}

// NewArbiter constructs an empty Arbiter
func NewArbiter() *Arbiter {
	return &Arbiter{rolls: []*Roll{}}
}

// Add starts tracking a roll
func (a *Arbiter) Add(r *Roll) {
	a.rolls = append(a.rolls, r)
}

// FindOpen returns the first open roll matching reason, player and target
func (a *Arbiter) FindOpen(reason Reason, playerID int, target *tile.Tile) (*Roll, bool) {
	for _, r := range a.rolls {
		if r.NeedsRoll() && r.Satisfies(reason, playerID, target) {
			return r, true
		}
	}
	return nil, false
}

// Require returns the open roll matching the request, creating one
// needing numDice dice if there is none.
func (a *Arbiter) Require(reason Reason, playerID int, target *tile.Tile, numDice int) (*Roll, bool, error) {
	if r, ok := a.FindOpen(reason, playerID, target); ok {
		return r, false, nil
	}
	r, err := NewRoll(numDice, target, reason, playerID)
	if err != nil {
		return nil, false, err
	}
	a.Add(r)
	return r, true, nil
}

// Modify queues a modifier on the open roll matching the request
func (a *Arbiter) Modify(reason Reason, playerID int, target *tile.Tile, index, delta int) error {
	r, ok := a.FindOpen(reason, playerID, target)
	if !ok {
		return fmt.Errorf("%w: %s for player %d", ErrNoOpenRoll, reason, playerID)
	}
	return r.QueueModification(index, delta)
}

// IsWaitingForRolls reports whether any roll still needs dice
func (a *Arbiter) IsWaitingForRolls() bool {
	for _, r := range a.rolls {
		if r.NeedsRoll() {
			return true
		}
	}
	return false
}

// AwaitingPlayer reports whether playerID owes dice to any open roll
func (a *Arbiter) AwaitingPlayer(playerID int) bool {
	for _, r := range a.rolls {
		if r.NeedsRoll() && r.playerID == playerID {
			return true
		}
	}
	return false
}

// Pending returns snapshots of every tracked roll, finished or not
func (a *Arbiter) Pending() []RollSnapshot {
	out := make([]RollSnapshot, 0, len(a.rolls))
	for _, r := range a.rolls {
		out = append(out, r.Snapshot())
	}
	return out
}

// Finished returns snapshots of the rolls that have all their dice
func (a *Arbiter) Finished() []RollSnapshot {
	out := []RollSnapshot{}
	for _, r := range a.rolls {
		if !r.NeedsRoll() {
			out = append(out, r.Snapshot())
		}
	}
	return out
}

// ConsumeFinished removes finished rolls and hands them back
func (a *Arbiter) ConsumeFinished() []RollSnapshot {
	return a.consume(func(r *Roll) bool { return !r.NeedsRoll() })
}

// ConsumeFinishedFor removes finished rolls made for reason
func (a *Arbiter) ConsumeFinishedFor(reason Reason) []RollSnapshot {
	return a.consume(func(r *Roll) bool { return !r.NeedsRoll() && r.reason == reason })
}

// RemoveReason drops every roll made for reason, finished or not
func (a *Arbiter) RemoveReason(reason Reason) {
	a.consume(func(r *Roll) bool { return r.reason == reason })
}

// Clear drops all rolls
func (a *Arbiter) Clear() {
	a.rolls = []*Roll{}
}

// Len reports how many rolls are tracked
func (a *Arbiter) Len() int {
	return len(a.rolls)
}

func (a *Arbiter) consume(match func(*Roll) bool) []RollSnapshot {
	kept := a.rolls[:0]
	removed := []RollSnapshot{}
	for _, r := range a.rolls {
		if match(r) {
			removed = append(removed, r.Snapshot())
			continue
		}
		kept = append(kept, r)
	}
	a.rolls = kept
	return removed
}
