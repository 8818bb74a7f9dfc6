package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Sides is the number of faces on every die in the game
const Sides = 6

// Roller decides the value of a single die
type Roller interface {
	Roll(desired int) (int, error)
}

// RandomRoller rolls a fair die. The desired value is ignored.
type RandomRoller struct {
	rng *rand.Rand
}

// NewRandomRoller constructs a RandomRoller from a seed
func NewRandomRoller(seed int64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomRoller) Roll(int) (int, error) {
	return r.rng.Intn(Sides) + 1, nil
}

// DemoRoller returns exactly the value asked for, so games can be
// scripted and replayed.
type DemoRoller struct{}

func (DemoRoller) Roll(desired int) (int, error) {
	if desired < 1 || desired > Sides {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDieValue, desired)
	}
	return desired, nil
}

// NewSeed generates a random seed using crypto/rand
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
