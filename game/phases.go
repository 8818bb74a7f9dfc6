package game

import "fmt"

// SetupPhase is one step of the opening sequence every game goes through once
type SetupPhase int

const (
	DeterminePlayerOrder SetupPhase = iota
	PickFirstHex
	ExchangeSeaHexes
	PickSecondHex
	PickThirdHex
	PlaceFreeTower
	PlaceFreeThings
	ExchangeThings
	PlaceExchangedThings
	SetupFinished
)

var setupPhaseNames = []string{
	"DETERMINE_PLAYER_ORDER",
	"PICK_FIRST_HEX",
	"EXCHANGE_SEA_HEXES",
	"PICK_SECOND_HEX",
	"PICK_THIRD_HEX",
	"PLACE_FREE_TOWER",
	"PLACE_FREE_THINGS",
	"EXCHANGE_THINGS",
	"PLACE_EXCHANGED_THINGS",
	"SETUP_FINISHED",
}

// RegularPhase is one step of a round of regular play
type RegularPhase int

const (
	RecruitingCharacters RegularPhase = iota
	RecruitingThings
	RandomEvents
	Movement
	Combat
	Construction
	SpecialPowers
)

var regularPhaseNames = []string{
	"RECRUITING_CHARACTERS",
	"RECRUITING_THINGS",
	"RANDOM_EVENTS",
	"MOVEMENT",
	"COMBAT",
	"CONSTRUCTION",
	"SPECIAL_POWERS",
}

// CombatPhase is one step of a single battle
type CombatPhase int

const (
	NoCombat CombatPhase = iota
	DetermineDefenders
	MagicAttack
	RangedAttack
	MeleeAttack
	ApplyHits
	AttackerOneRetreat
	AttackerTwoRetreat
	AttackerThreeRetreat
	DefenderRetreat
)

var combatPhaseNames = []string{
	"NO_COMBAT",
	"DETERMINE_DEFENDERS",
	"MAGIC_ATTACK",
	"RANGED_ATTACK",
	"MELEE_ATTACK",
	"APPLY_HITS",
	"ATTACKER_ONE_RETREAT",
	"ATTACKER_TWO_RETREAT",
	"ATTACKER_THREE_RETREAT",
	"DEFENDER_RETREAT",
}

func (p SetupPhase) Valid() bool   { return p >= 0 && int(p) < len(setupPhaseNames) }
func (p RegularPhase) Valid() bool { return p >= 0 && int(p) < len(regularPhaseNames) }
func (p CombatPhase) Valid() bool  { return p >= 0 && int(p) < len(combatPhaseNames) }

func (p SetupPhase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("SetupPhase(%d)", int(p))
	}
	return setupPhaseNames[p]
}

func (p RegularPhase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("RegularPhase(%d)", int(p))
	}
	return regularPhaseNames[p]
}

func (p CombatPhase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("CombatPhase(%d)", int(p))
	}
	return combatPhaseNames[p]
}

// IsRetreat reports whether the battle is waiting on a retreat decision
func (p CombatPhase) IsRetreat() bool {
	switch p {
	case AttackerOneRetreat, AttackerTwoRetreat, AttackerThreeRetreat, DefenderRetreat:
		return true
	}
	return false
}

func (p SetupPhase) MarshalText() ([]byte, error)   { return marshalPhase(p.Valid(), p.String()) }
func (p RegularPhase) MarshalText() ([]byte, error) { return marshalPhase(p.Valid(), p.String()) }
func (p CombatPhase) MarshalText() ([]byte, error)  { return marshalPhase(p.Valid(), p.String()) }

func (p *SetupPhase) UnmarshalText(text []byte) error {
	i, err := phaseIndex(setupPhaseNames, "setup", text)
	if err != nil {
		return err
	}
	*p = SetupPhase(i)
	return nil
}

func (p *RegularPhase) UnmarshalText(text []byte) error {
	i, err := phaseIndex(regularPhaseNames, "regular", text)
	if err != nil {
		return err
	}
	*p = RegularPhase(i)
	return nil
}

func (p *CombatPhase) UnmarshalText(text []byte) error {
	i, err := phaseIndex(combatPhaseNames, "combat", text)
	if err != nil {
		return err
	}
	*p = CombatPhase(i)
	return nil
}

func marshalPhase(valid bool, name string) ([]byte, error) {
	if !valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, name)
	}
	return []byte(name), nil
}

func phaseIndex(names []string, kind string, text []byte) (int, error) {
	for i, name := range names {
		if name == string(text) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: unknown %s phase %q", ErrInvalidConfiguration, kind, string(text))
}
