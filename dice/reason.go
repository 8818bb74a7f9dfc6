package dice

import "fmt"

// Reason is why a roll is being made
type Reason int

const (
	NoReason Reason = iota
	Entertainment
	DeterminePlayerOrder
	ExploreHex
	RecruitSpecialCharacter
	AttackWithCreature
	CalculateDamageToTile
	RandomEvent
)

var reasonNames = map[Reason]string{
	NoReason:                "NoReason",
	Entertainment:           "Entertainment",
	DeterminePlayerOrder:    "DeterminePlayerOrder",
	ExploreHex:              "ExploreHex",
	RecruitSpecialCharacter: "RecruitSpecialCharacter",
	AttackWithCreature:      "AttackWithCreature",
	CalculateDamageToTile:   "CalculateDamageToTile",
	RandomEvent:             "RandomEvent",
}

// NameToReason maps a reason's name back to the Reason
var NameToReason = map[string]Reason{}

func init() {
	for r, name := range reasonNames {
		NameToReason[name] = r
	}
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(text []byte) error {
	reason, ok := NameToReason[string(text)]
	if !ok {
		return fmt.Errorf("unknown roll reason %q", string(text))
	}
	*r = reason
	return nil
}
