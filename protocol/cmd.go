package protocol

import "fmt"

// Cmd represents a command
type Cmd int

const (
	Null Cmd = iota
	Error
	Joined
	Left
	Notification
	Ack
	// game commands, one per handler operation
	EndPlayerTurn
	RollDice
	ClaimHex
	RequireRoll
	QueueRollModification
	ConsumeFinishedRolls
	PlaceThing
	MoveThing
	ConstructBuilding
	ReplaceHex
	StartCombat
	AdvanceCombat
	AddHits
	ApplyHit
	ApplyRandomEvent
)

var CmdNames = map[Cmd]string{
	Null:                  "Null",
	Error:                 "Error",
	Joined:                "Joined",
	Left:                  "Left",
	Notification:          "Notification",
	Ack:                   "Ack",
	EndPlayerTurn:         "EndPlayerTurn",
	RollDice:              "RollDice",
	ClaimHex:              "ClaimHex",
	RequireRoll:           "RequireRoll",
	QueueRollModification: "QueueRollModification",
	ConsumeFinishedRolls:  "ConsumeFinishedRolls",
	PlaceThing:            "PlaceThing",
	MoveThing:             "MoveThing",
	ConstructBuilding:     "ConstructBuilding",
	ReplaceHex:            "ReplaceHex",
	StartCombat:           "StartCombat",
	AdvanceCombat:         "AdvanceCombat",
	AddHits:               "AddHits",
	ApplyHit:              "ApplyHit",
	ApplyRandomEvent:      "ApplyRandomEvent",
}

var NameToCmd = map[string]Cmd{}

func init() {
	for cmd, name := range CmdNames {
		NameToCmd[name] = cmd
	}
}

func (c Cmd) String() string {
	if name, ok := CmdNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cmd(%d)", int(c))
}

// IsGameCommand reports whether the command is run by a game's handler
func (c Cmd) IsGameCommand() bool {
	return c >= EndPlayerTurn && c <= ApplyRandomEvent
}

// IsHostCommand reports whether only the server may issue the command.
// Rolls owed, roll modifiers and hits come from rules the server
// resolves, never from a player asking for them.
func (c Cmd) IsHostCommand() bool {
	switch c {
	case RequireRoll, QueueRollModification, ConsumeFinishedRolls, AddHits:
		return true
	}
	return false
}

// IsPlayerCommand reports whether players may send the command
func (c Cmd) IsPlayerCommand() bool {
	return c.IsGameCommand() && !c.IsHostCommand()
}

func (c Cmd) MarshalText() ([]byte, error) {
	name, ok := CmdNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown command %d", int(c))
	}
	return []byte(name), nil
}

func (c *Cmd) UnmarshalText(text []byte) error {
	cmd, ok := NameToCmd[string(text)]
	if !ok {
		return fmt.Errorf("unknown command %q", string(text))
	}
	*c = cmd
	return nil
}
