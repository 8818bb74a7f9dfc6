package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/tile"
)

var ErrMissingField = errors.New("missing field")

// PlayerInfo names a seat in a game
type PlayerInfo struct {
	PlayerID int    `json:"playerID"`
	Name     string `json:"name"`
}

// InboundMessage is a message from Player to GameEngine. Which of the
// optional fields are needed depends on Command. Tiles are named by id
// and looked up by the game; a message never supplies a piece's values.
type InboundMessage struct {
	PlayerID int         `json:"playerID"`
	Command  Cmd         `json:"command"`
	Reason   dice.Reason `json:"reason,omitempty"`
	Target   *tile.Tile  `json:"target,omitempty"`
	ThingID  int         `json:"thingID,omitempty"`
	At       *game.Coord `json:"at,omitempty"`
	From     *game.Coord `json:"from,omitempty"`
	To       *game.Coord `json:"to,omitempty"`
	Desired  int         `json:"desired,omitempty"`
	Dice     int         `json:"dice,omitempty"`
	Index    int         `json:"index,omitempty"`
	Delta    int         `json:"delta,omitempty"`
	Hits     int         `json:"hits,omitempty"`
}

// Validate checks the message carries what its command needs
func (m InboundMessage) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%s needs %s: %w", m.Command, field, ErrMissingField)
	}

	if !m.Command.IsGameCommand() {
		return fmt.Errorf("%s is not a game command", m.Command)
	}
	if m.PlayerID == 0 && m.Command != ConsumeFinishedRolls {
		return missing("playerID")
	}

	switch m.Command {
	case ApplyRandomEvent:
		if m.ThingID == 0 {
			return missing("thingID")
		}
	case ClaimHex, ConstructBuilding, ReplaceHex, PlaceThing, StartCombat:
		if m.At == nil {
			return missing("at")
		}
	case MoveThing:
		if m.From == nil || m.To == nil {
			return missing("from and to")
		}
	case RollDice, RequireRoll, QueueRollModification:
		if m.Reason == dice.NoReason {
			return missing("reason")
		}
	}
	return nil
}

// OutboundMessage is a message from GameEngine to Player
type OutboundMessage struct {
	PlayerID     int                 `json:"playerID"`
	Command      Cmd                 `json:"command"`
	GameID       string              `json:"gameID,omitempty"`
	Message      string              `json:"message,omitempty"`
	Joiner       *PlayerInfo         `json:"joiner,omitempty"`
	Notification *game.Notification  `json:"notification,omitempty"`
	Roll         *dice.RollSnapshot  `json:"roll,omitempty"`
	Rolls        []dice.RollSnapshot `json:"rolls,omitempty"`
	Snapshot     *game.Snapshot      `json:"snapshot,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// JournalEntry is one accepted command, in the order the engine ran it
type JournalEntry struct {
	GameID   string         `json:"gameID"`
	Seq      int64          `json:"seq"`
	Message  InboundMessage `json:"message"`
	Accepted time.Time      `json:"accepted"`
}
