package protocol

import (
	"encoding/json"
	"testing"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/game"
	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/minaorangina/kingdoms/tile"
	"github.com/stretchr/testify/assert"
)

func TestInboundMessageFromJSON(t *testing.T) {
	payload := `{
		"playerID": 2,
		"command": "RollDice",
		"reason": "AttackWithCreature",
		"target": {"id": 100, "name": "Troll", "kind": "Creature", "value": 4},
		"desired": 5
	}`

	var msg InboundMessage
	utils.AssertNoError(t, json.Unmarshal([]byte(payload), &msg))

	utils.AssertEqual(t, msg.Command, RollDice)
	utils.AssertEqual(t, msg.Reason, dice.AttackWithCreature)
	utils.AssertEqual(t, msg.Target.Kind, tile.Creature)
	utils.AssertEqual(t, msg.Desired, 5)
	utils.AssertNoError(t, msg.Validate())
}

func TestCmdNames(t *testing.T) {
	t.Run("every command has a name both ways", func(t *testing.T) {
		for cmd, name := range CmdNames {
			utils.AssertEqual(t, NameToCmd[name], cmd)
		}
	})

	t.Run("unknown names are refused", func(t *testing.T) {
		var msg InboundMessage
		err := json.Unmarshal([]byte(`{"command": "Teleport"}`), &msg)
		utils.AssertErrored(t, err)
	})

	t.Run("only game commands come from players", func(t *testing.T) {
		assert.True(t, EndPlayerTurn.IsPlayerCommand())
		assert.True(t, ClaimHex.IsPlayerCommand())
		assert.True(t, ApplyRandomEvent.IsPlayerCommand())
		assert.False(t, Notification.IsPlayerCommand())
		assert.False(t, Null.IsPlayerCommand())
	})

	t.Run("rolls owed, modifiers and hits come from the server", func(t *testing.T) {
		for _, cmd := range []Cmd{RequireRoll, QueueRollModification, ConsumeFinishedRolls, AddHits} {
			assert.True(t, cmd.IsHostCommand(), cmd.String())
			assert.True(t, cmd.IsGameCommand(), cmd.String())
			assert.False(t, cmd.IsPlayerCommand(), cmd.String())
		}
		assert.False(t, RollDice.IsHostCommand())
	})
}

func TestInboundMessageValidate(t *testing.T) {
	at := &game.Coord{X: 1, Y: 2}

	tt := []struct {
		name  string
		msg   InboundMessage
		valid bool
	}{
		{"end turn", InboundMessage{PlayerID: 1, Command: EndPlayerTurn}, true},
		{"no player", InboundMessage{Command: EndPlayerTurn}, false},
		{"consuming rolls needs nobody", InboundMessage{Command: ConsumeFinishedRolls}, true},
		{"claiming nowhere", InboundMessage{PlayerID: 1, Command: ClaimHex}, false},
		{"claiming a hex", InboundMessage{PlayerID: 1, Command: ClaimHex, At: at}, true},
		{"building nowhere", InboundMessage{PlayerID: 1, Command: ConstructBuilding}, false},
		{"building", InboundMessage{PlayerID: 1, Command: ConstructBuilding, At: at}, true},
		{"exchanging nowhere", InboundMessage{PlayerID: 1, Command: ReplaceHex}, false},
		{"playing no event", InboundMessage{PlayerID: 1, Command: ApplyRandomEvent}, false},
		{"playing an event", InboundMessage{PlayerID: 1, Command: ApplyRandomEvent, ThingID: 500}, true},
		{"moving nowhere", InboundMessage{PlayerID: 1, Command: MoveThing, From: at}, false},
		{"rolling for no reason", InboundMessage{PlayerID: 1, Command: RollDice}, false},
		{"starting a battle", InboundMessage{PlayerID: 1, Command: StartCombat, At: at}, true},
		{"sending a notification", InboundMessage{PlayerID: 1, Command: Notification}, false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.valid {
				utils.AssertNoError(t, err)
			} else {
				utils.AssertErrored(t, err)
			}
		})
	}
}
