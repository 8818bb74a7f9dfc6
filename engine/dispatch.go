package engine

import (
	"fmt"

	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/protocol"
)

// dispatch applies one game command. Whether the sender may issue it
// at all is decided before it gets here.
func dispatch(h *game.CommandHandler, msg protocol.InboundMessage) (Result, error) {
	if err := msg.Validate(); err != nil {
		return Result{}, err
	}

	var err error
	switch msg.Command {
	case protocol.EndPlayerTurn:
		err = h.EndPlayerTurn(msg.PlayerID)

	case protocol.RollDice:
		roll, err := h.RollDice(msg.Reason, msg.PlayerID, msg.Target, msg.Desired)
		if err != nil {
			return Result{}, err
		}
		return Result{Roll: &roll}, nil

	case protocol.RequireRoll:
		roll, err := h.RequireRoll(msg.Reason, msg.PlayerID, msg.Target, msg.Dice)
		if err != nil {
			return Result{}, err
		}
		return Result{Roll: &roll}, nil

	case protocol.QueueRollModification:
		err = h.QueueRollModification(msg.Reason, msg.PlayerID, msg.Target, msg.Index, msg.Delta)

	case protocol.ConsumeFinishedRolls:
		return Result{Rolls: h.ConsumeFinishedRolls()}, nil

	case protocol.ClaimHex:
		err = h.ClaimHex(msg.PlayerID, *msg.At)

	case protocol.PlaceThing:
		err = h.PlaceThing(msg.PlayerID, msg.ThingID, *msg.At)

	case protocol.MoveThing:
		err = h.MoveThing(msg.PlayerID, msg.ThingID, *msg.From, *msg.To)

	case protocol.ConstructBuilding:
		err = h.ConstructBuilding(msg.PlayerID, *msg.At)

	case protocol.ReplaceHex:
		err = h.ReplaceHex(msg.PlayerID, *msg.At)

	case protocol.StartCombat:
		err = h.StartCombat(msg.PlayerID, *msg.At)

	case protocol.AdvanceCombat:
		err = h.AdvanceCombat(msg.PlayerID)

	case protocol.AddHits:
		err = h.AddHits(msg.PlayerID, msg.Hits)

	case protocol.ApplyHit:
		err = h.ApplyHit(msg.PlayerID, msg.ThingID)

	case protocol.ApplyRandomEvent:
		var targetID *int
		if msg.Target != nil {
			id := msg.Target.ID
			targetID = &id
		}
		err = h.ApplyRandomEvent(msg.PlayerID, msg.ThingID, targetID)

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, msg.Command)
	}

	return Result{}, err
}
