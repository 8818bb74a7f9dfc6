package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/tile"
)

func SendText(w io.Writer, text string, a ...interface{}) {
	fmt.Fprintf(w, text, a...)
}

// DescribeNotification renders a notification as one line of text
func DescribeNotification(n game.Notification) string {
	var text string
	switch n.Kind {
	case game.HexOwnershipChanged:
		text = fmt.Sprintf("player %d now owns %s at %s", n.Hex.OwnerID, n.Hex.Hex, n.Hex.Coord)
	case game.HexChanged:
		text = fmt.Sprintf("%s is now %s", n.Hex.Coord, describeHex(*n.Hex))
	case game.BoardFlipped:
		text = fmt.Sprintf("the board is face up (%d hexes)", len(n.Hexes))
	case game.DieRolled:
		text = fmt.Sprintf("player %d rolled %v for %s", n.PlayerID, n.Roll.BaseRolls, n.Roll.Reason)
	case game.DiceResolved:
		totals := []string{}
		for _, r := range n.Rolls {
			totals = append(totals, fmt.Sprintf("%s=%d", r.Reason, r.Total))
		}
		text = "dice resolved: " + strings.Join(totals, ", ")
	case game.RollNeeded:
		text = fmt.Sprintf("player %d must roll %d dice for %s", n.PlayerID, n.Roll.Required, n.Roll.Reason)
	case game.PhaseChanged:
		text = "phase: " + describePhase(*n.Phase)
	case game.PlayerState:
		text = fmt.Sprintf("player %d: %d gold, income %d, %d in tray", n.Player.ID, n.Player.Gold, n.Player.Income, len(n.Player.Tray))
	case game.RackPlacement:
		text = fmt.Sprintf("player %d drew %s", n.PlayerID, describeTiles(n.Tiles))
	case game.RetreatWaived:
		text = fmt.Sprintf("player %d stands their ground", n.PlayerID)
	case game.HitsChanged:
		text = fmt.Sprintf("player %d has %d hits to take", n.PlayerID, n.Hits)
	case game.EventResolved:
		text = fmt.Sprintf("player %d played %s", n.PlayerID, describeTiles(n.Tiles))
	default:
		text = n.Kind.String()
	}

	if n.Error != "" {
		text += " (failed: " + n.Error + ")"
	}
	return text
}

// DescribeSnapshot renders the whole game for a terminal
func DescribeSnapshot(s game.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase: %s\n\n", describePhase(s.Phase))

	for _, p := range s.Players {
		marker := " "
		if p.Active {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s (%d): %d gold, income %d, hexes %v\n", marker, p.Name, p.ID, p.Gold, p.Income, p.OwnedHexes)
	}

	b.WriteString("\n")
	for _, h := range s.Board {
		fmt.Fprintf(&b, "%s %s\n", h.Coord, describeHex(h))
	}

	if len(s.PendingRolls) > 0 {
		b.WriteString("\nwaiting on dice:\n")
		for _, r := range s.PendingRolls {
			fmt.Fprintf(&b, "- player %d, %s, %d of %d rolled\n", r.PlayerID, r.Reason, len(r.BaseRolls), r.Required)
		}
	}
	return b.String()
}

func describePhase(p game.PhaseSnapshot) string {
	text := p.Regular.String()
	if p.Setup != game.SetupFinished {
		text = p.Setup.String()
	}
	if p.Combat != game.NoCombat {
		text += "/" + p.Combat.String()
	}
	return fmt.Sprintf("%s, turn %d, acting %d", text, p.TurnPlayer, p.ActivePlayer)
}

func describeHex(h game.HexSnapshot) string {
	text := h.Hex.String()
	if !h.FaceUp {
		text += " face down"
	}
	if h.OwnerID != 0 {
		text += fmt.Sprintf(", owner %d", h.OwnerID)
	}
	if len(h.Things) > 0 {
		text += ": " + describeTiles(h.Things)
	}
	return text
}

func describeTiles(ts []tile.Tile) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
