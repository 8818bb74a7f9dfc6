package engine

import (
	"io"
	"sync"

	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/protocol"
)

// CLIPlayer writes everything it hears to a terminal. It can sit in a
// game as a player, or listen straight to a game's Bus.
type CLIPlayer struct {
	id   int
	name string
	out  io.Writer

	mu sync.Mutex
}

func NewCLIPlayer(id int, name string, out io.Writer) *CLIPlayer {
	return &CLIPlayer{id: id, name: name, out: out}
}

func (p *CLIPlayer) ID() int {
	return p.id
}

func (p *CLIPlayer) Name() string {
	return p.name
}

func (p *CLIPlayer) Send(msg protocol.OutboundMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Command {
	case protocol.Joined, protocol.Left:
		SendText(p.out, "%s\n", msg.Message)
	case protocol.Notification:
		if msg.Notification != nil {
			SendText(p.out, "%s\n", DescribeNotification(*msg.Notification))
		}
		if msg.Snapshot != nil {
			SendText(p.out, "%s\n", DescribeSnapshot(*msg.Snapshot))
		}
	case protocol.Error:
		SendText(p.out, "%s rejected: %s\n", msg.Message, msg.Error)
	case protocol.Ack:
		if msg.Roll != nil {
			SendText(p.out, "%s: rolled %v\n", msg.Message, msg.Roll.FinalRolls)
		}
	}
	return nil
}

// Notify lets a CLIPlayer subscribe to a Bus directly
func (p *CLIPlayer) Notify(n game.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	SendText(p.out, "%s\n", DescribeNotification(n))
}

func (p *CLIPlayer) Close() {}
