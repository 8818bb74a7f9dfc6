package engine

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minaorangina/kingdoms/protocol"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Messages queued for a slow peer before new ones are dropped.
	sendBuffer = 64
)

var (
	ErrSendBufferFull = errors.New("player is not keeping up, message dropped")
	ErrPlayerClosed   = errors.New("player connection is closed")
)

// NewID constructs a game ID
func NewID() string {
	return uuid.NewV4().String()
}

// Player is a connection to someone sitting in a game
type Player interface {
	ID() int
	Name() string
	Send(msg protocol.OutboundMessage) error
	Close()
}

// Players represents the players connected to a game
type Players []Player

// NewPlayers returns a set of Players
func NewPlayers(p ...Player) Players {
	return Players(p)
}

// AddPlayer adds a player to a set of Players
func AddPlayer(ps Players, p Player) Players {
	if _, ok := ps.Find(p.ID()); !ok {
		return append(ps, p)
	}
	return ps
}

// Find finds a player by id
func (ps Players) Find(id int) (Player, bool) {
	for _, p := range ps {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Remove returns the players without the one holding id
func (ps Players) Remove(id int) Players {
	out := Players{}
	for _, p := range ps {
		if p.ID() != id {
			out = append(out, p)
		}
	}
	return out
}

// WSPlayer is a player connected over a websocket. Writes never block
// the game: messages go through a buffered channel drained by
// writePump.
type WSPlayer struct {
	id     int
	name   string
	conn   *websocket.Conn
	ge     *GameEngine
	log    zerolog.Logger
	sendCh chan []byte

	mu     sync.Mutex
	closed bool
}

// NewWSPlayer wraps the socket. Messages sent before Start are queued,
// so the player can be seated first and only then start reading.
func NewWSPlayer(id int, name string, ws *websocket.Conn, ge *GameEngine) *WSPlayer {
	return &WSPlayer{
		id:     id,
		name:   name,
		conn:   ws,
		ge:     ge,
		log:    ge.log.With().Int("player", id).Logger(),
		sendCh: make(chan []byte, sendBuffer),
	}
}

// Start pumps messages between the socket and the game
func (p *WSPlayer) Start() {
	go p.writePump()
	go p.readPump()
}

func (p *WSPlayer) ID() int {
	return p.id
}

func (p *WSPlayer) Name() string {
	return p.name
}

func (p *WSPlayer) Send(msg protocol.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}

	select {
	case p.sendCh <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the pumps and closes the socket
func (p *WSPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.sendCh)
}

func (p *WSPlayer) readPump() {
	defer p.ge.RemovePlayer(p)

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.Warn().Err(err).Msg("connection lost")
			}
			return
		}

		var msg protocol.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = p.Send(protocol.OutboundMessage{
				PlayerID: p.id,
				Command:  protocol.Error,
				Error:    "could not read message: " + err.Error(),
			})
			continue
		}

		p.ge.Receive(p, msg)
	}
}

func (p *WSPlayer) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.sendCh:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The engine closed the channel.
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				p.log.Warn().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
