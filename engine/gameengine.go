// Package engine runs game sessions: one goroutine per game drains a
// command queue, applies each command through the game's handler and
// fans the resulting notifications out to connected players.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PlayState is where a session is in its life
type PlayState int

const (
	Idle PlayState = iota
	InProgress
	Stopped
)

func (s PlayState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "inProgress"
	case Stopped:
		return "stopped"
	}
	return ""
}

var (
	ErrEngineStopped  = errors.New("game is no longer running")
	ErrUnknownSeat    = errors.New("no such seat in this game")
	ErrUnknownCommand = errors.New("unknown command")
	ErrHostCommand    = errors.New("only the server may issue this command")
)

// Journal records accepted commands
type Journal interface {
	Append(ctx context.Context, entry protocol.JournalEntry) error
}

// Result is what an accepted command produced
type Result struct {
	Seq   int64
	Roll  *dice.RollSnapshot
	Rolls []dice.RollSnapshot
}

type GameEngineOpts struct {
	GameID    string
	CreatorID int
	Setup     game.Setup
	Pool      game.DrawPool
	Roller    dice.Roller
	Events    *game.EventResolver
	Journal   Journal
	Logger    *zerolog.Logger
}

type request struct {
	msg   protocol.InboundMessage
	query func(*game.GameState)
	reply chan response
}

type response struct {
	result Result
	err    error
}

type registration struct {
	player Player
	reply  chan error
}

// GameEngine owns one game. Commands, reads and player changes all go
// through Listen, so the game is only ever touched by one goroutine.
type GameEngine struct {
	id        string
	creatorID int
	handler   *game.CommandHandler
	journal   Journal
	log       zerolog.Logger
	seq       int64
	busID     int

	mu        sync.RWMutex
	playState PlayState
	players   Players

	registerCh   chan registration
	unregisterCh chan Player
	inboundCh    chan request
	stopCh       chan struct{}
	done         chan struct{}
	stopOnce     sync.Once
}

// NewGameEngine validates the setup and builds the session. Nothing
// runs until Listen is called.
func NewGameEngine(opts GameEngineOpts) (*GameEngine, error) {
	if opts.GameID == "" {
		opts.GameID = NewID()
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("game", opts.GameID).Logger()

	state, err := game.NewGameState(opts.Setup)
	if err != nil {
		return nil, err
	}

	pool := opts.Pool
	if pool == nil {
		pool = opts.Setup.Pools()
	}

	handler, err := game.NewCommandHandler(state, game.HandlerOpts{
		Pool:   pool,
		Roller: opts.Roller,
		Events: opts.Events,
		Logger: &logger,
	})
	if err != nil {
		return nil, err
	}

	ge := &GameEngine{
		id:           opts.GameID,
		creatorID:    opts.CreatorID,
		handler:      handler,
		journal:      opts.Journal,
		log:          logger.With().Str("component", "engine").Logger(),
		registerCh:   make(chan registration),
		unregisterCh: make(chan Player),
		inboundCh:    make(chan request),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	ge.busID = handler.Bus().Register(game.SubscriberFunc(ge.broadcast))

	return ge, nil
}

func (ge *GameEngine) ID() string {
	return ge.id
}

func (ge *GameEngine) CreatorID() int {
	return ge.creatorID
}

func (ge *GameEngine) PlayState() PlayState {
	ge.mu.RLock()
	defer ge.mu.RUnlock()
	return ge.playState
}

// Players returns the players currently connected
func (ge *GameEngine) Players() Players {
	ge.mu.RLock()
	defer ge.mu.RUnlock()
	return append(Players{}, ge.players...)
}

// Done is closed once the session has stopped
func (ge *GameEngine) Done() <-chan struct{} {
	return ge.done
}

// Stop ends the session and disconnects every player
func (ge *GameEngine) Stop() {
	ge.stopOnce.Do(func() {
		close(ge.stopCh)
	})
}

// AddPlayer seats a connected player. A second connection for the same
// seat replaces the first.
func (ge *GameEngine) AddPlayer(p Player) error {
	reg := registration{player: p, reply: make(chan error, 1)}
	select {
	case ge.registerCh <- reg:
	case <-ge.done:
		return ErrEngineStopped
	}
	return <-reg.reply
}

// RemovePlayer disconnects p if it still holds its seat
func (ge *GameEngine) RemovePlayer(p Player) {
	select {
	case ge.unregisterCh <- p:
	case <-ge.done:
	}
}

// Submit queues a command and waits for it to be applied. A command
// that has been queued runs even if ctx ends while waiting.
func (ge *GameEngine) Submit(ctx context.Context, msg protocol.InboundMessage) (Result, error) {
	if err := msg.Validate(); err != nil {
		return Result{}, err
	}
	res, err := ge.do(ctx, request{msg: msg, reply: make(chan response, 1)})
	return res.result, err
}

// Snapshot returns a copy of the whole game
func (ge *GameEngine) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	_, err := ge.do(ctx, request{
		query: func(g *game.GameState) { snap = g.Snapshot() },
		reply: make(chan response, 1),
	})
	return snap, err
}

func (ge *GameEngine) do(ctx context.Context, req request) (response, error) {
	select {
	case ge.inboundCh <- req:
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-ge.done:
		return response{}, ErrEngineStopped
	}

	select {
	case res := <-req.reply:
		return res, res.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// Receive runs a command on behalf of a connected player and tells
// them how it went. Players only ever act as their own seat and never
// issue host commands.
func (ge *GameEngine) Receive(p Player, msg protocol.InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
	defer cancel()

	msg.PlayerID = p.ID()
	var (
		res Result
		err error
	)
	if msg.Command.IsHostCommand() {
		err = fmt.Errorf("%w: %s", ErrHostCommand, msg.Command)
	} else {
		res, err = ge.Submit(ctx, msg)
	}
	if err != nil {
		_ = p.Send(protocol.OutboundMessage{
			PlayerID: p.ID(),
			GameID:   ge.id,
			Command:  protocol.Error,
			Message:  msg.Command.String(),
			Error:    err.Error(),
		})
		return
	}

	_ = p.Send(protocol.OutboundMessage{
		PlayerID: p.ID(),
		GameID:   ge.id,
		Command:  protocol.Ack,
		Message:  msg.Command.String(),
		Roll:     res.Roll,
		Rolls:    res.Rolls,
	})
}

const receiveTimeout = 10 * time.Second

// Listen processes commands until ctx ends, Stop is called or the game
// turns out to be misconfigured
func (ge *GameEngine) Listen(ctx context.Context) {
	ge.mu.Lock()
	ge.playState = InProgress
	ge.mu.Unlock()
	defer ge.shutdown()

	ge.log.Info().Msg("game started")

	for {
		select {
		case <-ctx.Done():
			return

		case <-ge.stopCh:
			return

		case reg := <-ge.registerCh:
			reg.reply <- ge.register(reg.player)

		case p := <-ge.unregisterCh:
			ge.unregister(p)

		case req := <-ge.inboundCh:
			res, fatal := ge.handle(ctx, req)
			req.reply <- res
			if fatal {
				return
			}
		}
	}
}

func (ge *GameEngine) handle(ctx context.Context, req request) (response, bool) {
	if req.query != nil {
		req.query(ge.handler.State())
		return response{}, false
	}

	res, err := dispatch(ge.handler, req.msg)
	if err != nil {
		if errors.Is(err, game.ErrInvalidConfiguration) {
			ge.log.Error().Err(err).Str("command", req.msg.Command.String()).Msg("game state is inconsistent, stopping")
			return response{err: err}, true
		}
		ge.log.Debug().Err(err).Int("player", req.msg.PlayerID).Str("command", req.msg.Command.String()).Msg("command rejected")
		return response{err: err}, false
	}

	ge.seq++
	res.Seq = ge.seq
	if ge.journal != nil {
		entry := protocol.JournalEntry{
			GameID:   ge.id,
			Seq:      ge.seq,
			Message:  req.msg,
			Accepted: time.Now().UTC(),
		}
		if err := ge.journal.Append(ctx, entry); err != nil {
			ge.log.Error().Err(err).Int64("seq", ge.seq).Msg("could not journal command")
		}
	}
	return response{result: res}, false
}

func (ge *GameEngine) register(p Player) error {
	g := ge.handler.State()
	if _, ok := g.Player(p.ID()); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSeat, p.ID())
	}

	ge.mu.Lock()
	if old, ok := ge.players.Find(p.ID()); ok && old != p {
		old.Close()
		ge.players = ge.players.Remove(p.ID())
	}
	ge.players = AddPlayer(ge.players, p)
	ps := append(Players{}, ge.players...)
	ge.mu.Unlock()

	joiner := &protocol.PlayerInfo{PlayerID: p.ID(), Name: p.Name()}
	for _, other := range ps {
		_ = other.Send(buildNewJoinerMessage(ge.id, joiner, other))
	}

	snap := g.Snapshot()
	_ = p.Send(protocol.OutboundMessage{
		PlayerID: p.ID(),
		GameID:   ge.id,
		Command:  protocol.Notification,
		Snapshot: &snap,
	})

	ge.log.Info().Int("player", p.ID()).Msg("player connected")
	return nil
}

func (ge *GameEngine) unregister(p Player) {
	ge.mu.Lock()
	current, ok := ge.players.Find(p.ID())
	if !ok || current != p {
		ge.mu.Unlock()
		return
	}
	ge.players = ge.players.Remove(p.ID())
	ps := append(Players{}, ge.players...)
	ge.mu.Unlock()

	p.Close()
	for _, other := range ps {
		_ = other.Send(protocol.OutboundMessage{
			PlayerID: other.ID(),
			GameID:   ge.id,
			Command:  protocol.Left,
			Joiner:   &protocol.PlayerInfo{PlayerID: p.ID(), Name: p.Name()},
			Message:  fmt.Sprintf("%s has left the game", p.Name()),
		})
	}
	ge.log.Info().Int("player", p.ID()).Msg("player disconnected")
}

// broadcast forwards a game notification to every connected player. It
// runs on the Listen goroutine, inside the command that caused it.
func (ge *GameEngine) broadcast(n game.Notification) {
	ge.mu.RLock()
	ps := append(Players{}, ge.players...)
	ge.mu.RUnlock()

	for _, p := range ps {
		note := n
		if err := p.Send(protocol.OutboundMessage{
			PlayerID:     p.ID(),
			GameID:       ge.id,
			Command:      protocol.Notification,
			Notification: &note,
		}); err != nil {
			ge.log.Warn().Err(err).Int("player", p.ID()).Str("kind", n.Kind.String()).Msg("notification dropped")
		}
	}
}

func (ge *GameEngine) shutdown() {
	ge.handler.Bus().Unregister(ge.busID)

	ge.mu.Lock()
	ge.playState = Stopped
	ps := ge.players
	ge.players = nil
	ge.mu.Unlock()

	for _, p := range ps {
		p.Close()
	}
	close(ge.done)
	ge.log.Info().Msg("game stopped")
}

func buildNewJoinerMessage(gameID string, joiner *protocol.PlayerInfo, recipient Player) protocol.OutboundMessage {
	return protocol.OutboundMessage{
		PlayerID: recipient.ID(),
		GameID:   gameID,
		Command:  protocol.Joined,
		Joiner:   joiner,
		Message:  fmt.Sprintf("%s has joined the game!", joiner.Name),
	}
}
