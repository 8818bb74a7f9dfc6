// Package server exposes games over HTTP. Players create or join a
// game with plain requests, then play over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/engine"
	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	gameIDLength   = 6
	gameIDAttempts = 5
	requestTimeout = 5 * time.Second
)

type NewGameRes struct {
	GameID   string `json:"gameID"`
	PlayerID int    `json:"playerID"`
	Name     string `json:"name"`
	Token    string `json:"token"`
	Seed     int64  `json:"seed,omitempty"`
}

type JoinGameReq struct {
	PlayerID int `json:"playerID"`
}

type JoinGameRes struct {
	GameID   string `json:"gameID"`
	PlayerID int    `json:"playerID"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

type GetGameRes struct {
	GameID    string        `json:"gameID"`
	Status    string        `json:"status"`
	CreatorID int           `json:"creatorID"`
	Connected []int         `json:"connected"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

type ListGamesRes struct {
	Games []string `json:"games"`
}

type ServerOpts struct {
	Store          store.GameStore
	Journal        engine.Journal
	Tokens         *TokenIssuer
	AllowedOrigins []string
	Logger         *zerolog.Logger
}

// GameServer is a game server
type GameServer struct {
	store   store.GameStore
	journal engine.Journal
	tokens  *TokenIssuer
	log     zerolog.Logger
	gameLog zerolog.Logger

	upgrader websocket.Upgrader

	// games run until the server shuts down
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	http.Server
}

func NewID() string {
	return engine.NewID()
}

// NewGameID generates the short code players share to find a game
func NewGameID() string {
	letters := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	code := make([]byte, gameIDLength)
	for i := range code {
		code[i] = letters[rand.Intn(len(letters))]
	}
	return string(code)
}

func unknownGameIDMsg(unknownID string) string {
	return fmt.Sprintf("unknown game ID '%s'", unknownID)
}

// NewServer creates a new GameServer
func NewServer(opts ServerOpts) *GameServer {
	s := &GameServer{
		store:   opts.Store,
		journal: opts.Journal,
		tokens:  opts.Tokens,
		log:     log.Logger,
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	s.gameLog = s.log
	s.log = s.log.With().Str("component", "server").Logger()
	if s.store == nil {
		s.store = store.NewInMemoryGameStore()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/games", s.HandleListGames).Methods(http.MethodGet)
	router.HandleFunc("/games", s.HandleNewGame).Methods(http.MethodPost)
	router.HandleFunc("/games/{id}", s.HandleFindGame).Methods(http.MethodGet)
	router.HandleFunc("/games/{id}/join", s.HandleJoinGame).Methods(http.MethodPost)
	router.HandleFunc("/games/{id}/ws", s.HandleWS).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	s.Handler = handlers.CustomLoggingHandler(io.Discard, cors(router), s.logRequest)

	return s
}

// ServeHTTP serves http
func (g *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Handler.ServeHTTP(w, r)
}

// Shutdown stops accepting requests and ends every running game
func (g *GameServer) Shutdown(ctx context.Context) error {
	err := g.Server.Shutdown(ctx)
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (g *GameServer) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	g.log.Info().
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Msg("request")
}

func (g *GameServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *GameServer) HandleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ListGamesRes{Games: g.store.GameIDs()})
}

// HandleNewGame builds a game from the setup in the body. The first
// player in the setup is the creator and gets their seat straight away.
func (g *GameServer) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	setup, err := game.LoadSetup(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(setup.Players) == 0 {
		writeError(w, http.StatusBadRequest, "a game needs players")
		return
	}
	if !setup.Demo && setup.Seed == 0 {
		seed, err := dice.NewSeed()
		if err != nil {
			g.log.Error().Err(err).Msg("could not seed game")
			writeError(w, http.StatusInternalServerError, "could not seed game")
			return
		}
		setup.Seed = seed
	}

	creator := setup.Players[0]
	seats := make([]int, 0, len(setup.Players))
	for _, p := range setup.Players {
		seats = append(seats, p.ID)
	}

	ge, err := g.addGame(setup, creator.ID, seats)
	if err != nil {
		if errors.Is(err, game.ErrInvalidConfiguration) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		g.log.Error().Err(err).Msg("could not create game")
		writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}

	if err := g.store.ClaimSeat(ge.ID(), creator.ID); err != nil {
		g.log.Error().Err(err).Msg("could not seat creator")
		writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}

	token, err := g.tokens.Issue(ge.ID(), creator.ID)
	if err != nil {
		g.log.Error().Err(err).Msg("could not issue token")
		writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}

	g.log.Info().
		Str("game", ge.ID()).
		Int64("seed", setup.Seed).
		Bool("demo", setup.Demo).
		Msg("game created")

	writeJSON(w, http.StatusCreated, NewGameRes{
		GameID:   ge.ID(),
		PlayerID: creator.ID,
		Name:     creator.Name,
		Token:    token,
		Seed:     setup.Seed,
	})
}

// addGame builds the engine, finds it a free game ID and starts it
func (g *GameServer) addGame(setup game.Setup, creatorID int, seats []int) (*engine.GameEngine, error) {
	var lastErr error
	for i := 0; i < gameIDAttempts; i++ {
		ge, err := engine.NewGameEngine(engine.GameEngineOpts{
			GameID:    NewGameID(),
			CreatorID: creatorID,
			Setup:     setup,
			Journal:   g.journal,
			Logger:    &g.gameLog,
		})
		if err != nil {
			return nil, err
		}

		err = g.store.AddGame(ge, seats)
		if errors.Is(err, store.ErrGameExists) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			ge.Listen(g.ctx)
		}()
		return ge, nil
	}
	return nil, lastErr
}

func (g *GameServer) HandleFindGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	ge, ok := g.store.FindGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	snap, err := ge.Snapshot(ctx)
	if err != nil {
		g.log.Warn().Err(err).Str("game", gameID).Msg("could not read game")
		writeError(w, http.StatusServiceUnavailable, "game is not running")
		return
	}

	connected := []int{}
	for _, p := range ge.Players() {
		connected = append(connected, p.ID())
	}

	writeJSON(w, http.StatusOK, GetGameRes{
		GameID:    gameID,
		Status:    ge.PlayState().String(),
		CreatorID: ge.CreatorID(),
		Connected: connected,
		Snapshot:  snap,
	})
}

// HandleJoinGame hands an unclaimed seat to whoever asks for it first
func (g *GameServer) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	gameID := mux.Vars(r)["id"]

	var data JoinGameReq
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeParseError(err, w)
		return
	}
	if data.PlayerID <= 0 {
		writeError(w, http.StatusBadRequest, "missing player ID")
		return
	}

	err := g.store.ClaimSeat(gameID, data.PlayerID)
	switch {
	case errors.Is(err, store.ErrUnknownGameID):
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	case errors.Is(err, store.ErrUnknownPlayerID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrSeatTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		g.log.Error().Err(err).Msg("could not claim seat")
		writeError(w, http.StatusInternalServerError, "could not join game")
		return
	}

	token, err := g.tokens.Issue(gameID, data.PlayerID)
	if err != nil {
		g.log.Error().Err(err).Msg("could not issue token")
		writeError(w, http.StatusInternalServerError, "could not join game")
		return
	}

	writeJSON(w, http.StatusOK, JoinGameRes{
		GameID:   gameID,
		PlayerID: data.PlayerID,
		Name:     g.playerName(r.Context(), gameID, data.PlayerID),
		Token:    token,
	})
}

// HandleWS connects the bearer of a seat token to their game
func (g *GameServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	claims, err := g.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if claims.GameID != gameID {
		writeError(w, http.StatusForbidden, "token is for another game")
		return
	}

	ge, ok := g.store.FindGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}
	claimed, err := g.store.SeatClaimed(gameID, claims.PlayerID)
	if err != nil || !claimed {
		writeError(w, http.StatusForbidden, "seat has not been claimed")
		return
	}

	name := g.playerName(r.Context(), gameID, claims.PlayerID)

	rawConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		g.log.Warn().Err(err).Msg("could not upgrade to websocket")
		return
	}

	player := engine.NewWSPlayer(claims.PlayerID, name, rawConn, ge)
	if err := ge.AddPlayer(player); err != nil {
		g.log.Warn().Err(err).Int("player", claims.PlayerID).Msg("could not add player to game")
		_ = rawConn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		rawConn.Close()
		return
	}
	player.Start()
}

func (g *GameServer) playerName(ctx context.Context, gameID string, playerID int) string {
	ge, ok := g.store.FindGame(gameID)
	if !ok {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	snap, err := ge.Snapshot(ctx)
	if err != nil {
		return ""
	}
	for _, p := range snap.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return ""
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
