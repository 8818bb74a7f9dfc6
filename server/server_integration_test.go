package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/minaorangina/kingdoms/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayingOverWebsockets(t *testing.T) {
	s, journal := newTestGameServer(t)
	server := httptest.NewServer(s)
	defer server.Close()

	game := mustCreateGame(t, s)

	t.Run("refuses a missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, game.GameID, ""), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assertStatus(t, resp.StatusCode, http.StatusUnauthorized)
	})

	t.Run("refuses a token for another game", func(t *testing.T) {
		token, err := s.tokens.Issue("OTHERS", 1)
		require.NoError(t, err)

		_, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, game.GameID, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assertStatus(t, resp.StatusCode, http.StatusForbidden)
	})

	t.Run("refuses a seat nobody claimed", func(t *testing.T) {
		token, err := s.tokens.Issue(game.GameID, 2)
		require.NoError(t, err)

		_, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, game.GameID, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assertStatus(t, resp.StatusCode, http.StatusForbidden)
	})

	t.Run("a connected player can play", func(t *testing.T) {
		ws := mustDialWS(t, makeWSUrl(server.URL, game.GameID, game.Token))

		joined := readUntil(t, ws, protocol.Joined)
		utils.AssertEqual(t, joined.Joiner.PlayerID, 1)
		utils.AssertEqual(t, joined.Message, "Hermione has joined the game!")

		// a player always acts for their own seat
		require.NoError(t, ws.WriteJSON(protocol.InboundMessage{PlayerID: 2, Command: protocol.EndPlayerTurn}))
		ack := readUntil(t, ws, protocol.Ack)
		utils.AssertEqual(t, ack.PlayerID, 1)

		entries, err := journal.Entries(context.Background(), game.GameID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		utils.AssertEqual(t, entries[0].Message.PlayerID, 1)
		utils.AssertEqual(t, entries[0].Message.Command, protocol.EndPlayerTurn)
	})

	t.Run("rejected commands come back as errors", func(t *testing.T) {
		ws := mustDialWS(t, makeWSUrl(server.URL, game.GameID, game.Token))
		readUntil(t, ws, protocol.Joined)

		// player 2 is now acting
		require.NoError(t, ws.WriteJSON(protocol.InboundMessage{Command: protocol.EndPlayerTurn}))
		got := readUntil(t, ws, protocol.Error)
		utils.AssertEqual(t, got.Message, "EndPlayerTurn")
		assert.Contains(t, got.Error, "not player 1's turn")
	})

	t.Run("the seat is taken before any command is read", func(t *testing.T) {
		ws := mustDialWS(t, makeWSUrl(server.URL, game.GameID, game.Token))
		require.NoError(t, ws.WriteJSON(protocol.InboundMessage{Command: protocol.AddHits, Hits: 5}))

		snapshotSeen := false
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			var msg protocol.OutboundMessage
			require.NoError(t, ws.ReadJSON(&msg))
			if msg.Command == protocol.Notification && msg.Snapshot != nil {
				snapshotSeen = true
			}
			if msg.Command == protocol.Error {
				assert.True(t, snapshotSeen, "reply arrived before the game snapshot")
				assert.Contains(t, msg.Error, "only the server may issue")
				break
			}
		}
	})

	t.Run("games end when the server shuts down", func(t *testing.T) {
		ge, ok := s.store.FindGame(game.GameID)
		require.True(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Shutdown(ctx))

		select {
		case <-ge.Done():
		case <-time.After(time.Second):
			t.Fatal("game still running after shutdown")
		}
	})
}
