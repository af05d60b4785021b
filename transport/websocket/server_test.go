package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/scramble"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/service"
)

func newTestServer(t *testing.T, labels ...string) string {
	t.Helper()

	grid, err := entity.NewGrid(1, len(labels), labels)
	require.NoError(t, err)

	logger := slog.Default()
	statsService := service.NewStatsService(repository.NewMemoryStatsRepository())
	gameplay := service.NewGameplayService(logger, scramble.New(grid), statsService)
	server := New(logger, gameplay)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.upgradeToWebSocket)

	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload Payload) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, wsjson.Write(ctx, conn, Message{Action: action, Payload: raw}))
}

func receive(t *testing.T, conn *websocket.Conn, action string) Payload {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var response Message
	require.NoError(t, wsjson.Read(ctx, conn, &response))
	require.Equal(t, action, response.Action)

	var payload Payload
	require.NoError(t, json.Unmarshal(response.Payload, &payload))

	return payload
}

func roundTrip(t *testing.T, conn *websocket.Conn, action string, payload Payload) Payload {
	t.Helper()

	send(t, conn, action, payload)
	return receive(t, conn, action)
}

func TestServer_Connect(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")

	t.Run("MintsAPlayerID", func(t *testing.T) {
		// Given: a client with no identity
		conn := dial(t, wsURL)

		// When: it connects
		resp := roundTrip(t, conn, "connect", Payload{})

		// Then: it gets a fresh player and the current view
		require.NotNil(t, resp.Player)
		assert.NotEmpty(t, resp.Player.ID)
		assert.Equal(t, "1x2\ndown\ndown\n", resp.View)
	})

	t.Run("KeepsAKnownPlayerID", func(t *testing.T) {
		conn := dial(t, wsURL)

		resp := roundTrip(t, conn, "connect", Payload{Player: &entity.Player{ID: "returning"}})

		require.NotNil(t, resp.Player)
		assert.Equal(t, "returning", resp.Player.ID)
	})
}

func TestServer_Flip(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")
	conn := dial(t, wsURL)

	player := &entity.Player{ID: "p1"}

	// When: the player flips the first card
	resp := roundTrip(t, conn, "board:flip", Payload{Player: player, Spot: &entity.Position{Row: 0, Col: 0}})

	// Then: it comes up under their control
	assert.Empty(t, resp.Error)
	assert.Equal(t, "1x2\nmy A\ndown\n", resp.View)

	// When: they flip the same card again
	resp = roundTrip(t, conn, "board:flip", Payload{Player: player, Spot: &entity.Position{Row: 0, Col: 0}})

	// Then: the board rejects the move but the connection survives
	assert.NotEmpty(t, resp.Error)

	resp = roundTrip(t, conn, "board:look", Payload{Player: player})
	assert.Equal(t, "1x2\nmy A\ndown\n", resp.View)
}

func TestServer_FlipValidation(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")
	conn := dial(t, wsURL)

	resp := roundTrip(t, conn, "board:flip", Payload{Player: &entity.Player{ID: "p1"}})
	assert.Equal(t, "Spot is required", resp.Error)

	resp = roundTrip(t, conn, "board:flip", Payload{Spot: &entity.Position{Row: 0, Col: 0}})
	assert.Equal(t, "Player is required", resp.Error)
}

func TestServer_UnknownAction(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")
	conn := dial(t, wsURL)

	resp := roundTrip(t, conn, "board:shuffle", Payload{})

	assert.Equal(t, "unknown action", resp.Error)
}

func TestServer_Watch(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")

	watcher := dial(t, wsURL)
	player := dial(t, wsURL)

	// Given: a pending watch on one connection
	send(t, watcher, "board:watch", Payload{Player: &entity.Player{ID: "obs"}})
	time.Sleep(50 * time.Millisecond)

	// When: another connection changes the board
	resp := roundTrip(t, player, "board:flip", Payload{Player: &entity.Player{ID: "p1"}, Spot: &entity.Position{Row: 0, Col: 0}})
	require.Empty(t, resp.Error)

	// Then: the watcher wakes with the fresh view
	watched := receive(t, watcher, "board:watch")
	assert.Equal(t, "1x2\nup A\ndown\n", watched.View)
}

func TestServer_MapCards(t *testing.T) {
	wsURL := newTestServer(t, "A", "B")
	conn := dial(t, wsURL)

	player := &entity.Player{ID: "p1"}

	resp := roundTrip(t, conn, "board:map", Payload{Player: player, Labels: map[string]string{"A": "Z"}})
	require.Empty(t, resp.Error)
	assert.Equal(t, "1x2\ndown\ndown\n", resp.View)

	resp = roundTrip(t, conn, "board:flip", Payload{Player: player, Spot: &entity.Position{Row: 0, Col: 0}})
	assert.Equal(t, "1x2\nmy Z\ndown\n", resp.View)
}
