package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/lox/pebbles/internal/server"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T, draws ...uint32) (*httptest.Server, *server.Server) {
	t.Helper()
	logger := quietLogger()
	clock := quartz.NewReal()

	gs := server.NewGameService(logger, randutil.NewSequence(draws...), clock)
	srv := server.NewServer("127.0.0.1:0", gs, logger, clock)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv
}

func connect(t *testing.T, url string, clock quartz.Clock, timeout time.Duration) *Client {
	t.Helper()
	c := NewClient(url, quietLogger(), clock, timeout)
	require.NoError(t, c.Connect(t.Context()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientPlaysAGame(t *testing.T) {
	ts, _ := startServer(t, 1, 1, 2, 0)
	c := connect(t, ts.URL, quartz.NewReal(), 5*time.Second)
	ctx := t.Context()

	_, err := c.State(ctx)
	assert.ErrorIs(t, err, game.ErrNotInitialized)

	update, err := c.Initialize(ctx, game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewCounterTurnEvent(2)}, update.Events)
	assert.Equal(t, uint32(8), update.State.PebblesRemaining)

	update, err = c.Turn(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewCounterTurnEvent(3)}, update.Events)

	_, err = c.Turn(ctx, 9)
	assert.ErrorIs(t, err, game.ErrInvalidMove)

	update, err = c.GiveUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewWonEvent(game.Program)}, update.Events)

	_, err = c.Turn(ctx, 1)
	assert.ErrorIs(t, err, game.ErrGameOver)

	update, err = c.Restart(ctx, game.Config{PebblesCount: 15, MaxPebblesPerTurn: 4, Difficulty: game.Hard})
	require.NoError(t, err)
	assert.Empty(t, update.Events)

	state, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, update.State, state)
	assert.Equal(t, game.User, state.FirstPlayer)
	assert.Equal(t, uint32(15), state.PebblesRemaining)
}

func TestClientReceivesOtherPlayersChanges(t *testing.T) {
	ts, srv := startServer(t, 0)
	player := connect(t, ts.URL, quartz.NewReal(), 5*time.Second)
	watcher := connect(t, ts.URL, quartz.NewReal(), 5*time.Second)
	require.Eventually(t, func() bool { return srv.ConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	update, err := player.Initialize(t.Context(), game.Config{PebblesCount: 12, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)

	select {
	case seen := <-watcher.Updates():
		assert.Equal(t, update, seen)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never saw the change")
	}

	select {
	case <-player.Updates():
		t.Fatal("requester should not receive its own change as an event")
	case <-time.After(50 * time.Millisecond):
	}
}

// silentServer accepts WebSockets and never answers.
func silentServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRequestTimeout(t *testing.T) {
	ts := silentServer(t)
	clock := quartz.NewMock(t)
	c := connect(t, ts.URL, clock, 5*time.Second)

	errs := make(chan error, 1)
	go func() {
		_, err := c.GiveUp(context.Background())
		errs <- err
	}()

	require.Eventually(t, func() bool { return c.pendingCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	clock.Advance(5 * time.Second).MustWait(t.Context())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not time out")
	}
	assert.Zero(t, c.pendingCount())
}

func TestClientCloseFailsPendingRequests(t *testing.T) {
	ts := silentServer(t)
	c := connect(t, ts.URL, quartz.NewMock(t), time.Minute)

	errs := make(chan error, 1)
	go func() {
		_, err := c.State(context.Background())
		errs <- err
	}()

	require.Eventually(t, func() bool { return c.pendingCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, ErrClosed), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not fail on close")
	}
}

func TestClientRequestHonoursContext(t *testing.T) {
	ts := silentServer(t)
	c := connect(t, ts.URL, quartz.NewMock(t), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Turn(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws", false},
		{"https://pebbles.example.com/", "wss://pebbles.example.com/ws", false},
		{"ws://127.0.0.1:9000", "ws://127.0.0.1:9000/ws", false},
		{"http://host/prefix", "ws://host/prefix/ws", false},
		{"ftp://host", "", true},
		{"://bad", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebSocketURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
