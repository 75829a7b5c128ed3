// Package client talks to a pebbles server over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

// DefaultRequestTimeout bounds how long a request waits for its reply.
const DefaultRequestTimeout = 10 * time.Second

var (
	// ErrTimeout is returned when the server does not answer in time.
	ErrTimeout = errors.New("request timed out")

	// ErrClosed is returned once the connection has gone away.
	ErrClosed = errors.New("client closed")
)

// Update is the outcome of a game change: the events it produced and the
// snapshot after it.
type Update struct {
	Events []game.Event
	State  protocol.StateData
}

// Client represents a WebSocket client for the pebbles server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *protocol.Message
	updates   chan Update
	pending   map[string]chan *protocol.Message
	nextID    atomic.Uint64
	timeout   time.Duration
	clock     quartz.Clock
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewClient creates a new WebSocket client. A zero timeout uses
// DefaultRequestTimeout.
func NewClient(serverURL string, logger *log.Logger, clock quartz.Clock, timeout time.Duration) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		serverURL: serverURL,
		send:      make(chan *protocol.Message, 64),
		updates:   make(chan Update, 64),
		pending:   make(map[string]chan *protocol.Message),
		timeout:   timeout,
		clock:     clock,
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WebSocketURL turns an http(s) or ws(s) base URL into the /ws endpoint.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// Close closes the WebSocket connection. Pending requests fail with
// ErrClosed and the Updates channel is closed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
		}
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Updates delivers changes made by other clients.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// Initialize starts the game on the server.
func (c *Client) Initialize(ctx context.Context, cfg game.Config) (Update, error) {
	reply, err := c.request(ctx, protocol.TypeInit, protocol.NewConfigData(cfg))
	if err != nil {
		return Update{}, err
	}
	return decodeUpdate(reply)
}

// Turn takes n pebbles.
func (c *Client) Turn(ctx context.Context, n uint32) (Update, error) {
	return c.act(ctx, game.Turn(n))
}

// GiveUp concedes the game.
func (c *Client) GiveUp(ctx context.Context) (Update, error) {
	return c.act(ctx, game.GiveUp())
}

// Restart starts a fresh game.
func (c *Client) Restart(ctx context.Context, cfg game.Config) (Update, error) {
	return c.act(ctx, game.Restart(cfg))
}

// State fetches the current snapshot.
func (c *Client) State(ctx context.Context) (protocol.StateData, error) {
	reply, err := c.request(ctx, protocol.TypeState, nil)
	if err != nil {
		return protocol.StateData{}, err
	}

	var state protocol.StateData
	if err := json.Unmarshal(reply.Data, &state); err != nil {
		return protocol.StateData{}, fmt.Errorf("%w: %v", protocol.ErrMalformedPayload, err)
	}
	return state, nil
}

func (c *Client) act(ctx context.Context, a game.Action) (Update, error) {
	reply, err := c.request(ctx, protocol.TypeAction, protocol.NewActionData(a))
	if err != nil {
		return Update{}, err
	}
	return decodeUpdate(reply)
}

// request sends a message and waits for the reply carrying its request ID.
func (c *Client) request(ctx context.Context, t protocol.MessageType, data any) (*protocol.Message, error) {
	msg, err := protocol.NewMessage(t, data, c.clock.Now())
	if err != nil {
		return nil, err
	}
	msg.RequestID = fmt.Sprintf("req-%d", c.nextID.Add(1))

	timer := c.clock.NewTimer(c.timeout, "client", "request")
	defer timer.Stop()

	replies := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.pending[msg.RequestID] = replies
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	select {
	case c.send <- msg:
	case <-c.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case reply := <-replies:
		if reply.Type == protocol.TypeError {
			var e protocol.ErrorData
			if err := json.Unmarshal(reply.Data, &e); err != nil {
				return nil, fmt.Errorf("%w: %v", protocol.ErrMalformedPayload, err)
			}
			return nil, e.Err()
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("%s %s: %w", t, msg.RequestID, ErrTimeout)
	case <-c.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func decodeUpdate(msg *protocol.Message) (Update, error) {
	var result protocol.ResultData
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		return Update{}, fmt.Errorf("%w: %v", protocol.ErrMalformedPayload, err)
	}
	events, err := protocol.Events(result.Events)
	if err != nil {
		return Update{}, err
	}
	return Update{Events: events, State: result.State}, nil
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		_ = c.Close()
		close(c.updates)
	}()

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *protocol.Message) {
	if msg.RequestID != "" {
		c.mu.Lock()
		replies, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if ok {
			select {
			case replies <- msg:
			default:
				c.logger.Warn("Duplicate reply", "requestId", msg.RequestID)
			}
			return
		}
	}

	switch msg.Type {
	case protocol.TypeEvent:
		update, err := decodeUpdate(msg)
		if err != nil {
			c.logger.Warn("Dropping bad event", "error", err)
			return
		}
		select {
		case c.updates <- update:
		default:
			c.logger.Warn("Update buffer full, dropping event", "gameId", update.State.GameID)
		}
	case protocol.TypeError:
		c.logger.Warn("Server error without request", "data", string(msg.Data))
	default:
		c.logger.Debug("Unsolicited message", "type", msg.Type, "requestId", msg.RequestID)
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := c.clock.NewTicker(54*time.Second, "client", "ping")
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
