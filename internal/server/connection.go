package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/pebbles/internal/protocol"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id          int64
	conn        *websocket.Conn
	send        chan *protocol.Message
	logger      *log.Logger
	clock       quartz.Clock
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	closed      bool
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(id int64, conn *websocket.Conn, logger *log.Logger, clock quartz.Clock, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:          id,
		conn:        conn,
		send:        make(chan *protocol.Message, 256),
		logger:      logger.WithPrefix("conn").With("conn", id),
		clock:       clock,
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the write pump.
func (c *Connection) SendMessage(msg *protocol.Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = errors.New("connection closed")
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	// Socket deadlines are wall-clock; the injected clock only drives pings
	// and message timestamps.
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.logger.Warn("Rejected frame", "error", err)
			c.sendError("", err)
			continue
		}
		c.handleMessage(msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "conn", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

	switch msg.Type {
	case protocol.TypeInit:
		cfg, err := protocol.DecodeConfig(msg.Data)
		if err != nil {
			c.sendError(msg.RequestID, err)
			return
		}
		result, err := c.gameService.Initialize(cfg, c)
		c.reply(msg.RequestID, protocol.TypeResult, result, err)

	case protocol.TypeAction:
		action, err := protocol.DecodeAction(msg.Data)
		if err != nil {
			c.sendError(msg.RequestID, err)
			return
		}
		result, err := c.gameService.Act(action, c)
		c.reply(msg.RequestID, protocol.TypeResult, result, err)

	case protocol.TypeState:
		if len(msg.Data) > 0 {
			var empty struct{}
			if err := protocol.Decode(msg.Data, &empty); err != nil {
				c.sendError(msg.RequestID, err)
				return
			}
		}
		state, err := c.gameService.State()
		c.reply(msg.RequestID, protocol.TypeState, state, err)

	default:
		c.sendError(msg.RequestID, unexpectedType(msg.Type))
	}
}

func (c *Connection) reply(requestID string, t protocol.MessageType, data any, err error) {
	if err != nil {
		c.sendError(requestID, err)
		return
	}
	msg, err := protocol.NewMessage(t, data, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg) // Ignore send errors
}

// sendError sends an error message to the client
func (c *Connection) sendError(requestID string, cause error) {
	errorMsg, err := protocol.NewMessage(protocol.TypeError, protocol.NewErrorData(cause), c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = requestID
	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}
