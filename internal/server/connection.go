package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/network"
	"github.com/gravitas-games/cargoyard/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to an observer
type Connection struct {
	id     string
	ws     *websocket.Conn
	server *Server
	log    logrus.FieldLogger

	// Guards observer.Watching and closed
	mu       sync.RWMutex
	observer *models.Observer
	closed   bool

	// Buffered channel for outbound messages
	send chan []byte

	closeOnce sync.Once
}

// NewConnection creates a new connection for an authenticated observer
func NewConnection(id string, ws *websocket.Conn, server *Server, observer *models.Observer) *Connection {
	observer.ConnectionID = id
	observer.Connected = true
	observer.ConnectedAt = time.Now()
	return &Connection{
		id:       id,
		ws:       ws,
		server:   server,
		observer: observer,
		send:     make(chan []byte, 256),
		log: server.log.WithFields(logrus.Fields{
			"connection": id,
			"observer":   observer.Username,
		}),
	}
}

// ID returns the connection id
func (c *Connection) ID() string { return c.id }

// Watches reports whether events of owner go to this connection
func (c *Connection) Watches(owner string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observer.Watches(owner)
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			}
			return
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("failed to parse client message")
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("websocket write error")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.log.WithField("type", msg.Type).Debug("received message")

	switch msg.Type {
	case network.MsgTypeWatch:
		c.handleWatch(msg.Payload)

	case network.MsgTypeSnapshot:
		c.sendState()

	case network.MsgTypePing:
		c.handlePing()

	default:
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

// handleWatch replaces the set of owners this observer follows
func (c *Connection) handleWatch(payload json.RawMessage) {
	var watch network.WatchPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &watch); err != nil {
			c.SendError("invalid_watch", "Invalid watch payload")
			return
		}
	}

	owners := make([]string, 0, len(watch.Owners))
	for _, owner := range watch.Owners {
		if !c.server.world.HasOwner(owner) {
			c.SendError("unknown_owner", "Unknown carrier or station: "+owner)
			return
		}
		owners = append(owners, owner)
	}

	c.mu.Lock()
	c.observer.Watching = owners
	c.mu.Unlock()

	c.log.WithField("owners", owners).Debug("watch updated")
	c.sendState()
}

func (c *Connection) sendState() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeState,
		Payload: c.server.world.Snapshot(),
	})
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage queues a message; it is dropped when the buffer is full or
// the connection is closed
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal message")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close detaches the observer and closes the socket. Safe to call twice.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.server.session.RemoveObserver(c.id)

		c.mu.Lock()
		c.closed = true
		c.observer.Connected = false
		close(c.send)
		c.mu.Unlock()

		c.ws.Close()
	})
}
