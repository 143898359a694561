package inspect

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected WebSocket consumer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans mutation records out to every connected client.
type hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	writeTimeout time.Duration
	logger       *slog.Logger
}

func newHub(writeTimeout time.Duration, logger *slog.Logger) *hub {
	return &hub{
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan []byte, 64),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// run owns the client set. It exits when the hub is closed, closing
// every client's send queue on the way out.
func (h *hub) run() {
	clients := map[*client]bool{}
	for {
		select {
		case c := <-h.register:
			clients[c] = true

		case c := <-h.unregister:
			if clients[c] {
				delete(clients, c)
				close(c.send)
			}

		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than stall the
					// broadcast loop.
					delete(clients, c)
					close(c.send)
				}
			}

		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

func (h *hub) close() {
	close(h.done)
}

// publish queues msg for broadcast without blocking the notifying
// store; records are dropped if the hub's queue is full.
func (h *hub) publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("broadcast queue full, dropping record")
	}
}

// writePump drains the client's send queue onto the connection.
func (h *hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound messages and unregisters the client when
// the connection drops.
func (h *hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Error("read error", "error", err)
			}
			return
		}
	}
}
