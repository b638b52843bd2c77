// Package stream pushes state updates to websocket subscribers: wallet state,
// portfolio snapshots and price refreshes, one JSON envelope per message.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	sendBufferSize = 64
)

// envelope is the wire format for every hub message.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published state out to all connected clients. New clients get a
// replay of the last message per topic so they start from current state.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    map[string][]byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger.Named("StreamHub"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		last:    make(map[string][]byte),
	}
}

// Publish sends data to every connected client under the given topic.
// Clients whose buffers are full skip the message rather than block the
// publisher.
func (h *Hub) Publish(topic string, data any) {
	message, err := jsonCodec.Marshal(envelope{Type: topic, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal stream message", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mu.Lock()
	h.last[topic] = message
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- message:
		default:
			h.logger.Warn("client buffer full, dropping message", zap.String("topic", topic))
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handle upgrades a gin request to a websocket session.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	replay := make([][]byte, 0, len(h.last))
	for _, message := range h.last {
		replay = append(replay, message)
	}
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	for _, message := range replay {
		select {
		case cl.send <- message:
		default:
		}
	}

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, present := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()
	if present {
		cl.conn.Close()
		h.logger.Info("client disconnected", zap.String("remote", cl.conn.RemoteAddr().String()))
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(cl)
	}()

	for {
		select {
		case message, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so close frames and pongs are processed.
func (h *Hub) readPump(cl *client) {
	defer h.remove(cl)

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
