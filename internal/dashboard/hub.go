// internal/dashboard/hub.go
package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/poller"
)

const writeWait = 5 * time.Second

// hub pushes poller states to websocket clients.
// Run is the only goroutine that writes to a connection.
type hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	// current renders the message sent to a client right after it connects
	current  func() []byte
	onCount  func(n int)
	shutdown chan struct{}
}

func newHub(current func() []byte, onCount func(int)) *hub {
	if onCount == nil {
		onCount = func(int) {}
	}
	return &hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		current:    current,
		onCount:    onCount,
		shutdown:   make(chan struct{}),
	}
}

func (h *hub) run(ctx context.Context) {
	defer close(h.shutdown)
	defer func() {
		for client := range h.clients {
			_ = client.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(writeWait))
			client.Close()
		}
		h.onCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.onCount(len(h.clients))
			logger.Debug(logModule, "ws client connected, total=%d", len(h.clients))
			if msg := h.current(); msg != nil {
				h.send(client, msg)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.onCount(len(h.clients))
				logger.Debug(logModule, "ws client disconnected, total=%d", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.send(client, message)
			}
		}
	}
}

func (h *hub) send(client *websocket.Conn, msg []byte) {
	_ = client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
		logger.Debug(logModule, "ws send failed: %v", err)
		delete(h.clients, client)
		client.Close()
		h.onCount(len(h.clients))
	}
}

// Register returns false once the hub has stopped.
func (h *hub) Register(client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-h.shutdown:
		return false
	}
}

func (h *hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.shutdown:
	}
}

// Publish queues a state for every client. A full queue drops the state;
// the next one supersedes it anyway.
func (h *hub) Publish(s poller.State) {
	msg, err := json.Marshal(newStatusView(s))
	if err != nil {
		logger.Error(logModule, "encode state: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Debug(logModule, "ws broadcast queue full, state dropped")
	}
}
