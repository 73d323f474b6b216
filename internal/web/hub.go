// Package web adapts the teacher's single-client WebSocket hub into a
// multi-subscriber broadcaster for scheduler job log lines: any number
// of browser tabs can watch /logs/ws at once.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans a stream of job log lines out to every currently connected
// client.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// LogLine is the JSON shape broadcast for every captured job log line.
type LogLine struct {
	Job       string `json:"job"`
	Line      string `json:"line"`
	Timestamp int64  `json:"timestamp"`
}

// Run processes register/unregister/broadcast events in an endless
// loop and never returns; callers launch it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = struct{}{}
			h.mutex.Unlock()

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.RLock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					log.Printf("web: client send buffer full, dropping")
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastLine wraps job/line into a LogLine and queues it for every
// connected client. Safe to pass directly as scheduler.Scheduler's
// OnLine callback.
func (h *Hub) BroadcastLine(job, line string) {
	payload, err := json.Marshal(LogLine{Job: job, Line: line, Timestamp: time.Now().Unix()})
	if err != nil {
		log.Printf("web: marshaling log line: %v", err)
		return
	}
	h.broadcast <- payload
}

// ServeWS upgrades r to a WebSocket connection and registers it as a
// new log-line subscriber.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: readPump error: %v", err)
			}
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
