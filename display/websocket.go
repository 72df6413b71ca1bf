package meter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	Mt "github.com/maroda/meter/types"
)

const (
	writeWait    = 5 * time.Second
	clientBuffer = 16 // snapshots held for a slow client before frames drop
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is what a browser sends over /ws and /api/event:
//
//	{"type": "move", "x": 4.5}
type ClientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y,omitempty"`
}

// Event converts the message into queued input
func (m ClientMessage) Event() (Mt.Event, error) {
	kind, err := ParseKind(m.Type)
	if err != nil {
		return Mt.Event{}, err
	}
	return Mt.Event{Kind: kind, X: m.X, Y: m.Y}, nil
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes every snapshot to connected browsers as JSON,
// and queues what the browsers send back.
type Hub struct {
	MU      sync.RWMutex
	Queue   *EventQueue
	clients map[*client]struct{}
	snap    Mt.Snapshot
	raw     []byte // snap as sent
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Draw caches snap and sends it to every client
func (h *Hub) Draw(snap Mt.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Could not encode snapshot", slog.String("state", snap.State), slog.Any("Error", err))
		return
	}

	h.MU.Lock()
	defer h.MU.Unlock()
	h.snap = snap
	h.raw = raw
	for c := range h.clients {
		select {
		case c.send <- raw:
		default:
			slog.Debug("Client is behind, dropping snapshot", slog.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

// Last is the most recent snapshot drawn
func (h *Hub) Last() Mt.Snapshot {
	h.MU.RLock()
	defer h.MU.RUnlock()
	return h.snap
}

// Clients is the number of connected browsers
func (h *Hub) Clients() int {
	h.MU.RLock()
	defer h.MU.RUnlock()
	return len(h.clients)
}

// WebsocketHandler upgrades the connection, sends the latest snapshot,
// then streams snapshots out and client events in until either side closes.
func (h *Hub) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.MU.Lock()
	h.clients[c] = struct{}{}
	if h.raw != nil {
		c.send <- h.raw
	}
	h.MU.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	h.readLoop(c)

	h.MU.Lock()
	delete(h.clients, c)
	h.MU.Unlock()
	close(done)
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return // Connection closed
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("Websocket read failed", slog.Any("Error", err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Warn("Ignoring client message", slog.Any("Error", err))
			continue
		}
		ev, err := msg.Event()
		if err != nil {
			slog.Warn("Ignoring client message", slog.Any("Error", err))
			continue
		}
		if h.Queue == nil {
			continue
		}
		if err := h.Queue.Submit(ev); err != nil {
			slog.Warn("Client event dropped", slog.Any("Error", err))
		}
	}
}
