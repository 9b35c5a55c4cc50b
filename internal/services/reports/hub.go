package reports

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/models"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans frame reports out to websocket clients. Slow clients drop
// messages rather than stall the pipeline.
type Hub struct {
	clients map[*client]bool
	mutex   sync.RWMutex
}

type client struct {
	conn   *websocket.Conn
	source string
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// PublishReport sends report to every client subscribed to its source
func (h *Hub) PublishReport(report models.FrameReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for c := range h.clients {
		if c.source != "" && c.source != report.Source {
			continue
		}
		select {
		case c.send <- payload:
		default:
			log.Debug().Msg("Websocket client too slow, dropping report")
		}
	}
	return nil
}

// ServeWS upgrades the request and streams reports until the client leaves.
// An empty source subscribes to every source.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, source string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, source: source, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	// reader only watches for the close frame
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("Websocket write failed")
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mutex.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mutex.Unlock()
	log.Info().Int("clients", total).Str("source", c.source).Msg("Websocket client connected")
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	total := len(h.clients)
	h.mutex.Unlock()
	c.conn.Close()
	log.Info().Int("clients", total).Msg("Websocket client disconnected")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
