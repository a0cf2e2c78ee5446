package notification

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var _ Channel = (*Hub)(nil)

type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans order events out to connected websocket clients. Slow
// clients are dropped rather than allowed to stall the broadcast loop.
type Hub struct {
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	register   chan *client
	unregister chan *client
	broadcast  chan event
	clients    map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan event, 64),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set. It must be running before the hub serves
// connections or emits events.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("marshal event", slog.Any("err", err))
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		case <-stop:
			for c := range h.clients {
				close(c.send)
			}
			return
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", slog.Any("err", err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.register <- c
	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
}

// readLoop drains and discards client frames so pings are answered and
// closes are noticed.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) emit(ev event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("notification dropped", slog.String("type", ev.Type))
	}
}

func (h *Hub) EmitOrderUpdate(update OrderUpdate) {
	h.emit(event{Type: "order_update", Payload: update})
}

func (h *Hub) EmitTradeAlert(alert TradeAlert) {
	h.emit(event{Type: "trade_alert", Payload: alert})
}
