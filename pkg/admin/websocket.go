package admin

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
)

const (
	// wsWriteWait bounds each websocket write.
	wsWriteWait = 10 * time.Second

	// wsPongWait is how long a client may stay silent before the read side
	// gives up on it.
	wsPongWait = 60 * time.Second

	// wsPingPeriod is the ping cadence; must be shorter than wsPongWait.
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The route sits behind JWTAuth; browser dashboards connect from any
	// origin with a token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler upgrades clients to websocket and streams bus events.
type EventsHandler struct {
	bus *events.Bus
}

// NewEventsHandler creates a new events handler. bus may be nil.
func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// Stream handles GET /api/v1/events/ws.
//
// Each client gets its own bus subscription; the optional types query
// parameter narrows it to a comma-separated list of event types. A slow
// client loses events rather than stalling publishers.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		ServiceUnavailable(w, "Event bus is not available")
		return
	}

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		bus:    h.bus,
		events: h.bus.Subscribe(types...),
	}
	logger.Debug("event stream client connected",
		"remote", r.RemoteAddr, "types", types)

	go client.writePump()
	client.readPump()
}

// wsClient is one websocket subscriber. The write pump owns the connection's
// write side; the read pump only consumes control frames.
type wsClient struct {
	conn   *websocket.Conn
	bus    *events.Bus
	events chan events.Event

	closeOnce sync.Once
}

// teardown detaches from the bus and closes the connection. Either pump may
// trigger it; it runs once.
func (c *wsClient) teardown() {
	c.closeOnce.Do(func() {
		c.bus.Unsubscribe(c.events)
		_ = c.conn.Close()
	})
}

// writePump forwards bus events to the connection and keeps it alive with
// pings. Exits when the subscription is closed or a write fails.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case e, ok := <-c.events:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event bus closed"))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames for pong handling and close detection.
// Clients are not expected to send data; anything received is discarded.
func (c *wsClient) readPump() {
	defer c.teardown()

	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
