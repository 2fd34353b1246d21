package ws

import (
	"WaRelay/internal/lib/sl"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	// operators never send payloads, only control frames
	maxReadSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authenticator validates an API key.
type Authenticator interface {
	ValidateToken(token string) error
}

// Subscriber is one operator connection on the event feed.
type Subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	out    chan []byte
	remote string
	types  map[string]bool
}

// parseTypes reads a comma separated event type filter; empty means all types.
func parseTypes(raw string) map[string]bool {
	var types map[string]bool
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if types == nil {
			types = make(map[string]bool)
		}
		types[t] = true
	}
	return types
}

func (s *Subscriber) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// ServeWs upgrades an authenticated request and subscribes it to the hub.
// Query: token=<api key>, types=message_received,reply_failed (optional).
func ServeWs(hub *Hub, auth Authenticator, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// browsers cannot set headers on websocket upgrades
	token := query.Get("token")
	if token == "" || auth.ValidateToken(token) != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	s := &Subscriber{
		hub:    hub,
		conn:   conn,
		out:    make(chan []byte, queueSize),
		remote: r.RemoteAddr,
		types:  parseTypes(query.Get("types")),
	}
	select {
	case hub.join <- s:
	case <-hub.quit:
		_ = conn.Close()
		return
	}

	go s.write()
	go s.watch()
}

// watch keeps the read side alive for pongs and reports the disconnect.
func (s *Subscriber) watch() {
	defer func() {
		select {
		case s.hub.leave <- s:
		case <-s.hub.quit:
		}
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxReadSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Subscriber) write() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
