package events

import (
	"WaRelay/internal/ws"
	"log/slog"
	"net/http"
)

// Feed upgrades the request to a websocket subscribed to relay events.
func Feed(log *slog.Logger, hub *ws.Hub, auth ws.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, auth, log, w, r)
	}
}
