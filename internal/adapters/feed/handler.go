package feed

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler upgrades feed connections. The optional "session" query
// parameter narrows the feed to one session.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket feed handler for the given hub
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed upgrade failed: %v", err)
		return
	}

	sub := h.hub.subscribe(sessionID, conn)
	if err := h.hub.sendTo(sub, Message{Type: MessageHello, SessionID: sessionID}); err != nil {
		h.hub.unsubscribe(sub)
		return
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.unsubscribe(sub)
			return
		}
	}
}
