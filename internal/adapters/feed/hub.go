package feed

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
)

// Message types sent to feed subscribers
const (
	MessageHello    = "hello"
	MessagePlan     = "plan"
	MessageDispatch = "dispatch"
	MessageCancel   = "cancel"
	MessagePriority = "priority"
)

// ActionMessage describes one executor action
type ActionMessage struct {
	ID       string                     `json:"id"`
	Type     string                     `json:"type"`
	Priority int                        `json:"priority"`
	Frame    int                        `json:"planned_frame"`
	Position *gamedata.PositionDocument `json:"position,omitempty"`
}

// Message is the envelope of everything the feed sends
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Frame     int    `json:"frame,omitempty"`

	Plan          []gamedata.PlanItemDocument `json:"plan,omitempty"`
	MaxGasWorkers int                         `json:"max_gas_workers,omitempty"`
	Aborted       bool                        `json:"aborted,omitempty"`
	AbortReason   string                      `json:"abort_reason,omitempty"`

	Action *ActionMessage `json:"action,omitempty"`
}

type subscriber struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (s *subscriber) write(data []byte, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(timeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans feed messages out to websocket subscribers. A subscriber
// follows one session, or every session when subscribed with "".
type Hub struct {
	mu           sync.RWMutex
	subscribers  map[*subscriber]struct{}
	writeTimeout time.Duration
}

// NewHub creates an empty hub
func NewHub(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		subscribers:  make(map[*subscriber]struct{}),
		writeTimeout: writeTimeout,
	}
}

func (h *Hub) subscribe(sessionID string, conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn, sessionID: sessionID}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

func (h *Hub) sendTo(sub *subscriber, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return sub.write(data, h.writeTimeout)
}

// Subscribers counts the connections that receive messages of sessionID
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for sub := range h.subscribers {
		if sub.sessionID == "" || sub.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Broadcast sends msg to every subscriber following its session and
// returns how many received it. Subscribers that fail to keep up are
// dropped.
func (h *Hub) Broadcast(msg Message) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		if sub.sessionID == "" || sub.sessionID == msg.SessionID {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, sub := range targets {
		if err := sub.write(data, h.writeTimeout); err != nil {
			log.Printf("failed to send %s to feed subscriber: %v", msg.Type, err)
			h.unsubscribe(sub)
			continue
		}
		sent++
	}
	return sent, nil
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.mu.Lock()
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon shutting down")
		sub.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		sub.mu.Unlock()
		sub.conn.Close()
	}
}
