package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes a client-directed event to Redis so the instance
// holding that client can deliver it.
type Publisher interface {
	PublishStageEvent(clientID, event string, payload []byte) error
}

// Subscriber subscribes to the stage channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeStage(handler func(clientID, event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected pages and pushes gallery snapshots,
// notices, and pause directives to them. There is a single stage — every
// connected page sees the same gallery.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
	pub     Publisher
	cancel  func()
}

// NewHub creates the stage hub. When sub is non-nil the hub also listens on
// Redis so client-directed events reach clients on other instances.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
	}
	if sub != nil {
		cancel, err := sub.SubscribeStage(func(clientID, event string, payload []byte) {
			h.deliverLocal(clientID, event, json.RawMessage(payload))
		})
		if err != nil {
			logger.Warn("stage subscription failed", zap.Error(err))
		} else {
			h.cancel = cancel
		}
	}
	return h
}

// Close releases the Redis subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Register adds a connected page.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined stage", zap.String("client_id", c.ID))
}

// Unregister removes a connected page.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("client left stage", zap.String("client_id", c.ID))
}

// Broadcast sends an event to every locally connected page. Gallery snapshots
// go through here; each instance renders its own, so no Redis hop is needed.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// SendToClient delivers an event to one page. Pages on other instances are
// reached via the Redis stage channel.
func (h *Hub) SendToClient(clientID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.deliverLocal(clientID, event, data) {
		return
	}
	if h.pub != nil {
		_ = h.pub.PublishStageEvent(clientID, event, data)
	}
}

func (h *Hub) deliverLocal(clientID, event string, data json.RawMessage) bool {
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
	return true
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
