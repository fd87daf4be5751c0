package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/playback"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// playEvent identifies the audio element a play/pause event refers to.
// Element ids cover the gallery clips and the "preview" element equally.
type playEvent struct {
	ElementID string `json:"element_id"`
}

// Client represents one connected page.
type Client struct {
	ID       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	playback *playback.Coordinator
	logger   *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			playback: playback.NewCoordinator(),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()

		// The page binds its recording session to this id.
		hub.SendToClient(client.ID, "hello", map[string]string{"client_id": client.ID})

		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "play":
			var ev playEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.ElementID == "" {
				continue
			}
			if pause := c.playback.Play(ev.ElementID); len(pause) > 0 {
				c.hub.SendToClient(c.ID, "pause", map[string][]string{"element_ids": pause})
			}
		case "pause":
			var ev playEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.ElementID == "" {
				continue
			}
			c.playback.Pause(ev.ElementID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
