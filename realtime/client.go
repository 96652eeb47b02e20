package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Write timeout per message.
	writeWait = 10 * time.Second

	// Read deadline; refreshed on every pong.
	pongWait = 60 * time.Second

	// Ping interval, must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Inbound messages are tiny join/leave/chat frames.
	maxMessageSize = 4096
)

// Client is one websocket connection. Which audiences it belongs to is
// decided by the join messages it sends, not by the URL it connected on.
type Client struct {
	// ID correlates log lines for one connection.
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms the client currently belongs to. Owned by the hub Run loop.
	rooms map[string]bool

	// closed guards against double-closing send. Owned by the hub.
	closed bool
}

// NewClient wraps an upgraded connection. Call StartPumps to begin serving.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, 256),
		rooms: make(map[string]bool),
	}
}

// StartPumps runs the read and write loops.
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// clientMessage is the inbound frame shape. Clients announce audience
// membership explicitly, mirroring how a socket client joins rooms.
type clientMessage struct {
	Type    string          `json:"type"`
	PollID  uint            `json:"poll_id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client %s read error: %v", c.ID, err)
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Client %s sent malformed message, ignored: %v", c.ID, err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg clientMessage) {
	switch msg.Type {
	case "join-teacher":
		c.hub.Join(c, RoomTeacher)
	case "join-student-room":
		c.hub.Join(c, RoomStudents)
		if msg.Name != "" {
			log.Printf("Client %s identified as student %q", c.ID, msg.Name)
		}
	case "join-poll":
		if msg.PollID > 0 {
			c.hub.Join(c, PollRoom(msg.PollID))
		}
	case "leave-poll":
		if msg.PollID > 0 {
			c.hub.Leave(c, PollRoom(msg.PollID))
		}
	case "join-chat":
		c.hub.Join(c, RoomChat)
	case "chat-message":
		// Relay only; the server keeps no chat history.
		if len(msg.Message) > 0 {
			c.hub.Broadcast(RoomChat, ChatMessage(msg.Message))
		}
	default:
		log.Printf("Client %s sent unknown message type %q", c.ID, msg.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush anything already queued.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
