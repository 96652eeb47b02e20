package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains room membership and broadcasts events to rooms. All
// membership changes and deliveries run in the single Run loop; Broadcast
// only marshals and hands the message over, so a mutation path calling it is
// never blocked by a slow client.
type Hub struct {
	// rooms maps room name to its member set.
	rooms map[string]map[*Client]bool

	join       chan subscription
	leave      chan subscription
	unregister chan *Client
	broadcast  chan broadcastMessage

	mu sync.RWMutex
}

type subscription struct {
	client *Client
	room   string
}

type broadcastMessage struct {
	room    string
	payload []byte
}

// NewHub creates a hub. Call Run in its own goroutine before use.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		join:       make(chan subscription),
		leave:      make(chan subscription),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 256),
	}
}

// Run processes membership changes and broadcasts.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.join:
			h.mu.Lock()
			if _, ok := h.rooms[sub.room]; !ok {
				h.rooms[sub.room] = make(map[*Client]bool)
			}
			h.rooms[sub.room][sub.client] = true
			sub.client.rooms[sub.room] = true
			count := len(h.rooms[sub.room])
			h.mu.Unlock()
			log.Printf("Client %s joined room %q (%d members)", sub.client.ID, sub.room, count)

		case sub := <-h.leave:
			h.mu.Lock()
			h.removeFromRoom(sub.client, sub.room)
			h.mu.Unlock()
			log.Printf("Client %s left room %q", sub.client.ID, sub.room)

		case client := <-h.unregister:
			h.mu.Lock()
			for room := range client.rooms {
				h.removeFromRoom(client, room)
			}
			if !client.closed {
				client.closed = true
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client %s disconnected", client.ID)

		case message := <-h.broadcast:
			h.mu.Lock()
			members := h.rooms[message.room]
			delivered := 0
			for client := range members {
				select {
				case client.send <- message.payload:
					delivered++
				default:
					// Send buffer full: drop the client rather than
					// stall the room.
					for room := range client.rooms {
						h.removeFromRoom(client, room)
					}
					client.closed = true
					close(client.send)
					log.Printf("Client %s dropped: send buffer full", client.ID)
				}
			}
			h.mu.Unlock()
			if delivered > 0 {
				log.Printf("Broadcast to room %q reached %d clients", message.room, delivered)
			}
		}
	}
}

// removeFromRoom detaches a client from one room. Caller holds h.mu.
func (h *Hub) removeFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// Broadcast delivers an event to every client in the room. Delivery is
// at-most-once best-effort; when the hub's queue is full the event is dropped
// with a log line instead of blocking the caller.
func (h *Hub) Broadcast(room string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %q event: %v", event.Type, err)
		return
	}

	select {
	case h.broadcast <- broadcastMessage{room: room, payload: payload}:
	default:
		log.Printf("Broadcast queue full, dropped %q event for room %q", event.Type, room)
	}
}

// Join adds the client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.join <- subscription{client: client, room: room}
}

// Leave removes the client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.leave <- subscription{client: client, room: room}
}

// Unregister removes the client from every room and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// RoomSize reports current membership, used by tests and the status endpoint.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
