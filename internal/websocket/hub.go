package chatws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Kumampet/itanavi-chat/internal/models"
)

// presenceStore records which connections are attached to which group in an
// external keyed store, so presence outlives the process. Failures are
// logged and otherwise ignored: the in-memory hub keeps delivering.
type presenceStore interface {
	Join(ctx context.Context, groupID int64, connectionID string, userID int64) error
	Leave(ctx context.Context, groupID int64, connectionID string) error
}

// Hub routes push events to the clients attached to each group channel. A
// client subscribes to exactly one group, the one whose chat view it has
// open.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound

	presence presenceStore
}

type outbound struct {
	groupID int64
	payload []byte
}

func NewHub(presence presenceStore) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outbound, 64),
		presence:   presence,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.groupID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.groupID] = set
			}
			set[client] = struct{}{}
			h.recordJoin(client)
		case client := <-h.unregister:
			set, ok := h.clients[client.groupID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
				h.recordLeave(client)
			}
			if len(set) == 0 {
				delete(h.clients, client.groupID)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastNewMessage pushes a freshly created message to every client on
// the group's channel, including the sender's own connection.
func (h *Hub) BroadcastNewMessage(groupID int64, message *models.GroupMessage) {
	h.push(&PushEvent{
		Type:    EventNewMessage,
		GroupID: groupID,
		Message: message,
	})
}

// BroadcastReadUpdated pushes a read-receipt event. The reader's own client
// uses the echo to clear its unread flag; others may update receipts.
func (h *Hub) BroadcastReadUpdated(groupID int64, userID int64, messageID int64) {
	h.push(&PushEvent{
		Type:      EventReadUpdated,
		GroupID:   groupID,
		UserID:    userID,
		MessageID: messageID,
	})
}

func (h *Hub) push(event *PushEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("chat hub encode event: %v", err)
		return
	}
	h.broadcast <- &outbound{groupID: event.GroupID, payload: payload}
}

func (h *Hub) deliver(message *outbound) {
	set, ok := h.clients[message.groupID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- message.payload:
		default:
			delete(set, client)
			close(client.send)
			h.recordLeave(client)
		}
	}
	if len(set) == 0 {
		delete(h.clients, message.groupID)
	}
}

func (h *Hub) recordJoin(client *Client) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.presence.Join(ctx, client.groupID, client.connectionID, client.userID); err != nil {
		log.Printf("chat hub presence join group=%d: %v", client.groupID, err)
	}
}

func (h *Hub) recordLeave(client *Client) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.presence.Leave(ctx, client.groupID, client.connectionID); err != nil {
		log.Printf("chat hub presence leave group=%d: %v", client.groupID, err)
	}
}
