package chatws

import (
	"context"
	"encoding/json"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/Kumampet/itanavi-chat/internal/services"
)

// chatService is the slice of the group chat service the read pump needs.
type chatService interface {
	SendMessage(ctx context.Context, actorID int64, groupID int64, content string, isAnnouncement bool) (*services.ChatDelivery, error)
	MarkRead(ctx context.Context, actorID int64, groupID int64, messageID int64) error
}

type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	connectionID string
	userID       int64
	groupID      int64
	send         chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, groupID int64) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		connectionID: uuid.NewString(),
		userID:       userID,
		groupID:      groupID,
		send:         make(chan []byte, 32),
	}
}

func (c *Client) ReadPump(service chatService) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.writeError("invalid frame")
			continue
		}

		switch frame.Type {
		case FrameMessage:
			delivery, err := service.SendMessage(
				context.Background(),
				c.userID,
				c.groupID,
				frame.Content,
				frame.IsAnnouncement,
			)
			if err != nil {
				c.writeError("failed to send message")
				continue
			}
			c.hub.BroadcastNewMessage(c.groupID, delivery.Message)
			// The author's watermark was advanced by the send; echo it.
			c.hub.BroadcastReadUpdated(c.groupID, c.userID, delivery.Message.ID)
		case FrameRead:
			if err := service.MarkRead(context.Background(), c.userID, c.groupID, frame.MessageID); err != nil {
				c.writeError("failed to mark read")
				continue
			}
			c.hub.BroadcastReadUpdated(c.groupID, c.userID, frame.MessageID)
		default:
			c.writeError("unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(PushEvent{
		Type:    EventError,
		GroupID: c.groupID,
		Error:   message,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.hub.Unregister(c)
	}
}
