package chatws

import "github.com/Kumampet/itanavi-chat/internal/models"

// Server → client push event types.
const (
	EventNewMessage  = "newMessage"
	EventReadUpdated = "readUpdated"
	EventError       = "error"
)

// Client → server frame types.
const (
	FrameMessage = "message"
	FrameRead    = "read"
)

// PushEvent is the envelope for everything the server pushes down a group
// channel.
type PushEvent struct {
	Type      string               `json:"type"`
	GroupID   int64                `json:"groupId"`
	Message   *models.GroupMessage `json:"message,omitempty"`
	UserID    int64                `json:"userId,omitempty"`
	MessageID int64                `json:"messageId,omitempty"`
	Error     string               `json:"error,omitempty"`
}

type inboundFrame struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	IsAnnouncement bool   `json:"isAnnouncement"`
	MessageID      int64  `json:"messageId"`
}
