// Package chatclient is the embeddable client core for Itanavi group chat.
// It keeps one group's message sequence reconciled across the two delivery
// paths (websocket push and full-refetch polling), tracks the viewer's read
// watermark, and polls unread state while the chat view is inactive. All
// viewport measurement goes through the ScrollAnchor interface so the logic
// stays independent of the rendering toolkit.
package chatclient

import "time"

// Message mirrors the server's wire format for a group message.
type Message struct {
	ID             int64      `json:"id"`
	GroupID        int64      `json:"group_id"`
	SenderID       int64      `json:"sender_id"`
	SenderName     string     `json:"sender_name,omitempty"`
	Content        string     `json:"content"`
	IsAnnouncement bool       `json:"is_announcement"`
	CreatedAt      time.Time  `json:"created_at"`
	Reactions      []Reaction `json:"reactions,omitempty"`
}

type Reaction struct {
	Emoji   string  `json:"emoji"`
	Count   int     `json:"count"`
	UserIDs []int64 `json:"user_ids"`
}

type GroupMember struct {
	GroupID     int64   `json:"group_id"`
	UserID      int64   `json:"user_id"`
	DisplayName *string `json:"display_name,omitempty"`
	AccountName string  `json:"account_name"`
	IsLeader    bool    `json:"is_leader"`
}

type GroupDetail struct {
	ID            int64         `json:"id"`
	EventID       int64         `json:"event_id"`
	Name          string        `json:"name"`
	LeaderID      int64         `json:"leader_id"`
	Members       []GroupMember `json:"members"`
	IsLeader      bool          `json:"is_leader"`
	OnlineUserIDs []int64       `json:"online_user_ids,omitempty"`
	ReadMarker    *ReadMarker   `json:"read_marker,omitempty"`
}

// ReadMarker is the viewer's last-acknowledged message in the group.
type ReadMarker struct {
	LastReadMessageID int64 `json:"last_read_message_id"`
}

// Push event types, as sent by the server.
const (
	EventNewMessage  = "newMessage"
	EventReadUpdated = "readUpdated"
)

// PushEvent is an inbound frame on the realtime channel.
type PushEvent struct {
	Type      string   `json:"type"`
	GroupID   int64    `json:"groupId"`
	Message   *Message `json:"message,omitempty"`
	UserID    int64    `json:"userId,omitempty"`
	MessageID int64    `json:"messageId,omitempty"`
}

// ViewerContext identifies who is looking at what. It is threaded explicitly
// through every component instead of being read from ambient state, so each
// component's behavior is a function of its inputs.
type ViewerContext struct {
	UserID        int64
	ActiveGroupID int64
	ChatTabActive bool
}
