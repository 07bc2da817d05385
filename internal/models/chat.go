package models

import "time"

type GroupMessage struct {
	ID             int64           `json:"id"`
	GroupID        int64           `json:"group_id"`
	SenderID       int64           `json:"sender_id"`
	SenderName     string          `json:"sender_name,omitempty"`
	Content        string          `json:"content"`
	IsAnnouncement bool            `json:"is_announcement"`
	CreatedAt      time.Time       `json:"created_at"`
	Reactions      []ReactionGroup `json:"reactions,omitempty"`
}

// ReactionGroup is the per-emoji summary attached to a message: how many
// members reacted with this emoji and who they are.
type ReactionGroup struct {
	Emoji   string  `json:"emoji"`
	Count   int     `json:"count"`
	UserIDs []int64 `json:"user_ids"`
}

// ReadMarker is the per-(group, user) watermark of the last message a member
// has acknowledged. It only ever moves forward.
type ReadMarker struct {
	GroupID           int64     `json:"group_id"`
	UserID            int64     `json:"user_id"`
	LastReadMessageID int64     `json:"last_read_message_id"`
	UpdatedAt         time.Time `json:"updated_at"`
}
