package models

import "time"

type Group struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	Name      string    `json:"name"`
	LeaderID  int64     `json:"leader_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GroupMember struct {
	GroupID     int64     `json:"group_id"`
	UserID      int64     `json:"user_id"`
	DisplayName *string   `json:"display_name,omitempty"`
	AccountName string    `json:"account_name"`
	IsLeader    bool      `json:"is_leader"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Name returns the member's display name, falling back to the account name
// when no display name has been set for the group.
func (m *GroupMember) Name() string {
	if m.DisplayName != nil && *m.DisplayName != "" {
		return *m.DisplayName
	}
	return m.AccountName
}

// GroupDetail is the viewer-relative view of a group returned by the API.
type GroupDetail struct {
	Group
	Members  []GroupMember `json:"members"`
	IsLeader bool          `json:"is_leader"`

	// OnlineUserIDs lists members currently attached to the group's realtime
	// channel. Empty when presence could not be read.
	OnlineUserIDs []int64 `json:"online_user_ids,omitempty"`

	// ReadMarker is the viewer's own watermark, so the client can seed its
	// unread state without a second round trip.
	ReadMarker *ReadMarker `json:"read_marker,omitempty"`
}
