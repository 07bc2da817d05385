package chatclient

import (
	"context"
	"log"
	"sync"
)

// ReadState is the viewer's unread status for the conversation.
type ReadState int

const (
	// StateUnknown holds until the first unread-status fetch or mark-read.
	StateUnknown ReadState = iota
	StateRead
	StateUnread
)

func (s ReadState) String() string {
	switch s {
	case StateRead:
		return "read"
	case StateUnread:
		return "unread"
	default:
		return "unknown"
	}
}

// readMarker is the slice of the API the tracker needs.
type readMarker interface {
	MarkRead(ctx context.Context, groupID int64, messageID int64) error
}

// ReadTracker keeps the unread indicator for one group consistent between
// the viewer and the server. Mark-read failures are logged and dropped; the
// next sequence change retries naturally, so there is no retry loop here.
type ReadTracker struct {
	mu      sync.Mutex
	groupID int64
	viewer  ViewerContext
	api     readMarker
	state   ReadState
	logf    func(format string, args ...any)
}

func NewReadTracker(groupID int64, viewer ViewerContext, api readMarker) *ReadTracker {
	return &ReadTracker{
		groupID: groupID,
		viewer:  viewer,
		api:     api,
		state:   StateUnknown,
		logf:    log.Printf,
	}
}

func (t *ReadTracker) State() ReadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetChatTabActive updates whether the chat view is the active tab.
func (t *ReadTracker) SetChatTabActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewer.ChatTabActive = active
}

// OnMessagesChanged fires after every change to the local sequence. While
// the chat tab is active it acknowledges the newest message; marking
// succeeds → Read, fails → logged and left for the next change to retry.
// While the tab is inactive new content flips the state to Unread.
func (t *ReadTracker) OnMessagesChanged(ctx context.Context, latestMessageID int64) {
	if latestMessageID <= 0 {
		return
	}

	t.mu.Lock()
	active := t.viewer.ChatTabActive
	t.mu.Unlock()

	if !active {
		t.mu.Lock()
		t.state = StateUnread
		t.mu.Unlock()
		return
	}

	if err := t.api.MarkRead(ctx, t.groupID, latestMessageID); err != nil {
		t.logf("chatclient: mark read group=%d message=%d: %v", t.groupID, latestMessageID, err)
		return
	}

	t.mu.Lock()
	t.state = StateRead
	t.mu.Unlock()
}

// OnReadUpdated handles a pushed read-receipt. Only the viewer's own echo
// clears the flag; it duplicates the OnMessagesChanged success path on
// purpose, since ordering between our write and the push echo is not
// guaranteed.
func (t *ReadTracker) OnReadUpdated(groupID int64, userID int64) {
	if groupID != t.groupID || userID != t.viewer.UserID {
		return
	}
	t.mu.Lock()
	t.state = StateRead
	t.mu.Unlock()
}

// OnSelfSend clears the unread flag immediately: a message the viewer just
// wrote is trivially read, no round trip needed.
func (t *ReadTracker) OnSelfSend() {
	t.mu.Lock()
	t.state = StateRead
	t.mu.Unlock()
}

// OnStatusFetch applies the unread flag from a poller tick.
func (t *ReadTracker) OnStatusFetch(unread bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if unread {
		t.state = StateUnread
	} else {
		t.state = StateRead
	}
}
