package chatclient

import (
	"context"
	"log"
	"sync"
)

// sessionAPI is the slice of the REST client a session uses.
type sessionAPI interface {
	ListMessages(ctx context.Context, groupID int64) ([]Message, error)
	SendMessage(ctx context.Context, groupID int64, content string, isAnnouncement bool) (*Message, error)
	MarkRead(ctx context.Context, groupID int64, messageID int64) error
	UnreadMap(ctx context.Context) (map[int64]bool, error)
}

// connectionState is the delivery-confidence signal from the connection
// manager.
type connectionState interface {
	Connected() bool
}

// Session owns one mounted chat view: the message store, read tracker and
// unread poller for a single group, plus the view-lifetime context that
// cancels everything in flight on unmount. Store mutations are serialized
// through the session's lock, whichever goroutine they arrive on.
type Session struct {
	api    sessionAPI
	conn   connectionState
	anchor ScrollAnchor
	viewer ViewerContext

	store   *MessageStore
	tracker *ReadTracker
	poller  *UnreadPoller

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	logf   func(format string, args ...any)
}

func NewSession(
	api sessionAPI,
	conn connectionState,
	groupID int64,
	viewer ViewerContext,
	anchor ScrollAnchor,
) *Session {
	if anchor == nil {
		anchor = NopAnchor{}
	}
	viewer.ActiveGroupID = groupID

	s := &Session{
		api:     api,
		conn:    conn,
		anchor:  anchor,
		viewer:  viewer,
		store:   NewMessageStore(groupID),
		tracker: NewReadTracker(groupID, viewer, api),
		logf:    log.Printf,
	}
	s.poller = NewUnreadPoller(groupID, api, s.tracker.OnStatusFetch)
	return s
}

func (s *Session) Store() *MessageStore  { return s.store }
func (s *Session) Tracker() *ReadTracker { return s.tracker }

// Open performs the initial full fetch and starts the view lifetime. The
// caller separately points its ConnectionManager at the group; the channel
// is optional and the session works off fetch/poll alone.
func (s *Session) Open(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.ctx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	messages, err := s.api.ListMessages(runCtx, s.store.GroupID())
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := s.store.MergePoll(messages, s.anchor)
	latest, ok := s.store.Latest()
	s.mu.Unlock()

	if changed && ok {
		s.tracker.OnMessagesChanged(runCtx, latest.ID)
	}
	return nil
}

// Poll refetches the full snapshot and reconciles it. Used as the fallback
// delivery path while the channel is down, or on an interval.
func (s *Session) Poll() {
	ctx := s.viewContext()
	if ctx == nil {
		return
	}

	messages, err := s.api.ListMessages(ctx, s.store.GroupID())
	if err != nil {
		if ctx.Err() == nil {
			s.logf("chatclient: poll group=%d: %v", s.store.GroupID(), err)
		}
		return
	}
	if ctx.Err() != nil {
		// The view unmounted while the fetch was in flight.
		return
	}

	s.mu.Lock()
	changed := s.store.MergePoll(messages, s.anchor)
	latest, ok := s.store.Latest()
	s.mu.Unlock()

	if changed && ok {
		s.tracker.OnMessagesChanged(ctx, latest.ID)
	}
}

// HandleEvent dispatches a push event from the connection manager.
func (s *Session) HandleEvent(event PushEvent) {
	ctx := s.viewContext()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	switch event.Type {
	case EventNewMessage:
		if event.Message == nil {
			return
		}
		s.mu.Lock()
		changed := s.store.MergePush(event.GroupID, *event.Message, s.anchor)
		latest, ok := s.store.Latest()
		s.mu.Unlock()

		if changed && ok {
			s.tracker.OnMessagesChanged(ctx, latest.ID)
		}
	case EventReadUpdated:
		s.tracker.OnReadUpdated(event.GroupID, event.UserID)
	}
}

// Send posts a message. When the realtime channel is down at send time the
// created message is appended locally right away; id-dedup in the store
// keeps it single once the poll or push echo catches up.
func (s *Session) Send(ctx context.Context, content string, isAnnouncement bool) (*Message, error) {
	message, err := s.api.SendMessage(ctx, s.store.GroupID(), ClipContent(content), isAnnouncement)
	if err != nil {
		return nil, err
	}

	if !s.conn.Connected() {
		s.mu.Lock()
		s.store.AppendLocal(*message, s.anchor)
		s.mu.Unlock()
	}

	s.tracker.OnSelfSend()
	return message, nil
}

// SetChatTabActive switches between push-driven read tracking (active) and
// background unread polling (inactive). Entering the tab acknowledges the
// newest message.
func (s *Session) SetChatTabActive(active bool) {
	s.mu.Lock()
	s.viewer.ChatTabActive = active
	ctx := s.ctx
	latest, ok := s.store.Latest()
	s.mu.Unlock()

	s.tracker.SetChatTabActive(active)
	if ctx != nil {
		s.poller.SetChatTabActive(ctx, active)
		if active && ok {
			s.tracker.OnMessagesChanged(ctx, latest.ID)
		}
	}
}

// Close tears the view down: stops the poller and cancels the view context
// so in-flight fetches are discarded instead of writing stale state.
func (s *Session) Close() {
	s.poller.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *Session) viewContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
