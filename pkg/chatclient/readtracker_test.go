package chatclient

import (
	"context"
	"errors"
	"testing"
)

type stubReadMarker struct {
	err    error
	calls  int
	lastID int64
}

func (s *stubReadMarker) MarkRead(_ context.Context, _ int64, messageID int64) error {
	s.calls++
	s.lastID = messageID
	return s.err
}

func activeViewer() ViewerContext {
	return ViewerContext{UserID: 42, ActiveGroupID: 7, ChatTabActive: true}
}

func TestOnMessagesChangedMarksNewestRead(t *testing.T) {
	marker := &stubReadMarker{}
	tracker := NewReadTracker(7, activeViewer(), marker)

	tracker.OnMessagesChanged(context.Background(), 12)

	if marker.calls != 1 || marker.lastID != 12 {
		t.Fatalf("expected one mark-read for id 12, got calls=%d lastID=%d", marker.calls, marker.lastID)
	}
	if tracker.State() != StateRead {
		t.Fatalf("expected state read, got %s", tracker.State())
	}
}

func TestOnMessagesChangedFailureKeepsStateAndRetriesNextChange(t *testing.T) {
	marker := &stubReadMarker{err: errors.New("boom")}
	tracker := NewReadTracker(7, activeViewer(), marker)
	tracker.logf = func(string, ...any) {}

	tracker.OnMessagesChanged(context.Background(), 12)
	if tracker.State() != StateUnknown {
		t.Fatalf("expected state to stay unknown after failure, got %s", tracker.State())
	}

	marker.err = nil
	tracker.OnMessagesChanged(context.Background(), 13)
	if marker.calls != 2 || marker.lastID != 13 {
		t.Fatalf("expected retry on next change, got calls=%d lastID=%d", marker.calls, marker.lastID)
	}
	if tracker.State() != StateRead {
		t.Fatalf("expected state read after retry, got %s", tracker.State())
	}
}

func TestInactiveTabFlipsToUnreadWithoutMarking(t *testing.T) {
	marker := &stubReadMarker{}
	viewer := activeViewer()
	viewer.ChatTabActive = false
	tracker := NewReadTracker(7, viewer, marker)

	tracker.OnMessagesChanged(context.Background(), 12)

	if marker.calls != 0 {
		t.Fatalf("expected no mark-read while inactive, got %d calls", marker.calls)
	}
	if tracker.State() != StateUnread {
		t.Fatalf("expected state unread, got %s", tracker.State())
	}
}

func TestSelfSendClearsUnreadImmediately(t *testing.T) {
	marker := &stubReadMarker{}
	viewer := activeViewer()
	viewer.ChatTabActive = false
	tracker := NewReadTracker(7, viewer, marker)

	tracker.OnMessagesChanged(context.Background(), 12)
	if tracker.State() != StateUnread {
		t.Fatalf("setup: expected unread, got %s", tracker.State())
	}

	tracker.OnSelfSend()

	if tracker.State() != StateRead {
		t.Fatalf("expected read after self send, got %s", tracker.State())
	}
	if marker.calls != 0 {
		t.Fatalf("self send must not round-trip, got %d mark-read calls", marker.calls)
	}
}

func TestOnReadUpdatedOnlyViewerEchoClears(t *testing.T) {
	marker := &stubReadMarker{}
	viewer := activeViewer()
	viewer.ChatTabActive = false
	tracker := NewReadTracker(7, viewer, marker)
	tracker.OnMessagesChanged(context.Background(), 12)

	tracker.OnReadUpdated(7, 99) // someone else
	if tracker.State() != StateUnread {
		t.Fatalf("another member's receipt must not clear the flag, got %s", tracker.State())
	}

	tracker.OnReadUpdated(8, 42) // wrong group
	if tracker.State() != StateUnread {
		t.Fatalf("another group's receipt must not clear the flag, got %s", tracker.State())
	}

	tracker.OnReadUpdated(7, 42) // the viewer's own echo
	if tracker.State() != StateRead {
		t.Fatalf("expected read after own echo, got %s", tracker.State())
	}
}

func TestOnStatusFetchResolvesUnknown(t *testing.T) {
	tracker := NewReadTracker(7, activeViewer(), &stubReadMarker{})
	if tracker.State() != StateUnknown {
		t.Fatalf("expected initial state unknown, got %s", tracker.State())
	}

	tracker.OnStatusFetch(true)
	if tracker.State() != StateUnread {
		t.Fatalf("expected unread after status fetch, got %s", tracker.State())
	}

	tracker.OnStatusFetch(false)
	if tracker.State() != StateRead {
		t.Fatalf("expected read after status fetch, got %s", tracker.State())
	}
}
