package chatclient

// MessageStore holds the ordered, id-deduplicated message sequence for one
// group while its chat view is mounted. It is not safe for concurrent use;
// the Session serializes access the way a UI state queue would.
type MessageStore struct {
	groupID  int64
	messages []Message
	ids      map[int64]struct{}
	version  uint64
}

func NewMessageStore(groupID int64) *MessageStore {
	return &MessageStore{
		groupID: groupID,
		ids:     make(map[int64]struct{}),
	}
}

func (s *MessageStore) GroupID() int64 { return s.groupID }

func (s *MessageStore) Len() int { return len(s.messages) }

// Version increments on every change to the sequence. A merge that changes
// nothing leaves it untouched, which is how callers (and tests) verify that
// an empty diff is a true no-op.
func (s *MessageStore) Version() uint64 { return s.version }

// Messages returns a copy of the current sequence, oldest first.
func (s *MessageStore) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Latest returns the newest message, if any.
func (s *MessageStore) Latest() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *MessageStore) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// MergePoll reconciles a freshly fetched full snapshot with the local
// sequence. If the local sequence is empty the snapshot is adopted verbatim.
// If the snapshot introduces no ids the local one lacks, the fetch is
// discarded without touching the anchor. Otherwise the snapshot replaces the
// local sequence wholesale and the viewport is re-anchored. Returns whether
// the sequence changed.
func (s *MessageStore) MergePoll(fetched []Message, anchor ScrollAnchor) bool {
	if len(s.messages) == 0 {
		if len(fetched) == 0 {
			return false
		}
		s.adopt(fetched)
		return true
	}

	fresh := false
	for i := range fetched {
		if _, ok := s.ids[fetched[i].ID]; !ok {
			fresh = true
			break
		}
	}
	if !fresh {
		return false
	}

	prev := anchor.Capture()
	s.adopt(fetched)
	next := anchor.Capture()
	anchor.Restore(prev, next.ContentHeight-prev.ContentHeight)
	return true
}

// MergePush applies one pushed message. Events for other groups and
// messages already present are ignored, which makes duplicate delivery from
// push racing a concurrent poll harmless. The message is appended as-is:
// push delivery is assumed to preserve creation order, no re-sort happens.
// Returns whether the sequence changed.
func (s *MessageStore) MergePush(groupID int64, msg Message, anchor ScrollAnchor) bool {
	if groupID != s.groupID {
		return false
	}
	if _, ok := s.ids[msg.ID]; ok {
		return false
	}

	prev := anchor.Capture()
	s.append(msg)
	next := anchor.Capture()
	anchor.Restore(prev, next.ContentHeight-prev.ContentHeight)
	return true
}

// AppendLocal adds a message the viewer just sent, for the case where the
// realtime channel is down and no push echo will arrive promptly. Dedup by
// id keeps the message single even when a later poll or push carries it
// again. Returns whether the sequence changed.
func (s *MessageStore) AppendLocal(msg Message, anchor ScrollAnchor) bool {
	return s.MergePush(s.groupID, msg, anchor)
}

func (s *MessageStore) adopt(fetched []Message) {
	s.messages = make([]Message, len(fetched))
	copy(s.messages, fetched)
	s.ids = make(map[int64]struct{}, len(fetched))
	for i := range fetched {
		s.ids[fetched[i].ID] = struct{}{}
	}
	s.version++
}

func (s *MessageStore) append(msg Message) {
	s.messages = append(s.messages, msg)
	s.ids[msg.ID] = struct{}{}
	s.version++
}
