package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectionManager maintains a realtime channel scoped to the one group
// whose chat view is open. Connection failure is non-fatal: Connected()
// stays false and the caller keeps working off polling. There is no reconnect
// backoff; the channel is re-dialed only when the active group is set again.
type ConnectionManager struct {
	wsBaseURL string
	token     string
	dialer    *websocket.Dialer
	onEvent   func(PushEvent)
	logf      func(format string, args ...any)

	mu        sync.Mutex
	conn      *websocket.Conn
	groupID   int64
	connected bool
}

// NewConnectionManager takes the websocket base URL (ws:// or wss://) and
// the viewer's token. onEvent receives every decoded push event; it may be
// called from the read goroutine.
func NewConnectionManager(wsBaseURL string, token string, onEvent func(PushEvent)) *ConnectionManager {
	return &ConnectionManager{
		wsBaseURL: wsBaseURL,
		token:     token,
		dialer:    websocket.DefaultDialer,
		onEvent:   onEvent,
		logf:      log.Printf,
	}
}

// Connected reports whether the channel is up. It is purely a
// delivery-confidence signal: when false, a locally sent message gets an
// optimistic append because no push echo is coming.
func (m *ConnectionManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SetActiveGroup switches the channel to groupID. Zero means no active chat
// view. The previous channel is always torn down before a new one is dialed.
func (m *ConnectionManager) SetActiveGroup(ctx context.Context, groupID int64) {
	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
		m.connected = false
	}
	m.groupID = groupID
	m.mu.Unlock()

	if groupID == 0 {
		return
	}

	url := fmt.Sprintf("%s/api/ws?group=%d&token=%s", m.wsBaseURL, groupID, m.token)
	conn, _, err := m.dialer.DialContext(ctx, url, nil)
	if err != nil {
		m.logf("chatclient: dial group=%d: %v", groupID, err)
		return
	}

	m.mu.Lock()
	// The active group may have changed while dialing.
	if m.groupID != groupID {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.connected = true
	m.mu.Unlock()

	go m.readLoop(conn, groupID)
}

// SendFrame writes a client→server frame on the channel, if it is up.
func (m *ConnectionManager) SendFrame(frame any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("chatclient: not connected")
	}
	return conn.WriteJSON(frame)
}

func (m *ConnectionManager) readLoop(conn *websocket.Conn, groupID int64) {
	defer func() {
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
			m.connected = false
		}
		m.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event PushEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			m.logf("chatclient: decode push group=%d: %v", groupID, err)
			continue
		}
		if m.onEvent != nil {
			m.onEvent(event)
		}
	}
}
