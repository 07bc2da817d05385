package chatclient

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval is how often unread state is checked while the chat
// tab is inactive.
const DefaultPollInterval = 30 * time.Second

// unreadFetcher is the slice of the API the poller needs.
type unreadFetcher interface {
	UnreadMap(ctx context.Context) (map[int64]bool, error)
}

// UnreadPoller is the fallback coverage for a conversation the viewer is
// not actively looking at. While the chat tab is inactive it periodically
// fetches the unread map and applies this group's flag; the moment the tab
// becomes active it stops, superseded by push delivery plus the tracker.
// A failed tick is logged and skipped, the next tick retries.
type UnreadPoller struct {
	groupID  int64
	api      unreadFetcher
	apply    func(unread bool)
	interval time.Duration
	logf     func(format string, args ...any)

	// newTicker is swapped out by tests to drive ticks manually.
	newTicker func(d time.Duration) (<-chan time.Time, func())

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewUnreadPoller(groupID int64, api unreadFetcher, apply func(unread bool)) *UnreadPoller {
	return &UnreadPoller{
		groupID:  groupID,
		api:      api,
		apply:    apply,
		interval: DefaultPollInterval,
		logf:     log.Printf,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// SetChatTabActive starts polling when the tab goes inactive and stops it
// immediately when the tab becomes active.
func (p *UnreadPoller) SetChatTabActive(ctx context.Context, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if active {
		p.stopLocked()
		return
	}
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(runCtx)
}

// Stop halts polling regardless of tab state.
func (p *UnreadPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *UnreadPoller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *UnreadPoller) run(ctx context.Context) {
	ticks, stop := p.newTicker(p.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			// A tick can race the stop; never fetch after cancellation.
			if ctx.Err() != nil {
				return
			}
			p.poll(ctx)
		}
	}
}

func (p *UnreadPoller) poll(ctx context.Context) {
	unread, err := p.api.UnreadMap(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logf("chatclient: unread poll group=%d: %v", p.groupID, err)
		}
		return
	}
	p.apply(unread[p.groupID])
}
