package chatclient

// BottomThreshold is how close to the bottom, in pixels, the viewport must
// be for new content to keep it pinned to the bottom.
const BottomThreshold = 50

// AnchorState is a snapshot of a scrollable viewport.
type AnchorState struct {
	Offset         int
	ViewportHeight int
	ContentHeight  int
}

// AtBottom reports whether the viewport was within threshold pixels of the
// bottom when the snapshot was taken.
func (s AnchorState) AtBottom(threshold int) bool {
	return s.Offset+s.ViewportHeight >= s.ContentHeight-threshold
}

// ScrollAnchor abstracts the scrollable container holding the message list.
// Capture is called before the sequence changes, Restore after, with the
// height delta the new content introduced. Implementations pin to the new
// bottom when the captured state was at the bottom, and otherwise leave the
// offset alone so the messages the user was reading stay put.
type ScrollAnchor interface {
	Capture() AnchorState
	Restore(prev AnchorState, heightDelta int)
}

// NextOffset is the anchoring policy implementations apply in Restore: a
// viewport that was at the bottom stays pinned to the new bottom, anything
// else keeps its offset. New content lands below the viewport, so an
// unchanged offset is what keeps the visible messages anchored.
func NextOffset(prev AnchorState, heightDelta int, threshold int) int {
	if prev.AtBottom(threshold) {
		return prev.ContentHeight + heightDelta
	}
	return prev.Offset
}

// NopAnchor is for headless use: unread-badge surfaces, tests of non-scroll
// behavior, prefetching.
type NopAnchor struct{}

func (NopAnchor) Capture() AnchorState            { return AnchorState{} }
func (NopAnchor) Restore(prev AnchorState, _ int) {}
