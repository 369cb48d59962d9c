package consensus

import "time"

// EventType ...
type EventType int

const (
	// Decide carries a newly decided Block.
	Decide EventType = iota
	// ViewFinished marks the end of a view, decided or not.
	ViewFinished
)

// String ...
func (t EventType) String() string {
	switch t {
	case Decide:
		return "Decide"
	case ViewFinished:
		return "ViewFinished"
	default:
		return "Unknown"
	}
}

// Event is emitted by an Engine. Seq is stamped by the EventStream that
// delivers it.
type Event struct {
	Seq       uint64
	Type      EventType
	View      uint64
	Block     *Block
	Timestamp time.Time
}

// NewDecideEvent ...
func NewDecideEvent(block *Block, ts time.Time) Event {
	return Event{
		Type:      Decide,
		View:      block.View(),
		Block:     block,
		Timestamp: ts,
	}
}

// NewViewFinishedEvent ...
func NewViewFinishedEvent(view uint64, ts time.Time) Event {
	return Event{
		Type:      ViewFinished,
		View:      view,
		Timestamp: ts,
	}
}
