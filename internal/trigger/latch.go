// Package trigger carries manual start/stop edges from the key listener to
// the arbitration loop. The shared state is a single atomically updated
// tagged value consumed exactly once per observation, so an edge can neither
// be lost to a concurrent overwrite-and-read nor processed twice.
package trigger

import "sync/atomic"

// State is the pending manual edge.
type State int32

const (
	Idle State = iota
	StartRequested
	StopRequested
)

func (s State) String() string {
	switch s {
	case StartRequested:
		return "start"
	case StopRequested:
		return "stop"
	default:
		return "idle"
	}
}

// Latch is written by the key-event listener and drained by the consumer
// loop. The writer overwrites whatever edge is pending; the reader swaps the
// value back to Idle when observing it.
type Latch struct {
	state     atomic.Int32
	recording atomic.Bool
}

func NewLatch() *Latch {
	return &Latch{}
}

// Post overwrites the pending edge.
func (l *Latch) Post(s State) {
	l.state.Store(int32(s))
}

// Toggle posts the edge appropriate to the current recording state: a stop
// while a recording is active, a start otherwise.
func (l *Latch) Toggle() {
	if l.recording.Load() {
		l.Post(StopRequested)
	} else {
		l.Post(StartRequested)
	}
}

// Take consumes the pending edge, resetting the latch to Idle.
func (l *Latch) Take() State {
	return State(l.state.Swap(int32(Idle)))
}

// StopPending consumes a pending stop edge and reports whether one was set.
// A pending start edge is left in place.
func (l *Latch) StopPending() bool {
	return l.state.CompareAndSwap(int32(StopRequested), int32(Idle))
}

// SetRecording publishes whether a recording is currently active, steering
// what Toggle posts next.
func (l *Latch) SetRecording(active bool) {
	l.recording.Store(active)
}

// Recording reports the published recording state.
func (l *Latch) Recording() bool {
	return l.recording.Load()
}
