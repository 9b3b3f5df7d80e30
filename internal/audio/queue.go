package audio

import (
	"context"
	"sync/atomic"
)

// Queue is a bounded FIFO of frames between the capture producer and the
// single consumer. When full, the oldest frame is dropped and counted; the
// producer never blocks inside the audio backend's callback path. Frames are
// never reordered.
type Queue struct {
	ch      chan Frame
	dropped atomic.Uint64
}

func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{ch: make(chan Frame, depth)}
}

// Push enqueues a frame, evicting the oldest queued frame if the queue is
// full.
func (q *Queue) Push(frame Frame) {
	for {
		select {
		case q.ch <- frame:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Pop blocks until a frame is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Frame, error) {
	select {
	case frame := <-q.ch:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dropped returns the number of frames evicted by overflow since creation.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of frames currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}
