package audio

import (
	"context"
	"testing"
	"time"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue(8)
	for i := int16(0); i < 5; i++ {
		q.Push(Frame{i})
	}
	if q.Len() != 5 {
		t.Fatalf("expected 5 buffered frames, got %d", q.Len())
	}
	ctx := context.Background()
	for i := int16(0); i < 5; i++ {
		f, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if f[0] != i {
			t.Fatalf("expected frame %d, got %d", i, f[0])
		}
	}
	if q.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", q.Dropped())
	}
	if q.Len() != 0 {
		t.Fatalf("expected drained queue, got %d buffered frames", q.Len())
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewQueue(2)
	q.Push(Frame{1})
	q.Push(Frame{2})
	q.Push(Frame{3})

	if q.Dropped() != 1 {
		t.Fatalf("expected 1 dropped frame, got %d", q.Dropped())
	}
	if q.Len() != 2 {
		t.Fatalf("expected queue at capacity, got %d buffered frames", q.Len())
	}
	ctx := context.Background()
	f, _ := q.Pop(ctx)
	if f[0] != 2 {
		t.Fatalf("expected oldest surviving frame 2, got %d", f[0])
	}
	f, _ = q.Pop(ctx)
	if f[0] != 3 {
		t.Fatalf("expected frame 3, got %d", f[0])
	}
}

func TestQueuePopHonorsContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Pop(ctx); err == nil {
		t.Fatal("expected context error on empty queue")
	}
}
