package sigx

import (
	"time"
)

// Fifo is a bounded thread-safe queue used to hand items from one
// goroutine to another. Writes never block: a full queue is reported to
// the writer. Reads block with a timeout and an optional abort Signal, so
// a consumer parked on an empty queue can be torn down promptly.
type Fifo[T any] struct {
	name string
	ch   chan T
}

// NewFifo creates a queue holding at most capacity items.
func NewFifo[T any](name string, capacity int) *Fifo[T] {
	return &Fifo[T]{
		name: name,
		ch:   make(chan T, capacity),
	}
}

// Write enqueues item, reporting false when the queue is full.
func (f *Fifo[T]) Write(item T) bool {
	select {
	case f.ch <- item:
		return true
	default:
		return false
	}
}

// Read dequeues the oldest item. It blocks until an item arrives, the
// timeout elapses (Forever never does), or abort is set; the second
// return value is false for both the timeout and abort outcomes.
func (f *Fifo[T]) Read(timeout time.Duration, abort *Signal) (T, bool) {
	var zero T

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		// Arm the abort channel before checking state, so a Set landing
		// between the check and the select still closes the channel we
		// are about to sleep on.
		var abortCh chan struct{}
		if abort != nil {
			abortCh = abort.waitChan()
			if abort.ReadState() {
				return zero, false
			}
		}

		if timeout < 0 {
			select {
			case item := <-f.ch:
				return item, true
			case <-abortCh:
				// Possibly a pulse meant for a multi-wait; re-check.
				continue
			}
		}

		remaining := time.Duration(0)
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
		}
		t := time.NewTimer(remaining)
		select {
		case item := <-f.ch:
			t.Stop()
			return item, true
		case <-abortCh:
			t.Stop()
			continue
		case <-t.C:
			return zero, false
		}
	}
}

// Len reports the number of items currently queued.
func (f *Fifo[T]) Len() int {
	return len(f.ch)
}

// Cap reports the queue capacity.
func (f *Fifo[T]) Cap() int {
	return cap(f.ch)
}
