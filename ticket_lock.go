package sigx

import (
	"sync/atomic"
)

// TicketLock is a fair, FIFO (First-In-First-Out) spin-lock.
//
// Unlike sync.Mutex, which allows "barging" (newcomers can steal the lock),
// TicketLock guarantees that goroutines acquire the lock in the exact order
// they called Lock().
//
// It guards the short critical sections in this package: the timer service's
// deadline list and the pool freelist. Both are touched by arbitrarily many
// caller goroutines racing the watcher, and both hold the lock only long
// enough to splice a few pointers, which is exactly the small-critical-section
// high-fairness profile the ticket algorithm suits.
//
// Implementation:
// The classic "ticket" algorithm.
//   - Lock(): Takes a ticket number. Spins/Sleeps until `serving` == `my_ticket`.
//   - Unlock(): Increments `serving`, allowing the next ticket holder to proceed.
//
// A hybrid strategy (spin + adaptive delay) keeps waiters from pure busy-wait
// when the holder is descheduled.
type TicketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

// Lock acquires the lock. Blocks until the lock is available.
func (m *TicketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for {
		if m.serving.Load() == my {
			return
		}
		delay(&spins)
	}
}

// Unlock releases the lock.
func (m *TicketLock) Unlock() {
	m.serving.Add(1)
}
