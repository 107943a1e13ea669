package sigx

import (
	"sync/atomic"
	"time"
)

// Forever can be passed as the timeout of Wait, WaitAny, WaitAll and
// Fifo.Read to block without a deadline. Any negative duration behaves
// the same way. A timeout of zero never blocks: the call only performs
// its non-blocking state scan.
const Forever time.Duration = -1

// maxSignalRegistrants bounds the number of multi-waits that may be
// simultaneously parked on any single Signal via other signals in their
// sets. Exceeding it is reported as ErrRegistryFull, never truncated.
const maxSignalRegistrants = 50

// Signal is a cross-goroutine event with binary state (set / clear).
//
// State is carried in an epoch counter:
//   - Bit 0:     current state (1 = set, 0 = clear)
//   - Bits 1-31: bumped on every Set
//
// The epoch, rather than a plain boolean, is what waiters observe: a
// set-then-clear cycle that completes between a waiter's snapshot and its
// sleep still moves the counter, so the event is never lost.
//
// Behavior:
//   - Set():   forces the state bit on, bumps the epoch, wakes all waiters
//     (including multi-waiters parked on a different Signal).
//   - Clear(): drops the state bit only. Never wakes anyone, never blocks.
//   - Wait(d): blocks until the epoch moves or d elapses.
//
// It is zero-value usable (starts clear). A Signal must not be copied after
// first use, and must not be released for reuse while a goroutine can still
// be blocked in Wait/WaitAny/WaitAll on it; that is the owner's contract,
// not a runtime-checked condition.
type Signal struct {
	_ noCopy
	// epoch: bit 0 is the state, the rest counts transitions to set.
	epoch atomic.Uint32

	// ch is the broadcast channel waiters park on. Set and pulse swap in
	// a fresh channel and close the old one, releasing every parked
	// waiter at once. Lazily initialized so the zero value stays cheap.
	ch atomic.Pointer[chan struct{}]

	// registry holds the "home" Signals of multi-waits currently parked
	// elsewhere that must also be pulsed when this Signal is set. Slots
	// are claimed by CAS(nil, home) and released by CAS(home, nil), so
	// concurrent registrants never collide and Set never needs a lock to
	// fan out.
	regCount atomic.Int32
	registry [maxSignalRegistrants]atomic.Pointer[Signal]
}

// NewSignal returns a Signal in the clear state. The zero value is equally
// usable; the constructor exists for call sites that want an owned handle.
func NewSignal() *Signal {
	return &Signal{}
}

// Set transitions the Signal to the set state, bumping the epoch even when
// it is already set, then wakes every waiter parked on this Signal and
// pulses the home Signal of every registered multi-wait.
func (s *Signal) Set() {
	for {
		old := s.epoch.Load()
		if s.epoch.CompareAndSwap(old, (old+2)|1) {
			break
		}
	}
	// The epoch is already published, so any waiter that re-checks after
	// this point observes the transition; pulse only needs to unpark.
	s.pulse()

	if s.regCount.Load() > 0 {
		for i := range s.registry {
			// Copy the slot, it can be cleared under our nose.
			if home := s.registry[i].Load(); home != nil {
				home.pulse()
			}
		}
	}
}

// Clear drops the state bit, leaving the transition count untouched.
// A single atomic op; clearing never wakes anyone so no lock is needed.
func (s *Signal) Clear() {
	s.epoch.And(^uint32(1))
}

// Get reports whether the Signal is currently set.
func (s *Signal) Get() bool {
	return s.epoch.Load()&1 != 0
}

// ReadState reports whether the Signal is currently set. It is identical
// to Get and exists as the documented hot-path accessor: a single atomic
// load, safe from any context that can tolerate no blocking whatsoever.
func (s *Signal) ReadState() bool {
	return s.epoch.Load()&1 != 0
}

// Wait blocks until the Signal's epoch moves past the state observed on
// entry, or until timeout elapses. It returns true if the Signal was
// observed signaled and false on timeout; exactly one of the two holds.
//
// A negative timeout (Forever) never times out. A zero timeout reduces to
// a non-blocking state check.
func (s *Signal) Wait(timeout time.Duration) bool {
	snap := s.epoch.Load()
	if snap&1 != 0 {
		return true
	}
	if timeout == 0 {
		return false
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ch := s.waitChan()
		// Re-check after arming: a Set between the snapshot and this
		// point bumped the epoch before closing ch, so it cannot be
		// missed whichever side of the load it lands on.
		if s.epoch.Load() != snap {
			return true
		}
		if timeout < 0 {
			<-ch
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		t := time.NewTimer(remaining)
		select {
		case <-ch:
			t.Stop()
		case <-t.C:
			return false
		}
	}
}

// waitChan returns the current broadcast channel, installing one on first
// use.
func (s *Signal) waitChan() chan struct{} {
	for {
		if p := s.ch.Load(); p != nil {
			return *p
		}
		ch := make(chan struct{})
		if s.ch.CompareAndSwap(nil, &ch) {
			return ch
		}
	}
}

// pulse unparks every waiter currently blocked on this Signal without
// touching its state. Waiters re-scan their epoch snapshots and go back
// to sleep if nothing they care about changed.
func (s *Signal) pulse() {
	for {
		old := s.ch.Load()
		if old == nil {
			// Nobody has ever parked; a waiter racing this installs a
			// fresh channel and then re-checks the epoch, so skipping
			// the swap is safe.
			return
		}
		fresh := make(chan struct{})
		if s.ch.CompareAndSwap(old, &fresh) {
			close(*old)
			return
		}
	}
}

// register reserves a registry slot pointing at home, so that Set on s
// also pulses home. Fails with ErrRegistryFull when all slots are taken.
func (s *Signal) register(home *Signal) error {
	if int(s.regCount.Add(1)) > maxSignalRegistrants {
		s.regCount.Add(-1)
		return ErrRegistryFull
	}
	for i := range s.registry {
		if s.registry[i].CompareAndSwap(nil, home) {
			return nil
		}
	}
	// Counter admitted us but every slot was occupied; only possible in a
	// transient window where another waiter holds a slot it is releasing.
	s.regCount.Add(-1)
	return ErrRegistryFull
}

// unregister releases one registry slot previously claimed for home.
func (s *Signal) unregister(home *Signal) {
	for i := range s.registry {
		if s.registry[i].CompareAndSwap(home, nil) {
			s.regCount.Add(-1)
			return
		}
	}
}

// registrants reports the number of live registry entries. Test hook.
func (s *Signal) registrants() int {
	return int(s.regCount.Load())
}
