package sigx

import (
	"time"
)

// MaxWaitSignals is the maximum number of Signals one WaitAny or WaitAll
// call may watch. Exceeding it is reported as ErrTooManySignals.
const MaxWaitSignals = 10

// TimedOut is the index WaitAny returns when the timeout elapses before
// any watched Signal transitions.
const TimedOut = -1

// WaitAny blocks until one of the given Signals is set, or the timeout
// elapses. It returns the index of a Signal that observably transitioned
// (or was already set on entry), or TimedOut with a nil error.
//
// The calling goroutine physically parks on signals[0] — its "home". For
// every other Signal it claims a registry slot pointing back at home, so
// that Set on any of them also pulses home. Registration happens before
// the first sleep and Set always pulses every currently-registered home,
// so a transition in the window between the fast-path scan and the sleep
// cannot be missed. All registrations are released on every exit path,
// including timeout and error.
//
// Errors are reserved for bound violations: more than MaxWaitSignals
// watched, or a watched Signal already carrying its maximum number of
// registrants. A timeout is an outcome, not an error.
func WaitAny(timeout time.Duration, signals ...*Signal) (int, error) {
	n := len(signals)
	if n == 0 {
		return TimedOut, ErrNoSignals
	}
	if n > MaxWaitSignals {
		return TimedOut, ErrTooManySignals
	}

	// Fast path: return immediately if anything is already set. The
	// snapshots double as the change detector for the slow path.
	var snaps [MaxWaitSignals]uint32
	for i, s := range signals {
		snaps[i] = s.epoch.Load()
		if snaps[i]&1 != 0 {
			return i, nil
		}
	}
	if timeout == 0 {
		return TimedOut, nil
	}

	home := signals[0]
	others := signals[1:]
	registered := 0
	defer func() {
		for i := range registered {
			others[i].unregister(home)
		}
	}()
	for i, s := range others {
		if err := s.register(home); err != nil {
			return TimedOut, err
		}
		registered = i + 1
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ch := home.waitChan()
		// Re-scan every epoch after arming the channel: a Set on any
		// watched Signal publishes its epoch before pulsing home, so it
		// either shows up here or closes ch.
		for i, s := range signals {
			if s.epoch.Load() != snaps[i] {
				return i, nil
			}
		}
		if timeout < 0 {
			<-ch
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return TimedOut, nil
		}
		t := time.NewTimer(remaining)
		select {
		case <-ch:
			t.Stop()
		case <-t.C:
			return TimedOut, nil
		}
	}
}

// WaitAll blocks until every given Signal has been observed set, or the
// timeout elapses. It returns true when all were observed, false on
// timeout; errors mirror WaitAny's bound checks.
//
// Unlike WaitAny it does not register anywhere: it waits on each not-yet-
// set Signal in turn with whatever remains of the budget, re-scanning
// after every wake. The budget is therefore divided across the Signals by
// wake order rather than evenly; callers needing per-signal fairness
// should wait individually.
func WaitAll(timeout time.Duration, signals ...*Signal) (bool, error) {
	n := len(signals)
	if n == 0 {
		return false, ErrNoSignals
	}
	if n > MaxWaitSignals {
		return false, ErrTooManySignals
	}

	var start time.Time
	if timeout >= 0 {
		start = time.Now()
	}
	for {
		waited := false
		for _, s := range signals {
			if s.ReadState() {
				continue
			}
			budget := Forever
			if timeout >= 0 {
				if elapsed := time.Since(start); elapsed >= timeout {
					budget = 0
				} else {
					budget = timeout - elapsed
				}
			}
			if !s.Wait(budget) {
				return false, nil
			}
			waited = true
		}
		if !waited {
			// A full pass found every Signal set.
			return true, nil
		}
	}
}
