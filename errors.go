package sigx

import (
	"errors"
)

var (
	// ErrNoSignals is returned by WaitAny/WaitAll when called with an empty
	// signal set.
	ErrNoSignals = errors.New("sigx: no signals")
	// ErrTooManySignals is returned when a multi-wait is attempted over more
	// than MaxWaitSignals signals.
	ErrTooManySignals = errors.New("sigx: too many signals")
	// ErrRegistryFull is returned when a watched signal already carries the
	// maximum number of simultaneous multi-wait registrants.
	ErrRegistryFull = errors.New("sigx: signal registry full")
	// ErrPoolExhausted is returned by TimerService.Add when the timer entry
	// pool is out of items and has reached its growth bound.
	ErrPoolExhausted = errors.New("sigx: pool exhausted")
	// ErrClosed is returned by TimerService.Add after Close has begun.
	ErrClosed = errors.New("sigx: closed")
	// ErrBadConfig is returned by NewTimerService for negative sizing values.
	ErrBadConfig = errors.New("sigx: bad config")
)
