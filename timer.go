package sigx

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/llxisdsh/pb"
	"github.com/rs/zerolog"
)

// Handle identifies one pending timer returned by TimerService.Add.
// Handles are never reused, so a stale Handle (already fired or already
// removed) is a safe miss for Remove rather than a dangling reference.
type Handle uint64

// TimerFunc is invoked exactly once when a timer expires, on the
// service's execution goroutine. State travels as closure captures. The
// callback may block without delaying deadline tracking for other timers,
// but it delays dispatch of later callbacks (execution is single-file and
// FIFO in expiry order).
type TimerFunc func(Handle)

// timerCb packages one expired timer for the execution goroutine.
type timerCb struct {
	entry *timerEntry
}

// timerEntry is one pending deadline. Owned by the service's pool for its
// whole life: taken on Add, returned after the callback runs or after
// Remove. Links are intrusive; see deadlineList.
type timerEntry struct {
	prev, next *timerEntry
	deadlineUS int64
	handle     Handle
	fn         TimerFunc
}

// Default pool and queue sizing, applied by TimerServiceConfig.withDefaults.
const (
	defaultTimerPoolCapacity = 25
	defaultTimerPoolGrow     = 5
	defaultTimerPoolGrowMax  = 5
)

// TimerServiceConfig configures NewTimerService. The zero value is usable.
type TimerServiceConfig struct {
	// Name tags the instance in diagnostics.
	Name string
	// PoolCapacity is the number of timer entries preallocated.
	// Defaults to 25.
	PoolCapacity int
	// PoolGrowIncrement is how many entries are added per pool growth.
	// Defaults to 5.
	PoolGrowIncrement int
	// PoolMaxGrowCount bounds how many times the pool may grow.
	// Defaults to 5.
	PoolMaxGrowCount int
	// QueueCapacity sizes the expired-timer handoff queue. Defaults to
	// PoolCapacity.
	QueueCapacity int
}

func (c TimerServiceConfig) withDefaults() TimerServiceConfig {
	if c.Name == "" {
		c.Name = "timers"
	}
	if c.PoolCapacity == 0 {
		c.PoolCapacity = defaultTimerPoolCapacity
	}
	if c.PoolGrowIncrement == 0 {
		c.PoolGrowIncrement = defaultTimerPoolGrow
	}
	if c.PoolMaxGrowCount == 0 {
		c.PoolMaxGrowCount = defaultTimerPoolGrowMax
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = c.PoolCapacity
	}
	return c
}

func (c TimerServiceConfig) validate() error {
	if c.PoolCapacity < 0 || c.PoolGrowIncrement < 0 ||
		c.PoolMaxGrowCount < 0 || c.QueueCapacity < 0 {
		return ErrBadConfig
	}
	return nil
}

// TimerService fires callbacks when caller-specified delays elapse.
//
// It keeps pending timers in a deadline-sorted intrusive list and runs two
// goroutines: a watcher that always sleeps until the earliest deadline
// (woken early through the stop Signal whenever the head of the list
// changes under it), and an executor that runs callbacks handed over a
// FIFO so that a slow callback never delays deadline tracking.
//
// Timers fire in ascending deadline order; ties dispatch in Add order.
// All methods are safe for concurrent use.
type TimerService struct {
	log  zerolog.Logger
	pool *Pool[timerEntry]
	fifo *Fifo[timerCb]

	// goSig is set exactly while the list is non-empty; stopSig pulses
	// when the head changes for any reason other than natural expiry;
	// shutdown tears both goroutines down.
	goSig    Signal
	stopSig  Signal
	shutdown Signal

	mu   TicketLock
	list deadlineList

	// handles maps live Handle values to their entries. An entry is
	// pending exactly while its handle is present here; the watcher
	// deletes the mapping before queueing the callback, which is what
	// makes Remove on an expired timer fail instead of racing the
	// execution path.
	handles pb.MapOf[Handle, *timerEntry]
	nextID  atomic.Uint64

	wg     sync.WaitGroup
	closed atomic.Bool
}

// monoBase anchors the monotonic clock all deadlines are drawn from.
// time.Since carries the runtime's monotonic reading, so wall-clock
// adjustments never cause misfires.
var monoBase = time.Now()

func monotonicMicros() int64 {
	return time.Since(monoBase).Microseconds()
}

// NewTimerService allocates the pool, queue and signals, and starts the
// watcher and execution goroutines. The logger is the instance's
// diagnostic sink; pass zerolog.Nop() to discard. On configuration error
// nothing is left running.
func NewTimerService(cfg TimerServiceConfig, log zerolog.Logger) (*TimerService, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	s := &TimerService{
		log: log.With().Str("service", cfg.Name).Logger(),
	}
	s.pool = NewPool[timerEntry](cfg.Name+" entries", cfg.PoolCapacity,
		cfg.PoolGrowIncrement, cfg.PoolMaxGrowCount, s.log)
	s.fifo = NewFifo[timerCb](cfg.Name+" callbacks", cfg.QueueCapacity)
	s.list.init()

	s.wg.Add(2)
	go s.watch()
	go s.execute()
	return s, nil
}

// Add schedules fn to run once delay from now has elapsed, returning a
// Handle usable with Remove until the timer fires. Fails with
// ErrPoolExhausted when the entry pool is out of items and with ErrClosed
// after Close has begun.
func (s *TimerService) Add(delay time.Duration, fn TimerFunc) (Handle, error) {
	if s.shutdown.ReadState() {
		return 0, ErrClosed
	}
	e, ok := s.pool.Get()
	if !ok {
		return 0, ErrPoolExhausted
	}
	h := Handle(s.nextID.Add(1))
	e.handle = h
	e.fn = fn
	e.deadlineUS = monotonicMicros() + delay.Microseconds()

	s.mu.Lock()
	newHead := s.list.insertSorted(e)
	wasEmpty := s.list.len() == 1
	s.handles.Store(h, e)
	s.mu.Unlock()

	if wasEmpty {
		s.goSig.Set()
	} else if newHead {
		// The watcher may be asleep on the old head's deadline; make it
		// recompute against the earlier one.
		s.stopSig.Set()
	}
	return h, nil
}

// Remove cancels a pending timer. It reports false when the handle no
// longer denotes a pending entry, i.e. the timer already fired or was
// already removed. A timer removed before the watcher observes its expiry
// never runs its callback.
func (s *TimerService) Remove(h Handle) bool {
	s.mu.Lock()
	e, ok := s.handles.Load(h)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.list.head() == e {
		// Pulse before unlinking so the watcher cannot act on a deadline
		// that is about to disappear.
		s.stopSig.Set()
	}
	s.list.remove(e)
	if s.list.len() == 0 {
		s.goSig.Clear()
	}
	s.handles.Delete(h)
	s.mu.Unlock()

	s.retire(e)
	return true
}

// Close signals shutdown and joins both goroutines. No callback runs
// after Close returns. Pending timers are discarded. Safe to call more
// than once.
func (s *TimerService) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.shutdown.Set()
	}
	s.wg.Wait()
}

// retire scrubs an entry and returns it to the pool.
func (s *TimerService) retire(e *timerEntry) {
	e.fn = nil
	e.handle = 0
	s.pool.Put(e)
}

// expireHead pops e and hands it to the execution goroutine. Called with
// no lock held; e may have been removed or displaced while the watcher
// was waking up, in which case nothing happens and the watcher loop
// recomputes against the current head.
func (s *TimerService) expireHead(e *timerEntry) {
	s.mu.Lock()
	// The head check catches a Remove that raced the wake-up; the
	// deadline check catches the narrower case where the entry was
	// removed, retired and already reused for a later timer. The 500µs
	// slack keeps a wake within millisecond-rounding distance of its
	// deadline from bouncing back into a zero-length sleep.
	if s.list.head() != e || e.deadlineUS > monotonicMicros()+500 {
		s.mu.Unlock()
		return
	}
	s.list.remove(e)
	if s.list.len() == 0 {
		s.goSig.Clear()
	}
	// Past this point the entry belongs to the execution path; Remove
	// on its handle reports failure rather than racing the callback.
	s.handles.Delete(e.handle)
	s.mu.Unlock()

	if !s.fifo.Write(timerCb{entry: e}) {
		// The executor is this far behind only if callbacks outnumber
		// the queue capacity; the timer is dropped rather than blocking
		// deadline tracking.
		s.log.Error().Uint64("handle", uint64(e.handle)).Msg("callback queue full, timer dropped")
		s.retire(e)
	}
}

// watch is the deadline-watcher loop. It sleeps until the earliest
// deadline, abandoning the sleep whenever the head of the list changes
// underneath it, and hands expired entries to the executor.
func (s *TimerService) watch() {
	defer s.wg.Done()
	s.log.Debug().Msg("watcher started")

	for {
		idx, _ := WaitAny(Forever, &s.shutdown, &s.goSig)
		if idx == 0 {
			s.log.Debug().Msg("watcher shutdown")
			return
		}

		s.mu.Lock()
		e := s.list.head()
		if e == nil {
			// The last timer was removed after the go signal was seen.
			s.mu.Unlock()
			continue
		}
		now := monotonicMicros()
		if e.deadlineUS <= now {
			// Already past due; service it and immediately re-check the
			// next head without sleeping.
			s.mu.Unlock()
			s.expireHead(e)
			continue
		}
		// Round to the nearest millisecond, never down: waking ~0.5ms
		// late beats waking early and spinning on a not-yet-due head.
		wait := time.Duration((e.deadlineUS-now+500)/1000) * time.Millisecond
		s.mu.Unlock()

		idx, _ = WaitAny(wait, &s.shutdown, &s.stopSig)
		switch idx {
		case 0:
			s.log.Debug().Msg("watcher shutdown")
			return
		case 1:
			// The pending set changed under us; recompute from the
			// current head.
			s.stopSig.Clear()
		default:
			s.expireHead(e)
		}
	}
}

// execute runs user callbacks handed over by the watcher, then retires
// their entries. Kept off the watcher so an arbitrarily slow callback
// cannot delay deadline tracking for unrelated timers.
func (s *TimerService) execute() {
	defer s.wg.Done()
	s.log.Debug().Msg("executor started")

	for !s.shutdown.ReadState() {
		cb, ok := s.fifo.Read(Forever, &s.shutdown)
		if !ok {
			continue
		}
		e := cb.entry
		e.fn(e.handle)
		s.retire(e)
	}
	s.log.Debug().Msg("executor shutdown")
}
