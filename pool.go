package sigx

import (
	"github.com/rs/zerolog"
)

// Pool is a bounded free-list of *T with logged, capped growth.
//
// Unlike sync.Pool it never drops items under GC pressure, has a hard
// capacity, and reports exhaustion to the caller instead of allocating
// forever: Get fails once the initial capacity plus maxGrowCount growth
// increments are all in flight. That makes it suitable for components
// that want resource exhaustion to be a visible, retryable condition.
//
// All methods are safe for concurrent use.
type Pool[T any] struct {
	name      string
	grow      int
	maxGrow   int
	log       zerolog.Logger
	mu        TicketLock
	free      []*T
	allocated int
	grown     int
}

// NewPool creates a pool pre-filled with capacity items. When empty, Get
// allocates growIncrement more items at a time, at most maxGrowCount
// times; after that Get reports exhaustion. growIncrement or maxGrowCount
// of zero disables growth.
func NewPool[T any](name string, capacity, growIncrement, maxGrowCount int, log zerolog.Logger) *Pool[T] {
	p := &Pool[T]{
		name:    name,
		grow:    growIncrement,
		maxGrow: maxGrowCount,
		log:     log.With().Str("pool", name).Logger(),
		free:    make([]*T, 0, capacity),
	}
	for range capacity {
		p.free = append(p.free, new(T))
	}
	p.allocated = capacity
	return p
}

// Get returns an item from the pool, growing it if allowed. The second
// return value is false when the pool is exhausted; the caller decides
// whether to retry.
func (p *Pool[T]) Get() (*T, bool) {
	grew := false
	p.mu.Lock()
	if len(p.free) == 0 {
		if p.grow <= 0 || p.grown >= p.maxGrow {
			allocated := p.allocated
			p.mu.Unlock()
			p.log.Warn().Int("allocated", allocated).Msg("pool exhausted")
			return nil, false
		}
		for range p.grow {
			p.free = append(p.free, new(T))
		}
		p.allocated += p.grow
		p.grown++
		grew = true
	}
	item := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	grown, allocated := p.grown, p.allocated
	p.mu.Unlock()
	if grew {
		p.log.Debug().Int("growth", grown).Int("allocated", allocated).Msg("pool grew")
	}
	return item, true
}

// Put returns an item to the pool. The item must have come from Get.
func (p *Pool[T]) Put(item *T) {
	p.mu.Lock()
	p.free = append(p.free, item)
	p.mu.Unlock()
}

// Free reports how many items are currently available.
func (p *Pool[T]) Free() int {
	p.mu.Lock()
	n := len(p.free)
	p.mu.Unlock()
	return n
}

// Allocated reports how many items the pool has ever allocated.
func (p *Pool[T]) Allocated() int {
	p.mu.Lock()
	n := p.allocated
	p.mu.Unlock()
	return n
}
