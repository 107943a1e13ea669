package sigx

// deadlineList is an intrusive doubly-linked list of timer entries kept in
// ascending deadline order. The links live inside timerEntry itself, so
// removal by reference is O(1) and entries never need a per-node wrapper
// allocation. A sentinel root keeps the splice paths branch-free.
//
// Not synchronized; the owning TimerService guards it with its lock.
type deadlineList struct {
	root timerEntry
	size int
}

func (l *deadlineList) init() {
	l.root.prev = &l.root
	l.root.next = &l.root
	l.size = 0
}

func (l *deadlineList) len() int {
	return l.size
}

// head returns the entry with the earliest deadline, or nil when empty.
func (l *deadlineList) head() *timerEntry {
	if l.size == 0 {
		return nil
	}
	return l.root.next
}

// insertSorted splices e into ascending deadline order. Entries with equal
// deadlines keep insertion order (e goes after them). Reports whether e
// became the new head.
func (l *deadlineList) insertSorted(e *timerEntry) bool {
	at := l.root.next
	for at != &l.root && at.deadlineUS <= e.deadlineUS {
		at = at.next
	}
	// Insert before at.
	e.prev = at.prev
	e.next = at
	at.prev.next = e
	at.prev = e
	l.size++
	return l.root.next == e
}

// remove unlinks e. e must be on this list.
func (l *deadlineList) remove(e *timerEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	l.size--
}
