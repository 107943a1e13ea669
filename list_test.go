package sigx

import (
	"testing"
)

func entriesOf(l *deadlineList) []*timerEntry {
	var out []*timerEntry
	for e := l.root.next; e != &l.root; e = e.next {
		out = append(out, e)
	}
	return out
}

func TestDeadlineList_SortedInsert(t *testing.T) {
	var l deadlineList
	l.init()

	a := &timerEntry{deadlineUS: 30}
	b := &timerEntry{deadlineUS: 10}
	c := &timerEntry{deadlineUS: 20}

	if !l.insertSorted(a) {
		t.Error("first insert should become head")
	}
	if !l.insertSorted(b) {
		t.Error("earlier deadline should become head")
	}
	if l.insertSorted(c) {
		t.Error("middle insert should not become head")
	}

	got := entriesOf(&l)
	want := []*timerEntry{b, c, a}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: deadline %d, want %d", i, got[i].deadlineUS, want[i].deadlineUS)
		}
	}
	if l.len() != 3 {
		t.Errorf("len = %d, want 3", l.len())
	}
}

func TestDeadlineList_StableTies(t *testing.T) {
	var l deadlineList
	l.init()

	first := &timerEntry{deadlineUS: 10}
	second := &timerEntry{deadlineUS: 10}
	third := &timerEntry{deadlineUS: 10}
	l.insertSorted(first)
	l.insertSorted(second)
	l.insertSorted(third)

	got := entriesOf(&l)
	if got[0] != first || got[1] != second || got[2] != third {
		t.Error("equal deadlines must keep insertion order")
	}
}

func TestDeadlineList_Remove(t *testing.T) {
	var l deadlineList
	l.init()

	a := &timerEntry{deadlineUS: 1}
	b := &timerEntry{deadlineUS: 2}
	c := &timerEntry{deadlineUS: 3}
	l.insertSorted(a)
	l.insertSorted(b)
	l.insertSorted(c)

	l.remove(b) // middle
	if got := entriesOf(&l); len(got) != 2 || got[0] != a || got[1] != c {
		t.Error("middle removal broke links")
	}

	l.remove(a) // head
	if l.head() != c {
		t.Error("head removal did not promote next entry")
	}

	l.remove(c)
	if l.head() != nil || l.len() != 0 {
		t.Error("list should be empty")
	}
}
