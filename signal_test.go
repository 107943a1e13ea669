package sigx

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSignal_Simple(t *testing.T) {
	var s Signal

	// 1. Initially clear
	if s.Get() || s.ReadState() {
		t.Error("expected clear")
	}
	if s.Wait(0) {
		t.Error("Wait(0) on clear signal should time out")
	}

	// 2. Set
	s.Set()
	if !s.Get() || !s.ReadState() {
		t.Error("expected set")
	}
	if !s.Wait(0) {
		t.Error("Wait(0) on set signal should return signaled")
	}

	// 3. Clear
	s.Clear()
	if s.Get() {
		t.Error("expected clear after Clear")
	}
	// Round-trip: clear followed by a zero wait must report timeout.
	if s.Wait(0) {
		t.Error("Wait(0) after Clear should time out")
	}
}

func TestSignal_WaitBlocksUntilSet(t *testing.T) {
	s := NewSignal()

	done := make(chan bool, 1)
	go func() {
		done <- s.Wait(Forever)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set")
	case <-time.After(20 * time.Millisecond):
	}

	s.Set()
	select {
	case ok := <-done:
		if !ok {
			t.Error("Wait reported timeout on infinite wait")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Set")
	}
}

func TestSignal_WaitTimeout(t *testing.T) {
	var s Signal
	start := time.Now()
	if s.Wait(30 * time.Millisecond) {
		t.Error("expected timeout")
	}
	if d := time.Since(start); d < 25*time.Millisecond {
		t.Errorf("Wait returned too early: %v", d)
	}
}

func TestSignal_SetClearCycleObserved(t *testing.T) {
	// A waiter asleep through a complete set/clear cycle must still
	// observe the transition via the epoch counter.
	var s Signal
	done := make(chan bool, 1)
	go func() {
		done <- s.Wait(time.Second)
	}()

	time.Sleep(20 * time.Millisecond) // let it block
	s.Set()
	s.Clear()

	select {
	case ok := <-done:
		if !ok {
			t.Error("waiter missed set/clear cycle")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter hung")
	}
	if s.Get() {
		t.Error("state should be clear after cycle")
	}
}

func TestSignal_Broadcast(t *testing.T) {
	var s Signal
	var wg sync.WaitGroup
	var woke atomic.Int32
	const n = 10

	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			if s.Wait(Forever) {
				woke.Add(1)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond) // give them time to block
	s.Set()
	wg.Wait()

	if woke.Load() != n {
		t.Errorf("woke = %d, want %d", woke.Load(), n)
	}
}

func TestSignal_ClearDoesNotWake(t *testing.T) {
	var s Signal
	done := make(chan struct{})
	go func() {
		s.Wait(Forever)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Clear()

	select {
	case <-done:
		t.Fatal("Clear woke a waiter")
	case <-time.After(30 * time.Millisecond):
	}

	s.Set()
	<-done
}

func TestSignal_EpochAdvancesPerSet(t *testing.T) {
	var s Signal
	before := s.epoch.Load()
	s.Set()
	s.Set()
	s.Clear()
	after := s.epoch.Load()
	if after&1 != 0 {
		t.Error("state bit should be clear")
	}
	if (after>>1)-(before>>1) != 2 {
		t.Errorf("transition count advanced by %d, want 2", (after>>1)-(before>>1))
	}
}

func TestSignal_SetWhileSetStillWakes(t *testing.T) {
	// Set on an already-set signal bumps the epoch, so a waiter that
	// snapshotted between Clear and the second Set is still released.
	var s Signal
	s.Set()
	s.Clear()

	done := make(chan bool, 1)
	go func() {
		done <- s.Wait(time.Second)
	}()
	time.Sleep(10 * time.Millisecond)
	s.Set()

	if ok := <-done; !ok {
		t.Error("waiter timed out despite Set")
	}
}
