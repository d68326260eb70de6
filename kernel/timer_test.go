package kernel

import (
	"testing"
	"time"
)

// tickN drives the timer scheduler the way a port's tick interrupt
// does.
func tickN(k *Kernel, n int) {
	for i := 0; i < n; i++ {
		k.enter()
		k.TimerTick()
		k.exit()
	}
}

func TestOneShotFiresExactlyOnce(t *testing.T) {
	k := newTestKernel(t, Config{})

	fired := 0
	var tm Timer
	tm.Init(k)
	tm.Start(false, 10*time.Millisecond, func(owner *Thread, data any) {
		fired++
	}, nil)

	tickN(k, 9)
	if fired != 0 {
		t.Fatalf("expected no expiry after 9 ticks, got %d", fired)
	}
	tickN(k, 1)
	if fired != 1 {
		t.Fatalf("expected one expiry at tick 10, got %d", fired)
	}
	tickN(k, 50)
	if fired != 1 {
		t.Fatalf("expected one-shot to stay expired, got %d", fired)
	}
	if !tm.Expired() {
		t.Fatal("expected expired flag set")
	}
}

func TestPeriodicReloads(t *testing.T) {
	k := newTestKernel(t, Config{})

	fired := 0
	var tm Timer
	tm.Init(k)
	tm.Start(true, 5*time.Millisecond, func(owner *Thread, data any) {
		fired++
	}, nil)

	tickN(k, 25)
	if fired != 5 {
		t.Fatalf("expected 5 expiries in 25 ticks, got %d", fired)
	}

	tm.Stop()
	tickN(k, 25)
	if fired != 5 {
		t.Fatalf("expected no expiries after Stop, got %d", fired)
	}
}

func TestZeroIntervalFiresNextTick(t *testing.T) {
	k := newTestKernel(t, Config{})

	fired := 0
	var tm Timer
	tm.Init(k)
	tm.Start(false, 0, func(owner *Thread, data any) {
		fired++
	}, nil)

	tickN(k, 1)
	if fired != 1 {
		t.Fatalf("expected expiry on the next tick, got %d", fired)
	}
}

func TestStopDormantTimerIsNoOp(t *testing.T) {
	k := newTestKernel(t, Config{})

	var tm Timer
	tm.Init(k)
	tm.Stop()
	tm.Stop()
	tickN(k, 5)
}

func TestRestartRetriggersOneShot(t *testing.T) {
	k := newTestKernel(t, Config{})

	fired := 0
	var tm Timer
	tm.Init(k)
	tm.Start(false, 3*time.Millisecond, func(owner *Thread, data any) {
		fired++
	}, nil)

	tickN(k, 3)
	if fired != 1 {
		t.Fatalf("expected first expiry, got %d", fired)
	}

	tm.Restart()
	tickN(k, 3)
	if fired != 2 {
		t.Fatalf("expected retriggered expiry, got %d", fired)
	}
}

func TestToleranceCoalescesWithPendingTimer(t *testing.T) {
	k := newTestKernel(t, Config{})

	var firstAt, secondAt int
	now := 0

	var first, second Timer
	first.Init(k)
	first.Start(false, 12*time.Millisecond, func(owner *Thread, data any) {
		firstAt = now
	}, nil)

	// Nominal 10 ticks, tolerance 5: free to slide out to the timer
	// already due at 12.
	second.Init(k)
	second.StartTolerance(false, 10*time.Millisecond, 5*time.Millisecond, func(owner *Thread, data any) {
		secondAt = now
	}, nil)

	for now = 1; now <= 20; now++ {
		tickN(k, 1)
	}

	if firstAt != 12 {
		t.Fatalf("expected first timer at tick 12, got %d", firstAt)
	}
	if secondAt != 12 {
		t.Fatalf("expected coalesced expiry at tick 12, got %d", secondAt)
	}
}

func TestToleranceNeverEarly(t *testing.T) {
	k := newTestKernel(t, Config{})

	var firstAt, secondAt int
	now := 0

	var first, second Timer
	first.Init(k)
	first.Start(false, 5*time.Millisecond, func(owner *Thread, data any) {
		firstAt = now
	}, nil)

	// The 5-tick timer is below the nominal interval; coalescing with
	// it would fire early, so it must not happen.
	second.Init(k)
	second.StartTolerance(false, 10*time.Millisecond, 5*time.Millisecond, func(owner *Thread, data any) {
		secondAt = now
	}, nil)

	for now = 1; now <= 20; now++ {
		tickN(k, 1)
	}

	if firstAt != 5 {
		t.Fatalf("expected first timer at tick 5, got %d", firstAt)
	}
	if secondAt != 10 {
		t.Fatalf("expected second timer at its nominal tick 10, got %d", secondAt)
	}
}

func TestPeriodicRemainingWithinInterval(t *testing.T) {
	k := newTestKernel(t, Config{})

	var tm Timer
	tm.Init(k)
	tm.Start(true, 7*time.Millisecond, func(owner *Thread, data any) {}, nil)

	for i := 0; i < 50; i++ {
		tickN(k, 1)
		if tm.remaining > tm.interval {
			t.Fatalf("tick %d: remaining %d exceeds interval %d", i, tm.remaining, tm.interval)
		}
	}
}
