package kernel

import "testing"

func TestThreadInitStopsThread(t *testing.T) {
	k := newTestKernel(t, Config{})

	var th Thread
	th.Init(k, make([]uintptr, 64), 3, func(any) {}, nil)

	if th.State() != StateStop {
		t.Fatalf("expected stopped state, got %s", th.State())
	}
	if th.Priority() != 3 || th.CurrentPriority() != 3 {
		t.Fatalf("expected priority 3/3, got %d/%d", th.Priority(), th.CurrentPriority())
	}
	if k.sched.stop.Head() != &th {
		t.Fatal("expected thread on the stop list")
	}
}

func TestThreadIDsIncrement(t *testing.T) {
	k := newTestKernel(t, Config{})

	var a, b Thread
	a.Init(k, make([]uintptr, 64), 1, func(any) {}, nil)
	b.Init(k, make([]uintptr, 64), 1, func(any) {}, nil)
	if b.ID() != a.ID()+1 {
		t.Fatalf("expected consecutive ids, got %d then %d", a.ID(), b.ID())
	}
}

func TestThreadCreateCallout(t *testing.T) {
	k := newTestKernel(t, Config{})

	var created *Thread
	k.SetThreadCreateCallout(func(th *Thread) { created = th })

	var th Thread
	th.Init(k, make([]uintptr, 64), 1, func(any) {}, nil)
	if created != &th {
		t.Fatal("expected create callout with the new thread")
	}
}

func TestStackSlackFreshStack(t *testing.T) {
	k := newTestKernel(t, Config{})

	var th Thread
	th.Init(k, make([]uintptr, 128), 1, func(any) {}, nil)

	slack := th.StackSlack()
	if slack < 120 || slack > 127 {
		t.Fatalf("expected near-full slack on a fresh stack, got %d", slack)
	}
}

func TestStackSlackAfterUse(t *testing.T) {
	k := newTestKernel(t, Config{})

	var th Thread
	th.Init(k, make([]uintptr, 128), 1, func(any) {}, nil)

	// Scribble over the upper half, as a deep call chain would.
	stack := th.Stack()
	for i := 64; i < len(stack); i++ {
		stack[i] = 0xDEAD
	}

	slack := th.StackSlack()
	if slack < 60 || slack > 64 {
		t.Fatalf("expected slack around 64, got %d", slack)
	}
}

func TestDestroyStoppedThread(t *testing.T) {
	k := newTestKernel(t, Config{})

	var th Thread
	th.Init(k, make([]uintptr, 64), 1, func(any) {}, nil)
	th.Destroy()

	if th.State() != StateExit {
		t.Fatalf("expected exit state, got %s", th.State())
	}
	if k.sched.stop.Head() != nil {
		t.Fatal("expected stop list to be empty")
	}
}

func TestDestroyRunningThreadPanics(t *testing.T) {
	k := newTestKernel(t, Config{})

	var th Thread
	th.Init(k, make([]uintptr, 64), 1, func(any) {}, nil)

	// Force the thread into a live state behind the API's back.
	th.state = StateReady

	expectPanic(t, k, PanicRunningThreadDescoped, func() {
		th.Destroy()
	})
}

func TestThreadStateStrings(t *testing.T) {
	cases := map[ThreadState]string{
		StateExit:    "exit",
		StateReady:   "ready",
		StateBlocked: "blocked",
		StateStop:    "stopped",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
