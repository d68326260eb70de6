package kernel

// ThreadState tracks which kind of list a thread currently inhabits.
type ThreadState uint8

const (
	// StateExit: the thread is on no list and will never run again.
	StateExit ThreadState = iota
	// StateReady: the thread is on a scheduler ready list.
	StateReady
	// StateBlocked: the thread is on a blocking object's waiter list.
	StateBlocked
	// StateStop: the thread is on the scheduler's stopped list.
	StateStop
)

func (s ThreadState) String() string {
	switch s {
	case StateExit:
		return "exit"
	case StateReady:
		return "ready"
	case StateBlocked:
		return "blocked"
	case StateStop:
		return "stopped"
	}
	return "unknown"
}

// StackFill is the pattern ports write over a fresh stack; the slack
// check looks for the first word that no longer matches it.
const StackFill = ^uintptr(0)

// EntryFunc is a thread's entry point. It receives the opaque argument
// supplied at Init and normally never returns; if it does, the thread
// exits.
type EntryFunc func(arg any)

// Thread is one execution context. Threads are user-allocated; Init
// wires them into the kernel and places them on the stopped list.
type Thread struct {
	link Links[Thread]

	k *Kernel

	stack    []uintptr
	stackTop int

	state        ThreadState
	id           uint8
	name         string
	basePriority uint8
	curPriority  uint8

	entry EntryFunc
	arg   any

	// current is the list the thread is on right now; owner is the
	// ready list that owns it by priority.
	current *ThreadList
	owner   *ThreadList

	timer   Timer
	quantum uint16
	expired bool

	flagMask uint16
	flagMode FlagMode

	portData    any
	initialized bool
}

// Init binds the thread to a kernel, prepares its stack through the
// port, and parks it on the stopped list. priority 0 is reserved for
// the idle thread.
func (t *Thread) Init(k *Kernel, stack []uintptr, priority uint8, entry EntryFunc, arg any) {
	k.assert(stack != nil)
	k.assert(entry != nil)
	k.assert(priority < NumPriorities)

	t.link.clear()
	t.k = k
	t.stack = stack
	t.basePriority = priority
	t.curPriority = priority
	t.entry = entry
	t.arg = arg
	t.quantum = DefaultQuantum
	t.expired = false
	t.portData = nil
	t.initialized = true

	t.timer.Init(k)

	k.port.InitStack(t)

	k.enter()
	t.id = k.nextThreadID
	k.nextThreadID++
	t.owner = &k.sched.ready[priority]
	t.current = &k.sched.stop
	t.state = StateStop
	t.current.Add(t)
	k.exit()

	if k.threadCreateCallout != nil {
		k.threadCreateCallout(t)
	}
}

// Start moves the thread from the stopped list to its ready list,
// yielding when the new thread outranks or ties the running one.
func (t *Thread) Start() {
	k := t.k
	k.assert(t.initialized)

	k.enter()
	k.sched.stop.Remove(t)
	t.owner = &k.sched.ready[t.basePriority]
	k.readyAddLocked(t)
	t.state = StateReady

	if k.started && t.curPriority >= k.sched.current.curPriority {
		k.quantumUpdateLocked(t)
		k.yieldLocked()
	}
	k.exit()
}

// Stop halts the thread and returns it to the stopped list. Stopping
// the running thread reschedules immediately; the thread resumes where
// it left off when started again.
func (t *Thread) Stop() {
	k := t.k
	k.assert(t.initialized)

	k.enter()
	if t.state == StateStop {
		k.exit()
		return
	}

	reschedule := t == k.sched.current
	if reschedule {
		k.quantumCancelLocked()
	}

	switch t.state {
	case StateReady:
		k.readyRemoveLocked(t)
	case StateBlocked:
		t.current.Remove(t)
	}

	t.current = &k.sched.stop
	t.current.Add(t)
	t.state = StateStop

	k.timers.removeLocked(&t.timer)

	if reschedule {
		k.yieldLocked()
	}
	k.exit()
}

// Exit removes the thread from the kernel permanently. Its priorities
// are zeroed so interrupt-driven priority comparisons can never select
// it again.
func (t *Thread) Exit() {
	k := t.k
	k.assert(t.initialized)

	k.enter()
	if t.state == StateExit {
		k.exit()
		return
	}

	reschedule := t == k.sched.current
	if reschedule {
		k.quantumCancelLocked()
	}

	switch t.state {
	case StateReady:
		k.readyRemoveLocked(t)
	case StateBlocked, StateStop:
		t.current.Remove(t)
	}

	t.current = nil
	t.owner = nil
	t.state = StateExit
	t.curPriority = 0
	t.basePriority = 0

	k.timers.removeLocked(&t.timer)
	k.port.ThreadExit(t)

	if k.threadExitCallout != nil {
		k.threadExitCallout(t)
	}

	if reschedule {
		k.yieldLocked()
	}
	k.exit()
}

// Destroy verifies the thread can disappear. A stopped thread is
// unlinked and marked exited; destroying a ready, blocked, or running
// thread is fatal.
func (t *Thread) Destroy() {
	k := t.k
	k.enter()
	if t.state == StateStop {
		t.current.Remove(t)
		t.current = nil
		t.owner = nil
		t.state = StateExit
		k.port.ThreadExit(t)
		k.exit()
		return
	}
	if t.state != StateExit {
		k.Panic(PanicRunningThreadDescoped)
	}
	k.exit()
}

// SetPriority reassigns the thread's base (and current) priority,
// rescheduling when the change could dethrone the running thread.
func (t *Thread) SetPriority(priority uint8) {
	k := t.k
	k.assert(t.initialized)
	k.assert(priority < NumPriorities)

	k.enter()
	cur := k.sched.current
	reschedule := cur != nil && (t == cur || priority > cur.curPriority)
	if reschedule {
		k.quantumCancelLocked()
	}

	if t.state == StateReady {
		k.readyRemoveLocked(t)
		t.basePriority = priority
		t.curPriority = priority
		k.readyAddLocked(t)
	} else {
		t.basePriority = priority
		t.curPriority = priority
	}
	t.owner = &k.sched.ready[priority]

	if reschedule {
		k.yieldLocked()
	}
	k.exit()
}

// Priority returns the thread's base priority.
func (t *Thread) Priority() uint8 { return t.basePriority }

// CurrentPriority returns the thread's effective priority, which may be
// elevated by mutex priority inheritance.
func (t *Thread) CurrentPriority() uint8 { return t.curPriority }

// inheritPriorityLocked elevates (or restores) the thread's current
// priority without touching its base. A ready thread migrates between
// ready lists so the scheduler sees the new rank immediately.
func (t *Thread) inheritPriorityLocked(priority uint8) {
	k := t.k
	if t.state == StateReady {
		k.readyRemoveLocked(t)
		t.curPriority = priority
		k.readyAddLocked(t)
	} else {
		t.curPriority = priority
	}
	t.owner = &k.sched.ready[priority]
}

// SetQuantum overrides the thread's round-robin time slice, in ticks.
func (t *Thread) SetQuantum(ticks uint16) {
	t.k.assert(ticks > 0)
	t.quantum = ticks
}

// Quantum returns the thread's round-robin time slice, in ticks.
func (t *Thread) Quantum() uint16 { return t.quantum }

// SetName attaches a diagnostic name to the thread.
func (t *Thread) SetName(name string) { t.name = name }

// Name returns the thread's diagnostic name.
func (t *Thread) Name() string { return t.name }

// ID returns the thread's stable identifier.
func (t *Thread) ID() uint8 { return t.id }

// State returns the thread's lifecycle state.
func (t *Thread) State() ThreadState { return t.state }

// Timer returns the thread's dedicated timer, used by Sleep and by
// blocking-call timeouts.
func (t *Thread) Timer() *Timer { return &t.timer }

// Expired reports whether the thread's last timed blocking call timed
// out before the condition was satisfied.
func (t *Thread) Expired() bool { return t.expired }

// StackSlack measures the unused depth of the thread's stack, in words,
// by bisecting for the boundary between fill pattern and live data.
func (t *Thread) StackSlack() int {
	k := t.k
	k.assert(t.initialized)
	k.enter()
	slack := t.stackSlackLocked()
	k.exit()
	return slack
}

func (t *Thread) stackSlackLocked() int {
	bottom := 0
	top := len(t.stack) - 1
	mid := (top + bottom + 1) / 2
	for top-bottom > 1 {
		if t.stack[mid] != StackFill {
			top = mid
		} else {
			bottom = mid
		}
		mid = (top + bottom + 1) / 2
	}
	return mid
}

// Entry exposes the entry point and argument to the port's stack
// initializer and bootstrap.
func (t *Thread) Entry() (EntryFunc, any) { return t.entry, t.arg }

// Stack exposes the stack buffer to the port.
func (t *Thread) Stack() []uintptr { return t.stack }

// StackTop returns the saved-context position within the stack.
func (t *Thread) StackTop() int { return t.stackTop }

// SetStackTop records the saved-context position; ports call this from
// InitStack and their context-switch service.
func (t *Thread) SetStackTop(top int) { t.stackTop = top }

// PortData returns the port-private context attached to the thread.
func (t *Thread) PortData() any { return t.portData }

// SetPortData attaches port-private context to the thread.
func (t *Thread) SetPortData(v any) { t.portData = v }
