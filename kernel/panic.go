package kernel

// PanicCode identifies an unrecoverable kernel fault.
type PanicCode uint8

const (
	// PanicNoReadyThreads: the scheduler ran with an empty priority map.
	// Applications must always keep a priority-0 idle thread ready.
	PanicNoReadyThreads PanicCode = iota + 1
	// PanicListUnlinkFailed: a list unlink found neighbours that disagree
	// on membership.
	PanicListUnlinkFailed
	// PanicActiveEventFlagDescoped: an event flag group was destroyed
	// with threads still blocked on it.
	PanicActiveEventFlagDescoped
	// PanicActiveNotifyDescoped: a notification object was destroyed with
	// threads still blocked on it.
	PanicActiveNotifyDescoped
	// PanicActiveMailboxDescoped: a mailbox was destroyed while it still
	// held envelopes.
	PanicActiveMailboxDescoped
	// PanicActiveSemaphoreDescoped: a semaphore was destroyed with
	// threads still blocked on it.
	PanicActiveSemaphoreDescoped
	// PanicActiveMutexDescoped: a mutex was destroyed with threads still
	// blocked on it.
	PanicActiveMutexDescoped
	// PanicRunningThreadDescoped: a thread that was neither stopped nor
	// exited was destroyed.
	PanicRunningThreadDescoped
	// PanicStackSlackViolated: a thread's unused stack fell below the
	// configured guard threshold.
	PanicStackSlackViolated
	// PanicSemaphoreOverflow: a semaphore was posted past its maximum
	// while the kernel is configured with PostPolicyPanic.
	PanicSemaphoreOverflow
	// PanicAssert: an API contract check failed (nil pointer, use before
	// init, argument out of range).
	PanicAssert
)

func (c PanicCode) String() string {
	switch c {
	case PanicNoReadyThreads:
		return "no ready threads"
	case PanicListUnlinkFailed:
		return "list unlink failed"
	case PanicActiveEventFlagDescoped:
		return "active event flag descoped"
	case PanicActiveNotifyDescoped:
		return "active notify descoped"
	case PanicActiveMailboxDescoped:
		return "active mailbox descoped"
	case PanicActiveSemaphoreDescoped:
		return "active semaphore descoped"
	case PanicActiveMutexDescoped:
		return "active mutex descoped"
	case PanicRunningThreadDescoped:
		return "running thread descoped"
	case PanicStackSlackViolated:
		return "stack slack violated"
	case PanicSemaphoreOverflow:
		return "semaphore overflow"
	case PanicAssert:
		return "assertion failed"
	default:
		return "unknown"
	}
}

// PanicHandler is invoked once when the kernel hits an unrecoverable
// fault. It runs with the critical section held and must not call back
// into the kernel; it need not return.
type PanicHandler func(code PanicCode)

// Panic reports an unrecoverable kernel fault. The registered handler,
// if any, is invoked first; if it returns, the port halts the machine
// with interrupts disabled.
func (k *Kernel) Panic(code PanicCode) {
	if k.panicHandler != nil {
		k.panicHandler(code)
	}
	if k.debugPrint != nil {
		k.debugPrint("kernel panic: " + code.String())
	}
	k.port.Halt()
}

// SetPanicHandler installs the panic callout.
func (k *Kernel) SetPanicHandler(fn PanicHandler) { k.panicHandler = fn }

func (k *Kernel) assert(cond bool) {
	if !cond {
		k.Panic(PanicAssert)
	}
}
