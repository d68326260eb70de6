package kernel

// Port is the architecture boundary. The kernel is written against this
// contract only; everything chip- or host-specific lives behind it.
//
// The critical section is the port's interrupt mask. The kernel never
// nests it: every public API entry acquires it exactly once and releases
// it on every exit path. A context-switch request raised inside the
// critical section (TriggerSWI) is serviced by the port when the running
// thread leaves the critical section.
type Port interface {
	// Attach hands the port its kernel. Called once, from New, before
	// any other method.
	Attach(k *Kernel)

	// InitStack writes a synthetic context to t's stack so that the
	// first restore lands at the thread's entry function, and records
	// the resulting stack top on the thread.
	InitStack(t *Thread)

	// StartThreads transfers control to the first scheduled thread. On
	// hosted ports it blocks until the port is stopped.
	StartThreads()

	// TriggerSWI pends the context-switch software interrupt. Called
	// with the critical section held.
	TriggerSWI()

	// CriticalEnter masks interrupts. CriticalExit restores them and
	// services a pended context switch.
	CriticalEnter()
	CriticalExit()

	// TimerStart arms the hardware tick source to call Kernel.TimerTick
	// at the given rate. TimerStop disarms it.
	TimerStart(hz uint32)
	TimerStop()

	// WaitForInterrupt parks the idle thread until something happens.
	WaitForInterrupt()

	// ThreadExit tells the port that t has exited and its context will
	// never be restored. Called with the critical section held.
	ThreadExit(t *Thread)

	// Halt stops the machine with interrupts disabled. Does not return.
	Halt()
}

// CLZPort is optionally implemented by ports whose hardware has a
// count-leading-zeros instruction; the kernel otherwise falls back to a
// nibble-table lookup.
type CLZPort interface {
	CLZ(v uint16) int
}
