// Package kernel implements a preemptive, strict-priority real-time
// multitasking nucleus: a constant-time scheduler with round-robin
// tiebreaking, software timers multiplexed over one hardware tick, and a
// family of blocking primitives built on a shared waiter-list core.
//
// All kernel objects are user-allocated and wired together by intrusive
// list membership; after New, the only allocation the kernel makes is
// the private semaphore behind each Sleep. Every
// mutation of scheduler, waiter, or timer state happens inside the
// port's critical section. Code running in interrupt context (timer
// callbacks, hardware ISRs) must use the *FromISR variants, which never
// block.
package kernel

import "time"

// PostPolicy selects what a semaphore does when posted past its maximum.
type PostPolicy uint8

const (
	// PostPolicyClamp silently saturates the count at the maximum.
	PostPolicyClamp PostPolicy = iota
	// PostPolicyPanic raises PanicSemaphoreOverflow.
	PostPolicyPanic
	// PostPolicyError makes Post report failure.
	PostPolicyError
)

// DefaultQuantum is the round-robin time slice, in ticks, granted to
// threads that never call SetQuantum.
const DefaultQuantum = 4

// Config carries kernel construction parameters. The zero value is
// usable: 1 kHz tick, stack checking off, semaphore overflow clamped.
type Config struct {
	// TickHz is the hardware tick rate. 0 means 1000.
	TickHz uint32
	// StackGuard, when nonzero, is the minimum unused stack (in words) a
	// thread may have at context-switch time before the kernel panics.
	StackGuard int
	// SemaphorePostPolicy selects the post-beyond-max behaviour.
	SemaphorePostPolicy PostPolicy
}

// Kernel is the single process-wide kernel context. Interrupt handlers
// reach it through the port it was constructed with.
type Kernel struct {
	port Port
	cfg  Config
	clz  func(uint16) int

	sched  scheduler
	timers timerList
	rr     quantum

	started      bool
	nextThreadID uint8

	threadCreateCallout  func(*Thread)
	threadExitCallout    func(*Thread)
	contextSwitchCallout func(*Thread)
	idleCallout          func()
	panicHandler         PanicHandler
	debugPrint           func(string)
}

// New initializes a kernel bound to the given port.
func New(port Port, cfg Config) *Kernel {
	if cfg.TickHz == 0 {
		cfg.TickHz = 1000
	}
	k := &Kernel{port: port, cfg: cfg, clz: clz16}
	if hw, ok := port.(CLZPort); ok {
		k.clz = hw.CLZ
	}
	k.sched.init(k)
	k.timers.init(k)
	k.rr.init(k)
	port.Attach(k)
	return k
}

// Start hands the CPU to the scheduler. It selects the first thread
// (panicking if none is ready), arms the tick source, and jumps to the
// port's thread-start routine. On hosted ports it returns only when the
// port is stopped.
func (k *Kernel) Start() {
	k.enter()
	k.started = true
	k.sched.enabled = true
	k.sched.queued = false
	k.scheduleLocked()
	k.sched.current = k.sched.next
	k.quantumUpdateLocked(k.sched.current)
	k.exit()

	k.port.TimerStart(k.cfg.TickHz)
	k.port.StartThreads()
}

// IsStarted reports whether Start has run.
func (k *Kernel) IsStarted() bool { return k.started }

// CurrentThread returns the running thread. Before Start it returns nil.
func (k *Kernel) CurrentThread() *Thread { return k.sched.current }

// TickHz returns the configured tick rate.
func (k *Kernel) TickHz() uint32 { return k.cfg.TickHz }

// Yield voluntarily invokes the scheduler, switching contexts when a
// different thread should run.
func (k *Kernel) Yield() {
	k.enter()
	k.yieldLocked()
	k.exit()
}

// CoopYield rotates the current priority's ready list and yields,
// handing the CPU to the next same-priority thread without waiting for
// the quantum to expire.
func (k *Kernel) CoopYield() {
	k.enter()
	cur := k.sched.current
	if cur != nil && cur.current != nil {
		cur.current.PivotForward()
	}
	k.yieldLocked()
	k.exit()
}

// Idle is the idle thread's body step: it invokes the idle callout and
// parks until the next interrupt. The priority-0 thread every
// application must provide typically loops over Idle forever.
func (k *Kernel) Idle() {
	if k.idleCallout != nil {
		k.idleCallout()
	}
	k.port.WaitForInterrupt()
	k.Yield()
}

// Sleep blocks the current thread for at least d, using the thread's
// dedicated timer and a private binary semaphore.
func (k *Kernel) Sleep(d time.Duration) {
	var sem Semaphore
	sem.Init(k, 0, 1)

	k.enter()
	cur := k.sched.current
	cur.timer.initLocked(k)
	cur.timer.startLocked(false, k.durationToTicks(d), 0, sleepWake, &sem, cur)
	k.exit()

	sem.Pend()
}

// sleepWake runs in interrupt context when a sleeping thread's timer
// expires.
func sleepWake(owner *Thread, data any) {
	sem := data.(*Semaphore)
	sem.postFromISRLocked()
}

// SetThreadCreateCallout registers a function invoked whenever a thread
// is initialized.
func (k *Kernel) SetThreadCreateCallout(fn func(*Thread)) { k.threadCreateCallout = fn }

// SetThreadExitCallout registers a function invoked whenever a thread
// exits.
func (k *Kernel) SetThreadExitCallout(fn func(*Thread)) { k.threadExitCallout = fn }

// SetContextSwitchCallout registers a function invoked with the outgoing
// thread just before each context switch. It runs with the critical
// section held.
func (k *Kernel) SetContextSwitchCallout(fn func(*Thread)) { k.contextSwitchCallout = fn }

// SetIdleCallout registers a function run by Idle before parking.
func (k *Kernel) SetIdleCallout(fn func()) { k.idleCallout = fn }

// SetDebugPrint registers the kernel's diagnostic line sink.
func (k *Kernel) SetDebugPrint(fn func(string)) { k.debugPrint = fn }

// TimerTick advances kernel time by one tick. Called by the port's tick
// interrupt with the critical section held.
func (k *Kernel) TimerTick() {
	k.timers.tick()
}

// ContextSwitch retires the pended switch: it makes the chosen next
// thread current and returns the outgoing and incoming threads. Called
// by the port's SWI service with the critical section held.
func (k *Kernel) ContextSwitch() (old, next *Thread) {
	old = k.sched.current
	next = k.sched.next
	k.sched.current = next
	return old, next
}

// enter and exit bracket every public kernel API. The kernel never
// nests them; internal code runs lowercase *Locked functions instead.
func (k *Kernel) enter() { k.port.CriticalEnter() }
func (k *Kernel) exit()  { k.port.CriticalExit() }

// durationToTicks converts a duration to ticks, rounding up. A zero
// duration converts to zero ticks: the timer fires on the next tick.
func (k *Kernel) durationToTicks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	period := time.Second / time.Duration(k.cfg.TickHz)
	return uint32((d + period - 1) / period)
}

// yieldLocked runs the scheduler and pends a context switch when the
// chosen thread differs from the running one. With the scheduler
// disabled the request is queued for the re-enable edge.
func (k *Kernel) yieldLocked() {
	if !k.sched.enabled {
		k.sched.queued = true
		return
	}
	k.scheduleLocked()
	if k.sched.current != k.sched.next {
		k.quantumUpdateLocked(k.sched.next)
		k.contextSwitchSWILocked()
	}
}

// contextSwitchSWILocked performs the pre-switch bookkeeping and pends
// the switch with the port.
func (k *Kernel) contextSwitchSWILocked() {
	if !k.sched.enabled {
		return
	}
	cur := k.sched.current
	if cur != nil && k.cfg.StackGuard > 0 && cur.stackSlackLocked() < k.cfg.StackGuard {
		k.Panic(PanicStackSlackViolated)
	}
	if k.contextSwitchCallout != nil {
		k.contextSwitchCallout(cur)
	}
	k.port.TriggerSWI()
}
