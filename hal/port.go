// Package hal is the architecture boundary for the kernel: the
// interrupt mask, context-switch machinery, tick source, and the device
// shells (logger, LED, display) the demo applications talk to.
package hal

import (
	"math/bits"
	"runtime"
	"sync"
	"time"

	"ember/kernel"
)

// RuntimePort implements kernel.Port on top of the Go runtime. Each
// kernel thread context is a goroutine parked on a resume channel, the
// interrupt mask is a mutex, and the hardware tick is a time.Ticker
// (or manual stepping, for tests).
//
// Exactly one kernel-thread goroutine runs at any moment. An interrupt
// (tick) acquires the mask, mutates kernel state, and leaves any
// context-switch request pended; the running thread services it at its
// next critical-section boundary, saving its context by parking and
// restoring the next thread's by waking it. The port therefore takes
// preemption at kernel API boundaries rather than between arbitrary
// instructions; the contract the kernel sees is otherwise identical to
// a hardware SWI.
//
// After kernel.Start, kernel APIs must be invoked only from kernel
// threads or from timer callbacks — the same rule a hardware target
// imposes.
type RuntimePort struct {
	k *kernel.Kernel

	mu         sync.Mutex
	swiPending bool

	manualTick bool
	tickStop   chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewRuntimePort returns a port driven by a real-time ticker. Call
// SetManualTick before kernel.Start to step time by hand instead.
func NewRuntimePort() *RuntimePort {
	return &RuntimePort{stopped: make(chan struct{})}
}

// SetManualTick disables the wall-clock ticker; time advances only
// through explicit Tick calls.
func (p *RuntimePort) SetManualTick(manual bool) { p.manualTick = manual }

// Attach hands the port its kernel.
func (p *RuntimePort) Attach(k *kernel.Kernel) { p.k = k }

// threadContext is the port-private saved context of one thread.
type threadContext struct {
	resume  chan struct{}
	started bool
	dead    bool
}

// stackFrameWords is the size of the synthetic exception frame written
// by InitStack.
const stackFrameWords = 4

// InitStack paints the stack with the fill pattern and lays down a
// synthetic frame at the top. The live register state of a runtime
// thread is its goroutine; the frame words stand in for what a hardware
// port would build, and keep the slack accounting honest.
func (p *RuntimePort) InitStack(t *kernel.Thread) {
	stack := t.Stack()
	for i := range stack {
		stack[i] = kernel.StackFill
	}
	top := len(stack)
	frame := stackFrameWords
	if frame > top {
		frame = top
	}
	for i := 0; i < frame; i++ {
		stack[top-1-i] = 0
	}
	t.SetStackTop(top - frame)
	t.SetPortData(&threadContext{resume: make(chan struct{}, 1)})
}

// CriticalEnter masks interrupts. On a stopped port the calling thread
// context unwinds instead; the machine is gone.
func (p *RuntimePort) CriticalEnter() {
	if p.isStopped() {
		runtime.Goexit()
	}
	p.mu.Lock()
}

// CriticalExit restores interrupts, servicing a pended context switch:
// the outgoing thread parks, the incoming one resumes.
func (p *RuntimePort) CriticalExit() {
	if !p.swiPending {
		p.mu.Unlock()
		return
	}
	p.swiPending = false
	old, next := p.k.ContextSwitch()
	if old == next {
		p.mu.Unlock()
		return
	}
	oc, _ := old.PortData().(*threadContext)
	nc, _ := next.PortData().(*threadContext)
	p.mu.Unlock()
	p.wake(next, nc)
	p.park(oc)
}

// TriggerSWI pends the context switch. Called with the mask held.
func (p *RuntimePort) TriggerSWI() { p.swiPending = true }

func (p *RuntimePort) wake(t *kernel.Thread, tc *threadContext) {
	if tc == nil {
		return
	}
	if !tc.started {
		tc.started = true
		go p.threadMain(t, tc)
		return
	}
	tc.resume <- struct{}{}
}

func (p *RuntimePort) park(tc *threadContext) {
	if tc == nil || tc.dead || p.isStopped() {
		runtime.Goexit()
	}
	<-tc.resume
	if tc.dead || p.isStopped() {
		runtime.Goexit()
	}
}

func (p *RuntimePort) threadMain(t *kernel.Thread, tc *threadContext) {
	entry, arg := t.Entry()
	entry(arg)
	// Falling off the end of a thread function exits the thread; this
	// is the runtime equivalent of the trap return address a hardware
	// port plants under the synthetic frame.
	t.Exit()
}

// ThreadExit retires a thread context for good: its goroutine unwinds
// at the next scheduling point instead of resuming.
func (p *RuntimePort) ThreadExit(t *kernel.Thread) {
	if tc, ok := t.PortData().(*threadContext); ok {
		tc.dead = true
		select {
		case tc.resume <- struct{}{}:
		default:
		}
	}
}

// StartThreads hands the CPU to the first scheduled thread and blocks
// until the port is stopped.
func (p *RuntimePort) StartThreads() {
	p.mu.Lock()
	first := p.k.CurrentThread()
	tc, _ := first.PortData().(*threadContext)
	p.mu.Unlock()
	p.wake(first, tc)
	<-p.stopped
	p.TimerStop()
}

// TimerStart arms the tick source. With manual ticking enabled this is
// a no-op; call Tick to advance time.
func (p *RuntimePort) TimerStart(hz uint32) {
	if p.manualTick || hz == 0 {
		return
	}
	p.tickStop = make(chan struct{})
	stop := p.tickStop
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(hz))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-p.stopped:
				return
			case <-ticker.C:
				p.Tick(1)
			}
		}
	}()
}

// TimerStop disarms the tick source.
func (p *RuntimePort) TimerStop() {
	if p.tickStop != nil {
		select {
		case <-p.tickStop:
		default:
			close(p.tickStop)
		}
	}
}

// Tick delivers n tick interrupts to the kernel.
func (p *RuntimePort) Tick(n int) {
	for i := 0; i < n; i++ {
		p.mu.Lock()
		if p.isStopped() {
			p.mu.Unlock()
			return
		}
		p.k.TimerTick()
		p.mu.Unlock()
	}
}

// WaitForInterrupt parks the idle thread briefly.
func (p *RuntimePort) WaitForInterrupt() {
	if p.isStopped() {
		runtime.Goexit()
	}
	time.Sleep(200 * time.Microsecond)
}

// CLZ counts leading zeros with the runtime's intrinsic, standing in
// for a hardware count-leading-zeros instruction.
func (p *RuntimePort) CLZ(v uint16) int { return bits.LeadingZeros16(v) }

// Halt stops the machine on an unrecoverable kernel fault.
func (p *RuntimePort) Halt() {
	panic("kernel: halted")
}

// Stop tears the port down: StartThreads returns, the ticker dies, and
// every parked thread context unwinds at its next scheduling point.
func (p *RuntimePort) Stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

func (p *RuntimePort) isStopped() bool {
	select {
	case <-p.stopped:
		return true
	default:
		return false
	}
}
