package kernel

import (
	"sync"
	"testing"
)

// stubPort satisfies Port for tests that exercise kernel objects
// without running threads: critical sections are real, context
// switching is not.
type stubPort struct {
	mu sync.Mutex
	k  *Kernel
}

func (p *stubPort) Attach(k *Kernel) { p.k = k }

func (p *stubPort) InitStack(t *Thread) {
	stack := t.Stack()
	for i := range stack {
		stack[i] = StackFill
	}
	if len(stack) > 0 {
		stack[len(stack)-1] = 0
		t.SetStackTop(len(stack) - 1)
	}
}

func (p *stubPort) StartThreads()        {}
func (p *stubPort) TriggerSWI()          {}
func (p *stubPort) CriticalEnter()       { p.mu.Lock() }
func (p *stubPort) CriticalExit()        { p.mu.Unlock() }
func (p *stubPort) TimerStart(hz uint32) {}
func (p *stubPort) TimerStop()           {}
func (p *stubPort) WaitForInterrupt()    {}
func (p *stubPort) ThreadExit(t *Thread) {}
func (p *stubPort) Halt()                { panic("halted") }

func newTestKernel(t *testing.T, cfg Config) *Kernel {
	t.Helper()
	return New(&stubPort{}, cfg)
}

// expectPanic runs fn expecting the kernel to hit the given panic code.
func expectPanic(t *testing.T, k *Kernel, want PanicCode, fn func()) {
	t.Helper()
	var got PanicCode
	k.SetPanicHandler(func(code PanicCode) {
		got = code
		panic("kernel panic")
	})
	defer func() {
		recover()
		if got != want {
			t.Fatalf("expected panic %q, got %q", want, got)
		}
	}()
	fn()
	t.Fatalf("expected panic %q, got none", want)
}
