package app

import (
	"fmt"
	"time"

	"ember/kernel"
)

// consolePriority keeps the console above the demo threads so lines
// drain promptly.
const consolePriority = 5

var demos = map[string]func(*System){
	"threads":    demoThreads,
	"roundrobin": demoRoundRobin,
	"semaphore":  demoSemaphore,
	"timers":     demoTimers,
	"mutex":      demoMutex,
	"eventflag":  demoEventFlag,
	"mailbox":    demoMailbox,
	"message":    demoMessage,
}

func newThread(s *System, name string, priority uint8, entry kernel.EntryFunc) *kernel.Thread {
	t := &kernel.Thread{}
	t.Init(s.K, make([]uintptr, stackWords), priority, entry, nil)
	t.SetName(name)
	t.Start()
	return t
}

// spin burns CPU in blocks, touching the kernel between blocks so the
// runtime port can take a pended preemption. A hardware port would
// preempt mid-count instead.
func spin(k *kernel.Kernel, count int) {
	for i := 0; i < count; i += 1000 {
		for j := 0; j < 1000; j++ {
		}
		k.Yield()
	}
}

// demoThreads: two worker priorities plus idle. The higher priority
// runs first; while both sleep, idle has the CPU.
func demoThreads(s *System) {
	k := s.K
	worker := func(name string, d time.Duration) kernel.EntryFunc {
		return func(any) {
			for {
				s.Println(name + ": running")
				k.Sleep(d)
			}
		}
	}
	newThread(s, "lo", 1, worker("lo", 50*time.Millisecond))
	newThread(s, "hi", 2, worker("hi", 50*time.Millisecond))
}

// demoRoundRobin: two equal-priority counters time-sliced by the
// quantum timer.
func demoRoundRobin(s *System) {
	k := s.K
	counter := func(name string) kernel.EntryFunc {
		return func(any) {
			n := 0
			for {
				spin(k, 100_000)
				n++
				s.Println(fmt.Sprintf("%s: block %d", name, n))
			}
		}
	}
	a := newThread(s, "rr-a", 1, counter("rr-a"))
	b := newThread(s, "rr-b", 1, counter("rr-b"))
	a.SetQuantum(10)
	b.SetQuantum(10)
}

// demoSemaphore: the classic producer-consumer pattern over a binary
// semaphore; output alternates Posted / Wait / Triggered.
func demoSemaphore(s *System) {
	k := s.K
	sem := &kernel.Semaphore{}
	sem.Init(k, 0, 1)

	newThread(s, "consumer", 1, func(any) {
		for {
			s.Println("Wait")
			sem.Pend()
			s.Println("Triggered")
		}
	})
	newThread(s, "producer", 1, func(any) {
		counter := 0
		for {
			counter++
			if counter == 1_000_000 {
				counter = 0
				s.Println("Posted")
				sem.Post()
			}
		}
	})
}

// demoTimers: a periodic timer paces one thread from interrupt context,
// a one-shot started with a tolerance fires an event flag, and the LED
// blinks from the tick itself.
func demoTimers(s *System) {
	k := s.K
	tick := &kernel.Semaphore{}
	tick.Init(k, 0, 8)
	flags := &kernel.EventFlag{}
	flags.Init(k)

	led := s.hal.LED()
	ledOn := false

	periodic := &kernel.Timer{}
	oneShot := &kernel.Timer{}

	newThread(s, "ticker", 2, func(any) {
		periodic.Init(k)
		periodic.Start(true, 500*time.Millisecond, func(owner *kernel.Thread, data any) {
			tick.PostFromISR()
		}, nil)

		oneShot.Init(k)
		oneShot.StartTolerance(false, 2*time.Second, 250*time.Millisecond,
			func(owner *kernel.Thread, data any) {
				flags.SetFromISR(0x0001)
			}, nil)

		n := 0
		for {
			tick.Pend()
			n++
			if ledOn {
				led.Low()
			} else {
				led.High()
			}
			ledOn = !ledOn
			s.Println(fmt.Sprintf("tick %d", n))
		}
	})

	newThread(s, "oneshot", 1, func(any) {
		flags.Wait(0x0001, kernel.FlagAnySet)
		s.Println("one-shot fired")
		for {
			k.Sleep(time.Second)
		}
	})
}

// demoMutex: priority inversion bounded by inheritance. While the low
// worker holds the lock against the high claimant it runs at the
// claimant's priority, so the middle spinner cannot wedge in.
func demoMutex(s *System) {
	k := s.K
	mtx := &kernel.Mutex{}
	mtx.Init(k)

	lowThread := &kernel.Thread{}
	lowThread.Init(k, make([]uintptr, stackWords), 1, func(any) {
		for {
			mtx.Claim()
			s.Println(fmt.Sprintf("low: claimed, priority %d", lowThread.CurrentPriority()))
			spin(k, 500_000)
			s.Println(fmt.Sprintf("low: releasing, priority %d", lowThread.CurrentPriority()))
			mtx.Release()
			k.Sleep(200 * time.Millisecond)
		}
	}, nil)
	lowThread.SetName("low")
	lowThread.Start()

	newThread(s, "mid", 2, func(any) {
		for {
			k.Sleep(50 * time.Millisecond)
			spin(k, 100_000)
		}
	})

	newThread(s, "high", 3, func(any) {
		for {
			k.Sleep(20 * time.Millisecond)
			mtx.Claim()
			s.Println("high: claimed")
			mtx.Release()
			k.Sleep(200 * time.Millisecond)
		}
	})
}

// demoEventFlag: a masked wait woken only by a matching set.
func demoEventFlag(s *System) {
	k := s.K
	flags := &kernel.EventFlag{}
	flags.Init(k)

	newThread(s, "waiter", 2, func(any) {
		for {
			matched := flags.Wait(0xAAAA, kernel.FlagAnySet)
			s.Println(fmt.Sprintf("waiter: matched %#04x, mask %#04x", matched, flags.Mask()))
			flags.Clear(matched)
		}
	})

	newThread(s, "setter", 1, func(any) {
		for {
			k.Sleep(250 * time.Millisecond)
			flags.Set(0x0005) // no overlap with the wait mask, nobody wakes
			s.Println(fmt.Sprintf("setter: set 0x0005, mask %#04x", flags.Mask()))
			k.Sleep(250 * time.Millisecond)
			flags.Set(0x0002) // overlaps, wakes the waiter
			s.Println("setter: set 0x0002")
		}
	})
}

// demoMailbox: a four-slot envelope ring. The fifth send times out
// until the receiver drains a slot.
func demoMailbox(s *System) {
	k := s.K
	const envSize = 16
	mbox := &kernel.Mailbox{}
	mbox.Init(k, make([]byte, 4*envSize), envSize)

	newThread(s, "mb-send", 2, func(any) {
		env := make([]byte, envSize)
		for seq := 1; ; seq++ {
			for i := 0; i < 5; i++ {
				copy(env, fmt.Sprintf("env %d.%d", seq, i))
				ok := mbox.TimedSend(env, 100*time.Millisecond)
				s.Println(fmt.Sprintf("send %d.%d: %v", seq, i, ok))
			}
			k.Sleep(time.Second)
		}
	})

	newThread(s, "mb-recv", 1, func(any) {
		env := make([]byte, envSize)
		for {
			k.Sleep(300 * time.Millisecond)
			mbox.ReceiveTail(env)
			s.Println("recv: " + string(trimZero(env)))
		}
	})
}

// demoMessage: code-plus-payload messages cycling through a pool and a
// queue.
func demoMessage(s *System) {
	k := s.K
	queue := &kernel.MessageQueue{}
	queue.Init(k)
	pool := &kernel.MessagePool{}
	pool.Init(k)
	msgs := make([]kernel.Message, 8)
	for i := range msgs {
		pool.Push(&msgs[i])
	}

	newThread(s, "msg-recv", 2, func(any) {
		for {
			msg := queue.Receive()
			s.Println(fmt.Sprintf("msg: code %d data %v", msg.Code(), msg.Data()))
			msg.SetData(nil)
			pool.Push(msg)
		}
	})

	newThread(s, "msg-send", 1, func(any) {
		for seq := uint16(1); ; seq++ {
			k.Sleep(500 * time.Millisecond)
			msg := pool.Pop()
			if msg == nil {
				continue
			}
			msg.SetCode(seq)
			msg.SetData(time.Duration(seq) * time.Millisecond)
			queue.Send(msg)
		}
	})
}

func trimZero(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
