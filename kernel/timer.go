package kernel

import "time"

// TimerCallback is invoked on timer expiry, in interrupt context with
// the critical section held. Callbacks must not block; they may use the
// *FromISR operations to post, signal, or set synchronization objects.
type TimerCallback func(owner *Thread, data any)

const (
	timerOneShot uint8 = 1 << iota
	timerActive
	timerCallbackPending
	timerExpired
)

const timerInitCookie = 0xC3

// Timer is a software timer multiplexed over the hardware tick. Timers
// are user-allocated; a dormant one costs nothing until started.
type Timer struct {
	link Links[Timer]

	k         *Kernel
	flags     uint8
	interval  uint32
	remaining uint32
	tolerance uint32
	owner     *Thread
	callback  TimerCallback
	data      any
	cookie    uint8
}

func timerLinks(t *Timer) *Links[Timer] { return &t.link }

// Init resets the timer to a dormant state. An active timer is stopped
// first.
func (t *Timer) Init(k *Kernel) {
	k.enter()
	t.initLocked(k)
	k.exit()
}

func (t *Timer) initLocked(k *Kernel) {
	if t.cookie == timerInitCookie && t.flags&timerActive != 0 {
		k.timers.removeLocked(t)
	}
	t.link.clear()
	t.k = k
	t.flags = 0
	t.interval = 0
	t.remaining = 0
	t.tolerance = 0
	t.owner = nil
	t.callback = nil
	t.data = nil
	t.cookie = timerInitCookie
}

// Start arms the timer to fire after interval, repeating when repeat is
// set. The calling thread becomes the owner passed to the callback. A
// zero interval fires on the next tick.
func (t *Timer) Start(repeat bool, interval time.Duration, callback TimerCallback, data any) {
	t.StartTolerance(repeat, interval, 0, callback, data)
}

// StartTolerance arms the timer like Start, additionally allowing its
// expiry to be delayed by up to tolerance so that it can share a wakeup
// with another timer already due in that window. Expiry is never early.
func (t *Timer) StartTolerance(repeat bool, interval, tolerance time.Duration, callback TimerCallback, data any) {
	k := t.k
	k.assert(t.cookie == timerInitCookie)
	k.enter()
	t.startLocked(repeat, k.durationToTicks(interval), k.durationToTicks(tolerance), callback, data, k.sched.current)
	k.exit()
}

// Restart re-arms the timer with its previous configuration; useful for
// retriggering an expired one-shot.
func (t *Timer) Restart() {
	k := t.k
	k.assert(t.cookie == timerInitCookie)
	k.enter()
	t.startLocked(t.flags&timerOneShot == 0, t.interval, t.tolerance, t.callback, t.data, t.owner)
	k.exit()
}

// Stop disarms the timer. Stopping a dormant timer is a no-op.
func (t *Timer) Stop() {
	k := t.k
	k.assert(t.cookie == timerInitCookie)
	k.enter()
	k.timers.removeLocked(t)
	k.exit()
}

// Interval returns the configured interval in ticks.
func (t *Timer) Interval() uint32 { return t.interval }

// Expired reports whether a one-shot timer has fired.
func (t *Timer) Expired() bool { return t.flags&timerExpired != 0 }

func (t *Timer) startLocked(repeat bool, ticks, tolerance uint32, callback TimerCallback, data any, owner *Thread) {
	k := t.k
	if t.flags&timerActive != 0 {
		k.timers.removeLocked(t)
	}

	t.interval = ticks
	t.tolerance = tolerance
	t.remaining = ticks
	t.callback = callback
	t.data = data
	t.owner = owner
	if repeat {
		t.flags &^= timerOneShot
	} else {
		t.flags |= timerOneShot
	}
	t.flags &^= timerExpired

	// Coalesce with a timer already due inside the tolerance window, so
	// both expire on one tick. Each periodic reload goes back to the
	// nominal interval; the granted delay applies to this expiry only.
	if tolerance > 0 {
		for u := k.timers.list.Head(); u != nil; u = k.timers.list.Next(u) {
			if u == t || u.flags&timerActive == 0 {
				continue
			}
			if u.remaining >= ticks && u.remaining <= ticks+tolerance {
				t.remaining = u.remaining
				break
			}
		}
	}

	k.timers.addLocked(t)
}

// timerList is the timer scheduler: the set of armed timers, walked
// once per hardware tick.
type timerList struct {
	k    *Kernel
	list DoubleList[Timer]
}

func (tl *timerList) init(k *Kernel) {
	tl.k = k
	InitDoubleList(&tl.list, timerLinks, func() {
		k.Panic(PanicListUnlinkFailed)
	})
}

func (tl *timerList) addLocked(t *Timer) {
	if t.flags&timerActive == 0 {
		tl.list.Add(t)
		t.flags |= timerActive
	}
}

func (tl *timerList) removeLocked(t *Timer) {
	if t.flags&timerActive != 0 {
		tl.list.Remove(t)
		t.flags &^= timerActive | timerCallbackPending
	}
}

// tick is the per-tick algorithm: decrement everything first, then run
// the callbacks, reloading periodic timers and retiring one-shots. The
// callback walk rescans from the head after every invocation because a
// callback may arm or disarm other timers.
func (tl *timerList) tick() {
	for t := tl.list.Head(); t != nil; t = tl.list.Next(t) {
		if t.flags&timerActive == 0 {
			continue
		}
		if t.remaining > 0 {
			t.remaining--
		}
		if t.remaining == 0 {
			t.flags |= timerCallbackPending
		}
	}

	for {
		var fired *Timer
		for t := tl.list.Head(); t != nil; t = tl.list.Next(t) {
			if t.flags&timerCallbackPending != 0 {
				fired = t
				break
			}
		}
		if fired == nil {
			return
		}

		// Callback first, while the timer is still armed; reload or
		// retire afterwards. The pending flag is dropped up front so
		// the rescan terminates.
		fired.flags &^= timerCallbackPending
		if fired.callback != nil {
			fired.callback(fired.owner, fired.data)
		}
		if fired.flags&timerActive == 0 {
			// The callback stopped its own timer.
			continue
		}
		// remaining is nonzero only when the callback re-armed the
		// timer itself; that configuration wins.
		if fired.flags&timerOneShot != 0 {
			if fired.remaining == 0 {
				tl.removeLocked(fired)
				fired.flags |= timerExpired
			}
		} else if fired.remaining == 0 {
			fired.remaining = fired.interval
		}
	}
}
