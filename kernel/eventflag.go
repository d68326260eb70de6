package kernel

import "time"

// FlagMode selects how a waiting thread's mask is matched against an
// event flag group.
type FlagMode uint8

const (
	// FlagAnySet: wake when any masked bit is set.
	FlagAnySet FlagMode = iota
	// FlagAllSet: wake when every masked bit is set.
	FlagAllSet
	// FlagAnyClear: like FlagAnySet, and the matched bits are cleared
	// from the group on wake.
	FlagAnyClear
	// FlagAllClear: like FlagAllSet, and the matched bits are cleared
	// from the group on wake.
	FlagAllClear

	// flagPendingUnblock tags a waiter chosen during the first pass of
	// Set, to be released in the second pass.
	flagPendingUnblock
)

// EventFlag is a group of 16 event bits that threads can wait on with a
// per-thread mask and matching mode.
type EventFlag struct {
	k *Kernel
	b blocker

	setMask uint16

	initialized bool
}

// Init establishes the group with all bits clear.
func (e *EventFlag) Init(k *Kernel) {
	e.k = k
	e.b.init(k)
	e.setMask = 0
	e.initialized = true
}

// Destroy verifies no thread is still blocked on the group.
func (e *EventFlag) Destroy() {
	e.k.enter()
	if e.b.hasWaiters() {
		e.k.Panic(PanicActiveEventFlagDescoped)
	}
	e.initialized = false
	e.k.exit()
}

// Wait blocks until the group matches mask under the given mode and
// returns the matching bits. Clear modes consume the matched bits.
func (e *EventFlag) Wait(mask uint16, mode FlagMode) uint16 {
	return e.wait(mask, mode, 0)
}

// TimedWait is Wait with a deadline; it returns zero when the timeout
// fires first.
func (e *EventFlag) TimedWait(mask uint16, mode FlagMode, timeout time.Duration) uint16 {
	return e.wait(mask, mode, timeout)
}

func (e *EventFlag) wait(mask uint16, mode FlagMode, timeout time.Duration) uint16 {
	k := e.k
	k.assert(e.initialized)
	k.assert(mode <= FlagAllClear)

	k.enter()
	cur := k.sched.current

	match, matched := matchFlags(e.setMask, mask, mode)
	if match {
		if mode == FlagAnyClear || mode == FlagAllClear {
			e.setMask &^= matched
		}
		cur.flagMask = matched
		k.exit()
		return matched
	}

	cur.flagMask = mask
	cur.flagMode = mode

	useTimer := timeout > 0
	if useTimer {
		cur.expired = false
		cur.timer.initLocked(k)
		cur.timer.startLocked(false, k.durationToTicks(timeout), 0, eventFlagTimeout, e, cur)
	}

	e.b.blockPriorityLocked(cur)
	k.yieldLocked()
	k.exit()

	// Resumes here after a matching Set or a timeout; the matched bits
	// were recorded in the thread's event-mask slot by the waker.
	if useTimer {
		k.enter()
		k.timers.removeLocked(&cur.timer)
		k.exit()
	}
	return cur.flagMask
}

// matchFlags evaluates one waiter's (mask, mode) pair against the
// current set mask, returning whether it is satisfied and which bits
// matched.
func matchFlags(set, mask uint16, mode FlagMode) (bool, uint16) {
	switch mode {
	case FlagAllSet, FlagAllClear:
		if set&mask == mask {
			return true, mask
		}
	case FlagAnySet, FlagAnyClear:
		if set&mask != 0 {
			return true, set & mask
		}
	}
	return false, 0
}

// Set ORs bits into the group and wakes every satisfied waiter. The
// walk is two-pass: pass one evaluates all waiters against the new mask
// and accumulates clear-mode consumption in a scratch mask — later
// waiters are not re-evaluated against bits cleared by earlier ones —
// and pass two releases the tagged threads after the scratch mask has
// been committed.
func (e *EventFlag) Set(bits uint16) {
	k := e.k
	k.assert(e.initialized)
	k.enter()
	if e.setFlagsLocked(bits) {
		k.yieldLocked()
	}
	k.exit()
}

// SetFromISR is Set for interrupt context: the critical section is
// already held and any required context switch is pended for the
// interrupt's exit.
func (e *EventFlag) SetFromISR(bits uint16) {
	e.k.assert(e.initialized)
	if e.setFlagsLocked(bits) {
		e.k.yieldLocked()
	}
}

func (e *EventFlag) setFlagsLocked(bits uint16) (yield bool) {
	e.setMask |= bits
	newMask := e.setMask

	head := e.b.waiters.Head()
	if head == nil {
		return false
	}

	// Pass one: tag satisfied waiters, accumulating clears.
	t := head
	for {
		next := e.b.waiters.list.Next(t)
		if t.flagMode <= FlagAllClear {
			if ok, matched := matchFlags(e.setMask, t.flagMask, t.flagMode); ok {
				if t.flagMode == FlagAnyClear || t.flagMode == FlagAllClear {
					newMask &^= matched
				}
				t.flagMask = matched
				t.flagMode = flagPendingUnblock
			}
		}
		if t == e.b.waiters.Tail() {
			break
		}
		t = next
	}

	e.setMask = newMask

	// Pass two: release everything tagged in pass one.
	for {
		var chosen *Thread
		for t := e.b.waiters.Head(); t != nil; t = e.b.waiters.list.Next(t) {
			if t.flagMode == flagPendingUnblock {
				chosen = t
				break
			}
			if t == e.b.waiters.Tail() {
				break
			}
		}
		if chosen == nil {
			return yield
		}
		if e.b.unBlockLocked(chosen) {
			yield = true
		}
	}
}

// Clear ANDs bits out of the group. Clearing never wakes anyone.
func (e *EventFlag) Clear(bits uint16) {
	k := e.k
	k.assert(e.initialized)
	k.enter()
	e.setMask &^= bits
	k.exit()
}

// Mask returns the group's current bits.
func (e *EventFlag) Mask() uint16 {
	k := e.k
	k.assert(e.initialized)
	k.enter()
	mask := e.setMask
	k.exit()
	return mask
}

// eventFlagTimeout runs in interrupt context when a timed wait's
// deadline fires before the flags matched.
func eventFlagTimeout(owner *Thread, data any) {
	e := data.(*EventFlag)
	if !e.b.blockedOn(owner) {
		return
	}
	owner.expired = true
	owner.flagMask = 0
	if e.b.unBlockLocked(owner) {
		e.k.yieldLocked()
	}
}
