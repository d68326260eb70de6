package kernel

import "time"

// Mutex is a recursive mutual-exclusion lock with one level of priority
// inheritance: while held, the owner's current priority is kept at or
// above the highest waiter's base priority, so a low-priority owner
// cannot be starved under a high-priority claimant by anything in
// between.
type Mutex struct {
	k *Kernel
	b blocker

	owner     *Thread
	recursion uint8
	// ownerPriority snapshots the owner's current priority at claim
	// time, restored on final release.
	ownerPriority uint8

	initialized bool
}

// Init establishes the mutex, unheld.
func (m *Mutex) Init(k *Kernel) {
	m.k = k
	m.b.init(k)
	m.owner = nil
	m.recursion = 0
	m.initialized = true
}

// Destroy verifies no thread is still blocked on the mutex.
func (m *Mutex) Destroy() {
	m.k.enter()
	if m.b.hasWaiters() {
		m.k.Panic(PanicActiveMutexDescoped)
	}
	m.initialized = false
	m.k.exit()
}

// Owner returns the thread currently holding the mutex, or nil.
func (m *Mutex) Owner() *Thread {
	m.k.enter()
	owner := m.owner
	m.k.exit()
	return owner
}

// Claim acquires the mutex, blocking until it is available. Reclaiming
// a mutex already held by the caller only deepens the recursion count.
func (m *Mutex) Claim() {
	m.claim(0)
}

// TimedClaim is Claim with a deadline; false means the timeout fired
// before ownership arrived.
func (m *Mutex) TimedClaim(timeout time.Duration) bool {
	return m.claim(timeout)
}

func (m *Mutex) claim(timeout time.Duration) bool {
	k := m.k
	k.assert(m.initialized)

	k.enter()
	cur := k.sched.current

	if m.owner == nil {
		m.owner = cur
		m.recursion = 1
		m.ownerPriority = cur.curPriority
		k.exit()
		return true
	}
	if m.owner == cur {
		m.recursion++
		k.exit()
		return true
	}

	// Contended: push our base priority onto the owner before parking.
	// The boost source is the waiter's base, never a priority it has
	// itself borrowed, so inheritance stays one level deep and the
	// owner ends up at max(base, highest waiter base).
	if cur.basePriority > m.owner.curPriority {
		m.owner.inheritPriorityLocked(cur.basePriority)
	}

	if timeout > 0 {
		cur.expired = false
		cur.timer.initLocked(k)
		cur.timer.startLocked(false, k.durationToTicks(timeout), 0, mutexTimeout, m, cur)
	}

	m.b.blockPriorityLocked(cur)
	k.yieldLocked()
	k.exit()

	// Resumes here owning the mutex (ownership is handed over by
	// Release) or with the expired flag set.
	if timeout > 0 {
		k.enter()
		k.timers.removeLocked(&cur.timer)
		expired := cur.expired
		k.exit()
		return !expired
	}
	return true
}

// Release surrenders one level of ownership. The final release restores
// the caller's inherited priority and hands the mutex to the
// highest-priority waiter, if any.
func (m *Mutex) Release() {
	k := m.k
	k.assert(m.initialized)

	k.enter()
	if m.releaseLocked() {
		k.yieldLocked()
	}
	k.exit()
}

func (m *Mutex) releaseLocked() (yield bool) {
	k := m.k
	cur := k.sched.current
	k.assert(m.owner == cur)

	m.recursion--
	if m.recursion > 0 {
		return false
	}

	// Undo any inheritance before the handover so the scheduler sees
	// the releasing thread at its own rank again.
	restore := m.ownerPriority
	if cur.curPriority != restore {
		cur.inheritPriorityLocked(restore)
		yield = true
	}

	if w := m.b.waiters.HighestWaiter(); w != nil {
		if m.b.unBlockLocked(w) {
			yield = true
		}
		m.owner = w
		m.recursion = 1
		m.ownerPriority = w.curPriority
		// Remaining waiters keep inheritance alive on the new owner,
		// again from their base priorities.
		if rem := m.b.waiters.HighestWaiter(); rem != nil && rem.basePriority > w.curPriority {
			w.inheritPriorityLocked(rem.basePriority)
		}
	} else {
		m.owner = nil
	}
	return yield
}

// mutexTimeout runs in interrupt context when a timed claim's deadline
// fires before ownership arrived.
func mutexTimeout(owner *Thread, data any) {
	m := data.(*Mutex)
	if !m.b.blockedOn(owner) {
		return
	}
	owner.expired = true
	yield := m.b.unBlockLocked(owner)
	// The waiter set shrank: recompute the holder's boost from its
	// claim-time priority and the remaining waiters' bases.
	if h := m.owner; h != nil {
		p := m.ownerPriority
		if rem := m.b.waiters.HighestWaiter(); rem != nil && rem.basePriority > p {
			p = rem.basePriority
		}
		if h.curPriority != p {
			h.inheritPriorityLocked(p)
			yield = true
		}
	}
	if yield {
		m.k.yieldLocked()
	}
}
