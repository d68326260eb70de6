package kernel

// blocker is the blocking-object core embedded by every synchronization
// primitive: a waiter list plus the transitions between it and the
// scheduler's ready lists. All methods assume the critical section is
// held.
type blocker struct {
	k       *Kernel
	waiters ThreadList
}

func (b *blocker) init(k *Kernel) {
	b.k = k
	b.waiters.init(k)
}

// blockLocked moves t from whatever list it is on to this object's
// waiter list, FIFO order.
func (b *blocker) blockLocked(t *Thread) {
	t.current.Remove(t)
	b.waiters.Add(t)
	t.current = &b.waiters
	t.state = StateBlocked
}

// blockPriorityLocked is blockLocked with priority-ordered insertion,
// so the head of the waiter list is always the highest-ranked waiter.
func (b *blocker) blockPriorityLocked(t *Thread) {
	t.current.Remove(t)
	b.waiters.AddPriority(t)
	t.current = &b.waiters
	t.state = StateBlocked
}

// unBlockLocked returns t to the ready list for its current priority
// and reports whether the waker should yield: true when t outranks or
// ties the running thread.
func (b *blocker) unBlockLocked(t *Thread) bool {
	b.waiters.Remove(t)
	b.k.readyAddLocked(t)
	t.state = StateReady
	cur := b.k.sched.current
	return cur == nil || t.curPriority >= cur.curPriority
}

// blockedOn reports whether t is currently parked on this object. Used
// by timeout callbacks to detect that the real wakeup won the race.
func (b *blocker) blockedOn(t *Thread) bool {
	return t.state == StateBlocked && t.current == &b.waiters
}

// hasWaiters reports whether any thread is parked on this object.
func (b *blocker) hasWaiters() bool { return b.waiters.Head() != nil }
