package kernel

// quantum implements round-robin time slicing. When more than one
// thread shares the highest populated priority, a one-shot timer is
// armed for the running thread's slice; on expiry the ready list at
// that priority pivots one position and a yield is raised.
type quantum struct {
	timer  Timer
	active bool
}

func (q *quantum) init(k *Kernel) {
	q.timer.initLocked(k)
}

// quantumUpdateLocked re-arms the slice for the thread about to run, or
// cancels it when the thread has that priority to itself.
func (k *Kernel) quantumUpdateLocked(t *Thread) {
	if !k.started || t == nil {
		return
	}
	k.quantumCancelLocked()

	rl := &k.sched.ready[t.curPriority]
	if rl.Head() == nil || rl.Head() == rl.Tail() {
		return
	}
	k.rr.timer.startLocked(false, uint32(t.quantum), 0, quantumExpired, k, t)
	k.rr.active = true
}

// quantumCancelLocked disarms an outstanding slice, typically because a
// higher priority preempted or the running thread left the scheduler.
func (k *Kernel) quantumCancelLocked() {
	if k.rr.active {
		k.timers.removeLocked(&k.rr.timer)
		k.rr.active = false
	}
}

// quantumExpired runs in interrupt context when the slice is used up.
func quantumExpired(owner *Thread, data any) {
	k := data.(*Kernel)
	k.rr.active = false
	if cur := k.sched.current; cur != nil {
		k.sched.ready[cur.curPriority].PivotForward()
	}
	k.yieldLocked()
}
