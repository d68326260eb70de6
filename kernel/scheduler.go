package kernel

// scheduler holds the ready lists, the stopped list, the priority map,
// and the current/next register cells. All access happens inside the
// critical section.
type scheduler struct {
	ready   [NumPriorities]ThreadList
	stop    ThreadList
	prioMap PriorityMap

	enabled bool
	queued  bool

	current *Thread
	next    *Thread
}

func (s *scheduler) init(k *Kernel) {
	for i := range s.ready {
		s.ready[i].init(k)
		s.ready[i].setPriority(uint8(i))
		s.ready[i].setMap(&s.prioMap)
	}
	s.stop.init(k)
}

// scheduleLocked picks the head of the highest nonempty ready list as
// next. An empty map is fatal: the application failed to provide an
// idle thread.
func (k *Kernel) scheduleLocked() {
	p, ok := k.sched.prioMap.Highest(k.clz)
	if !ok {
		k.Panic(PanicNoReadyThreads)
	}
	k.sched.next = k.sched.ready[p].Head()
}

// readyAddLocked enrolls t in the ready list for its current (possibly
// inherited) priority.
func (k *Kernel) readyAddLocked(t *Thread) {
	rl := &k.sched.ready[t.curPriority]
	rl.Add(t)
	t.current = rl
}

// readyRemoveLocked withdraws t from its ready list.
func (k *Kernel) readyRemoveLocked(t *Thread) {
	k.sched.ready[t.curPriority].Remove(t)
	t.current = nil
}

// SetSchedulerEnabled atomically swaps the scheduler-enabled flag and
// returns the previous value. Re-enabling drains a schedule request that
// was queued while the scheduler was off.
func (k *Kernel) SetSchedulerEnabled(enable bool) bool {
	k.enter()
	prev := k.sched.enabled
	k.sched.enabled = enable
	if enable && k.sched.queued {
		k.sched.queued = false
		k.yieldLocked()
	}
	k.exit()
	return prev
}

// SchedulerEnabled reports whether the scheduler is currently enabled.
func (k *Kernel) SchedulerEnabled() bool {
	k.enter()
	enabled := k.sched.enabled
	k.exit()
	return enabled
}
