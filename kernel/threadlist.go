package kernel

// ThreadList is a circular list of threads, used both for the
// scheduler's ready queues and for blocking-object waiter queues. A list
// tagged with a priority keeps its bit in the shared PriorityMap in sync
// with its occupancy.
type ThreadList struct {
	list     CircularList[Thread]
	priority uint8
	prioMap  *PriorityMap
}

func threadLinks(t *Thread) *Links[Thread] { return &t.link }

func (tl *ThreadList) init(k *Kernel) {
	InitCircularList(&tl.list, threadLinks, func() {
		k.Panic(PanicListUnlinkFailed)
	})
}

func (tl *ThreadList) setPriority(p uint8)   { tl.priority = p }
func (tl *ThreadList) setMap(m *PriorityMap) { tl.prioMap = m }

// Head returns the thread at the front of the list, or nil.
func (tl *ThreadList) Head() *Thread { return tl.list.Head() }

// Tail returns the thread at the back of the list, or nil.
func (tl *ThreadList) Tail() *Thread { return tl.list.Tail() }

// Add appends t in FIFO order and flags the priority map.
func (tl *ThreadList) Add(t *Thread) {
	tl.list.Add(t)
	if tl.prioMap != nil {
		tl.prioMap.Set(tl.priority)
	}
}

// AddPriority inserts t ahead of the first thread with a strictly lower
// base priority, so the list reads highest-to-lowest from the head.
// Ties go after: equal base priorities keep arrival order. Ordering is
// by base, not current, priority, so a waiter's borrowed boost from an
// unrelated mutex does not reorder the queue.
func (tl *ThreadList) AddPriority(t *Thread) {
	pos := tl.Head()
	if pos == nil {
		tl.Add(t)
		return
	}
	for pos.basePriority >= t.basePriority {
		pos = tl.list.Next(pos)
		if pos == tl.Head() {
			// Wrapped: everyone outranks t, append at the tail.
			tl.Add(t)
			return
		}
	}
	tl.list.InsertBefore(t, pos)
	if pos == tl.Head() {
		// Inserted ahead of the head: t is the new head.
		tl.list.head = t
	}
	if tl.prioMap != nil {
		tl.prioMap.Set(tl.priority)
	}
}

// Remove unlinks t and clears the priority-map bit when the list drains.
func (tl *ThreadList) Remove(t *Thread) {
	tl.list.Remove(t)
	if tl.prioMap != nil && tl.list.Head() == nil {
		tl.prioMap.Clear(tl.priority)
	}
}

// PivotForward rotates the list by one, moving the head to the tail.
// Used by the round-robin quantum.
func (tl *ThreadList) PivotForward() { tl.list.PivotForward() }

// HighestWaiter returns the thread with the highest base priority, or
// nil when the list is empty.
func (tl *ThreadList) HighestWaiter() *Thread {
	best := tl.Head()
	if best == nil {
		return nil
	}
	for t := tl.list.Next(best); t != tl.Head(); t = tl.list.Next(t) {
		if t.basePriority > best.basePriority {
			best = t
		}
	}
	return best
}
