package kernel

// ReadWriteLock allows any number of concurrent readers or one writer.
// Fairness: once a writer is waiting, new readers queue behind it, so
// writers cannot be starved by a steady reader stream; a releasing
// writer prefers waking the whole reader backlog over the next writer.
type ReadWriteLock struct {
	k *Kernel

	readers blocker
	writers blocker

	readerCount int
	writerHeld  bool

	initialized bool
}

// Init establishes the lock, unheld.
func (rw *ReadWriteLock) Init(k *Kernel) {
	rw.k = k
	rw.readers.init(k)
	rw.writers.init(k)
	rw.readerCount = 0
	rw.writerHeld = false
	rw.initialized = true
}

// Destroy verifies no thread is still blocked on the lock.
func (rw *ReadWriteLock) Destroy() {
	rw.k.enter()
	if rw.readers.hasWaiters() || rw.writers.hasWaiters() {
		rw.k.Panic(PanicActiveNotifyDescoped)
	}
	rw.initialized = false
	rw.k.exit()
}

// AcquireReader takes the lock for shared reading, blocking while a
// writer holds it or is waiting for it.
func (rw *ReadWriteLock) AcquireReader() {
	k := rw.k
	k.assert(rw.initialized)

	k.enter()
	// Queue behind a waiting writer on the first attempt only; once a
	// writer release hands the lock to the reader backlog, a still-
	// queued writer must not push the woken readers back again.
	if rw.writerHeld || rw.writers.hasWaiters() {
		for {
			rw.readers.blockPriorityLocked(k.sched.current)
			k.yieldLocked()
			k.exit()
			// Woken by a writer release; recheck under the lock.
			k.enter()
			if !rw.writerHeld {
				break
			}
		}
	}
	rw.readerCount++
	k.exit()
}

// ReleaseReader drops a shared hold; the last reader out wakes one
// waiting writer.
func (rw *ReadWriteLock) ReleaseReader() {
	k := rw.k
	k.assert(rw.initialized)

	k.enter()
	k.assert(rw.readerCount > 0)
	rw.readerCount--
	if rw.readerCount == 0 {
		if w := rw.writers.waiters.HighestWaiter(); w != nil {
			if rw.writers.unBlockLocked(w) {
				k.yieldLocked()
			}
		}
	}
	k.exit()
}

// AcquireWriter takes the lock exclusively, blocking while any reader
// or another writer holds it.
func (rw *ReadWriteLock) AcquireWriter() {
	k := rw.k
	k.assert(rw.initialized)

	k.enter()
	for rw.readerCount > 0 || rw.writerHeld {
		rw.writers.blockPriorityLocked(k.sched.current)
		k.yieldLocked()
		k.exit()
		k.enter()
	}
	rw.writerHeld = true
	k.exit()
}

// ReleaseWriter drops the exclusive hold, waking the reader backlog if
// one formed, otherwise the next writer.
func (rw *ReadWriteLock) ReleaseWriter() {
	k := rw.k
	k.assert(rw.initialized)

	k.enter()
	k.assert(rw.writerHeld)
	rw.writerHeld = false

	yield := false
	if rw.readers.hasWaiters() {
		for t := rw.readers.waiters.Head(); t != nil; t = rw.readers.waiters.Head() {
			if rw.readers.unBlockLocked(t) {
				yield = true
			}
		}
	} else if w := rw.writers.waiters.HighestWaiter(); w != nil {
		if rw.writers.unBlockLocked(w) {
			yield = true
		}
	}
	if yield {
		k.yieldLocked()
	}
	k.exit()
}
