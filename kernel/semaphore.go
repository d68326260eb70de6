package kernel

import "time"

// Semaphore is a counting (or, with max 1, binary) semaphore. Post is
// legal from interrupt context through PostFromISR; Pend is not.
type Semaphore struct {
	k *Kernel
	b blocker

	count    uint16
	maxCount uint16

	initialized bool
}

// Init establishes the semaphore with an initial count and a ceiling.
func (s *Semaphore) Init(k *Kernel, initial, max uint16) {
	k.assert(max > 0)
	k.assert(initial <= max)
	s.k = k
	s.b.init(k)
	s.count = initial
	s.maxCount = max
	s.initialized = true
}

// Destroy verifies no thread is still blocked on the semaphore.
func (s *Semaphore) Destroy() {
	s.k.enter()
	if s.b.hasWaiters() {
		s.k.Panic(PanicActiveSemaphoreDescoped)
	}
	s.initialized = false
	s.k.exit()
}

// Count returns the current count.
func (s *Semaphore) Count() uint16 {
	s.k.enter()
	count := s.count
	s.k.exit()
	return count
}

// Post releases the semaphore: the highest-priority waiter is woken, or
// the count is incremented. Posting past the maximum follows the
// kernel's configured policy; with PostPolicyError the return value is
// false on overflow, otherwise it is always true.
func (s *Semaphore) Post() bool {
	k := s.k
	k.assert(s.initialized)
	k.enter()
	ok, yield := s.postLocked()
	if yield {
		k.yieldLocked()
	}
	k.exit()
	return ok
}

// PostFromISR is Post for interrupt context: the critical section is
// already held and any required context switch is pended for the
// interrupt's exit.
func (s *Semaphore) PostFromISR() bool {
	s.k.assert(s.initialized)
	return s.postFromISRLocked()
}

func (s *Semaphore) postFromISRLocked() bool {
	ok, yield := s.postLocked()
	if yield {
		s.k.yieldLocked()
	}
	return ok
}

func (s *Semaphore) postLocked() (ok, yield bool) {
	if w := s.b.waiters.HighestWaiter(); w != nil {
		return true, s.b.unBlockLocked(w)
	}
	if s.count == s.maxCount {
		switch s.k.cfg.SemaphorePostPolicy {
		case PostPolicyPanic:
			s.k.Panic(PanicSemaphoreOverflow)
		case PostPolicyError:
			return false, false
		}
		// Clamp: drop the excess post.
		return true, false
	}
	s.count++
	return true, false
}

// Pend acquires the semaphore, blocking the current thread until a post
// arrives.
func (s *Semaphore) Pend() {
	s.pend(0)
}

// TimedPend is Pend with a deadline. It returns false when the timeout
// fired before a post arrived.
func (s *Semaphore) TimedPend(timeout time.Duration) bool {
	return s.pend(timeout)
}

func (s *Semaphore) pend(timeout time.Duration) bool {
	k := s.k
	k.assert(s.initialized)

	k.enter()
	if s.count > 0 {
		s.count--
		k.exit()
		return true
	}

	cur := k.sched.current
	if timeout > 0 {
		cur.expired = false
		cur.timer.initLocked(k)
		cur.timer.startLocked(false, k.durationToTicks(timeout), 0, semTimeout, s, cur)
	}

	s.b.blockLocked(cur)
	k.yieldLocked()
	k.exit()

	// Resumes here once posted or timed out.
	if timeout > 0 {
		k.enter()
		k.timers.removeLocked(&cur.timer)
		expired := cur.expired
		k.exit()
		return !expired
	}
	return true
}

// semTimeout runs in interrupt context when a timed pend's deadline
// fires. The first waker wins: a thread already released by Post is
// left alone.
func semTimeout(owner *Thread, data any) {
	s := data.(*Semaphore)
	if !s.b.blockedOn(owner) {
		return
	}
	owner.expired = true
	if s.b.unBlockLocked(owner) {
		s.k.yieldLocked()
	}
}
