package kernel

import "time"

// Mailbox is a fixed-size envelope exchange over a user-supplied byte
// buffer. Envelopes are copied in and out whole. The buffer behaves as
// a deque: send and receive can each work the head or tail end, so the
// same object serves FIFO and LIFO patterns.
//
// Blocking is built from two internal semaphores: a counting semaphore
// sized to the capacity paces receivers, and a binary semaphore wakes
// senders stalled on a full box.
type Mailbox struct {
	k *Kernel

	buffer      []byte
	elementSize int

	capacity int
	free     int
	head     int
	tail     int

	recvSem Semaphore
	sendSem Semaphore

	initialized bool
}

// Init establishes the mailbox over buffer, carved into
// len(buffer)/elementSize envelope slots.
func (mb *Mailbox) Init(k *Kernel, buffer []byte, elementSize int) {
	k.assert(len(buffer) > 0)
	k.assert(elementSize > 0)
	k.assert(len(buffer) >= elementSize)

	mb.k = k
	mb.buffer = buffer
	mb.elementSize = elementSize
	mb.capacity = len(buffer) / elementSize
	mb.free = mb.capacity
	mb.head = 0
	mb.tail = 0

	mb.recvSem.Init(k, 0, uint16(mb.capacity))
	mb.sendSem.Init(k, 0, 1)
	mb.initialized = true
}

// Destroy verifies the mailbox is empty.
func (mb *Mailbox) Destroy() {
	mb.k.enter()
	if mb.free != mb.capacity {
		mb.k.Panic(PanicActiveMailboxDescoped)
	}
	mb.initialized = false
	mb.k.exit()
}

// Capacity returns the number of envelope slots.
func (mb *Mailbox) Capacity() int { return mb.capacity }

// Free returns the number of unoccupied slots.
func (mb *Mailbox) Free() int {
	mb.k.enter()
	free := mb.free
	mb.k.exit()
	return free
}

// Send copies an envelope in at the head, failing immediately when the
// mailbox is full.
func (mb *Mailbox) Send(data []byte) bool {
	return mb.send(data, false, 0)
}

// SendTail copies an envelope in at the tail.
func (mb *Mailbox) SendTail(data []byte) bool {
	return mb.send(data, true, 0)
}

// TimedSend is Send with a deadline: a sender finding the mailbox full
// blocks until a slot frees or the timeout fires.
func (mb *Mailbox) TimedSend(data []byte, timeout time.Duration) bool {
	return mb.send(data, false, timeout)
}

// TimedSendTail is SendTail with a deadline.
func (mb *Mailbox) TimedSendTail(data []byte, timeout time.Duration) bool {
	return mb.send(data, true, timeout)
}

// Receive copies the head envelope out, blocking until one arrives.
func (mb *Mailbox) Receive(data []byte) {
	mb.receive(data, false, 0)
}

// ReceiveTail copies the tail envelope out, blocking until one arrives.
func (mb *Mailbox) ReceiveTail(data []byte) {
	mb.receive(data, true, 0)
}

// TimedReceive is Receive with a deadline; false means nothing arrived
// in time.
func (mb *Mailbox) TimedReceive(data []byte, timeout time.Duration) bool {
	return mb.receive(data, false, timeout)
}

// TimedReceiveTail is ReceiveTail with a deadline.
func (mb *Mailbox) TimedReceiveTail(data []byte, timeout time.Duration) bool {
	return mb.receive(data, true, timeout)
}

func (mb *Mailbox) slot(index int) []byte {
	off := index * mb.elementSize
	return mb.buffer[off : off+mb.elementSize]
}

func (mb *Mailbox) moveHeadForward() {
	mb.head++
	if mb.head == mb.capacity {
		mb.head = 0
	}
}

func (mb *Mailbox) moveHeadBackward() {
	if mb.head == 0 {
		mb.head = mb.capacity
	}
	mb.head--
}

func (mb *Mailbox) moveTailForward() {
	mb.tail++
	if mb.tail == mb.capacity {
		mb.tail = 0
	}
}

func (mb *Mailbox) moveTailBackward() {
	if mb.tail == 0 {
		mb.tail = mb.capacity
	}
	mb.tail--
}

func (mb *Mailbox) send(data []byte, toTail bool, timeout time.Duration) bool {
	k := mb.k
	k.assert(mb.initialized)
	k.assert(len(data) >= mb.elementSize)

	var dst []byte
	sent := false
	done := false
	block := false

	// The scheduler stays off across the claim-and-copy so no other
	// sender can interleave with the slot bookkeeping; interrupts stay
	// on except around the index updates themselves.
	schedState := k.SetSchedulerEnabled(false)

	for !done {
		if block {
			done = true
			k.SetSchedulerEnabled(schedState)
			mb.sendSem.TimedPend(timeout)
			k.SetSchedulerEnabled(false)
		}

		k.enter()
		if mb.free > 0 {
			mb.free--
			if toTail {
				dst = mb.slot(mb.tail)
				mb.moveTailBackward()
			} else {
				mb.moveHeadForward()
				dst = mb.slot(mb.head)
			}
			sent = true
			done = true
		} else if timeout > 0 {
			block = true
		} else {
			done = true
		}
		k.exit()
	}

	if sent {
		copy(dst, data[:mb.elementSize])
	}

	k.SetSchedulerEnabled(schedState)

	if sent {
		mb.recvSem.Post()
	}
	return sent
}

func (mb *Mailbox) receive(data []byte, fromTail bool, timeout time.Duration) bool {
	k := mb.k
	k.assert(mb.initialized)
	k.assert(len(data) >= mb.elementSize)

	if timeout > 0 {
		if !mb.recvSem.TimedPend(timeout) {
			return false
		}
	} else {
		mb.recvSem.Pend()
	}

	var src []byte
	schedState := k.SetSchedulerEnabled(false)

	k.enter()
	mb.free++
	if fromTail {
		mb.moveTailForward()
		src = mb.slot(mb.tail)
	} else {
		src = mb.slot(mb.head)
		mb.moveHeadBackward()
	}
	k.exit()

	copy(data[:mb.elementSize], src)

	k.SetSchedulerEnabled(schedState)

	// Hand a freed slot to any sender stalled on a full box.
	mb.sendSem.Post()
	return true
}
