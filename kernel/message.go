package kernel

import "time"

// Message is a code-plus-payload envelope passed between threads by
// pointer. Ownership travels with the pointer: once sent, the sender
// must not touch the message until it comes back through a pool.
type Message struct {
	link Links[Message]

	code uint16
	data any
}

func messageLinks(m *Message) *Links[Message] { return &m.link }

// SetCode stores the 16-bit message code.
func (m *Message) SetCode(code uint16) { m.code = code }

// Code returns the 16-bit message code.
func (m *Message) Code() uint16 { return m.code }

// SetData stores the opaque payload reference.
func (m *Message) SetData(data any) { m.data = data }

// Data returns the opaque payload reference.
func (m *Message) Data() any { return m.data }

// MessageQueue is an unbounded queue of messages paced by a counting
// semaphore: receivers block until something is enqueued.
type MessageQueue struct {
	k    *Kernel
	sem  Semaphore
	list DoubleList[Message]

	initialized bool
}

// Init establishes an empty queue.
func (q *MessageQueue) Init(k *Kernel) {
	q.k = k
	q.sem.Init(k, 0, 0xFFFF)
	InitDoubleList(&q.list, messageLinks, func() {
		k.Panic(PanicListUnlinkFailed)
	})
	q.initialized = true
}

// Count returns the number of queued messages.
func (q *MessageQueue) Count() int {
	q.k.enter()
	n := 0
	for m := q.list.Head(); m != nil; m = q.list.Next(m) {
		n++
	}
	q.k.exit()
	return n
}

// Send enqueues msg and wakes one receiver. The queue takes ownership
// of the node.
func (q *MessageQueue) Send(msg *Message) {
	k := q.k
	k.assert(q.initialized)
	k.assert(msg != nil)

	k.enter()
	q.list.Add(msg)
	k.exit()

	q.sem.Post()
}

// Receive dequeues the oldest message, blocking until one arrives.
func (q *MessageQueue) Receive() *Message {
	k := q.k
	k.assert(q.initialized)

	q.sem.Pend()

	k.enter()
	msg := q.list.Head()
	q.list.Remove(msg)
	k.exit()
	return msg
}

// TimedReceive is Receive with a deadline; nil means nothing arrived in
// time.
func (q *MessageQueue) TimedReceive(timeout time.Duration) *Message {
	k := q.k
	k.assert(q.initialized)

	if !q.sem.TimedPend(timeout) {
		return nil
	}

	k.enter()
	msg := q.list.Head()
	q.list.Remove(msg)
	k.exit()
	return msg
}

// MessagePool is a free list of messages, filled by the application at
// init time and recycled by receivers when they finish with a message.
type MessagePool struct {
	k    *Kernel
	list DoubleList[Message]

	initialized bool
}

// Init establishes an empty pool.
func (p *MessagePool) Init(k *Kernel) {
	p.k = k
	InitDoubleList(&p.list, messageLinks, func() {
		k.Panic(PanicListUnlinkFailed)
	})
	p.initialized = true
}

// Push returns msg to the pool.
func (p *MessagePool) Push(msg *Message) {
	k := p.k
	k.assert(p.initialized)
	k.assert(msg != nil)

	k.enter()
	msg.link.clear()
	p.list.Add(msg)
	k.exit()
}

// Pop takes a message from the pool, or returns nil when it is empty.
func (p *MessagePool) Pop() *Message {
	k := p.k
	k.assert(p.initialized)

	k.enter()
	msg := p.list.Head()
	if msg != nil {
		p.list.Remove(msg)
	}
	k.exit()
	return msg
}
