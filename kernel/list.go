package kernel

// Links is the intrusive membership record embedded in every object that
// can live on a kernel list (threads, timers, messages). An object is on
// at most one list at a time.
type Links[T any] struct {
	next *T
	prev *T
}

func (l *Links[T]) clear() {
	l.next = nil
	l.prev = nil
}

// linksOf resolves the embedded Links record of a list element. Lists are
// handed the accessor once, at init, so elements never need to implement
// an interface just to be linkable.
type linksOf[T any] func(*T) *Links[T]

// DoubleList is a nil-terminated doubly-linked list of T. Both ends are
// reachable in O(1) and any element unlinks in O(1) given its pointer.
type DoubleList[T any] struct {
	head, tail *T
	links      linksOf[T]
	onCorrupt  func()
}

// InitDoubleList prepares the list for use. onCorrupt is invoked when an
// unlink finds neighbours that disagree on membership; it must not return.
func InitDoubleList[T any](l *DoubleList[T], links linksOf[T], onCorrupt func()) {
	l.head = nil
	l.tail = nil
	l.links = links
	l.onCorrupt = onCorrupt
}

func (l *DoubleList[T]) corrupt() {
	if l.onCorrupt != nil {
		l.onCorrupt()
	}
	panic("kernel: corrupt list unlink")
}

// Head returns the first element, or nil when empty.
func (l *DoubleList[T]) Head() *T { return l.head }

// Tail returns the last element, or nil when empty.
func (l *DoubleList[T]) Tail() *T { return l.tail }

// Next returns the element after n, or nil at the end of the list.
func (l *DoubleList[T]) Next(n *T) *T { return l.links(n).next }

// Add appends n at the tail.
func (l *DoubleList[T]) Add(n *T) {
	ln := l.links(n)
	ln.prev = l.tail
	ln.next = nil
	if l.head == nil {
		l.head = n
	} else {
		l.links(l.tail).next = n
	}
	l.tail = n
}

// Remove unlinks n from the list. The neighbours are cross-checked
// first; a mismatch means the node is stale or shared between lists.
func (l *DoubleList[T]) Remove(n *T) {
	ln := l.links(n)
	if ln.prev != nil {
		if l.links(ln.prev).next != n {
			l.corrupt()
		}
		l.links(ln.prev).next = ln.next
	}
	if ln.next != nil {
		if l.links(ln.next).prev != n {
			l.corrupt()
		}
		l.links(ln.next).prev = ln.prev
	}
	if l.head == n {
		l.head = ln.next
	}
	if l.tail == n {
		l.tail = ln.prev
	}
	ln.clear()
}

// CircularList is a circularly-linked list of T. Head and tail are
// adjacent; pivoting rotates the window by one element without touching
// any links, which is what round-robin scheduling relies on.
type CircularList[T any] struct {
	head, tail *T
	links      linksOf[T]
	onCorrupt  func()
}

// InitCircularList prepares the list for use.
func InitCircularList[T any](l *CircularList[T], links linksOf[T], onCorrupt func()) {
	l.head = nil
	l.tail = nil
	l.links = links
	l.onCorrupt = onCorrupt
}

func (l *CircularList[T]) corrupt() {
	if l.onCorrupt != nil {
		l.onCorrupt()
	}
	panic("kernel: corrupt list unlink")
}

// Head returns the current head, or nil when empty.
func (l *CircularList[T]) Head() *T { return l.head }

// Tail returns the current tail, or nil when empty.
func (l *CircularList[T]) Tail() *T { return l.tail }

// Next returns the element after n, wrapping at the tail.
func (l *CircularList[T]) Next(n *T) *T { return l.links(n).next }

// Add appends n at the tail of the ring.
func (l *CircularList[T]) Add(n *T) {
	ln := l.links(n)
	if l.head == nil {
		l.head = n
		l.tail = n
	} else {
		l.links(l.tail).next = n
	}
	ln.prev = l.tail
	ln.next = l.head
	l.tail = n
	l.links(l.head).prev = n
}

// InsertBefore links n immediately ahead of pos. The head pointer is not
// adjusted; callers that insert ahead of the head fix it up themselves.
func (l *CircularList[T]) InsertBefore(n *T, pos *T) {
	ln := l.links(n)
	lp := l.links(pos)
	ln.next = pos
	ln.prev = lp.prev
	if lp.prev != nil {
		l.links(lp.prev).next = n
	}
	lp.prev = n
}

// Remove unlinks n from the ring.
func (l *CircularList[T]) Remove(n *T) {
	ln := l.links(n)
	if n == l.head && l.head == l.tail {
		l.head = nil
		l.tail = nil
		ln.clear()
		return
	}
	if l.links(ln.prev).next != n || l.links(ln.next).prev != n {
		l.corrupt()
	}
	l.links(ln.next).prev = ln.prev
	l.links(ln.prev).next = ln.next
	if n == l.head {
		l.head = ln.next
	}
	if n == l.tail {
		l.tail = ln.prev
	}
	ln.clear()
}

// PivotForward rotates the ring one position forward: the old head
// becomes the tail.
func (l *CircularList[T]) PivotForward() {
	if l.head != nil {
		l.head = l.links(l.head).next
		l.tail = l.links(l.tail).next
	}
}

// PivotBackward rotates the ring one position backward.
func (l *CircularList[T]) PivotBackward() {
	if l.head != nil {
		l.head = l.links(l.head).prev
		l.tail = l.links(l.tail).prev
	}
}
