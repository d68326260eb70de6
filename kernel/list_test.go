package kernel

import "testing"

type testNode struct {
	link Links[testNode]
	id   int
}

func testLinks(n *testNode) *Links[testNode] { return &n.link }

func doubleIDs(l *DoubleList[testNode]) []int {
	var ids []int
	for n := l.Head(); n != nil; n = l.Next(n) {
		ids = append(ids, n.id)
	}
	return ids
}

func circularIDs(l *CircularList[testNode]) []int {
	var ids []int
	n := l.Head()
	if n == nil {
		return ids
	}
	for {
		ids = append(ids, n.id)
		if n == l.Tail() {
			return ids
		}
		n = l.Next(n)
	}
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDoubleListAddRemove(t *testing.T) {
	var l DoubleList[testNode]
	InitDoubleList(&l, testLinks, nil)

	nodes := [3]testNode{{id: 1}, {id: 2}, {id: 3}}
	for i := range nodes {
		l.Add(&nodes[i])
	}
	if got := doubleIDs(&l); !equalIDs(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	l.Remove(&nodes[1])
	if got := doubleIDs(&l); !equalIDs(got, []int{1, 3}) {
		t.Fatalf("expected [1 3], got %v", got)
	}

	l.Remove(&nodes[0])
	l.Remove(&nodes[2])
	if l.Head() != nil || l.Tail() != nil {
		t.Fatal("expected empty list")
	}
}

func TestDoubleListCorruptUnlink(t *testing.T) {
	var l DoubleList[testNode]
	called := false
	InitDoubleList(&l, testLinks, func() {
		called = true
		panic("corrupt")
	})

	nodes := [2]testNode{{id: 1}, {id: 2}}
	l.Add(&nodes[0])
	l.Add(&nodes[1])

	// Sabotage the neighbour links.
	nodes[0].link.next = &nodes[0]

	defer func() {
		recover()
		if !called {
			t.Fatal("expected corruption hook to fire")
		}
	}()
	l.Remove(&nodes[1])
	t.Fatal("expected panic")
}

func TestCircularListAddRemove(t *testing.T) {
	var l CircularList[testNode]
	InitCircularList(&l, testLinks, nil)

	nodes := [3]testNode{{id: 1}, {id: 2}, {id: 3}}
	for i := range nodes {
		l.Add(&nodes[i])
	}
	if got := circularIDs(&l); !equalIDs(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	// The ring wraps: tail links back to head.
	if l.Next(l.Tail()) != l.Head() {
		t.Fatal("expected tail to wrap to head")
	}

	l.Remove(&nodes[0])
	if got := circularIDs(&l); !equalIDs(got, []int{2, 3}) {
		t.Fatalf("expected [2 3], got %v", got)
	}

	l.Remove(&nodes[1])
	l.Remove(&nodes[2])
	if l.Head() != nil {
		t.Fatal("expected empty ring")
	}
}

func TestCircularListPivot(t *testing.T) {
	var l CircularList[testNode]
	InitCircularList(&l, testLinks, nil)

	nodes := [3]testNode{{id: 1}, {id: 2}, {id: 3}}
	for i := range nodes {
		l.Add(&nodes[i])
	}

	l.PivotForward()
	if got := circularIDs(&l); !equalIDs(got, []int{2, 3, 1}) {
		t.Fatalf("expected [2 3 1], got %v", got)
	}

	l.PivotBackward()
	if got := circularIDs(&l); !equalIDs(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	l.PivotBackward()
	if got := circularIDs(&l); !equalIDs(got, []int{3, 1, 2}) {
		t.Fatalf("expected [3 1 2], got %v", got)
	}
}
