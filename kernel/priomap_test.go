package kernel

import (
	"math/bits"
	"testing"
)

func TestClz16MatchesIntrinsic(t *testing.T) {
	for v := 0; v <= 0xFFFF; v++ {
		if got, want := clz16(uint16(v)), bits.LeadingZeros16(uint16(v)); got != want {
			t.Fatalf("clz16(%#04x): expected %d, got %d", v, want, got)
		}
	}
}

func TestPriorityMapHighest(t *testing.T) {
	var m PriorityMap

	if _, ok := m.Highest(clz16); ok {
		t.Fatal("expected empty map to report no priority")
	}
	if !m.Zero() {
		t.Fatal("expected Zero on fresh map")
	}

	m.Set(0)
	m.Set(7)
	m.Set(3)
	if p, ok := m.Highest(clz16); !ok || p != 7 {
		t.Fatalf("expected highest 7, got %d (ok=%v)", p, ok)
	}

	m.Clear(7)
	if p, ok := m.Highest(clz16); !ok || p != 3 {
		t.Fatalf("expected highest 3, got %d (ok=%v)", p, ok)
	}

	m.Clear(3)
	m.Clear(0)
	if !m.Zero() {
		t.Fatal("expected empty map after clearing all bits")
	}
}

func TestThreadListBitmapHook(t *testing.T) {
	k := newTestKernel(t, Config{})

	var m PriorityMap
	var tl ThreadList
	tl.init(k)
	tl.setPriority(5)
	tl.setMap(&m)

	a := &Thread{basePriority: 5, curPriority: 5}
	b := &Thread{basePriority: 5, curPriority: 5}

	tl.Add(a)
	if p, ok := m.Highest(clz16); !ok || p != 5 {
		t.Fatalf("expected bit 5 set, got %d (ok=%v)", p, ok)
	}

	tl.Add(b)
	tl.Remove(a)
	if _, ok := m.Highest(clz16); !ok {
		t.Fatal("expected bit to stay set while the list is nonempty")
	}

	tl.Remove(b)
	if !m.Zero() {
		t.Fatal("expected bit cleared when the list drained")
	}
}

func TestThreadListAddPriorityOrder(t *testing.T) {
	k := newTestKernel(t, Config{})

	var tl ThreadList
	tl.init(k)

	lo := &Thread{basePriority: 1, curPriority: 1, name: "lo"}
	mid := &Thread{basePriority: 2, curPriority: 2, name: "mid"}
	mid2 := &Thread{basePriority: 2, curPriority: 2, name: "mid2"}
	hi := &Thread{basePriority: 3, curPriority: 3, name: "hi"}

	// A borrowed boost must not reorder the queue: insertion goes by
	// base priority.
	boosted := &Thread{basePriority: 1, curPriority: 4, name: "boosted"}

	tl.AddPriority(mid)
	tl.AddPriority(lo)
	tl.AddPriority(hi)
	tl.AddPriority(mid2)
	tl.AddPriority(boosted)

	// Highest base first; equal base priorities keep arrival order.
	want := []*Thread{hi, mid, mid2, lo, boosted}
	got := tl.Head()
	for i, w := range want {
		if got != w {
			t.Fatalf("position %d: expected %s, got %s", i, w.name, got.name)
		}
		got = tl.list.Next(got)
	}

	if hw := tl.HighestWaiter(); hw != hi {
		t.Fatalf("expected highest waiter hi, got %s", hw.name)
	}
}
