package kernel

import "testing"

func TestMessageQueueRoundTrip(t *testing.T) {
	k := newTestKernel(t, Config{})

	var q MessageQueue
	q.Init(k)

	msgs := [3]Message{}
	for i := range msgs {
		msgs[i].SetCode(uint16(i + 1))
		msgs[i].SetData(i + 1)
		q.Send(&msgs[i])
	}
	if got := q.Count(); got != 3 {
		t.Fatalf("expected 3 queued, got %d", got)
	}

	for i := 1; i <= 3; i++ {
		msg := q.Receive()
		if msg.Code() != uint16(i) {
			t.Fatalf("expected code %d, got %d", i, msg.Code())
		}
		if msg.Data().(int) != i {
			t.Fatalf("expected data %d, got %v", i, msg.Data())
		}
	}
	if got := q.Count(); got != 0 {
		t.Fatalf("expected empty queue, got %d", got)
	}
}

func TestMessagePool(t *testing.T) {
	k := newTestKernel(t, Config{})

	var p MessagePool
	p.Init(k)

	msgs := [2]Message{}
	p.Push(&msgs[0])
	p.Push(&msgs[1])

	if got := p.Pop(); got != &msgs[0] {
		t.Fatal("expected first pushed message back first")
	}
	if got := p.Pop(); got != &msgs[1] {
		t.Fatal("expected second pushed message")
	}
	if got := p.Pop(); got != nil {
		t.Fatalf("expected empty pool to return nil, got %v", got)
	}
}
