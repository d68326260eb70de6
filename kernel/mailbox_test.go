package kernel

import (
	"bytes"
	"testing"
)

func env(s string, size int) []byte {
	b := make([]byte, size)
	copy(b, s)
	return b
}

func TestMailboxFillAndDrainFIFO(t *testing.T) {
	k := newTestKernel(t, Config{})

	const size = 16
	var mb Mailbox
	mb.Init(k, make([]byte, 4*size), size)

	if mb.Capacity() != 4 {
		t.Fatalf("expected capacity 4, got %d", mb.Capacity())
	}

	for _, s := range []string{"one", "two", "three", "four"} {
		if !mb.Send(env(s, size)) {
			t.Fatalf("expected send %q to succeed", s)
		}
	}
	if mb.Free() != 0 {
		t.Fatalf("expected no free slots, got %d", mb.Free())
	}

	// Fifth send without a timeout fails immediately.
	if mb.Send(env("five", size)) {
		t.Fatal("expected send on a full mailbox to fail")
	}

	// Head-sent envelopes drain FIFO from the tail end.
	out := make([]byte, size)
	for _, want := range []string{"one", "two", "three", "four"} {
		mb.ReceiveTail(out)
		if !bytes.Equal(out, env(want, size)) {
			t.Fatalf("expected %q, got %q", want, out)
		}
	}
	if mb.Free() != 4 {
		t.Fatalf("expected all slots free, got %d", mb.Free())
	}
}

func TestMailboxHeadReceiveIsLIFO(t *testing.T) {
	k := newTestKernel(t, Config{})

	const size = 8
	var mb Mailbox
	mb.Init(k, make([]byte, 3*size), size)

	for _, s := range []string{"a", "b", "c"} {
		if !mb.Send(env(s, size)) {
			t.Fatalf("expected send %q to succeed", s)
		}
	}

	out := make([]byte, size)
	for _, want := range []string{"c", "b", "a"} {
		mb.Receive(out)
		if !bytes.Equal(out, env(want, size)) {
			t.Fatalf("expected %q, got %q", want, out)
		}
	}
}

func TestMailboxSendTail(t *testing.T) {
	k := newTestKernel(t, Config{})

	const size = 8
	var mb Mailbox
	mb.Init(k, make([]byte, 3*size), size)

	mb.Send(env("mid", size))
	mb.SendTail(env("urgent", size))

	out := make([]byte, size)
	mb.ReceiveTail(out)
	if !bytes.Equal(out, env("urgent", size)) {
		t.Fatalf("expected tail-sent envelope first, got %q", out)
	}
}

func TestMailboxDestroyNonEmptyPanics(t *testing.T) {
	k := newTestKernel(t, Config{})

	const size = 8
	var mb Mailbox
	mb.Init(k, make([]byte, 2*size), size)
	mb.Send(env("left over", size))

	expectPanic(t, k, PanicActiveMailboxDescoped, func() {
		mb.Destroy()
	})
}
