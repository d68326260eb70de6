package kernel

import "testing"

func TestSemaphorePostPendRoundTrip(t *testing.T) {
	k := newTestKernel(t, Config{})

	var sem Semaphore
	sem.Init(k, 0, 1)

	if !sem.Post() {
		t.Fatal("expected Post to succeed")
	}
	if got := sem.Count(); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}

	// Pend immediately after Post returns without blocking and leaves
	// the count at zero.
	sem.Pend()
	if got := sem.Count(); got != 0 {
		t.Fatalf("expected count 0, got %d", got)
	}
}

func TestSemaphorePostClampsAtMax(t *testing.T) {
	k := newTestKernel(t, Config{})

	var sem Semaphore
	sem.Init(k, 0, 2)

	for i := 0; i < 5; i++ {
		if !sem.Post() {
			t.Fatal("expected clamped Post to report success")
		}
	}
	if got := sem.Count(); got != 2 {
		t.Fatalf("expected count clamped to 2, got %d", got)
	}
}

func TestSemaphorePostPolicyError(t *testing.T) {
	k := newTestKernel(t, Config{SemaphorePostPolicy: PostPolicyError})

	var sem Semaphore
	sem.Init(k, 1, 1)

	if sem.Post() {
		t.Fatal("expected overflow Post to fail under PostPolicyError")
	}
	if got := sem.Count(); got != 1 {
		t.Fatalf("expected count unchanged, got %d", got)
	}
}

func TestSemaphorePostPolicyPanic(t *testing.T) {
	k := newTestKernel(t, Config{SemaphorePostPolicy: PostPolicyPanic})

	var sem Semaphore
	sem.Init(k, 1, 1)

	expectPanic(t, k, PanicSemaphoreOverflow, func() {
		sem.Post()
	})
}

func TestSemaphoreInitialCount(t *testing.T) {
	k := newTestKernel(t, Config{})

	var sem Semaphore
	sem.Init(k, 3, 4)
	if got := sem.Count(); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}

	sem.Pend()
	sem.Pend()
	if got := sem.Count(); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
}
