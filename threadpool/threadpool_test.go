package threadpool

import (
	"sync/atomic"
	"testing"
)

func TestParallelForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 1000
	var seen [n]atomic.Int32
	p := New(8)
	p.ParallelFor(n, func(i int) {
		seen[i].Add(1)
	})
	for i := range seen {
		if seen[i].Load() != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, seen[i].Load())
		}
	}
}

func TestParallelForZeroN(t *testing.T) {
	p := New(4)
	called := false
	p.ParallelFor(0, func(i int) { called = true })
	if called {
		t.Fatal("ParallelFor(0, ...) must not call fn")
	}
}

func TestParallelForSingleWorkerIsSequential(t *testing.T) {
	p := New(1)
	var order []int
	p.ParallelFor(5, func(i int) { order = append(order, i) })
	for i, v := range order {
		if v != i {
			t.Fatalf("single-worker ParallelFor should preserve order: got %v", order)
		}
	}
}

func TestNewFallsBackToNumCPU(t *testing.T) {
	p := New(0)
	if p.workers <= 0 {
		t.Fatalf("New(0) should fall back to a positive worker count, got %d", p.workers)
	}
}
