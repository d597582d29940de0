// Package threadpool provides the single collaborator the rest of the
// codec needs for parallel work: a synchronous parallel-for with no
// nested parallelism (spec.md §9: "model as a single operation
// parallel_for(n, fn) with no nested parallelism").
//
// No example repo's package structure has a direct analog for this —
// `jpeg2000` and its siblings are single-threaded — so this is grounded
// directly on the standard library's sync.WaitGroup, the idiomatic Go
// primitive for "run N independent units of work and wait for all of
// them", rather than on any teacher file.
package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs ParallelFor calls with a bounded number of concurrent
// workers. A zero-value Pool is usable and sizes itself to
// runtime.NumCPU().
type Pool struct {
	workers int
}

// New returns a Pool with the given worker count. A count <= 0 falls
// back to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// ParallelFor calls fn(i) for every i in [0, n), distributing the calls
// across the pool's workers, and blocks until every call has returned.
// fn must not itself call ParallelFor on this or any other Pool — nested
// parallelism is out of scope, per spec.md §9.
func (p *Pool) ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := 0
	if p != nil {
		workers = p.workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if i >= int64(n) {
					return
				}
				fn(int(i))
			}
		}()
	}
	wg.Wait()
}
