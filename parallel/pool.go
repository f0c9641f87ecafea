// Package parallel bounds the goroutines used for batch and per-row work.
package parallel

import (
	"runtime"
	"sync"
)

// WorkerFunc submits a job; WaitFunc blocks until submitted jobs finish,
// closing the pool first when done is true. Commands receive these instead
// of the Pool itself.
type (
	WorkerFunc func(func())
	WaitFunc   func(done bool)
)

// Pool runs jobs on a fixed set of goroutines. A pool of one worker runs
// every job inline in Do.
type Pool struct {
	size  int
	jobs  chan func()
	wg    sync.WaitGroup
	close func()
}

// Start launches numWorkers goroutines, GOMAXPROCS when numWorkers < 1.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{size: numWorkers, close: func() {}}
	if numWorkers == 1 {
		return p
	}

	p.jobs = make(chan func(), numWorkers)
	for range numWorkers {
		p.wg.Go(func() {
			for f := range p.jobs {
				f()
			}
		})
	}
	p.close = sync.OnceFunc(func() { close(p.jobs) })

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Do queues f, blocking while every worker is busy and the queue is full.
// Do must not be called after the pool is closed.
func (p *Pool) Do(f func()) {
	if p.jobs == nil {
		f()
		return
	}
	p.jobs <- f
}

// Wait closes the pool when done is set, then waits for the workers. An
// open pool never drains, so Wait(false) only makes sense after Close from
// another goroutine.
func (p *Pool) Wait(done bool) {
	if done {
		p.Close()
	}
	p.wg.Wait()
}

// Close stops accepting jobs. Queued jobs still run.
func (p *Pool) Close() {
	p.close()
}

// Funcs returns the submit and wait functions bound to p.
func (p *Pool) Funcs() (WorkerFunc, WaitFunc) {
	return p.Do, p.Wait
}
