// Package parallel runs data-parallel render work on a fixed set of goroutines.
//
// A WorkerPool is created once per renderer and shared by every render it
// runs. Each pass of a render is cut into contiguous index ranges (see
// Split) and handed to ExecuteAll, which returns only once every range has
// been processed. Workers own a queue each and steal from their siblings
// when it runs dry, so a slow range (deep zoom, many interior pixels) does
// not leave the rest of the pool idle.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines executing queued work items.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	// queues holds one buffered queue per worker.
	queues []chan func()

	// done is closed by Close to stop the workers.
	done chan struct{}
	wg   sync.WaitGroup

	// submitMu orders queueing against Close: ExecuteAll holds it shared
	// while queueing, Close holds it exclusively before closing done, so no
	// item can be queued after the workers drained their queues.
	submitMu sync.RWMutex
	running  atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers and starts
// them. If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case fn := <-own:
			fn()
			continue
		case <-p.done:
			p.drain(own)
			return
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}

		select {
		case fn := <-own:
			fn()
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

// drain runs whatever is left in queue without blocking.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			fn()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin across the workers and blocks
// until every item has returned. Nil items are skipped.
//
// It reports false without running anything if the pool is closed.
func (p *WorkerPool) ExecuteAll(work []func()) bool {
	p.submitMu.RLock()
	if !p.running.Load() {
		p.submitMu.RUnlock()
		return false
	}

	var pending sync.WaitGroup
	for i, fn := range work {
		if fn == nil {
			continue
		}
		pending.Add(1)
		p.queues[i%p.workers] <- func() {
			defer pending.Done()
			fn()
		}
	}
	p.submitMu.RUnlock()

	pending.Wait()
	return true
}

// For splits n items into ranges of at most grain items and runs fn on each
// range in parallel, returning once all ranges are done.
// It reports false if the pool is closed.
func (p *WorkerPool) For(n, grain int, fn func(lo, hi int)) bool {
	ranges := Split(n, grain)
	work := make([]func(), len(ranges))
	for i, r := range ranges {
		work[i] = func() { fn(r.Lo, r.Hi) }
	}
	return p.ExecuteAll(work)
}

// Close stops accepting work, lets the workers finish everything already
// queued and waits for them to exit. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.submitMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submitMu.Unlock()
		return
	}
	close(p.done)
	p.submitMu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
