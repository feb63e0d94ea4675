// Package workpool implements the work pool: a small
// self-sizing pool of worker goroutines that runs blocking/foreign work off
// a wire's own coroutine, plus the Await helper a shard uses to park its
// wire until that work completes. A buffered Go channel serves as the
// MPMC job queue and atomic counters track outstanding work.
package workpool

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/zond/wiremesh/shard"
)

// Tuning constants, carried over from TidePool verbatim.
const (
	LowWater      = 4
	NumWorkers    = 8
	MaxWorkers    = 32
	controllerTick = 100 * time.Millisecond
)

// Job is one unit of foreign work scheduled onto the pool.
type Job struct {
	fn       func() (any, error)
	result   any
	err      error
	complete atomic.Bool
}

func newJob(fn func() (any, error)) *Job {
	return &Job{fn: fn}
}

func (j *Job) run() {
	j.result, j.err = j.fn()
	j.complete.Store(true)
}

// Done reports whether the job has finished running.
func (j *Job) Done() bool { return j.complete.Load() }

// Result returns the job's outcome; valid only once Done reports true.
func (j *Job) Result() (any, error) { return j.result, j.err }

// Pool is the self-sizing worker pool (TidePool).
type Pool struct {
	queue     chan *Job
	scheduled atomic.Int64
	running   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}

	mu      chan struct{} // binary mutex around workers, kept tiny to avoid importing sync for one field
	workers []*worker
}

type worker struct {
	stop chan struct{}
	done chan struct{}
}

// New starts the pool's controller goroutine and its initial NumWorkers
// workers (TidePool's constructor + controllerWorker's startup loop).
func New() *Pool {
	p := &Pool{
		queue:  make(chan *Job, NumWorkers),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		mu:     make(chan struct{}, 1),
	}
	p.running.Store(true)
	p.mu <- struct{}{}
	go p.controllerWorker()
	return p
}

// Schedule enqueues work and returns a handle to observe its completion
// (TidePool::schedule).
func (p *Pool) Schedule(fn func() (any, error)) *Job {
	p.scheduled.Add(1)
	j := newJob(fn)
	p.queue <- j
	return j
}

func (p *Pool) spawnWorker() *worker {
	w := &worker{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stop:
				return
			case j := <-p.queue:
				j.run()
				p.scheduled.Add(-1)
			}
		}
	}()
	return w
}

// controllerWorker spawns the initial worker set, then grows/shrinks the
// pool every 100ms based on queue depth, exactly as TidePool's own
// controllerWorker does: shrink once scheduled work drops below LowWater
// and more than NumWorkers are running; grow once scheduled work exceeds
// the current worker count and fewer than MaxWorkers are running.
func (p *Pool) controllerWorker() {
	<-p.mu
	for i := 0; i < NumWorkers; i++ {
		p.workers = append(p.workers, p.spawnWorker())
	}
	p.mu <- struct{}{}

	ticker := time.NewTicker(controllerTick)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			<-p.mu
			for _, w := range p.workers {
				close(w.stop)
			}
			for _, w := range p.workers {
				<-w.done
			}
			p.workers = nil
			p.mu <- struct{}{}
			close(p.doneCh)
			return
		case <-ticker.C:
			scheduled := p.scheduled.Load()
			<-p.mu
			n := len(p.workers)
			switch {
			case scheduled < LowWater && n > NumWorkers:
				last := p.workers[n-1]
				p.workers = p.workers[:n-1]
				close(last.stop)
			case int64(n) < scheduled && n < MaxWorkers:
				p.workers = append(p.workers, p.spawnWorker())
			}
			p.mu <- struct{}{}
		}
	}
}

// Stop signals the controller to retire every worker and blocks until they
// have all exited (TidePool's destructor).
func (p *Pool) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	<-p.doneCh
}

// Await mirrors async.hpp's awaitne/await: schedule fn onto p, then
// repeatedly Suspend(0) — yielding the wire once per tick — until the job
// completes or the context says to stop (ShouldStop, or Suspend itself
// failing/returning anything but Continue). If the wire stops first, cancel
// is invoked and Await busy-yields (runtime.Gosched, the Go analogue of
// std::this_thread::yield) until the foreign work actually finishes, so the
// wire's own goroutine is never torn down while work scheduled from it is
// still in flight. cancel may be nil for work with no cancellation hook.
func Await(p *Pool, ctx shard.Context, fn func() (any, error), cancel func()) (any, error) {
	j := p.Schedule(fn)

	for !j.Done() {
		if ctx.ShouldStop() {
			break
		}
		state, err := ctx.Suspend(0)
		if err != nil || state != shard.Continue {
			break
		}
	}

	if !j.Done() {
		if cancel != nil {
			cancel()
		}
		for !j.Done() {
			runtime.Gosched()
		}
	}

	return j.Result()
}
