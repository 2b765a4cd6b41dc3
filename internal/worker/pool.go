// Package worker provides a bounded goroutine pool for dispatching inbound
// messages so one slow model round trip does not stall every other chat.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of dispatch work.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of goroutines over a bounded
// queue. When the queue is full Submit reports backpressure instead of
// blocking the caller.
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers int
	tasks   chan Task
}

// Stats holds monitoring information about the pool.
type Stats struct {
	Workers     int
	QueueLength int
}

// NewPool creates a Pool with the given number of workers and queue capacity.
func NewPool(workers, queueCap int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueCap < 1 {
		queueCap = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
		tasks:   make(chan Task, queueCap),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}
}

// Stop signals all workers to exit and waits for in-flight tasks to finish.
// Queued tasks that have not started are dropped.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Submit queues a task. It returns false when the queue is full or the pool
// is stopped; the caller decides whether to drop or run inline.
func (p *Pool) Submit(task Task) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stats returns a snapshot of the pool state.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:     p.workers,
		QueueLength: len(p.tasks),
	}
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			task(p.ctx)
		}
	}
}
