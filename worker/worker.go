// Package worker provides a single-consumer background job queue.
//
// Memory bookkeeping (write judging, consolidation, periodic context
// synthesis) runs off the conversational critical path: callers submit
// fire-and-forget jobs and never wait for a result. Jobs execute strictly in
// submission order, one at a time, and a panic inside a job is caught and
// logged without stopping the worker.
package worker

import (
	"fmt"
	"sync"

	"github.com/atomhq/atom-go-sdk/logging"
)

// Job is a zero-argument callable executed on the worker goroutine.
// Jobs needing to surface a result must communicate it out-of-band
// (e.g. by writing into the memory store or session state).
type Job func()

// Worker consumes an unbounded FIFO queue of jobs on a single goroutine.
type Worker struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Job
	busy   bool
	closed bool
	done   chan struct{}
	log    logging.Logger
}

// New creates a Worker and starts its consumer goroutine.
func New(log logging.Logger) *Worker {
	if log == nil {
		log = logging.Default()
	}
	w := &Worker{
		done: make(chan struct{}),
		log:  log,
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Submit enqueues a job. It never blocks and never returns a result.
// Jobs submitted after Close are dropped.
func (w *Worker) Submit(job Job) {
	if job == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn("background job dropped: worker closed")
		return
	}
	w.queue = append(w.queue, job)
	w.cond.Broadcast()
}

// Pending returns the number of queued jobs plus the one in flight, if any.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.queue)
	if w.busy {
		n++
	}
	return n
}

// Drain blocks until the queue is empty and no job is in flight.
func (w *Worker) Drain() {
	w.mu.Lock()
	for len(w.queue) > 0 || w.busy {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

// Close drains outstanding jobs and stops the worker. Callers accepting loss
// of pending memory writes on shutdown can simply not call Close.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		job := w.queue[0]
		w.queue = w.queue[1:]
		w.busy = true
		w.mu.Unlock()

		w.execute(job)

		w.mu.Lock()
		w.busy = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// execute runs a single job, isolating panics from the queue.
func (w *Worker) execute(job Job) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("background job panicked", "panic", fmt.Sprintf("%v", r))
		}
	}()
	job()
}
