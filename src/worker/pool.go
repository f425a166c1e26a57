package worker

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
)

// Task is one overlay operation. It returns the text shown to the requester.
type Task func(ctx context.Context) (string, error)

// ResultCallback is invoked on task completion (from a worker goroutine).
// The event loop passes a closure that posts back into the loop.
type ResultCallback func(text string, err error)

// Pool is a fixed-size worker pool with a bounded input queue. Submit never
// blocks: a full queue rejects the task.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0; the queue
// holds as many pending tasks as there are workers.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, size)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("worker: starting %s", j.name)
				text, err := runWithContext(j.ctx, j.task)
				log.Printf("worker: %s done, text length=%d, err=%v", j.name, len(text), err)
				j.cb(text, err)
			}
		}()
	}
}

// Submit enqueues a task if the queue has room. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext runs task, returning early with ctx's error if ctx ends
// first. A panicking task is reported as an error.
func runWithContext(ctx context.Context, task Task) (text string, err error) {
	type outcome struct {
		text string
		err  error
	}
	resCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("worker: task panicked: %v", r)
				resCh <- outcome{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		t, e := task(ctx)
		resCh <- outcome{t, e}
	}()

	if _, ok := ctx.Deadline(); !ok && ctx.Done() == nil {
		r := <-resCh
		return r.text, r.err
	}
	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		// The task keeps running in the background; its result is discarded.
		return "", ctx.Err()
	}
}
