// Package scheduler runs keyed jobs on a bounded worker pool.
//
// Jobs sharing a key run one at a time in submission order; jobs with different keys run in parallel, up to the
// number of workers. The tracker keys scrapes by source id, so observations of one source are appended and evaluated
// in the order they were taken.
package scheduler

import (
	"context"
	"github.com/pkg/errors"
	"runtime/debug"
	"sync"
)

var ErrStopped = errors.New("dispatcher stopped")

type Job func(ctx context.Context)

type logger interface {
	Errorf(format string, v ...any)
}

type task struct {
	job  Job
	done chan struct{}
}

type lane struct {
	queue   []task
	running bool
}

type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger logger

	mu      sync.Mutex
	cond    *sync.Cond
	lanes   map[string]*lane
	ready   []string
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher starts workers goroutines; workers below 1 is treated as 1.
func NewDispatcher(workers int, l logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		ctx:    ctx,
		cancel: cancel,
		logger: l,
		lanes:  make(map[string]*lane),
	}
	d.cond = sync.NewCond(&d.mu)
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Submit queues job behind every job already submitted for key. The returned channel is closed once the job
// has finished, including when it panicked.
func (d *Dispatcher) Submit(key string, job Job) (<-chan struct{}, error) {
	t := task{job: job, done: make(chan struct{})}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil, ErrStopped
	}
	ln, ok := d.lanes[key]
	if !ok {
		ln = &lane{}
		d.lanes[key] = ln
	}
	ln.queue = append(ln.queue, t)
	if !ln.running && len(ln.queue) == 1 {
		d.ready = append(d.ready, key)
		d.cond.Signal()
	}
	return t.done, nil
}

// Pending is the number of queued jobs that have not started yet.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, ln := range d.lanes {
		n += len(ln.queue)
	}
	return n
}

// Stop cancels the context passed to jobs, lets the workers drain what is queued and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.stopped = true
	d.cond.Broadcast()
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for len(d.ready) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if len(d.ready) == 0 {
			d.mu.Unlock()
			return
		}
		key := d.ready[0]
		d.ready = d.ready[1:]
		ln := d.lanes[key]
		t := ln.queue[0]
		ln.queue = ln.queue[1:]
		ln.running = true
		d.mu.Unlock()

		d.run(key, t)

		d.mu.Lock()
		ln.running = false
		if len(ln.queue) > 0 {
			d.ready = append(d.ready, key)
			d.cond.Signal()
		} else {
			delete(d.lanes, key)
		}
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(key string, t task) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil && d.logger != nil {
			d.logger.Errorf("run: Job panicked, key: %s, panic: %v\n%s", key, r, debug.Stack())
		}
	}()
	t.job(d.ctx)
}
