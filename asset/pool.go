// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolClosed is returned when submitting to a closed Pool
var ErrPoolClosed = errors.New("pool is closed")

// Future tracks a unit of work submitted to a Pool
type Future struct {
	done   chan struct{}
	notify chan<- struct{}
	err    error
}

// Done returns a channel that's closed once the work has run
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the work has run, without blocking
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the recovered panic of the work, if it panicked.
// Only valid after Done is closed.
func (f *Future) Err() error {
	return f.err
}

type job struct {
	fn     func()
	future *Future
}

// deque is a worker's own queue. The owner takes from the
// front, thieves take from the back.
type deque struct {
	mutex sync.Mutex
	jobs  []job
}

func (d *deque) push(j job) {
	d.mutex.Lock()
	d.jobs = append(d.jobs, j)
	d.mutex.Unlock()
}

func (d *deque) popFront() (job, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if len(d.jobs) == 0 {
		return job{}, false
	}
	j := d.jobs[0]
	d.jobs[0] = job{}
	d.jobs = d.jobs[1:]
	return j, true
}

func (d *deque) popBack() (job, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	n := len(d.jobs)
	if n == 0 {
		return job{}, false
	}
	j := d.jobs[n-1]
	d.jobs[n-1] = job{}
	d.jobs = d.jobs[:n-1]
	return j, true
}

// Pool is a fixed size work-stealing pool. Work is spread over the
// workers' own deques and idle workers steal from the others.
type Pool struct {
	queues []*deque
	wg     sync.WaitGroup

	mutex  sync.Mutex
	cond   *sync.Cond
	queued int
	next   int
	closed bool
}

// NewPool starts a Pool with the given number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		queues: make([]*deque, workers),
	}
	p.cond = sync.NewCond(&p.mutex)
	for idx := range p.queues {
		p.queues[idx] = &deque{}
	}
	p.wg.Add(workers)
	for idx := 0; idx < workers; idx++ {
		go p.work(idx)
	}
	return p
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return len(p.queues)
}

// Submit queues fn to run on one of the workers
func (p *Pool) Submit(fn func()) (*Future, error) {
	return p.SubmitNotify(fn, nil)
}

// SubmitNotify is like Submit, additionally signalling notify without
// blocking once the future is done. A notify channel with a buffer of
// one coalesces completions into a single wake up.
func (p *Pool) SubmitNotify(fn func(), notify chan<- struct{}) (*Future, error) {
	f := &Future{done: make(chan struct{}), notify: notify}

	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil, ErrPoolClosed
	}
	target := p.queues[p.next%len(p.queues)]
	p.next++
	// The job is pushed before it's counted, so a worker that
	// reserves it is guaranteed to find it in some deque.
	target.push(job{fn: fn, future: f})
	p.queued++
	p.mutex.Unlock()

	p.cond.Signal()
	return f, nil
}

// Close stops the workers after all queued work has run
func (p *Pool) Close() {
	p.mutex.Lock()
	p.closed = true
	p.mutex.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) work(idx int) {
	defer p.wg.Done()
	for {
		p.mutex.Lock()
		for p.queued == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.queued == 0 {
			p.mutex.Unlock()
			return
		}
		p.queued--
		p.mutex.Unlock()

		run(p.take(idx))
	}
}

// take finds the job reserved by a worker, preferring its own deque
func (p *Pool) take(idx int) job {
	for {
		if j, ok := p.queues[idx].popFront(); ok {
			return j
		}
		for offset := 1; offset < len(p.queues); offset++ {
			victim := p.queues[(idx+offset)%len(p.queues)]
			if j, ok := victim.popBack(); ok {
				return j
			}
		}
		runtime.Gosched()
	}
}

func run(j job) {
	defer func() {
		if j.future.notify != nil {
			select {
			case j.future.notify <- struct{}{}:
			default:
			}
		}
	}()
	defer close(j.future.done)
	defer func() {
		if r := recover(); r != nil {
			j.future.err = fmt.Errorf("work panicked: %v", r)
		}
	}()
	j.fn()
}
