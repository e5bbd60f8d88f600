// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

type pendingTask struct {
	task   *Task
	future *Future
}

// Scheduler turns submitted URLs into tasks and steps them on a
// work-stealing Pool until they finish, die, or produce nothing.
// Finished tasks are sent to Results. The goroutine driving the
// tasks only lives while there is work, and is started again by
// the next Submit.
type Scheduler struct {
	reg    *Registry
	assets *AssetMap
	cfg    Configuration
	pool   *Pool

	in   chan URL
	out  chan Finished
	wake chan struct{}

	mutex    sync.Mutex
	running  bool
	closed   bool
	inflight int
	failures []error
	wg       sync.WaitGroup

	// owned by the loop goroutine
	pending []*pendingTask
}

// NewScheduler creates a Scheduler with its worker pool.
// No goroutine besides the pool workers runs until Submit is called.
func NewScheduler(reg *Registry, assets *AssetMap, cfg Configuration) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		reg:    reg,
		assets: assets,
		cfg:    cfg,
		pool:   NewPool(cfg.Workers),
		in:     make(chan URL, cfg.URLQueueSize),
		out:    make(chan Finished, cfg.ResultQueueSize),
		wake:   make(chan struct{}, 1),
	}
}

// Results returns the channel finished tasks are delivered on.
// The receiver owns the dependency locks of every result.
func (s *Scheduler) Results() <-chan Finished {
	return s.out
}

// Submit hands url to the scheduler, starting its goroutine if it
// isn't running. Blocks while the inbound queue is full.
func (s *Scheduler) Submit(url URL) bool {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return false
	}
	s.inflight++
	if !s.running {
		s.running = true
		s.wg.Add(1)
		go s.run()
	}
	s.mutex.Unlock()

	s.in <- url
	return true
}

// Running reports whether the scheduler goroutine is alive
func (s *Scheduler) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// Idle reports whether nothing is in flight and no result awaits pickup
func (s *Scheduler) Idle() bool {
	return !s.Running() && len(s.out) == 0
}

// Failures returns and forgets the errors of tasks that died
func (s *Scheduler) Failures() []error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	failures := s.failures
	s.failures = nil
	return failures
}

// Close refuses further URLs and stops the pool once the scheduler
// goroutine has exited. Results still have to be drained by the caller
// for the goroutine to exit.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()
	s.wg.Wait()
	s.pool.Close()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	logger().Debug("asset scheduler started")

	for {
		s.drain()
		s.poll()
		if len(s.pending) == 0 && s.stop() {
			logger().Debug("asset scheduler stopped")
			return
		}

		select {
		case url := <-s.in:
			s.accept(url)
		case <-s.wake:
		}
	}
}

// stop marks the scheduler as stopped unless URLs are on their way
func (s *Scheduler) stop() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.inflight > 0 || len(s.pending) > 0 {
		return false
	}
	s.running = false
	return true
}

func (s *Scheduler) drain() {
	for {
		select {
		case url := <-s.in:
			s.accept(url)
		default:
			return
		}
	}
}

func (s *Scheduler) accept(url URL) {
	s.mutex.Lock()
	s.inflight--
	s.mutex.Unlock()

	task := NewTask(url, s.reg, s.assets, s.cfg)
	task.log().Debug("asset queued")
	s.step(task)
}

func (s *Scheduler) step(task *Task) {
	future, err := s.pool.SubmitNotify(func() { task.Step() }, s.wake)
	if err != nil {
		task.Abandon(err)
		s.fail(task.Err())
		return
	}
	s.pending = append(s.pending, &pendingTask{task: task, future: future})
}

// poll inspects every completed future and resubmits tasks that are
// still waiting for dependencies
func (s *Scheduler) poll() {
	current := s.pending
	s.pending = nil

	for _, p := range current {
		if !p.future.IsDone() {
			s.pending = append(s.pending, p)
			continue
		}
		if err := p.future.Err(); err != nil {
			p.task.Abandon(newError(ErrLoadFailed, p.task.URL().String(), err))
		}

		switch p.task.State() {
		case StateProducesNothing:
			p.task.log().Info("asset load produced nothing")
		case StateDead:
			s.fail(p.task.Err())
		case StateReadyToFinish:
			if finished, ok := p.task.TryFinish(); ok {
				s.emit(finished)
			}
		default:
			// newly arrived work goes first so retries can't starve it
			s.drain()
			s.step(p.task)
		}
	}
}

// emit blocks until the result is accepted, meanwhile still taking
// URLs so a Submit blocked on a full inbound queue can't deadlock
// against a full result queue.
func (s *Scheduler) emit(f Finished) {
	for {
		select {
		case s.out <- f:
			logger().WithFields(log.Fields{"vpath": f.VPath, "url": f.URL.String()}).Debug("asset ready to mount")
			return
		case url := <-s.in:
			s.accept(url)
		}
	}
}

func (s *Scheduler) fail(err error) {
	if err == nil {
		return
	}
	s.mutex.Lock()
	s.failures = append(s.failures, err)
	s.mutex.Unlock()
}
