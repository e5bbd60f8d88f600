// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAbandoned is returned from an AwaitFunc when the load was dropped
var ErrAbandoned = errors.New("load abandoned")

// AwaitFunc blocks until every vpath has been acquired as a dependency
// and returns all dependencies acquired so far.
type AwaitFunc func(vpaths ...string) (DepMap, error)

// CreateFunc builds the final asset on the backend goroutine
type CreateFunc func() (Asset, error)

// AsyncBody does the blocking part of an asynchronous load on its own
// goroutine. It returns the function that creates the asset, or nil
// when there is nothing to mount.
type AsyncBody func(await AwaitFunc) (CreateFunc, error)

// Abandoner is implemented by loaders that hold resources a dying task
// needs to give back, such as a goroutine blocked on dependencies.
type Abandoner interface {
	Abandon()
}

type asyncOutcome struct {
	create CreateFunc
	err    error
}

// AsyncLoader runs an AsyncBody next to the polling Load protocol.
// Every Load call hands over the dependencies the body is waiting for
// and then blocks until the body either asks for more or returns.
type AsyncLoader struct {
	body AsyncBody

	requests chan []string
	replies  chan DepMap
	done     chan asyncOutcome
	abort    chan struct{}
	once     sync.Once

	started bool
	waiting []string
	create  CreateFunc
}

// NewAsyncLoader creates a loader running body once it's first loaded
func NewAsyncLoader(body AsyncBody) *AsyncLoader {
	return &AsyncLoader{
		body:     body,
		requests: make(chan []string, 1),
		replies:  make(chan DepMap, 1),
		done:     make(chan asyncOutcome, 1),
		abort:    make(chan struct{}),
	}
}

// Load implements Loader
func (l *AsyncLoader) Load(deps DepMap) LoadResult {
	if !l.started {
		l.started = true
		go l.run()
	}

	for {
		if l.waiting != nil {
			if missing := deps.Missing(l.waiting...); len(missing) > 0 {
				return NeedsDependencies(missing...)
			}
			l.waiting = nil
			l.replies <- deps.clone()
		}

		select {
		case req := <-l.requests:
			l.waiting = append([]string{}, req...)
		case out := <-l.done:
			switch {
			case out.err != nil:
				return Failed(out.err)
			case out.create == nil:
				return Nothing()
			}
			l.create = out.create
			return Ready()
		}
	}
}

// Create implements Loader
func (l *AsyncLoader) Create() (Asset, error) {
	if l.create == nil {
		return nil, errors.New("asynchronous load has not finished")
	}
	return l.create()
}

// Abandon unblocks a body waiting on dependencies
func (l *AsyncLoader) Abandon() {
	l.once.Do(func() {
		close(l.abort)
	})
}

func (l *AsyncLoader) await(vpaths ...string) (DepMap, error) {
	select {
	case l.requests <- vpaths:
	case <-l.abort:
		return DepMap{}, ErrAbandoned
	}
	select {
	case deps := <-l.replies:
		return deps, nil
	case <-l.abort:
		return DepMap{}, ErrAbandoned
	}
}

func (l *AsyncLoader) run() {
	defer func() {
		if r := recover(); r != nil {
			l.done <- asyncOutcome{err: fmt.Errorf("asynchronous load panicked: %v", r)}
		}
	}()
	create, err := l.body(l.await)
	l.done <- asyncOutcome{create: create, err: err}
}
