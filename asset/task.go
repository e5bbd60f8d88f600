// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskState is the position of a Task in its lifecycle
type TaskState int

// Task states. Finished, Dead and ProducesNothing are terminal.
const (
	StateUninitialized TaskState = iota
	StateInitializing
	StateAwaitingDeps
	StateReadyToFinish
	StateFinished
	StateDead
	StateProducesNothing
)

func (s TaskState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAwaitingDeps:
		return "awaiting dependencies"
	case StateReadyToFinish:
		return "ready to finish"
	case StateFinished:
		return "finished"
	case StateDead:
		return "dead"
	case StateProducesNothing:
		return "produces nothing"
	}
	return "unknown"
}

// Terminal reports whether no further steps will be taken
func (s TaskState) Terminal() bool {
	return s == StateFinished || s == StateDead || s == StateProducesNothing
}

// Finished is a task that is ready to be mounted
type Finished struct {
	VPath  string
	URL    URL
	Loader Loader

	// Dependencies are locked in the AssetMap until the
	// result is mounted or dropped
	Dependencies []string
}

// Task drives the load of a single URL. Steps are run one at a time,
// never concurrently, by the Scheduler.
type Task struct {
	id     string
	url    URL
	vpath  string
	assets *AssetMap
	reg    *Registry

	loader   Loader
	deps     DepMap
	attempts int
	wait     time.Duration
	state    TaskState
	last     LoadResult
	err      error
}

// NewTask creates a task for url. It does nothing until stepped.
func NewTask(url URL, reg *Registry, assets *AssetMap, cfg Configuration) *Task {
	cfg = cfg.withDefaults()
	return &Task{
		id:       uuid.NewString(),
		url:      url,
		assets:   assets,
		reg:      reg,
		deps:     newDepMap(),
		attempts: cfg.MaxAttempts,
		wait:     cfg.DependencyWait,
		state:    StateUninitialized,
	}
}

// ID returns a unique identifier for log correlation
func (t *Task) ID() string {
	return t.id
}

// URL returns the url, with the mime type filled in once known
func (t *Task) URL() URL {
	return t.url
}

// VPath returns the virtual path the asset will be mounted at.
// Empty until the task is initialized.
func (t *Task) VPath() string {
	return t.vpath
}

// State returns the current state
func (t *Task) State() TaskState {
	return t.state
}

// LastResult returns what the loader returned on the latest step
func (t *Task) LastResult() LoadResult {
	return t.last
}

// Err returns why the task died
func (t *Task) Err() error {
	return t.err
}

// AttemptsRemaining returns how many more waiting turns are allowed
func (t *Task) AttemptsRemaining() int {
	return t.attempts
}

func (t *Task) log() *log.Entry {
	fields := log.Fields{"task": t.id, "url": t.url.String()}
	if t.vpath != "" {
		fields["vpath"] = t.vpath
	}
	return logger().WithFields(fields)
}

// Step takes a single turn: initializes the task if needed, then
// asks the loader to load with the dependencies acquired so far.
func (t *Task) Step() TaskState {
	if t.state.Terminal() || t.state == StateReadyToFinish {
		return t.state
	}

	if t.state == StateUninitialized {
		if err := t.initialize(); err != nil {
			t.die(err)
			return t.state
		}
	}

	t.last = t.loader.Load(t.deps)
	switch t.last.Status {
	case StatusReady:
		t.state = StateReadyToFinish
	case StatusNothing:
		t.log().Debug("loader produces nothing")
		t.releaseDependencies()
		t.state = StateProducesNothing
	case StatusFailed:
		t.die(newError(ErrLoadFailed, t.vpath, t.last.Err))
	case StatusNeedsDependencies:
		t.state = StateAwaitingDeps
		t.acquire(t.last.Dependencies)
	default:
		t.die(newError(ErrLoadFailed, t.vpath, fmt.Errorf("unknown load status %d", t.last.Status)))
	}
	return t.state
}

// acquire locks every requested dependency that is mounted. A turn
// that leaves a dependency missing, or acquires nothing new, spends
// an attempt.
func (t *Task) acquire(vpaths []string) {
	var (
		missing  []string
		acquired int
	)
	for _, vp := range vpaths {
		if t.deps.Has(vp) {
			continue
		}
		if e, ok := t.assets.Lock(vp); ok {
			t.deps.add(e)
			acquired++
		} else {
			missing = append(missing, vp)
		}
	}
	if len(missing) == 0 && acquired > 0 {
		return
	}

	t.attempts--
	if t.attempts <= 0 {
		t.die(newError(ErrDependencyUnresolvable, t.vpath, fmt.Errorf("missing %v", missing)))
		return
	}
	if len(missing) > 0 {
		t.log().WithField("missing", missing).Debug("waiting for dependencies")
		time.Sleep(t.wait)
	}
}

func (t *Task) initialize() error {
	t.state = StateInitializing

	protocol, ok := t.reg.Protocol(t.url.Scheme())
	if !ok {
		return newError(ErrUnknownProtocol, t.url.String(), errors.New(t.url.Scheme()))
	}

	stream, err := protocol.Open(t.url)
	if err != nil {
		return newError(ErrStream, t.url.String(), err)
	}
	loader, err := t.createLoader(protocol, stream)
	if closeErr := stream.Close(); closeErr != nil && err == nil {
		err = newError(ErrStream, t.url.String(), closeErr)
	}
	if err != nil {
		return err
	}

	t.loader = loader
	return nil
}

func (t *Task) createLoader(protocol Protocol, stream Stream) (Loader, error) {
	if t.url.MimeType() == "" {
		var mimeType string
		if protocol.CanProvideMimeType() {
			mimeType = stream.MimeType()
		}
		if mimeType == "" {
			return nil, newError(ErrUnknownMimeType, t.url.String(), errors.New("mime type could not be determined"))
		}
		t.url = t.url.WithMimeType(mimeType)
	}
	t.vpath = t.url.VPath()

	factory, ok := t.reg.Factory(t.url.MimeType())
	if !ok {
		return nil, newError(ErrUnknownMimeType, t.url.String(), errors.New(t.url.MimeType()))
	}

	loader, err := factory.Create(stream, t.url)
	if err != nil {
		return nil, newError(ErrLoaderInstantiation, t.url.String(), err)
	}
	if loader == nil {
		return nil, newError(ErrLoaderInstantiation, t.url.String(), errors.New("factory returned no loader"))
	}
	return loader, nil
}

// TryFinish hands out the loader and its dependencies once the task
// is ready to finish. The dependency locks move to the caller.
func (t *Task) TryFinish() (Finished, bool) {
	if t.state != StateReadyToFinish {
		return Finished{}, false
	}
	t.state = StateFinished
	return Finished{
		VPath:        t.vpath,
		URL:          t.url,
		Loader:       t.loader,
		Dependencies: t.deps.VPaths(),
	}, true
}

// Abandon drops the task, releasing every dependency it holds
func (t *Task) Abandon(reason error) {
	if t.state.Terminal() {
		return
	}
	t.die(reason)
}

func (t *Task) die(err error) {
	t.err = err
	t.state = StateDead
	if a, ok := t.loader.(Abandoner); ok {
		a.Abandon()
	}
	t.releaseDependencies()
	t.log().WithError(err).Warn("asset load failed")
}

func (t *Task) releaseDependencies() {
	for _, vp := range t.deps.VPaths() {
		t.assets.Unlock(vp)
	}
	t.deps = newDepMap()
}
