// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// UnloadResult lists every virtual path removed by an unload,
// dependents included.
type UnloadResult struct {
	Removed []string
}

// Cascaded reports whether dependents were removed along with the target
func (r UnloadResult) Cascaded() bool {
	return len(r.Removed) > 1
}

// Manager owns the asset table and is the only place assets are mounted
// and unloaded. Update, WaitAll, Unload, UnloadNamespace and Destroy must
// all be called from the goroutine that owns the rendering backend.
type Manager struct {
	cfg       Configuration
	assets    *AssetMap
	scheduler *Scheduler
	commands  chan Command
	ops       *atomic.Int64
	proxy     *Proxy

	// written only on the backend goroutine, read from anywhere
	graphMutex   sync.RWMutex
	dependents   map[string][]string
	dependencies map[string][]string

	failures []error
}

// NewManager creates a Manager loading through the strategies in reg
func NewManager(reg *Registry, cfg Configuration) *Manager {
	cfg = cfg.withDefaults()
	assets := NewAssetMap()
	m := &Manager{
		cfg:          cfg,
		assets:       assets,
		scheduler:    NewScheduler(reg, assets, cfg),
		commands:     make(chan Command, cfg.CommandQueueSize),
		ops:          new(atomic.Int64),
		dependents:   make(map[string][]string),
		dependencies: make(map[string][]string),
	}
	m.proxy = &Proxy{
		assets:       assets,
		commands:     m.commands,
		ops:          m.ops,
		pollInterval: cfg.PollInterval,
	}
	return m
}

// Proxy returns the goroutine safe front end of the manager
func (m *Manager) Proxy() *Proxy {
	return m.proxy
}

// Assets returns the shared asset table
func (m *Manager) Assets() *AssetMap {
	return m.assets
}

// Len returns the number of mounted assets
func (m *Manager) Len() int {
	return m.assets.Len()
}

// Update mounts at most one finished load and executes at most one
// pending command. Call it once per frame from the backend goroutine.
func (m *Manager) Update() {
	select {
	case f := <-m.scheduler.Results():
		m.mount(f)
	default:
	}

	select {
	case cmd := <-m.commands:
		m.execute(cmd)
		m.ops.Add(-1)
	default:
	}
}

// WaitAll calls Update until nothing is loading and no command is left,
// then returns the failures of every load that died since the last call.
func (m *Manager) WaitAll(ctx context.Context) error {
	for {
		m.Update()
		if m.Idle() {
			break
		}
		select {
		case <-ctx.Done():
			return multierr.Append(ctx.Err(), m.takeFailures())
		case <-time.After(m.cfg.PollInterval):
		}
	}
	return m.takeFailures()
}

// Idle reports whether nothing is loading and no command is waiting
func (m *Manager) Idle() bool {
	return m.scheduler.Idle() && len(m.commands) == 0
}

// Failures returns the failures collected since the last call,
// combined into one error
func (m *Manager) Failures() error {
	return m.takeFailures()
}

func (m *Manager) takeFailures() error {
	err := multierr.Combine(m.scheduler.Failures()...)
	err = multierr.Append(err, multierr.Combine(m.failures...))
	m.failures = nil
	return err
}

func (m *Manager) execute(cmd Command) {
	switch cmd.Kind {
	case CommandQueue:
		m.queue(cmd.URL)
	case CommandUnload:
		m.Unload(cmd.Target)
	case CommandUnloadNamespace:
		m.UnloadNamespace(cmd.Target)
	default:
		logger().WithField("command", cmd.Kind).Warn("unknown asset command")
	}
}

func (m *Manager) queue(url URL) {
	if url.MimeType() != "" {
		if _, ok := m.assets.Get(url.VPath()); ok {
			logger().WithFields(log.Fields{"url": url.String(), "vpath": url.VPath()}).Debug("asset already mounted")
			return
		}
	}
	if !m.scheduler.Submit(url) {
		logger().WithField("url", url.String()).Warn("asset scheduler closed, dropping url")
	}
}

// mount runs the loader's Create on the calling goroutine and
// inserts the result, then releases the dependency locks
func (m *Manager) mount(f Finished) {
	l := logger().WithFields(log.Fields{"vpath": f.VPath, "url": f.URL.String()})
	defer m.unlockAll(f.Dependencies)

	if _, ok := m.assets.Get(f.VPath); ok {
		l.Info("asset already mounted, dropping duplicate load")
		return
	}

	a, err := create(f.Loader)
	if err != nil {
		err = newError(ErrLoadFailed, f.VPath, err)
		l.WithError(err).Warn("asset failed to mount")
		m.failures = append(m.failures, err)
		return
	}
	if a == nil {
		l.Info("asset created nothing to mount")
		return
	}

	m.graphMutex.Lock()
	for _, dep := range f.Dependencies {
		m.dependents[dep] = appendUnique(m.dependents[dep], f.VPath)
	}
	if len(f.Dependencies) > 0 {
		m.dependencies[f.VPath] = append([]string(nil), f.Dependencies...)
	}
	m.graphMutex.Unlock()

	m.assets.Push(NewEntry(f.VPath, a))
	l.Info("asset mounted")
}

// create calls the loader's Create, turning a panic into an error
func create(loader Loader) (a Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("create panicked: %v", r)
		}
	}()
	return loader.Create()
}

func (m *Manager) unlockAll(vpaths []string) {
	for _, vp := range vpaths {
		m.assets.Unlock(vp)
	}
}

// Dependents returns the assets that were loaded using vpath
func (m *Manager) Dependents(vpath string) []string {
	m.graphMutex.RLock()
	defer m.graphMutex.RUnlock()
	return append([]string(nil), m.dependents[vpath]...)
}

// Dependencies returns the assets vpath was loaded with
func (m *Manager) Dependencies(vpath string) []string {
	m.graphMutex.RLock()
	defer m.graphMutex.RUnlock()
	return append([]string(nil), m.dependencies[vpath]...)
}

// IsInUse reports whether vpath, or anything depending on it,
// is referenced by a live handle
func (m *Manager) IsInUse(vpath string) bool {
	return m.inUse(vpath, make(map[string]bool))
}

func (m *Manager) inUse(vpath string, seen map[string]bool) bool {
	if seen[vpath] {
		return false
	}
	seen[vpath] = true
	if e, ok := m.assets.Get(vpath); ok && e.Uses() > 0 {
		return true
	}
	for _, dependent := range m.Dependents(vpath) {
		if m.inUse(dependent, seen) {
			return true
		}
	}
	return false
}

// IsLocked reports whether vpath, or anything depending on it,
// is held as a dependency by a load in flight
func (m *Manager) IsLocked(vpath string) bool {
	return m.locked(vpath, make(map[string]bool))
}

func (m *Manager) locked(vpath string, seen map[string]bool) bool {
	if seen[vpath] {
		return false
	}
	seen[vpath] = true
	if m.assets.IsLocked(vpath) {
		return true
	}
	for _, dependent := range m.Dependents(vpath) {
		if m.locked(dependent, seen) {
			return true
		}
	}
	return false
}

// Unload removes the asset at vpath together with everything that
// depends on it. It is refused when any of them is locked or in use.
func (m *Manager) Unload(vpath string) (UnloadResult, error) {
	var result UnloadResult
	err := m.unload(vpath, &result, make(map[string]bool))
	l := logger().WithField("vpath", vpath)
	if err != nil {
		l.WithError(err).Warn("asset unload failed")
	} else {
		l.WithField("removed", len(result.Removed)).Info("asset unloaded")
	}
	return result, err
}

func (m *Manager) unload(vpath string, result *UnloadResult, visiting map[string]bool) error {
	if _, ok := m.assets.Get(vpath); !ok {
		return newError(ErrNotMounted, vpath, nil)
	}
	if m.IsLocked(vpath) {
		return newError(ErrUnloadRefused, vpath, errors.New("locked"))
	}
	if m.IsInUse(vpath) {
		return newError(ErrUnloadRefused, vpath, errors.New("in use"))
	}

	visiting[vpath] = true
	for _, dependent := range m.Dependents(vpath) {
		if visiting[dependent] {
			continue
		}
		if _, ok := m.assets.Get(dependent); !ok {
			continue
		}
		if err := m.unload(dependent, result, visiting); err != nil {
			return err
		}
	}
	return m.remove(vpath, result)
}

// remove takes vpath out of the table, backing out if a lock or a
// handle got to it in the meantime, then releases it
func (m *Manager) remove(vpath string, result *UnloadResult) error {
	e, ok := m.assets.Get(vpath)
	if !ok {
		return nil
	}
	m.assets.Remove(vpath)
	if m.assets.IsLocked(vpath) || e.Uses() > 0 {
		m.assets.Push(e)
		return newError(ErrUnloadRefused, vpath, errors.New("acquired while unloading"))
	}

	if r, ok := e.Asset().(Releaser); ok {
		if err := r.Release(); err != nil {
			logger().WithField("vpath", vpath).WithError(newError(ErrResourceRelease, vpath, err)).Error("asset release failed")
		}
	}

	m.graphMutex.Lock()
	for _, dep := range m.dependencies[vpath] {
		remaining := removeString(m.dependents[dep], vpath)
		if len(remaining) == 0 {
			delete(m.dependents, dep)
		} else {
			m.dependents[dep] = remaining
		}
	}
	delete(m.dependencies, vpath)
	delete(m.dependents, vpath)
	m.graphMutex.Unlock()

	result.Removed = append(result.Removed, vpath)
	return nil
}

// UnloadNamespace unloads every asset under ns. Nothing is unloaded
// when any of them is locked or in use. Past that check it's best
// effort: a failing asset is reported and the rest are still unloaded.
func (m *Manager) UnloadNamespace(ns string) (UnloadResult, error) {
	var result UnloadResult
	l := logger().WithField("namespace", ns)

	vpaths := m.assets.Filter(func(e *Entry) bool {
		return InNamespace(e.VPath(), ns)
	})
	for _, vp := range vpaths {
		if m.IsLocked(vp) || m.IsInUse(vp) {
			err := newError(ErrUnloadRefused, ns, errors.New(vp+" is locked or in use"))
			l.WithError(err).Warn("namespace unload refused")
			return result, err
		}
	}

	var errs error
	for _, vp := range vpaths {
		if _, ok := m.assets.Get(vp); !ok {
			// already gone with an asset it depends on
			continue
		}
		if err := m.unload(vp, &result, make(map[string]bool)); err != nil {
			l.WithField("vpath", vp).WithError(err).Warn("asset unload failed")
			errs = multierr.Append(errs, err)
		}
	}
	l.WithField("removed", len(result.Removed)).Info("namespace unloaded")
	return result, errs
}

// Destroy stops loading and releases every mounted asset regardless
// of handles and locks. The Manager can't be used afterwards.
func (m *Manager) Destroy() {
	done := make(chan struct{})
	go func() {
		m.scheduler.Close()
		close(done)
	}()

Drain:
	for {
		select {
		case <-done:
			break Drain
		case f := <-m.scheduler.Results():
			m.unlockAll(f.Dependencies)
		}
	}
	for len(m.scheduler.Results()) > 0 {
		f := <-m.scheduler.Results()
		m.unlockAll(f.Dependencies)
	}

	for _, vp := range m.assets.Filter(nil) {
		e, ok := m.assets.Get(vp)
		if !ok {
			continue
		}
		m.assets.Remove(vp)
		if r, ok := e.Asset().(Releaser); ok {
			if err := r.Release(); err != nil {
				logger().WithField("vpath", vp).WithError(newError(ErrResourceRelease, vp, err)).Error("asset release failed")
			}
		}
	}

	m.graphMutex.Lock()
	m.dependents = make(map[string][]string)
	m.dependencies = make(map[string][]string)
	m.graphMutex.Unlock()
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
