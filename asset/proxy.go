// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"context"
	"sync/atomic"
	"time"
)

// Proxy is the face of a Manager for the rest of the program. It can be
// shared freely between goroutines; nothing it does returns an error,
// absence is reported through return values.
type Proxy struct {
	assets       *AssetMap
	commands     chan<- Command
	ops          *atomic.Int64
	pollInterval time.Duration
}

// Handle is a counted reference to a mounted asset. The asset
// can't be unloaded while a handle to it is alive.
type Handle[T any] struct {
	entry    *Entry
	asset    T
	released atomic.Bool
}

// Get returns a handle to the asset at vpath if it is mounted and is a T
func Get[T any](p *Proxy, vpath string) (*Handle[T], bool) {
	e, ok := p.assets.Get(vpath)
	if !ok {
		return nil, false
	}
	t, ok := e.Asset().(T)
	if !ok {
		return nil, false
	}

	e.acquire()
	// the entry might have been unloaded between lookup and acquire
	if current, ok := p.assets.Get(vpath); !ok || current != e {
		e.release()
		return nil, false
	}
	return &Handle[T]{entry: e, asset: t}, true
}

// Asset returns the referenced asset
func (h *Handle[T]) Asset() T {
	return h.asset
}

// VPath returns the virtual path of the referenced asset
func (h *Handle[T]) VPath() string {
	return h.entry.VPath()
}

// Clone returns another handle to the same asset
func (h *Handle[T]) Clone() *Handle[T] {
	h.entry.acquire()
	return &Handle[T]{entry: h.entry, asset: h.asset}
}

// Release gives up the reference. Calling it again does nothing.
func (h *Handle[T]) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.entry.release()
	}
}

// Has reports whether an asset is mounted at vpath
func (p *Proxy) Has(vpath string) bool {
	_, ok := p.assets.Get(vpath)
	return ok
}

// Uses returns the number of live handles to vpath
func (p *Proxy) Uses(vpath string) int64 {
	e, ok := p.assets.Get(vpath)
	if !ok {
		return 0
	}
	return e.Uses()
}

// Len returns the number of mounted assets
func (p *Proxy) Len() int {
	return p.assets.Len()
}

// Filter returns the sorted virtual paths of mounted assets matching pred
func (p *Proxy) Filter(pred func(vpath string, a Asset) bool) []string {
	if pred == nil {
		return p.assets.Filter(nil)
	}
	return p.assets.Filter(func(e *Entry) bool {
		return pred(e.VPath(), e.Asset())
	})
}

// Namespace returns the virtual paths of every asset under ns
func (p *Proxy) Namespace(ns string) []string {
	return p.assets.Filter(func(e *Entry) bool {
		return InNamespace(e.VPath(), ns)
	})
}

// OfType returns the virtual paths of every mounted T
func OfType[T any](p *Proxy) []string {
	return p.assets.Filter(func(e *Entry) bool {
		_, ok := e.Asset().(T)
		return ok
	})
}

// Queue asks the manager to load url. Returns the number of
// operations not yet executed, this one included.
func (p *Proxy) Queue(url URL) int64 {
	return p.send(QueueCommand(url))
}

// Unload asks the manager to unload vpath and its dependents
func (p *Proxy) Unload(vpath string) int64 {
	return p.send(UnloadCommand(vpath))
}

// UnloadNamespace asks the manager to unload everything under ns
func (p *Proxy) UnloadNamespace(ns string) int64 {
	return p.send(UnloadNamespaceCommand(ns))
}

func (p *Proxy) send(cmd Command) int64 {
	n := p.ops.Add(1)
	p.commands <- cmd
	return n
}

// RemainingOperations returns the number of commands sent
// but not yet executed by the manager
func (p *Proxy) RemainingOperations() int64 {
	return p.ops.Load()
}

// WaitRemainingOperations blocks until the manager has executed every
// command sent so far. Executing a queue command only starts the load.
// Must not be called from the goroutine that calls Manager.Update.
func (p *Proxy) WaitRemainingOperations(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for p.ops.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
