// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Entry is a mounted asset along with the number of
// live handles referencing it.
type Entry struct {
	vpath string
	asset Asset
	uses  atomic.Int64
}

// NewEntry creates an unreferenced entry
func NewEntry(vpath string, a Asset) *Entry {
	return &Entry{vpath: vpath, asset: a}
}

// VPath returns the virtual path the entry is mounted at
func (e *Entry) VPath() string {
	return e.vpath
}

// Asset returns the mounted object
func (e *Entry) Asset() Asset {
	return e.asset
}

// Uses returns the number of live handles
func (e *Entry) Uses() int64 {
	return e.uses.Load()
}

func (e *Entry) acquire() {
	e.uses.Add(1)
}

// release never takes the count below zero
func (e *Entry) release() {
	for {
		uses := e.uses.Load()
		if uses <= 0 || e.uses.CompareAndSwap(uses, uses-1) {
			return
		}
	}
}

// AssetMap is the shared table of mounted assets and the separate
// table of dependency locks. Each table has its own mutex and the two
// are never held at the same time.
type AssetMap struct {
	mutex   sync.RWMutex
	entries map[string]*Entry

	lockMutex sync.Mutex
	locks     map[string]int
}

// NewAssetMap creates an empty AssetMap
func NewAssetMap() *AssetMap {
	return &AssetMap{
		entries: make(map[string]*Entry),
		locks:   make(map[string]int),
	}
}

// Get returns the entry at vpath
func (m *AssetMap) Get(vpath string) (*Entry, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	e, ok := m.entries[vpath]
	return e, ok
}

// Push inserts the entry, replacing one at the same virtual path
func (m *AssetMap) Push(e *Entry) {
	m.mutex.Lock()
	m.entries[e.vpath] = e
	m.mutex.Unlock()
}

// Remove removes the entry at vpath
func (m *AssetMap) Remove(vpath string) {
	m.mutex.Lock()
	delete(m.entries, vpath)
	m.mutex.Unlock()
}

// Lock fetches the entry at vpath and protects it from unloading until
// Unlock is called. Nothing is locked when vpath is not mounted.
func (m *AssetMap) Lock(vpath string) (*Entry, bool) {
	e, ok := m.Get(vpath)
	if !ok {
		return nil, false
	}

	m.lockMutex.Lock()
	m.locks[vpath]++
	m.lockMutex.Unlock()

	// An unload may have removed the entry between the lookup and the
	// increment. It checks the lock table again after removing, so one
	// of the two sides always backs out.
	if current, ok := m.Get(vpath); !ok || current != e {
		m.Unlock(vpath)
		return nil, false
	}
	return e, true
}

// Unlock undoes one Lock on vpath
func (m *AssetMap) Unlock(vpath string) {
	m.lockMutex.Lock()
	defer m.lockMutex.Unlock()
	count, ok := m.locks[vpath]
	if !ok {
		return
	}
	if count <= 1 {
		delete(m.locks, vpath)
		return
	}
	m.locks[vpath] = count - 1
}

// IsLocked reports whether an in-flight load holds vpath as a dependency
func (m *AssetMap) IsLocked(vpath string) bool {
	return m.LockCount(vpath) > 0
}

// LockCount returns the number of locks held on vpath
func (m *AssetMap) LockCount(vpath string) int {
	m.lockMutex.Lock()
	defer m.lockMutex.Unlock()
	return m.locks[vpath]
}

// Filter returns the sorted virtual paths of every entry matching pred.
// pred runs on a snapshot taken under the lock, after it was released,
// so it may call back into m.
func (m *AssetMap) Filter(pred func(*Entry) bool) []string {
	m.mutex.RLock()
	snapshot := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		snapshot = append(snapshot, e)
	}
	m.mutex.RUnlock()

	var vpaths []string
	for _, e := range snapshot {
		if pred == nil || pred(e) {
			vpaths = append(vpaths, e.VPath())
		}
	}
	sort.Strings(vpaths)
	return vpaths
}

// Len returns the number of mounted assets
func (m *AssetMap) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}
