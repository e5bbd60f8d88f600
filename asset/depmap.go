// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import "sort"

// DepMap gives a loader the dependencies acquired for it so far,
// keyed by virtual path. Loaders can only read from it.
type DepMap struct {
	entries map[string]*Entry
}

func newDepMap() DepMap {
	return DepMap{entries: make(map[string]*Entry)}
}

func (d DepMap) add(e *Entry) {
	d.entries[e.VPath()] = e
}

// clone copies d so it can be handed to another goroutine
func (d DepMap) clone() DepMap {
	c := newDepMap()
	for vp, e := range d.entries {
		c.entries[vp] = e
	}
	return c
}

// Get returns the mounted asset at vpath
func (d DepMap) Get(vpath string) (Asset, bool) {
	e, ok := d.entries[vpath]
	if !ok {
		return nil, false
	}
	return e.Asset(), true
}

// Has reports whether vpath has been acquired
func (d DepMap) Has(vpath string) bool {
	_, ok := d.entries[vpath]
	return ok
}

// HasAll reports whether every vpath has been acquired
func (d DepMap) HasAll(vpaths ...string) bool {
	for _, vp := range vpaths {
		if !d.Has(vp) {
			return false
		}
	}
	return true
}

// Missing returns the subset of vpaths not acquired yet
func (d DepMap) Missing(vpaths ...string) []string {
	var missing []string
	for _, vp := range vpaths {
		if !d.Has(vp) {
			missing = append(missing, vp)
		}
	}
	return missing
}

// Len returns the number of acquired dependencies
func (d DepMap) Len() int {
	return len(d.entries)
}

// VPaths returns the acquired virtual paths, sorted
func (d DepMap) VPaths() []string {
	vpaths := make([]string, 0, len(d.entries))
	for vp := range d.entries {
		vpaths = append(vpaths, vp)
	}
	sort.Strings(vpaths)
	return vpaths
}

// Dep returns the dependency at vpath if it is a T
func Dep[T any](d DepMap, vpath string) (T, bool) {
	var zero T
	a, ok := d.Get(vpath)
	if !ok {
		return zero, false
	}
	t, ok := a.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
