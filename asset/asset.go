// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset resolves, loads and mounts typed resources named by URLs.
//
// Loading runs on a small pool of worker goroutines and may wait for
// other assets to be mounted first. Mounting, the final step that may
// touch the rendering backend, only ever happens inside Manager.Update,
// which must be called from the goroutine that owns the backend.
// Everything else talks to the Manager through a Proxy, which is safe
// to share between goroutines.
package asset

import "io"

// Asset is any mounted object. Assets that hold backend resources
// implement Releaser.
type Asset interface{}

// Releaser is implemented by assets that need to free resources
// when they are unloaded. Release is called on the backend goroutine.
type Releaser interface {
	Release() error
}

// Stream is opened by a Protocol for a single load.
type Stream interface {
	io.ReadCloser

	// MimeType returns the content type the protocol determined for
	// the stream, or an empty string when it can't tell.
	MimeType() string
}

// Protocol opens streams for a URL scheme. It's used from
// worker goroutines and has to be safe for concurrent use.
type Protocol interface {

	// Open opens the resource at the url's path
	Open(url URL) (Stream, error)

	// CanProvideMimeType reports whether streams returned by Open
	// know their content type
	CanProvideMimeType() bool
}

// Factory creates loaders for a mime type. A factory registered
// with a "major/*" mime type serves every subtype without an
// exact registration.
type Factory interface {

	// MimeType returns the mime type this factory is registered for
	MimeType() string

	// Create reads what it needs from the stream and returns a loader.
	// The stream is closed by the caller once Create returns.
	Create(stream io.Reader, url URL) (Loader, error)
}

// Loader carries one asset from raw data to a mounted object.
type Loader interface {

	// Load is called from worker goroutines, once per scheduling turn,
	// until it stops asking for dependencies. It must not call into
	// the rendering backend.
	Load(deps DepMap) LoadResult

	// Create builds the final asset. It's only called from
	// Manager.Update, on the goroutine owning the backend.
	Create() (Asset, error)
}

// LoadStatus is the outcome kind of a Loader.Load call
type LoadStatus int

// Load outcomes
const (
	StatusReady LoadStatus = iota
	StatusNeedsDependencies
	StatusNothing
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusNeedsDependencies:
		return "needs dependencies"
	case StatusNothing:
		return "nothing"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// LoadResult is returned by Loader.Load
type LoadResult struct {
	Status LoadStatus

	// Dependencies lists virtual paths still needed when Status
	// is StatusNeedsDependencies
	Dependencies []string

	// Err is set when Status is StatusFailed
	Err error
}

// Ready tells the task Create can be called
func Ready() LoadResult {
	return LoadResult{Status: StatusReady}
}

// NeedsDependencies asks for assets to be present in the DepMap of the next call
func NeedsDependencies(vpaths ...string) LoadResult {
	return LoadResult{Status: StatusNeedsDependencies, Dependencies: vpaths}
}

// Nothing tells the task there is nothing to mount
func Nothing() LoadResult {
	return LoadResult{Status: StatusNothing}
}

// Failed aborts the load
func Failed(err error) LoadResult {
	return LoadResult{Status: StatusFailed, Err: err}
}
