// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"sort"
	"strings"
)

const wildcardSubtype = "*"

// Registry maps schemes to protocols and mime types to factories.
// It's built once with NewRegistry and never changes afterwards,
// which makes it safe to read from any goroutine.
type Registry struct {
	protocols map[string]Protocol
	factories map[string]Factory
}

// RegistryOption is implemented by option functions passed to NewRegistry.
type RegistryOption interface {
	apply(*Registry)
}

type registryFn func(*Registry)

func (f registryFn) apply(r *Registry) {
	f(r)
}

// WithProtocol registers p for scheme, replacing earlier registrations.
func WithProtocol(scheme string, p Protocol) RegistryOption {
	return registryFn(func(r *Registry) {
		r.protocols[scheme] = p
	})
}

// WithFactory registers f under its own mime type.
func WithFactory(f Factory) RegistryOption {
	return registryFn(func(r *Registry) {
		r.factories[f.MimeType()] = f
	})
}

// NewRegistry creates a Registry from the given options
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		protocols: make(map[string]Protocol),
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// Protocol returns the protocol registered for scheme
func (r *Registry) Protocol(scheme string) (Protocol, bool) {
	p, ok := r.protocols[scheme]
	return p, ok
}

// Factory returns the factory for mimeType, falling back
// to the "major/*" registration
func (r *Registry) Factory(mimeType string) (Factory, bool) {
	if f, ok := r.factories[mimeType]; ok {
		return f, true
	}
	major, _, _ := strings.Cut(mimeType, "/")
	f, ok := r.factories[major+"/"+wildcardSubtype]
	return f, ok
}

// Schemes returns the registered schemes, sorted
func (r *Registry) Schemes() []string {
	return sortedKeys(r.protocols)
}

// MimeTypes returns the registered mime types, sorted
func (r *Registry) MimeTypes() []string {
	return sortedKeys(r.factories)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
