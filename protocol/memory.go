// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package protocol

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/devblok/koruasset/asset"
)

// Memory serves resources held in memory, keyed by path.
// The map is copied.
func Memory(files map[string][]byte) *MemoryProtocol {
	m := &MemoryProtocol{files: make(map[string][]byte, len(files))}
	for name, data := range files {
		m.Put(name, data)
	}
	return m
}

// MemoryProtocol is an in-memory asset.Protocol, safe for concurrent use
type MemoryProtocol struct {
	mutex sync.RWMutex
	files map[string][]byte
}

// Put stores or replaces a resource
func (m *MemoryProtocol) Put(name string, data []byte) {
	rel, err := cleanPath(name)
	if err != nil {
		return
	}
	m.mutex.Lock()
	m.files[rel] = data
	m.mutex.Unlock()
}

// Remove deletes a resource
func (m *MemoryProtocol) Remove(name string) {
	rel, err := cleanPath(name)
	if err != nil {
		return
	}
	m.mutex.Lock()
	delete(m.files, rel)
	m.mutex.Unlock()
}

// Open implements asset.Protocol
func (m *MemoryProtocol) Open(url asset.URL) (asset.Stream, error) {
	rel, err := cleanPath(url.Path())
	if err != nil {
		return nil, err
	}
	m.mutex.RLock()
	data, ok := m.files[rel]
	m.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return NewStream(ioutil.NopCloser(bytes.NewReader(data)), rel), nil
}

// CanProvideMimeType implements asset.Protocol
func (m *MemoryProtocol) CanProvideMimeType() bool {
	return true
}
