// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/koruasset/model"
)

// TextureInfo describes a texture held by the Headless backend
type TextureInfo struct {
	Width  int
	Height int
	Size   int
}

// HeadlessOption configures a Headless backend
type HeadlessOption func(*Headless)

// WithAffinityCheck installs a hook run before every backend call,
// an error from it fails the call
func WithAffinityCheck(check func() error) HeadlessOption {
	return func(h *Headless) {
		h.affinity = check
	}
}

// NewHeadless creates a backend that keeps resources in memory only
func NewHeadless(opts ...HeadlessOption) *Headless {
	h := &Headless{
		textures: make(map[TextureID]TextureInfo),
		meshes:   make(map[MeshID]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Headless is a Backend without a device, used by tools and tests.
// It tracks what was created so leaks can be observed.
type Headless struct {
	affinity func() error

	mutex    sync.Mutex
	next     uint32
	textures map[TextureID]TextureInfo
	meshes   map[MeshID]int
}

func (h *Headless) check() error {
	if h.affinity == nil {
		return nil
	}
	if err := h.affinity(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrongThread, err)
	}
	return nil
}

// CreateTexture implements Backend
func (h *Headless) CreateTexture(width, height int, pixels []uint8) (TextureID, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	if width <= 0 || height <= 0 || len(pixels) < 4*width*height {
		return 0, ErrInvalidTexture
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.next++
	id := TextureID(h.next)
	h.textures[id] = TextureInfo{Width: width, Height: height, Size: len(pixels)}
	log.WithFields(log.Fields{"texture": id, "width": width, "height": height}).Debug("texture created")
	return id, nil
}

// DeleteTexture implements Backend
func (h *Headless) DeleteTexture(id TextureID) error {
	if err := h.check(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.textures[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	delete(h.textures, id)
	return nil
}

// CreateMesh implements Backend
func (h *Headless) CreateMesh(vertices []model.Vertex) (MeshID, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	if len(vertices) == 0 {
		return 0, ErrInvalidMesh
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.next++
	id := MeshID(h.next)
	h.meshes[id] = len(vertices)
	log.WithFields(log.Fields{"mesh": id, "vertices": len(vertices)}).Debug("mesh created")
	return id, nil
}

// DeleteMesh implements Backend
func (h *Headless) DeleteMesh(id MeshID) error {
	if err := h.check(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.meshes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMesh, id)
	}
	delete(h.meshes, id)
	return nil
}

// Texture returns the info of a live texture
func (h *Headless) Texture(id TextureID) (TextureInfo, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	info, ok := h.textures[id]
	return info, ok
}

// Textures is the number of live textures
func (h *Headless) Textures() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.textures)
}

// Meshes is the number of live meshes
func (h *Headless) Meshes() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.meshes)
}
