// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx describes the rendering backend the asset factories upload
// resources to. Backends are thread-affine: every call must be made from
// the goroutine that owns the backend, which is the one pumping
// asset.Manager.Update. Worker goroutines never touch a Backend.
package gfx

import (
	"errors"
	"image"
	"image/draw"

	"github.com/devblok/koruasset/model"
)

// package errors
var (
	ErrInvalidTexture = errors.New("invalid texture dimensions or data")
	ErrInvalidMesh    = errors.New("mesh has no vertices")
	ErrUnknownTexture = errors.New("unknown texture")
	ErrUnknownMesh    = errors.New("unknown mesh")
	ErrWrongThread    = errors.New("backend used outside of its owning thread")
)

// TextureID identifies a texture uploaded to a Backend
type TextureID uint32

// MeshID identifies a mesh uploaded to a Backend
type MeshID uint32

// Backend is the rendering api resources are created with
type Backend interface {
	// CreateTexture uploads tightly packed RGBA pixels
	CreateTexture(width, height int, pixels []uint8) (TextureID, error)
	DeleteTexture(TextureID) error

	CreateMesh(vertices []model.Vertex) (MeshID, error)
	DeleteMesh(MeshID) error
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas. A rowPitch
// wider than the image pads every row, anything smaller is ignored.
func GetPixels(img image.Image, rowPitch int) ([]uint8, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrInvalidTexture
	}
	canvas := image.NewRGBA(bounds)
	if rowPitch > canvas.Stride {
		canvas.Stride = rowPitch
		canvas.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)
	return canvas.Pix, nil
}
