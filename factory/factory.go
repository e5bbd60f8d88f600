// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package factory turns raw asset data into mounted engine resources.
//
// Decoding happens inside Factory.Create and Loader.Load, on the asset
// workers. Anything touching the gfx.Backend waits for Loader.Create,
// which the asset.Manager calls on the goroutine owning the backend.
package factory

import (
	"errors"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/gfx"
)

// Mime types the factories are registered under
const (
	MimeImage     = "image/*"
	MimeFont      = "font/*"
	MimeLayout    = "layout/yaml"
	MimeAnimation = "animation/yaml"
	MimeMesh      = "model/vnd.collada+xml"
)

// package errors
var (
	ErrDecode          = errors.New("asset data could not be decoded")
	ErrWrongDependency = errors.New("dependency has the wrong type")
)

// Register returns registry options for every factory in the package
func Register(backend gfx.Backend) []asset.RegistryOption {
	return []asset.RegistryOption{
		asset.WithFactory(TextureFactory(backend)),
		asset.WithFactory(FontFactory()),
		asset.WithFactory(LayoutFactory()),
		asset.WithFactory(AnimationFactory()),
		asset.WithFactory(MeshFactory(backend)),
	}
}

// readyLoader has everything it needs once the factory is done with the stream
type readyLoader struct {
	create func() (asset.Asset, error)
}

func (l readyLoader) Load(asset.DepMap) asset.LoadResult {
	return asset.Ready()
}

func (l readyLoader) Create() (asset.Asset, error) {
	return l.create()
}
