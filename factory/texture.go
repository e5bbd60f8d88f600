// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"fmt"
	"image"
	_ "image/gif"  // decoder
	_ "image/jpeg" // decoder
	_ "image/png"  // decoder
	"io"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // decoder
	_ "golang.org/x/image/tiff" // decoder
	_ "golang.org/x/image/webp" // decoder

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/gfx"
)

// Texture is an image uploaded to the backend
type Texture struct {
	ID     gfx.TextureID
	Width  int
	Height int
	Format string

	backend gfx.Backend
}

// Release implements asset.Releaser
func (t *Texture) Release() error {
	return t.backend.DeleteTexture(t.ID)
}

// TextureFactory decodes every image format it has a decoder for
func TextureFactory(backend gfx.Backend) asset.Factory {
	return &textureFactory{backend: backend}
}

type textureFactory struct {
	backend gfx.Backend
}

func (f *textureFactory) MimeType() string {
	return MimeImage
}

func (f *textureFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	img, format, err := image.Decode(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, url.MimeType(), err)
	}
	pixels, err := gfx.GetPixels(img, 0)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	asset.Logger().WithFields(log.Fields{
		"url":    url.String(),
		"format": format,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	}).Debug("texture decoded")

	return readyLoader{create: func() (asset.Asset, error) {
		id, err := f.backend.CreateTexture(bounds.Dx(), bounds.Dy(), pixels)
		if err != nil {
			return nil, err
		}
		return &Texture{
			ID:      id,
			Width:   bounds.Dx(),
			Height:  bounds.Dy(),
			Format:  format,
			backend: f.backend,
		}, nil
	}}, nil
}
