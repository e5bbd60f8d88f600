// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"fmt"
	"io"
	"io/ioutil"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/devblok/koruasset/asset"
)

// Font is a parsed TrueType or OpenType font. Faces are created on
// demand and are not safe for concurrent use, the Font itself is.
type Font struct {
	Family     string
	UnitsPerEm int

	font *opentype.Font
}

// Face returns a face for the given size in points
func (f *Font) Face(size, dpi float64) (font.Face, error) {
	return opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// Metrics returns the metrics of the font at the given size
func (f *Font) Metrics(size, dpi float64) (font.Metrics, error) {
	face, err := f.Face(size, dpi)
	if err != nil {
		return font.Metrics{}, err
	}
	defer face.Close()
	return face.Metrics(), nil
}

// NumGlyphs is the number of glyphs in the font
func (f *Font) NumGlyphs() int {
	return f.font.NumGlyphs()
}

// FontFactory parses fonts, nothing is uploaded to the backend
func FontFactory() asset.Factory {
	return fontFactory{}
}

type fontFactory struct{}

func (fontFactory) MimeType() string {
	return MimeFont
}

func (fontFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	data, err := ioutil.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, url.MimeType(), err)
	}

	var buf sfnt.Buffer
	family, err := parsed.Name(&buf, sfnt.NameIDFamily)
	if err != nil && err != sfnt.ErrNotFound {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f := &Font{
		Family:     family,
		UnitsPerEm: int(parsed.UnitsPerEm()),
		font:       parsed,
	}
	return readyLoader{create: func() (asset.Asset, error) {
		return f, nil
	}}, nil
}
