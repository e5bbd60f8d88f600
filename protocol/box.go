// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package protocol

import (
	"bytes"
	"fmt"
	"io/ioutil"

	"github.com/gobuffalo/packr"

	"github.com/devblok/koruasset/asset"
)

// Box serves resources from a packr box, so they can be
// compiled into the binary
func Box(box packr.Box) *BoxProtocol {
	return &BoxProtocol{box: box}
}

// BoxProtocol opens files from a packr box
type BoxProtocol struct {
	box packr.Box
}

// Open implements asset.Protocol
func (b *BoxProtocol) Open(url asset.URL) (asset.Stream, error) {
	rel, err := cleanPath(url.Path())
	if err != nil {
		return nil, err
	}
	if !b.box.Has(rel) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	data, err := b.box.Find(rel)
	if err != nil {
		return nil, err
	}
	return NewStream(ioutil.NopCloser(bytes.NewReader(data)), rel), nil
}

// CanProvideMimeType implements asset.Protocol
func (b *BoxProtocol) CanProvideMimeType() bool {
	return true
}
