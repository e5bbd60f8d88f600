// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package protocol

import (
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/utility/kar"
)

// Kar serves resources packed in a kar archive. Files are decompressed
// while being read, the archive may be memory mapped with kar.OpenFile.
func Kar(archive *kar.Archive) *KarProtocol {
	return &KarProtocol{archive: archive}
}

// KarProtocol opens files from a kar archive
type KarProtocol struct {
	archive *kar.Archive
}

// Open implements asset.Protocol
func (k *KarProtocol) Open(url asset.URL) (asset.Stream, error) {
	rel, err := cleanPath(url.Path())
	if err != nil {
		return nil, err
	}
	r, err := k.archive.Open(rel)
	if errors.Is(err, kar.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	} else if err != nil {
		return nil, err
	}
	return NewStream(ioutil.NopCloser(r), rel), nil
}

// CanProvideMimeType implements asset.Protocol
func (k *KarProtocol) CanProvideMimeType() bool {
	return true
}
