// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package protocol

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/devblok/koruasset/asset"
)

// File serves resources from a directory on disk
func File(root string) *FileProtocol {
	return &FileProtocol{root: root}
}

// FileProtocol opens files relative to its root directory
type FileProtocol struct {
	root string
}

// Root returns the directory the protocol serves
func (f *FileProtocol) Root() string {
	return f.root
}

// Open implements asset.Protocol
func (f *FileProtocol) Open(url asset.URL) (asset.Stream, error) {
	rel, err := cleanPath(url.Path())
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(f.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	} else if err != nil {
		return nil, err
	}
	return NewStream(file, rel), nil
}

// CanProvideMimeType implements asset.Protocol
func (f *FileProtocol) CanProvideMimeType() bool {
	return true
}
