// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/gfx"
	"github.com/devblok/koruasset/model"
)

// Mesh is a model whose vertices live on the backend
type Mesh struct {
	ID     gfx.MeshID
	Object model.Object

	backend gfx.Backend
}

// Release implements asset.Releaser
func (m *Mesh) Release() error {
	return m.backend.DeleteMesh(m.ID)
}

// MeshFactory imports COLLADA documents
func MeshFactory(backend gfx.Backend) asset.Factory {
	return &meshFactory{backend: backend}
}

type meshFactory struct {
	backend gfx.Backend
}

func (f *meshFactory) MimeType() string {
	return MimeMesh
}

func (f *meshFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	data, err := ioutil.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	obj, err := model.ImportColladaObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, url.MimeType(), err)
	}

	return readyLoader{create: func() (asset.Asset, error) {
		id, err := f.backend.CreateMesh(obj.Vertices())
		if err != nil {
			return nil, err
		}
		return &Mesh{ID: id, Object: obj, backend: f.backend}, nil
	}}, nil
}
