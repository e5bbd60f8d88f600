// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/devblok/koruasset/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Collada import errors
var (
	ErrNoGeometry     = errors.New("collada document has no geometry")
	ErrSourceNotFound = errors.New("source type not found")
	ErrIndexRange     = errors.New("triangle index out of range")
)

// DefaultColor is given to imported vertices, Collada colors are not read
var DefaultColor = glm.Vec4{1.0, 1.0, 0.0, 1.0}

// ImportColladaObject reads given file and converts Collada object to
// engine's internal object. Only the first geometry is imported.
func ImportColladaObject(fileContents []byte) (*ColladaObject, error) {
	colladaModel, err := collada.Parse(fileContents)
	if err != nil {
		return nil, err
	}
	if len(colladaModel.Geometries) == 0 {
		return nil, ErrNoGeometry
	}

	geometry := colladaModel.Geometries[0]
	mesh := geometry.Mesh
	positions, err := findSource(mesh.Source, "positions")
	if err != nil {
		return nil, err
	}
	normals, _ := findSource(mesh.Source, "normals")

	stride, vertexOffset, normalOffset := 1, 0, -1
	for _, in := range mesh.Triangles.Inputs {
		if int(in.Offset)+1 > stride {
			stride = int(in.Offset) + 1
		}
		switch in.Semantic {
		case "VERTEX":
			vertexOffset = int(in.Offset)
		case "NORMAL":
			normalOffset = int(in.Offset)
		}
	}

	var vertices []Vertex
	for idx := 0; idx < len(mesh.Triangles.Index)/stride; idx++ {
		indices := mesh.Triangles.Index[stride*idx : (stride*idx)+stride]

		var vert Vertex
		if vert.Pos, err = vec3At(positions.Floats.Data, indices[vertexOffset]); err != nil {
			return nil, err
		}
		if normalOffset >= 0 && len(normals.Floats.Data) > 0 {
			if vert.Normal, err = vec3At(normals.Floats.Data, indices[normalOffset]); err != nil {
				return nil, err
			}
		}
		vert.Color = DefaultColor
		vertices = append(vertices, vert)
	}

	return &ColladaObject{
		name:     geometry.Name,
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}, nil
}

// ColladaObject is imported from a collada (.dae) file.
// Loaded and held in memory
type ColladaObject struct {
	name string

	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

// Name is the geometry name in the source document
func (co *ColladaObject) Name() string {
	return co.name
}

// SetPosition implements interface
func (co *ColladaObject) SetPosition(pos glm.Mat4) {
	co.mutex.Lock()
	co.position = pos
	co.mutex.Unlock()
}

// Position implements interface
func (co *ColladaObject) Position() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.position
}

// SetRotation implements interface
func (co *ColladaObject) SetRotation(rot glm.Mat4) {
	co.mutex.Lock()
	co.rotation = rot
	co.mutex.Unlock()
}

// Rotation implements interface
func (co *ColladaObject) Rotation() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.rotation
}

// Vertices implements interface
func (co *ColladaObject) Vertices() []Vertex {
	return co.vertices
}

func vec3At(data []float32, index int) (glm.Vec3, error) {
	if index < 0 || 3*index+2 >= len(data) {
		return glm.Vec3{}, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	return glm.Vec3{data[3*index], data[3*index+1], data[3*index+2]}, nil
}

func findSource(sources []collada.Source, dataType string) (collada.Source, error) {
	for _, s := range sources {
		if strings.HasSuffix(s.ID, fmt.Sprintf("-%s", dataType)) {
			return s, nil
		}
	}
	return collada.Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, dataType)
}
