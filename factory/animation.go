// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"fmt"
	"io"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/devblok/koruasset/asset"
)

// Animation is a sequence of textured frames
type Animation struct {
	Name   string
	Loop   bool
	Frames []Frame
}

// Frame is one step of an Animation
type Frame struct {
	Texture   *Texture
	Duration  time.Duration
	Transform glm.Mat4
}

// Duration is the length of one pass through all frames
func (a *Animation) Duration() time.Duration {
	var total time.Duration
	for _, f := range a.Frames {
		total += f.Duration
	}
	return total
}

// FrameAt returns the frame shown at elapsed time
func (a *Animation) FrameAt(elapsed time.Duration) (Frame, bool) {
	total := a.Duration()
	if len(a.Frames) == 0 || total <= 0 {
		return Frame{}, false
	}
	if elapsed >= total {
		if !a.Loop {
			return a.Frames[len(a.Frames)-1], true
		}
		elapsed %= total
	}
	for _, f := range a.Frames {
		if elapsed < f.Duration {
			return f, true
		}
		elapsed -= f.Duration
	}
	return a.Frames[len(a.Frames)-1], true
}

type animationDocument struct {
	Name   string          `yaml:"name"`
	Loop   bool            `yaml:"loop"`
	Frames []frameDocument `yaml:"frames"`
}

type frameDocument struct {
	Texture   string        `yaml:"texture"`
	Duration  time.Duration `yaml:"duration"`
	Translate [3]float32    `yaml:"translate"`
	Rotate    float32       `yaml:"rotate"`
	Scale     *[3]float32   `yaml:"scale"`
}

func (d frameDocument) transform() glm.Mat4 {
	scale := glm.Vec3{1, 1, 1}
	if d.Scale != nil {
		scale = glm.Vec3(*d.Scale)
	}
	return glm.Translate3D(d.Translate[0], d.Translate[1], d.Translate[2]).
		Mul4(glm.HomogRotate3DZ(glm.DegToRad(d.Rotate))).
		Mul4(glm.Scale3D(scale[0], scale[1], scale[2]))
}

// AnimationFactory reads yaml frame lists. Frame textures are awaited one
// at a time from the loader's own goroutine.
func AnimationFactory() asset.Factory {
	return animationFactory{}
}

type animationFactory struct{}

func (animationFactory) MimeType() string {
	return MimeAnimation
}

func (animationFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	var doc animationDocument
	if err := yaml.NewDecoder(stream).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, url.MimeType(), err)
	}

	return asset.NewAsyncLoader(func(await asset.AwaitFunc) (asset.CreateFunc, error) {
		if len(doc.Frames) == 0 {
			return nil, nil
		}

		frames := make([]Frame, 0, len(doc.Frames))
		for _, fd := range doc.Frames {
			deps, err := await(fd.Texture)
			if err != nil {
				return nil, err
			}
			tex, ok := asset.Dep[*Texture](deps, fd.Texture)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a texture", ErrWrongDependency, fd.Texture)
			}
			frames = append(frames, Frame{
				Texture:   tex,
				Duration:  fd.Duration,
				Transform: fd.transform(),
			})
		}

		return func() (asset.Asset, error) {
			return &Animation{
				Name:   doc.Name,
				Loop:   doc.Loop,
				Frames: frames,
			}, nil
		}, nil
	}), nil
}
