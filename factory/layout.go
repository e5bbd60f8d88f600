// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"fmt"
	"io"

	glm "github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/devblok/koruasset/asset"
)

// Layout is a tree of widgets, its fonts and textures are dependencies
type Layout struct {
	Name    string
	Size    glm.Vec2
	Widgets []Widget
}

// Widget is one positioned element of a Layout
type Widget struct {
	ID       string
	Kind     string
	Text     string
	Position glm.Vec2
	Size     glm.Vec2
	Font     *Font
	Texture  *Texture
	Children []Widget
}

// Find returns the widget with the given id, searching depth first
func (l *Layout) Find(id string) (*Widget, bool) {
	return findWidget(l.Widgets, id)
}

func findWidget(widgets []Widget, id string) (*Widget, bool) {
	for i := range widgets {
		if widgets[i].ID == id {
			return &widgets[i], true
		}
		if w, ok := findWidget(widgets[i].Children, id); ok {
			return w, true
		}
	}
	return nil, false
}

type layoutDocument struct {
	Name    string           `yaml:"name"`
	Size    [2]float32       `yaml:"size"`
	Widgets []widgetDocument `yaml:"widgets"`
}

type widgetDocument struct {
	ID       string           `yaml:"id"`
	Kind     string           `yaml:"kind"`
	Text     string           `yaml:"text"`
	Position [2]float32       `yaml:"position"`
	Size     [2]float32       `yaml:"size"`
	Font     string           `yaml:"font"`
	Texture  string           `yaml:"texture"`
	Children []widgetDocument `yaml:"children"`
}

// LayoutFactory reads yaml widget trees
func LayoutFactory() asset.Factory {
	return layoutFactory{}
}

type layoutFactory struct{}

func (layoutFactory) MimeType() string {
	return MimeLayout
}

func (layoutFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	var doc layoutDocument
	if err := yaml.NewDecoder(stream).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, url.MimeType(), err)
	}
	l := &layoutLoader{doc: doc}
	l.collect(doc.Widgets)
	return l, nil
}

type layoutLoader struct {
	doc      layoutDocument
	fonts    []string
	textures []string
	deps     asset.DepMap
}

func (l *layoutLoader) collect(widgets []widgetDocument) {
	for _, w := range widgets {
		if w.Font != "" {
			l.fonts = append(l.fonts, w.Font)
		}
		if w.Texture != "" {
			l.textures = append(l.textures, w.Texture)
		}
		l.collect(w.Children)
	}
}

func (l *layoutLoader) Load(deps asset.DepMap) asset.LoadResult {
	all := append(append([]string(nil), l.fonts...), l.textures...)
	if missing := deps.Missing(all...); len(missing) > 0 {
		return asset.NeedsDependencies(missing...)
	}
	for _, vpath := range l.fonts {
		if _, ok := asset.Dep[*Font](deps, vpath); !ok {
			return asset.Failed(fmt.Errorf("%w: %s is not a font", ErrWrongDependency, vpath))
		}
	}
	for _, vpath := range l.textures {
		if _, ok := asset.Dep[*Texture](deps, vpath); !ok {
			return asset.Failed(fmt.Errorf("%w: %s is not a texture", ErrWrongDependency, vpath))
		}
	}
	l.deps = deps
	return asset.Ready()
}

func (l *layoutLoader) Create() (asset.Asset, error) {
	return &Layout{
		Name:    l.doc.Name,
		Size:    glm.Vec2(l.doc.Size),
		Widgets: l.widgets(l.doc.Widgets),
	}, nil
}

func (l *layoutLoader) widgets(docs []widgetDocument) []Widget {
	var widgets []Widget
	for _, d := range docs {
		w := Widget{
			ID:       d.ID,
			Kind:     d.Kind,
			Text:     d.Text,
			Position: glm.Vec2(d.Position),
			Size:     glm.Vec2(d.Size),
			Children: l.widgets(d.Children),
		}
		if d.Font != "" {
			w.Font, _ = asset.Dep[*Font](l.deps, d.Font)
		}
		if d.Texture != "" {
			w.Texture, _ = asset.Dep[*Texture](l.deps, d.Texture)
		}
		widgets = append(widgets, w)
	}
	return widgets
}
