// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/devblok/koruasset/asset"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		raw      string
		mimeType string
		scheme   string
		path     string
		params   []asset.Param
	}{
		{"file://assets/ui.png", "", "file", "assets/ui.png", nil},
		{"image/png file://assets/ui.png", "image/png", "file", "assets/ui.png", nil},
		{"test://this is a test?name=basic", "", "test", "this is a test", []asset.Param{{Key: "name", Value: "basic"}}},
		{"kar://a/b?z=1&a=2&empty=", "", "kar", "a/b", []asset.Param{{"z", "1"}, {"a", "2"}, {"empty", ""}}},
		{"font/ttf res://fonts/go.ttf?q=a=b", "font/ttf", "res", "fonts/go.ttf", []asset.Param{{"q", "a=b"}}},
	}

	for _, tc := range cases {
		u, err := asset.ParseURL(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if u.MimeType() != tc.mimeType || u.Scheme() != tc.scheme || u.Path() != tc.path {
			t.Errorf("%s: parsed as %q %q %q", tc.raw, u.MimeType(), u.Scheme(), u.Path())
		}
		if len(tc.params) > 0 && !reflect.DeepEqual(u.Params(), tc.params) {
			t.Errorf("%s: params %v", tc.raw, u.Params())
		}
		if u.String() != tc.raw {
			t.Errorf("canonical form of %s is %s", tc.raw, u.String())
		}
	}
}

func TestParseURLErrors(t *testing.T) {
	for _, raw := range []string{
		"no separator",
		"file://",
		"file://   ",
		"file://   ?a=b",
		"://path",
		"image/png ://path",
		"file://path?novalue",
		"file://path?a=1&b",
		"file://path?",
	} {
		if _, err := asset.ParseURL(raw); !errors.Is(err, asset.ErrFormat) {
			t.Errorf("%q: expected format error, got %v", raw, err)
		}
	}
}

func TestURLIdentity(t *testing.T) {
	a := asset.MustParseURL("file://x.png?b=1&a=2")
	b := asset.MustParseURL("file://x.png?b=1&a=2")
	c := asset.MustParseURL("file://x.png?a=2&b=1")
	if !a.Equal(b) {
		t.Error("identical urls are not equal")
	}
	if a.Equal(c) {
		t.Error("parameter order is part of the identity")
	}

	typed := a.WithMimeType("image/png")
	if a.MimeType() != "" {
		t.Error("WithMimeType modified the original")
	}
	if typed.String() != "image/png file://x.png?b=1&a=2" {
		t.Errorf("unexpected canonical form %s", typed.String())
	}
	if typed.Equal(a) {
		t.Error("mime type is part of the identity")
	}
}

func TestVirtualPath(t *testing.T) {
	cases := []struct {
		raw   string
		vpath string
	}{
		{"image/png file://assets/image/ui/button.png", "Image/ui/button.png"},
		{"image/png file://assets/Image/button.png", "Image/button.png"},
		{"image/png file://assets/ui/button.png", "Image/assets/ui/button.png"},
		{"IMAGE/png file:///abs/images/x.png", "Image/abs/images/x.png"},
		{"file://assets/ui/button.png", "Untyped/assets/ui/button.png"},
		{"font/ttf file://fonts/go.ttf?namespace=menu", "menu/Font/fonts/go.ttf"},
		{"font/ttf file://font/go.ttf?namespace=menu/sub", "menu/sub/Font/go.ttf"},
		{"image/png file://a/b.png?vpath=Custom/place/b", "Custom/place/b"},
		{"image/png file://a/b.png?vpath=/Custom//b&namespace=ns", "ns/Custom/b"},
		{"test/basic test://this is a test?name=basic", "Test/basic"},
		{"layout/yaml mem://layout/menu.layout", "Layout/menu.layout"},
	}
	for _, tc := range cases {
		u := asset.MustParseURL(tc.raw)
		if got := u.VPath(); got != tc.vpath {
			t.Errorf("%s: expected %s, got %s", tc.raw, tc.vpath, got)
		}
	}
}

func TestVPathHelpers(t *testing.T) {
	if !reflect.DeepEqual(asset.SplitVPath("/a//b/c/"), []string{"a", "b", "c"}) {
		t.Error("split does not drop empty components")
	}
	if asset.JoinVPath("a", "b") != "a/b" {
		t.Error("join")
	}
	if !asset.InNamespace("ui/Image/x", "ui") || asset.InNamespace("uix/Image/x", "ui") || asset.InNamespace("ui", "ui") {
		t.Error("namespace prefix check")
	}
}
