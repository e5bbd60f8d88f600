// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package protocol_test

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/packr"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/protocol"
	"github.com/devblok/koruasset/utility/kar"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func readStream(c *qt.C, p asset.Protocol, url string) (string, string) {
	s, err := p.Open(asset.MustParseURL(url))
	c.Assert(err, qt.IsNil)
	defer s.Close()
	data, err := ioutil.ReadAll(s)
	c.Assert(err, qt.IsNil)
	return string(data), s.MimeType()
}

func TestMimeTypeByExtension(t *testing.T) {
	c := qt.New(t)
	for name, expected := range map[string]string{
		"a/b.png":      "image/png",
		"a/b.JPG":      "image/jpeg",
		"b.tif":        "image/tiff",
		"fonts/go.ttf": "font/ttf",
		"ui.layout":    "layout/yaml",
		"walk.anim":    "animation/yaml",
		"cube.dae":     "model/vnd.collada+xml",
		"noext":        "",
		"b.unknown":    "",
	} {
		c.Check(protocol.MimeTypeByExtension(name), qt.Equals, expected, qt.Commentf(name))
	}
}

func TestDetectMimeType(t *testing.T) {
	c := qt.New(t)
	c.Assert(protocol.DetectMimeType(pngHeader), qt.Equals, "image/png")
	c.Assert(protocol.DetectMimeType([]byte("just text")), qt.Equals, "text/plain")
	c.Assert(protocol.DetectMimeType(nil), qt.Equals, "")
}

func TestMemory(t *testing.T) {
	c := qt.New(t)
	mem := protocol.Memory(map[string][]byte{
		"img/sprite":  pngHeader,
		"ui/a.layout": []byte("widgets: []"),
	})
	c.Assert(mem.CanProvideMimeType(), qt.IsTrue)

	data, mimeType := readStream(c, mem, "mem://img/sprite")
	c.Assert(mimeType, qt.Equals, "image/png")
	c.Assert([]byte(data), qt.DeepEquals, pngHeader)

	data, mimeType = readStream(c, mem, "mem:///ui/a.layout")
	c.Assert(mimeType, qt.Equals, "layout/yaml")
	c.Assert(data, qt.Equals, "widgets: []")

	mem.Remove("ui/a.layout")
	_, err := mem.Open(asset.MustParseURL("mem://ui/a.layout"))
	c.Assert(errors.Is(err, protocol.ErrNotFound), qt.IsTrue)

	mem.Put("ui/b.layout", []byte("x"))
	data, _ = readStream(c, mem, "mem://ui/./b.layout")
	c.Assert(data, qt.Equals, "x")
}

func TestFile(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	c.Assert(os.MkdirAll(filepath.Join(root, "fonts"), os.ModePerm), qt.IsNil)
	c.Assert(ioutil.WriteFile(filepath.Join(root, "fonts", "go.ttf"), []byte("not really a font"), os.ModePerm), qt.IsNil)
	c.Assert(ioutil.WriteFile(filepath.Join(root, "readme"), []byte("plain text"), os.ModePerm), qt.IsNil)

	file := protocol.File(root)
	c.Assert(file.Root(), qt.Equals, root)

	data, mimeType := readStream(c, file, "file://fonts/go.ttf")
	c.Assert(mimeType, qt.Equals, "font/ttf")
	c.Assert(data, qt.Equals, "not really a font")

	data, mimeType = readStream(c, file, "file://readme")
	c.Assert(mimeType, qt.Equals, "text/plain")
	c.Assert(data, qt.Equals, "plain text")

	_, err := file.Open(asset.MustParseURL("file://missing.png"))
	c.Assert(errors.Is(err, protocol.ErrNotFound), qt.IsTrue)

	_, err = file.Open(asset.MustParseURL("file://fonts/../../etc/passwd"))
	c.Assert(errors.Is(err, protocol.ErrOutsideRoot), qt.IsTrue)
}

func TestKar(t *testing.T) {
	c := qt.New(t)

	builder, err := kar.NewBuilder(kar.Header{Author: "test", Version: 1})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	c.Assert(builder.Add("img/sprite.png", bytes.NewReader(pngHeader)), qt.IsNil)
	c.Assert(builder.Add("notes", bytes.NewReader([]byte("packed text"))), qt.IsNil)

	buf := bytes.NewBuffer(nil)
	_, err = builder.WriteTo(buf)
	c.Assert(err, qt.IsNil)
	archive, err := kar.Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)

	k := protocol.Kar(archive)
	data, mimeType := readStream(c, k, "kar://img/sprite.png")
	c.Assert(mimeType, qt.Equals, "image/png")
	c.Assert([]byte(data), qt.DeepEquals, pngHeader)

	data, mimeType = readStream(c, k, "kar://notes")
	c.Assert(mimeType, qt.Equals, "text/plain")
	c.Assert(data, qt.Equals, "packed text")

	_, err = k.Open(asset.MustParseURL("kar://nothing"))
	c.Assert(errors.Is(err, protocol.ErrNotFound), qt.IsTrue)
}

func TestBox(t *testing.T) {
	c := qt.New(t)
	box := protocol.Box(packr.NewBox("./testdata"))

	data, mimeType := readStream(c, box, "res://hello.txt")
	c.Assert(mimeType, qt.Equals, "text/plain")
	c.Assert(data, qt.Equals, "hello from the box\n")

	_, mimeType = readStream(c, box, "res://ui/main.layout")
	c.Assert(mimeType, qt.Equals, "layout/yaml")

	_, err := box.Open(asset.MustParseURL("res://none.txt"))
	c.Assert(errors.Is(err, protocol.ErrNotFound), qt.IsTrue)
}
