// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/factory"
	"github.com/devblok/koruasset/gfx"
	"github.com/devblok/koruasset/protocol"
)

func init() {
	quiet := log.New()
	quiet.Out = ioutil.Discard
	asset.SetLogger(quiet)
}

func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	field := strings.Fields(strings.TrimPrefix(string(buf), "goroutine "))[0]
	id, _ := strconv.ParseUint(field, 10, 64)
	return id
}

type env struct {
	c       *qt.C
	backend *gfx.Headless
	mem     *protocol.MemoryProtocol
	manager *asset.Manager
	proxy   *asset.Proxy
}

// newEnv wires every factory to a headless backend that refuses calls
// from any goroutine but the test's own
func newEnv(t *testing.T) *env {
	owner := goroutineID()
	backend := gfx.NewHeadless(gfx.WithAffinityCheck(func() error {
		if id := goroutineID(); id != owner {
			return fmt.Errorf("goroutine %d, owner is %d", id, owner)
		}
		return nil
	}))
	mem := protocol.Memory(nil)

	opts := append(factory.Register(backend), asset.WithProtocol(protocol.SchemeMem, mem))
	cfg := asset.DefaultConfiguration
	cfg.MaxAttempts = 400
	cfg.DependencyWait = 5 * time.Millisecond
	manager := asset.NewManager(asset.NewRegistry(opts...), cfg)
	t.Cleanup(manager.Destroy)

	return &env{
		c:       qt.New(t),
		backend: backend,
		mem:     mem,
		manager: manager,
		proxy:   manager.Proxy(),
	}
}

func (e *env) queue(urls ...string) {
	for _, u := range urls {
		e.proxy.Queue(asset.MustParseURL(u))
	}
}

func (e *env) wait() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	err := e.manager.WaitAll(ctx)
	e.c.Assert(errors.Is(err, context.DeadlineExceeded), qt.IsFalse)
	return err
}

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(c *qt.C, w, h int) []byte {
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, testImage(w, h)), qt.IsNil)
	return buf.Bytes()
}

func encodeBMP(c *qt.C, w, h int) []byte {
	var buf bytes.Buffer
	c.Assert(bmp.Encode(&buf, testImage(w, h)), qt.IsNil)
	return buf.Bytes()
}
