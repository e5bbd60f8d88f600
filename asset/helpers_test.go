// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devblok/koruasset/asset"
	log "github.com/sirupsen/logrus"
)

func init() {
	quiet := log.New()
	quiet.SetOutput(ioutil.Discard)
	asset.SetLogger(quiet)
}

const testMimeType = "test/basic"

// testStream reports testMimeType and counts closes
type testStream struct {
	io.Reader
	closed *atomic.Int32
}

func (s testStream) Close() error {
	s.closed.Add(1)
	return nil
}

func (s testStream) MimeType() string {
	return testMimeType
}

// testProtocol serves the url path as the stream content
type testProtocol struct {
	closed    atomic.Int32
	noMime    bool
	failOpen  bool
	openCalls atomic.Int32
}

func (p *testProtocol) Open(url asset.URL) (asset.Stream, error) {
	p.openCalls.Add(1)
	if p.failOpen {
		return nil, errors.New("open failed")
	}
	return testStream{Reader: bytes.NewBufferString(url.Path()), closed: &p.closed}, nil
}

func (p *testProtocol) CanProvideMimeType() bool {
	return !p.noMime
}

type testAsset struct {
	Path     string
	Deps     []string
	released *atomic.Int32
}

func (a *testAsset) Release() error {
	a.released.Add(1)
	return nil
}

type otherAsset struct{}

// testFactory creates loaders that depend on every "dep" parameter,
// named relative to the Test type
type testFactory struct {
	mimeType  string
	creates   atomic.Int32
	released  atomic.Int32
	createdOn atomic.Int64
}

func (f *testFactory) MimeType() string {
	if f.mimeType == "" {
		return "test/*"
	}
	return f.mimeType
}

func (f *testFactory) Create(stream io.Reader, url asset.URL) (asset.Loader, error) {
	content, err := ioutil.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	if _, ok := url.Param("badfactory"); ok {
		return nil, errors.New("factory refused")
	}
	l := &testLoader{factory: f, path: string(content), url: url}
	for _, p := range url.Params() {
		if p.Key == "dep" {
			l.deps = append(l.deps, asset.JoinVPath("Test", p.Value))
		}
	}
	return l, nil
}

type testLoader struct {
	factory *testFactory
	url     asset.URL
	path    string
	deps    []string
}

func (l *testLoader) Load(deps asset.DepMap) asset.LoadResult {
	if _, ok := l.url.Param("nothing"); ok {
		return asset.Nothing()
	}
	if missing := deps.Missing(l.deps...); len(missing) > 0 {
		if _, ok := l.url.Param("onebyone"); ok {
			return asset.NeedsDependencies(missing[0])
		}
		return asset.NeedsDependencies(missing...)
	}
	for _, d := range l.deps {
		if _, ok := asset.Dep[*testAsset](deps, d); !ok {
			return asset.Failed(errors.New("dependency of the wrong type: " + d))
		}
	}
	return asset.Ready()
}

func (l *testLoader) Create() (asset.Asset, error) {
	l.factory.createdOn.Store(goroutineID())
	if _, ok := l.url.Param("failcreate"); ok {
		return nil, errors.New("create failed")
	}
	if _, ok := l.url.Param("panicscreate"); ok {
		panic("create exploded")
	}
	l.factory.creates.Add(1)
	return &testAsset{Path: l.path, Deps: l.deps, released: &l.factory.released}, nil
}

type fixture struct {
	protocol *testProtocol
	factory  *testFactory
	manager  *asset.Manager
	proxy    *asset.Proxy
}

func newFixture(t *testing.T, cfg asset.Configuration) *fixture {
	f := &fixture{
		protocol: &testProtocol{},
		factory:  &testFactory{},
	}
	reg := asset.NewRegistry(
		asset.WithProtocol("test", f.protocol),
		asset.WithFactory(f.factory),
	)
	f.manager = asset.NewManager(reg, cfg)
	f.proxy = f.manager.Proxy()
	t.Cleanup(f.manager.Destroy)
	return f
}

func (f *fixture) queue(t *testing.T, raw string) {
	t.Helper()
	u, err := asset.ParseURL(raw)
	if err != nil {
		t.Fatal(err)
	}
	f.proxy.Queue(u)
}

func (f *fixture) wait(t *testing.T) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	return f.manager.WaitAll(ctx)
}

func goroutineID() int64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	buf = buf[:bytes.IndexByte(buf, ' ')]
	id, _ := strconv.ParseInt(string(buf), 10, 64)
	return id
}

// lockedCounter is a mutex guarded counter for tests that run work on the pool
type lockedCounter struct {
	mutex sync.Mutex
	n     int
}

func (c *lockedCounter) inc() {
	c.mutex.Lock()
	c.n++
	c.mutex.Unlock()
}

func (c *lockedCounter) get() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.n
}
