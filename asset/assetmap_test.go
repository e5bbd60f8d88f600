// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devblok/koruasset/asset"
)

func TestAssetMapLocking(t *testing.T) {
	m := asset.NewAssetMap()

	if _, ok := m.Lock("missing"); ok {
		t.Error("locked an absent entry")
	}
	if m.IsLocked("missing") {
		t.Error("absent entry reported locked")
	}

	m.Push(asset.NewEntry("Test/a", 1))
	m.Lock("Test/a")
	m.Lock("Test/a")
	if m.LockCount("Test/a") != 2 {
		t.Fatalf("expected two locks, got %d", m.LockCount("Test/a"))
	}

	m.Unlock("Test/a")
	m.Unlock("Test/a")
	m.Unlock("Test/a")
	if m.IsLocked("Test/a") || m.LockCount("Test/a") != 0 {
		t.Error("lock count went wrong after unlocking")
	}

	m.Lock("Test/a")
	if !m.IsLocked("Test/a") {
		t.Error("lock not counted after dropping to zero")
	}
}

func TestAssetMapTable(t *testing.T) {
	m := asset.NewAssetMap()
	m.Push(asset.NewEntry("ui/Image/a", "a"))
	m.Push(asset.NewEntry("ui/Image/b", "b"))
	m.Push(asset.NewEntry("Image/c", "c"))

	if m.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", m.Len())
	}

	replacement := asset.NewEntry("Image/c", "c2")
	m.Push(replacement)
	if e, _ := m.Get("Image/c"); e != replacement {
		t.Error("push did not replace")
	}

	got := m.Filter(func(e *asset.Entry) bool { return strings.HasPrefix(e.VPath(), "ui/") })
	if !reflect.DeepEqual(got, []string{"ui/Image/a", "ui/Image/b"}) {
		t.Errorf("unexpected filter result %v", got)
	}

	m.Remove("ui/Image/a")
	if _, ok := m.Get("ui/Image/a"); ok {
		t.Error("entry still present after remove")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestAssetMapConcurrentLocks(t *testing.T) {
	m := asset.NewAssetMap()
	for idx := 0; idx < 10; idx++ {
		m.Push(asset.NewEntry(fmt.Sprintf("Test/%d", idx), idx))
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := 0; idx < 1000; idx++ {
				vp := fmt.Sprintf("Test/%d", idx%10)
				if _, ok := m.Lock(vp); !ok {
					t.Error("lock failed on present entry")
					return
				}
				m.Filter(nil)
				m.Unlock(vp)
			}
		}()
	}
	wg.Wait()

	for idx := 0; idx < 10; idx++ {
		if m.IsLocked(fmt.Sprintf("Test/%d", idx)) {
			t.Errorf("Test/%d left locked", idx)
		}
	}
}

func TestAssetMapFilterCallsBackWhileWriterWaits(t *testing.T) {
	m := asset.NewAssetMap()
	m.Push(asset.NewEntry("Test/a", 1))
	m.Push(asset.NewEntry("Test/b", 2))

	done := make(chan []string)
	go func() {
		done <- m.Filter(func(e *asset.Entry) bool {
			pushed := make(chan struct{})
			go func() {
				m.Push(asset.NewEntry("Test/"+e.VPath()+"/c", 3))
				close(pushed)
			}()
			// give the writer time to queue up on the lock
			time.Sleep(20 * time.Millisecond)
			_, ok := m.Get(e.VPath())
			<-pushed
			return ok && m.Len() > 0
		})
	}()

	select {
	case vpaths := <-done:
		if !reflect.DeepEqual(vpaths, []string{"Test/a", "Test/b"}) {
			t.Errorf("unexpected filter result %v", vpaths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("filter callback blocked on the map")
	}
	if m.Len() != 4 {
		t.Errorf("expected 4 entries after the pushes, got %d", m.Len())
	}
}
