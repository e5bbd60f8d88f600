// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"errors"
	"testing"
	"time"

	"github.com/devblok/koruasset/asset"
)

func TestPoolRunsEverything(t *testing.T) {
	pool := asset.NewPool(4)
	var count lockedCounter
	var futures []*asset.Future
	for idx := 0; idx < 1000; idx++ {
		f, err := pool.Submit(count.inc)
		if err != nil {
			t.Fatal(err)
		}
		futures = append(futures, f)
	}
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-time.After(10 * time.Second):
			t.Fatal("work never ran")
		}
	}
	pool.Close()
	if count.get() != 1000 {
		t.Errorf("expected 1000 runs, got %d", count.get())
	}
}

func TestPoolStealsFromBusyWorker(t *testing.T) {
	pool := asset.NewPool(2)
	defer pool.Close()

	block := make(chan struct{})
	blocked, _ := pool.Submit(func() { <-block })

	// half of these land behind the blocked job's queue
	var futures []*asset.Future
	for idx := 0; idx < 10; idx++ {
		f, _ := pool.Submit(func() {})
		futures = append(futures, f)
	}
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-time.After(10 * time.Second):
			t.Fatal("queued work was not stolen from the blocked worker")
		}
	}
	if blocked.IsDone() {
		t.Error("blocked job finished early")
	}
	close(block)
	<-blocked.Done()
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := asset.NewPool(1)
	notify := make(chan struct{}, 1)
	f, err := pool.SubmitNotify(func() { panic("boom") }, notify)
	if err != nil {
		t.Fatal(err)
	}
	<-notify
	if !f.IsDone() || f.Err() == nil {
		t.Error("panic was not captured by the future")
	}
	pool.Close()

	if _, err := pool.Submit(func() {}); !errors.Is(err, asset.ErrPoolClosed) {
		t.Errorf("expected closed pool error, got %v", err)
	}
}
