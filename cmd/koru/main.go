// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command koru runs the engine loop headless: it queues the asset URLs
// given as arguments, pumps the asset manager on the frame ticker and
// reports what got mounted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/koruasset/asset"
	"github.com/devblok/koruasset/core"
	"github.com/devblok/koruasset/factory"
	"github.com/devblok/koruasset/gfx"
	"github.com/devblok/koruasset/protocol"
	"github.com/devblok/koruasset/utility/kar"
)

func init() {
	runtime.LockOSThread()
}

var (
	rootDir  = flag.String("root", ".", "directory served by the file protocol")
	archive  = flag.String("kar", "", "kar archive served by the kar protocol")
	envFiles = flag.String("env", "", "comma separated .env files to load")
	exit     = flag.Bool("exit", false, "exit once every queued asset is loaded")
	verbose  = flag.Bool("v", false, "verbose logging")
)

// builtin resources are compiled into the binary by packr
var builtin = packr.NewBox("./resources")

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(); err != nil {
		log.WithError(err).Fatal("koru exited")
	}
}

func run() error {
	var files []string
	if *envFiles != "" {
		files = strings.Split(*envFiles, ",")
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		return err
	}

	backend := gfx.NewHeadless()
	opts := append(factory.Register(backend),
		asset.WithProtocol(protocol.SchemeFile, protocol.File(*rootDir)),
		asset.WithProtocol(protocol.SchemeRes, protocol.Box(builtin)),
	)
	if *archive != "" {
		ar, err := kar.OpenFile(*archive)
		if err != nil {
			return err
		}
		defer ar.Close()
		opts = append(opts, asset.WithProtocol(protocol.SchemeKar, protocol.Kar(ar)))
	}

	manager := asset.NewManager(asset.NewRegistry(opts...), configuration.Assets)
	defer manager.Destroy()

	proxy := manager.Proxy()
	for _, arg := range flag.Args() {
		url, err := asset.ParseURL(arg)
		if err != nil {
			return err
		}
		proxy.Queue(url)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	time := core.NewTime(configuration.Time)
	defer time.Stop()

EventLoop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Event loop exited")
			break EventLoop
		case <-time.FpsTicker().C:
			manager.Update()
			time.Frame()
		case <-time.EventTicker().C:
			if err := manager.Failures(); err != nil {
				log.WithError(err).Warn("assets failed to load")
			}
			if *exit && manager.Idle() {
				break EventLoop
			}
		}
	}

	for _, vpath := range proxy.Filter(nil) {
		fmt.Println(vpath)
	}
	log.WithFields(log.Fields{
		"assets":   manager.Len(),
		"textures": backend.Textures(),
		"meshes":   backend.Meshes(),
		"elapsed":  time.Elapsed(),
	}).Info("engine stopped")
	return nil
}
