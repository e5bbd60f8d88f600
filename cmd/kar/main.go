// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command kar creates, lists and extracts kar archives.
//
//	kar create -o assets.kar [-author name] dir
//	kar list assets.kar
//	kar extract -o dir assets.kar [name...]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/koruasset/utility/kar"
)

const usage = `usage:
  kar create -o assets.kar [-author name] dir
  kar list assets.kar
  kar extract -o dir assets.kar [name...]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = create(os.Args[2:])
	case "list":
		err = list(os.Args[2:])
	case "extract":
		err = extract(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Fatal(os.Args[1] + " failed")
	}
}

func create(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	out := fs.String("o", "assets.kar", "archive to write")
	author := fs.String("author", "", "author stored in the header")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one directory, got %d arguments", fs.NArg())
	}
	root := fs.Arg(0)

	builder, err := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			log.WithField("file", rel).Debug("adding")
			return builder.Add(filepath.ToSlash(rel), f)
		})
		return nil
	}); err != nil {
		return err
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": *out, "files": builder.Len(), "bytes": written}).Info("archive written")
	return nil
}

func list(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one archive, got %d arguments", len(args))
	}
	ar, err := kar.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, name := range ar.Names() {
		e, _ := ar.Stat(name)
		fmt.Printf("%10d %10d %s\n", e.Size, e.CompressedSize, name)
	}
	return nil
}

func extract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	out := fs.String("o", ".", "directory to extract into")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("expected an archive")
	}

	ar, err := kar.OpenFile(fs.Arg(0))
	if err != nil {
		return err
	}
	defer ar.Close()

	names := fs.Args()[1:]
	if len(names) == 0 {
		names = ar.Names()
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		name := name
		g.Go(func() error {
			data, err := ar.ReadAll(name)
			if err != nil {
				return err
			}
			clean := filepath.Clean(filepath.FromSlash(name))
			if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
				return fmt.Errorf("refusing to extract %q outside of %s", name, *out)
			}
			target := filepath.Join(*out, clean)
			if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
				return err
			}
			return os.WriteFile(target, data, 0644)
		})
	}
	return g.Wait()
}
