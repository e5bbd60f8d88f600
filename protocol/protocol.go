// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package protocol provides the asset.Protocol implementations the engine
// ships with. Every protocol here determines the mime type of the streams
// it opens, first by file extension, then by looking at the content.
package protocol

import (
	"bufio"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/devblok/koruasset/asset"
)

// Conventional schemes the protocols get registered under
const (
	SchemeFile = "file"
	SchemeMem  = "mem"
	SchemeKar  = "kar"
	SchemeRes  = "res"
)

// package errors
var (
	ErrNotFound    = errors.New("resource not found")
	ErrOutsideRoot = errors.New("path escapes the protocol root")
)

// sniffLength is how much content is looked at when the extension is unknown
const sniffLength = 512

var extensions = map[string]string{
	".png":    "image/png",
	".jpg":    "image/jpeg",
	".jpeg":   "image/jpeg",
	".gif":    "image/gif",
	".bmp":    "image/bmp",
	".tif":    "image/tiff",
	".tiff":   "image/tiff",
	".webp":   "image/webp",
	".ttf":    "font/ttf",
	".otf":    "font/otf",
	".layout": "layout/yaml",
	".anim":   "animation/yaml",
	".dae":    "model/vnd.collada+xml",
}

// MimeTypeByExtension returns the mime type registered for the extension
// of name, or an empty string
func MimeTypeByExtension(name string) string {
	return extensions[strings.ToLower(path.Ext(name))]
}

// DetectMimeType sniffs the content type, parameters like charset are dropped
func DetectMimeType(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	detected := http.DetectContentType(head)
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return detected
}

// NewStream wraps rc into an asset.Stream, working out the mime type
// from name or, failing that, from the first bytes of the content
func NewStream(rc io.ReadCloser, name string) asset.Stream {
	if mimeType := MimeTypeByExtension(name); mimeType != "" {
		return &stream{reader: rc, closer: rc, mimeType: mimeType}
	}

	buffered := bufio.NewReaderSize(rc, sniffLength)
	head, _ := buffered.Peek(sniffLength)
	return &stream{
		reader:   buffered,
		closer:   rc,
		mimeType: DetectMimeType(head),
	}
}

type stream struct {
	reader   io.Reader
	closer   io.Closer
	mimeType string
}

func (s *stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *stream) Close() error {
	return s.closer.Close()
}

func (s *stream) MimeType() string {
	return s.mimeType
}

// cleanPath makes url paths relative and rejects ones escaping the root
func cleanPath(p string) (string, error) {
	cleaned := path.Clean(strings.TrimLeft(p, "/"))
	if cleaned == "." {
		return "", ErrNotFound
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrOutsideRoot
	}
	return cleaned, nil
}
