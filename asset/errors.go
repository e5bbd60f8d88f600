// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"strings"
)

// package errors
var (
	ErrFormat                 = errors.New("malformed asset url or virtual path")
	ErrUnknownProtocol        = errors.New("no protocol registered for scheme")
	ErrUnknownMimeType        = errors.New("no factory registered for mime type")
	ErrStream                 = errors.New("stream operation failed")
	ErrLoaderInstantiation    = errors.New("factory failed to create a loader")
	ErrDependencyUnresolvable = errors.New("dependencies did not resolve in time")
	ErrLoadFailed             = errors.New("loader failed")
	ErrUnloadRefused          = errors.New("asset is locked or in use")
	ErrResourceRelease        = errors.New("asset failed to release its resources")
	ErrNotMounted             = errors.New("no asset mounted at virtual path")
)

// Error ties one of the package errors to the url or virtual path
// it happened for, along with an underlying cause if there is one.
type Error struct {
	Kind    error
	Subject string
	Cause   error
}

func newError(kind error, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Subject != "" {
		b.WriteString(" [")
		b.WriteString(e.Subject)
		b.WriteByte(']')
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the package error the Error was created with
func (e *Error) Is(target error) bool {
	return e.Kind == target
}
