// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"strings"
)

// Parameters with a meaning to the engine itself
const (
	// ParamVPath overrides the inferred virtual path.
	ParamVPath = "vpath"

	// ParamNamespace prefixes the virtual path.
	ParamNamespace = "namespace"

	// ParamName replaces the path derived trailing components.
	ParamName = "name"
)

const (
	schemeSeparator = "://"
	untypedName     = "Untyped"
)

// Param is a single named URL parameter.
type Param struct {
	Key   string
	Value string
}

// URL locates an asset. It's made of an optional mime type hint,
// a scheme selecting the protocol, a path and named parameters.
// URL values are immutable.
type URL struct {
	mimeType string
	scheme   string
	path     string
	params   []Param
}

// ParseURL parses the textual form
//
//	[mimetype ]scheme://path[?key=value[&key=value...]]
//
// Parameters keep the order they are written in.
func ParseURL(s string) (URL, error) {
	idx := strings.Index(s, schemeSeparator)
	if idx < 0 {
		return URL{}, newError(ErrFormat, s, errors.New("missing "+schemeSeparator))
	}

	var (
		u    URL
		head = s[:idx]
		rest = s[idx+len(schemeSeparator):]
	)

	head = strings.TrimLeft(head, " ")
	if mimeType, scheme, ok := strings.Cut(head, " "); ok {
		u.mimeType = mimeType
		u.scheme = strings.TrimSpace(scheme)
	} else {
		u.scheme = strings.TrimSpace(head)
	}
	if u.scheme == "" {
		return URL{}, newError(ErrFormat, s, errors.New("empty scheme"))
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	if strings.TrimSpace(path) == "" {
		return URL{}, newError(ErrFormat, s, errors.New("empty path"))
	}
	u.path = path

	if hasQuery {
		for _, segment := range strings.Split(query, "&") {
			key, value, ok := strings.Cut(segment, "=")
			if !ok {
				return URL{}, newError(ErrFormat, s, errors.New("parameter without value: "+segment))
			}
			u.params = append(u.params, Param{Key: key, Value: value})
		}
	}
	return u, nil
}

// MustParseURL is like ParseURL but panics on malformed input.
// Meant for static URLs known to be valid.
func MustParseURL(s string) URL {
	u, err := ParseURL(s)
	if err != nil {
		panic(err)
	}
	return u
}

// MimeType returns the content type hint, empty when not known yet
func (u URL) MimeType() string {
	return u.mimeType
}

// Scheme returns the scheme that selects the protocol
func (u URL) Scheme() string {
	return u.scheme
}

// Path returns the protocol specific path
func (u URL) Path() string {
	return u.path
}

// Param returns the value of the first parameter named key
func (u URL) Param(key string) (string, bool) {
	for _, p := range u.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Params returns a copy of all parameters in their original order
func (u URL) Params() []Param {
	params := make([]Param, len(u.params))
	copy(params, u.params)
	return params
}

// WithMimeType returns a copy of u with the mime type replaced.
func (u URL) WithMimeType(mimeType string) URL {
	u.mimeType = mimeType
	return u
}

// String returns the canonical form, which is also the identity of the URL.
func (u URL) String() string {
	var b strings.Builder
	if u.mimeType != "" {
		b.WriteString(u.mimeType)
		b.WriteByte(' ')
	}
	b.WriteString(u.scheme)
	b.WriteString(schemeSeparator)
	b.WriteString(u.path)
	for i, p := range u.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Equal reports whether both URLs have the same canonical form
func (u URL) Equal(o URL) bool {
	return u.String() == o.String()
}

// TypeName is the asset type part of the virtual path, taken from
// the major mime type: "image/png" gives "Image".
func (u URL) TypeName() string {
	major, _, _ := strings.Cut(u.mimeType, "/")
	if major == "" {
		return untypedName
	}
	return strings.ToUpper(major[:1]) + strings.ToLower(major[1:])
}

// VirtualPath returns the components of the virtual path the asset
// behind u is mounted at:
//
//	[namespace/]Type/[pathsegments.../]name
//
// A vpath parameter is used verbatim. Otherwise the path segments are
// collected from the end of the path until one matches the type name,
// so "file://assets/image/ui/ok.png" typed image/png becomes
// Image/ui/ok.png.
func (u URL) VirtualPath() []string {
	var parts []string
	if ns, ok := u.Param(ParamNamespace); ok {
		parts = append(parts, SplitVPath(ns)...)
	}
	if vpath, ok := u.Param(ParamVPath); ok {
		return append(parts, SplitVPath(vpath)...)
	}

	typeName := u.TypeName()
	parts = append(parts, typeName)
	if name, ok := u.Param(ParamName); ok && name != "" {
		return append(parts, name)
	}

	segments := SplitVPath(u.path)
	var trailing []string
	for i := len(segments) - 1; i >= 0; i-- {
		if strings.EqualFold(segments[i], typeName) {
			break
		}
		trailing = append(trailing, segments[i])
	}
	for i := len(trailing) - 1; i >= 0; i-- {
		parts = append(parts, trailing[i])
	}
	return parts
}

// VPath is VirtualPath joined into its string key
func (u URL) VPath() string {
	return JoinVPath(u.VirtualPath()...)
}

// SplitVPath splits a virtual path into its components, ignoring empty ones.
func SplitVPath(vpath string) []string {
	var parts []string
	for _, p := range strings.Split(vpath, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// JoinVPath joins components into a virtual path
func JoinVPath(parts ...string) string {
	return strings.Join(parts, "/")
}

// InNamespace reports whether vpath lives under the namespace ns
func InNamespace(vpath, ns string) bool {
	return strings.HasPrefix(vpath, ns+"/")
}
