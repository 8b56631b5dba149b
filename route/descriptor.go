// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package route

import (
	"strings"
)

// Descriptor is a normalized path plus the methods it accepts.
// The zero value is the root path accepting every method.
type Descriptor struct {
	path    string
	methods MethodSet
}

// New returns a descriptor for path, normalized with [Normalize].
func New(path string, methods ...Method) Descriptor {
	return Descriptor{path: Normalize(path), methods: NewMethodSet(methods...)}
}

// WithMethodSet returns a descriptor for path accepting the methods in set.
func WithMethodSet(path string, set MethodSet) Descriptor {
	return Descriptor{path: Normalize(path), methods: set}
}

// Path returns the normalized path.
func (d Descriptor) Path() string {
	if d.path == "" {
		return "/"
	}

	return d.path
}

// Methods returns the accepted method set.
func (d Descriptor) Methods() MethodSet {
	return d.methods
}

// Key returns the identity of the descriptor. Two descriptors with the same
// key occupy the same table slot regardless of their methods.
func (d Descriptor) Key() string {
	return d.Path()
}

// Equal reports whether d and o identify the same route.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Path() == o.Path()
}

// Combine merges a type-level descriptor d with a method-level descriptor o.
// Paths are concatenated, never replaced; the root path of either side
// contributes nothing. Method sets are unioned.
func (d Descriptor) Combine(o Descriptor) Descriptor {
	var path string
	switch {
	case d.Path() == "/":
		path = o.Path()
	case o.Path() == "/":
		path = d.Path()
	default:
		path = Normalize(d.Path() + "/" + o.Path())
	}

	return Descriptor{path: path, methods: d.methods.Union(o.methods)}
}

// String formats the descriptor as "{[GET, POST] /path}".
func (d Descriptor) String() string {
	return "{[" + d.methods.String() + "] " + d.Path() + "}"
}

// Normalize prefixes path with "/" and collapses every run of "/" into one.
// The empty string normalizes to "/". A trailing "/" is kept; it is part of
// the literal path.
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.Contains(path, "//") && path[0] == '/' {
		return path
	}

	var b strings.Builder
	b.Grow(len(path) + 1)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}

	return b.String()
}
