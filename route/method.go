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
	"net/http"
	"strings"
)

// Method is one of the standard HTTP request methods.
type Method uint16

const (
	GET Method = 1 << iota
	HEAD
	POST
	PUT
	PATCH
	DELETE
	OPTIONS
	TRACE
)

// allMethods lists the methods in canonical order.
var allMethods = [...]Method{GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS, TRACE}

var methodNames = map[Method]string{
	GET:     http.MethodGet,
	HEAD:    http.MethodHead,
	POST:    http.MethodPost,
	PUT:     http.MethodPut,
	PATCH:   http.MethodPatch,
	DELETE:  http.MethodDelete,
	OPTIONS: http.MethodOptions,
	TRACE:   http.MethodTrace,
}

// ParseMethod maps an HTTP method token to a Method. The lookup is
// case-insensitive; unknown tokens (including CONNECT) report false.
func ParseMethod(s string) (Method, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, m := range allMethods {
		if methodNames[m] == s {
			return m, true
		}
	}

	return 0, false
}

// String returns the method token, e.g. "GET".
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}

	return "UNKNOWN"
}

// MethodSet is an immutable set of methods. The zero value is the empty
// set, which accepts every method.
type MethodSet uint16

// NewMethodSet returns the set holding ms.
func NewMethodSet(ms ...Method) MethodSet {
	var s MethodSet
	for _, m := range ms {
		s |= MethodSet(m)
	}

	return s
}

// Contains reports whether m is a member of s.
func (s MethodSet) Contains(m Method) bool {
	return s&MethodSet(m) != 0
}

// IsEmpty reports whether s has no members.
func (s MethodSet) IsEmpty() bool {
	return s == 0
}

// Allows reports whether a request with method m may use a route with
// this set. An empty set allows every method.
func (s MethodSet) Allows(m Method) bool {
	return s.IsEmpty() || s.Contains(m)
}

// Union returns the set holding the members of both s and o.
func (s MethodSet) Union(o MethodSet) MethodSet {
	return s | o
}

// Methods lists the members in canonical order.
func (s MethodSet) Methods() []Method {
	out := make([]Method, 0, len(allMethods))
	for _, m := range allMethods {
		if s.Contains(m) {
			out = append(out, m)
		}
	}

	return out
}

// Strings lists the member tokens in canonical order.
func (s MethodSet) Strings() []string {
	ms := s.Methods()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}

	return out
}

// String formats the set as it appears in an Allow header, e.g. "GET, POST".
func (s MethodSet) String() string {
	return strings.Join(s.Strings(), ", ")
}
