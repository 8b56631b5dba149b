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

// Package route defines the immutable route descriptor used as the identity
// of a dispatch table entry: a normalized literal path plus the set of HTTP
// methods it accepts.
//
// Descriptors compare by path only. The method set is a matching constraint
// checked after lookup, so "/a" registered for GET and "/a" registered for
// POST are the same route.
//
//	typeLevel := route.New("/hello")
//	methodLevel := route.New("index", route.POST)
//	d := typeLevel.Combine(methodLevel) // {[POST] /hello/index}
package route
