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

// Info is declarative route metadata attached to a handler type or to one
// of its methods. It is what a registration feed provides; [Info.Descriptor]
// turns it into a table identity.
type Info struct {
	// Path is the literal path fragment. It need not start with "/".
	Path string

	// Methods restricts the accepted methods. Empty accepts every method.
	Methods []Method

	// ResponseBody marks every return value as structured content to be
	// written through the body codec.
	ResponseBody bool
}

// Descriptor returns the normalized descriptor for i.
func (i Info) Descriptor() Descriptor {
	return New(i.Path, i.Methods...)
}

// Merge combines type-level info i with method-level info m: paths are
// concatenated, methods unioned, and the body flag set if either side sets it.
func (i Info) Merge(m Info) (Descriptor, bool) {
	return i.Descriptor().Combine(m.Descriptor()), i.ResponseBody || m.ResponseBody
}
