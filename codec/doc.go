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

// Package codec provides the body codecs used to serialize structured
// handler results: JSON (the default), YAML, TOML and MessagePack.
//
// Codecs are looked up by name from a process-wide registry:
//
//	c, err := codec.Lookup("json")
//	body, err := c.Marshal(map[string]string{"name": "wjw"})
//
// All registered codecs are safe for concurrent use.
package codec
