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

package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownCodec is returned by [Lookup] for an unregistered name.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrUnsupportedTarget is returned when a codec cannot decode into the
	// given value.
	ErrUnsupportedTarget = errors.New("unsupported decode target")
)

// Codec converts values to and from an encoded body.
type Codec interface {
	// Name is the registry key, e.g. "json".
	Name() string

	// ContentType is the Content-Type header value for encoded bodies.
	ContentType() string

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	mu       sync.RWMutex
	registry = map[string]Codec{}
)

func init() {
	for _, c := range []Codec{JSON{}, YAML{}, TOML{}, MsgPack{}, Protobuf{}} {
		Register(c)
	}
}

// Register adds c to the registry, replacing any codec with the same name.
func Register(c Codec) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(c.Name())] = c
}

// Lookup returns the codec registered under name (case-insensitive).
func Lookup(name string) (Codec, error) {
	mu.RLock()
	defer mu.RUnlock()

	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	return c, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}
