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

package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownKey is returned by [LazyContainer.Resolve] for an unregistered key.
var ErrUnknownKey = errors.New("dispatch: unknown container key")

// Container materializes handler targets registered by key.
type Container interface {
	Resolve(key string) (any, error)
}

// ContainerFunc adapts a function to [Container].
type ContainerFunc func(key string) (any, error)

// Resolve implements [Container].
func (f ContainerFunc) Resolve(key string) (any, error) { return f(key) }

// LazyContainer constructs each target on first resolution and then
// returns the same instance. A failed construction is retried on the next
// call.
type LazyContainer struct {
	mu        sync.Mutex
	providers map[string]func() (any, error)
	instances map[string]any
}

// NewLazyContainer returns an empty container.
func NewLazyContainer() *LazyContainer {
	return &LazyContainer{
		providers: make(map[string]func() (any, error)),
		instances: make(map[string]any),
	}
}

// Provide registers the constructor for key, replacing any previous one.
func (c *LazyContainer) Provide(key string, provider func() (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.providers[key] = provider
	delete(c.instances, key)
}

// Resolve implements [Container].
func (c *LazyContainer) Resolve(key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.instances[key]; ok {
		return v, nil
	}
	provider, ok := c.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	v, err := provider()
	if err != nil {
		return nil, err
	}
	c.instances[key] = v

	return v, nil
}
