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
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/route"
)

// Registration is one entry of the routing table. It is immutable.
type Registration struct {
	Descriptor route.Descriptor
	Binding    *Binding

	// DirectPath is the literal path the registration is looked up by.
	DirectPath string
}

// TableOption configures a [Table].
type TableOption func(*Table)

// WithTableDiagnostics sets the handler receiving startup diagnostics.
func WithTableDiagnostics(h DiagnosticHandler) TableOption {
	return func(t *Table) {
		t.diagnostics = h
	}
}

// WithTableLogger sets the logger used during startup.
func WithTableLogger(l *slog.Logger) TableOption {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTableContainer sets the container that materializes deferred entries
// passed to [Build].
func WithTableContainer(c Container) TableOption {
	return func(t *Table) {
		t.container = c
	}
}

// Table maps route descriptors to handler bindings.
//
// A table is filled during a single-threaded startup phase and then frozen.
// After [Table.Freeze] every registration fails and reads take no lock.
type Table struct {
	pathIndex map[string]route.Descriptor
	registry  map[string]*Registration

	mu     sync.Mutex
	frozen atomic.Bool

	diagnostics DiagnosticHandler
	logger      *slog.Logger
	container   Container
}

// NewTable returns an empty, unfrozen table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		pathIndex: make(map[string]route.Descriptor),
		registry:  make(map[string]*Registration),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Register maps d to b. Registering the same binding twice under one path
// is a no-op; a different binding fails with [*AmbiguousMappingError].
func (t *Table) Register(d route.Descriptor, b *Binding) error {
	if b == nil {
		return fmt.Errorf("%w: nil binding for %s", ErrInvalidHandler, d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s", ErrTableFrozen, d)
	}

	if existing, ok := t.registry[d.Key()]; ok {
		if existing.Binding.Equal(b) {
			emitTo(t.diagnostics, DiagDuplicateMapping, "identical mapping registered twice", map[string]any{
				"path":    d.Path(),
				"handler": b.String(),
			})

			return nil
		}

		return &AmbiguousMappingError{Descriptor: d, Binding: b, Existing: existing.Binding}
	}

	t.pathIndex[d.Path()] = d
	t.registry[d.Key()] = &Registration{Descriptor: d, Binding: b, DirectPath: d.Path()}

	t.logger.Debug("mapped route", "route", d.String(), "handler", b.String())
	emitTo(t.diagnostics, DiagRouteRegistered, "route registered", map[string]any{
		"path":    d.Path(),
		"methods": d.Methods().Strings(),
		"handler": b.String(),
	})

	return nil
}

// Freeze publishes the table for serving. It is idempotent.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen.Swap(true) {
		return
	}
	emitTo(t.diagnostics, DiagTableFrozen, "routing table frozen", map[string]any{
		"routes": len(t.registry),
	})
}

// Frozen reports whether the table has been frozen.
func (t *Table) Frozen() bool { return t.frozen.Load() }

// Lookup returns the registration for the exact path. Methods are not
// considered.
func (t *Table) Lookup(path string) (*Registration, bool) {
	if !t.frozen.Load() {
		t.mu.Lock()
		defer t.mu.Unlock()
	}

	d, ok := t.pathIndex[path]
	if !ok {
		return nil, false
	}
	reg, ok := t.registry[d.Key()]

	return reg, ok
}

// MatchMethod checks m against the methods of d. An empty method set
// accepts every method.
func (t *Table) MatchMethod(d route.Descriptor, m string) (route.Descriptor, error) {
	set := d.Methods()
	if set.IsEmpty() {
		return d, nil
	}

	method, ok := route.ParseMethod(m)
	if !ok || !set.Contains(method) {
		return d, &MethodNotAllowedError{Method: m, Path: d.Path(), Allowed: set}
	}

	return d, nil
}

// Len returns the number of registrations.
func (t *Table) Len() int { return len(t.registry) }

// Registrations returns all registrations sorted by path.
func (t *Table) Registrations() []*Registration {
	regs := make([]*Registration, 0, len(t.registry))
	for _, r := range t.registry {
		regs = append(regs, r)
	}
	slices.SortFunc(regs, func(a, b *Registration) int {
		return strings.Compare(a.DirectPath, b.DirectPath)
	})

	return regs
}
