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
	"reflect"

	"rivaas.dev/dispatch/route"
)

// Entry is one handler registration produced by a discovery mechanism:
// a handler plus the route info declared on its type and on the handler
// itself.
//
// Exactly one of Target, Key or Func identifies the handler. Target and
// Key require Method; Key also requires TargetType.
type Entry struct {
	// Target is a live handler value whose method Method is bound.
	Target any

	// Key identifies a target materialized later by the table container.
	Key        string
	TargetType reflect.Type

	// Method is the exported method name on Target or TargetType.
	Method string

	// Func is a plain handler function.
	Func any

	// TypeRoute is the route info declared for the handler type.
	TypeRoute route.Info

	// Route is the route info declared for the handler.
	Route route.Info

	// Params names the handler parameters in declaration order.
	Params []string
}

func (e Entry) String() string {
	switch {
	case e.Func != nil:
		return fmt.Sprintf("func %T", e.Func)
	case e.Key != "":
		return fmt.Sprintf("%s.%s", e.Key, e.Method)
	default:
		return fmt.Sprintf("%T.%s", e.Target, e.Method)
	}
}

// RouteProvider is implemented by handler types that list their own routes.
type RouteProvider interface {
	Routes() []Entry
}

// Collect concatenates the entries of providers in order. Entries without a
// handler are bound to the provider itself.
func Collect(providers ...RouteProvider) []Entry {
	var entries []Entry
	for _, p := range providers {
		for _, e := range p.Routes() {
			if e.Target == nil && e.Key == "" && e.Func == nil {
				e.Target = p
			}
			entries = append(entries, e)
		}
	}

	return entries
}

// Build registers every entry in a new table and freezes it. All failing
// entries are reported together; on any failure no table is returned.
//
// Example:
//
//	table, err := dispatch.Build(dispatch.Collect(&HelloController{}),
//	    dispatch.WithTableLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Build(entries []Entry, opts ...TableOption) (*Table, error) {
	t := NewTable(opts...)

	var errs []error
	for i, e := range entries {
		if err := t.add(e); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i, e, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	t.Freeze()
	t.logger.Debug(fmt.Sprintf("%d mappings in routing table", t.Len()))

	return t, nil
}

func (t *Table) add(e Entry) error {
	d, body := e.TypeRoute.Merge(e.Route)
	opts := []BindingOption{WithParamNames(e.Params...), WithResponseBody(body)}

	var (
		b   *Binding
		err error
	)
	switch {
	case e.Func != nil:
		b, err = NewFuncBinding(e.Func, opts...)
	case e.Key != "":
		b, err = NewDeferredBinding(e.Key, e.TargetType, e.Method, append(opts, WithContainer(t.container))...)
	default:
		b, err = NewMethodBinding(e.Target, e.Method, opts...)
	}
	if err != nil {
		return err
	}

	return t.Register(d, b)
}
