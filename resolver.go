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
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	riverrors "rivaas.dev/dispatch/errors"
)

// ArgumentResolver produces the argument for one handler parameter.
type ArgumentResolver interface {
	SupportsParameter(p *Parameter) bool
	ResolveArgument(p *Parameter, req *Request) (reflect.Value, error)
}

// ArgumentResolvers is an ordered list of resolvers. The first resolver
// supporting a parameter wins; the choice is cached per parameter and the
// cache is safe for concurrent use.
type ArgumentResolvers struct {
	resolvers []ArgumentResolver
	cache     sync.Map // *Parameter -> ArgumentResolver (or noResolver)
}

type noResolver struct{}

// NewArgumentResolvers returns a chain over resolvers, in order.
func NewArgumentResolvers(resolvers ...ArgumentResolver) *ArgumentResolvers {
	return &ArgumentResolvers{resolvers: resolvers}
}

// DefaultArgumentResolvers returns the built-in resolvers: the request
// resolver followed by the named parameter resolver.
func DefaultArgumentResolvers() []ArgumentResolver {
	return []ArgumentResolver{RequestResolver{}, ParamResolver{}}
}

// Resolvers returns the resolvers in order.
func (a *ArgumentResolvers) Resolvers() []ArgumentResolver { return a.resolvers }

// Supports reports whether any resolver supports p.
func (a *ArgumentResolvers) Supports(p *Parameter) bool {
	_, ok := a.resolverFor(p)
	return ok
}

func (a *ArgumentResolvers) resolverFor(p *Parameter) (ArgumentResolver, bool) {
	if cached, ok := a.cache.Load(p); ok {
		r, ok := cached.(ArgumentResolver)
		return r, ok
	}

	for _, r := range a.resolvers {
		if r.SupportsParameter(p) {
			a.cache.Store(p, r)
			return r, true
		}
	}
	a.cache.Store(p, noResolver{})

	return nil, false
}

// ResolveArguments produces the arguments for every parameter of b. Any
// failure is reported as an [*UnresolvableParameterError].
func (a *ArgumentResolvers) ResolveArguments(b *Binding, req *Request) ([]reflect.Value, error) {
	params := b.Parameters()
	args := make([]reflect.Value, len(params))

	for i, p := range params {
		r, ok := a.resolverFor(p)
		if !ok {
			return nil, &UnresolvableParameterError{
				Index:  p.Index,
				Method: b.Method(),
				Err:    fmt.Errorf("%w for type %s", ErrNoResolver, p.Type),
			}
		}

		v, err := r.ResolveArgument(p, req)
		if err != nil {
			return nil, &UnresolvableParameterError{Index: p.Index, Method: b.Method(), Err: err}
		}
		if !v.IsValid() {
			v = reflect.Zero(p.Type)
		}
		args[i] = v
	}

	return args, nil
}

var (
	requestType     = reflect.TypeFor[*Request]()
	httpRequestType = reflect.TypeFor[*http.Request]()
	contextType     = reflect.TypeFor[context.Context]()
)

// RequestResolver supplies the request itself: parameters of type
// *dispatch.Request, *http.Request or context.Context.
type RequestResolver struct{}

// SupportsParameter implements [ArgumentResolver].
func (RequestResolver) SupportsParameter(p *Parameter) bool {
	switch p.Type {
	case requestType, httpRequestType, contextType:
		return true
	default:
		return false
	}
}

// ResolveArgument implements [ArgumentResolver].
func (RequestResolver) ResolveArgument(p *Parameter, req *Request) (reflect.Value, error) {
	switch p.Type {
	case requestType:
		return reflect.ValueOf(req), nil
	case httpRequestType:
		return reflect.ValueOf(req.HTTPRequest()), nil
	case contextType:
		return reflect.ValueOf(&req.ctx).Elem(), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", errUnsupported, p.Type)
	}
}

// ParamResolver reads a named request parameter, from the query string or a
// form body, and converts it to the parameter type. It supports simple
// types, pointers to them and slices of them.
//
// An absent value yields the zero value, or nil for pointers and slices.
// For non-string types an empty value counts as absent.
type ParamResolver struct{}

// SupportsParameter implements [ArgumentResolver].
func (ParamResolver) SupportsParameter(p *Parameter) bool {
	if isSimpleType(p.Type) {
		return true
	}
	switch p.Type.Kind() {
	case reflect.Pointer, reflect.Slice:
		return isSimpleType(p.Nested)
	default:
		return false
	}
}

// ResolveArgument implements [ArgumentResolver].
func (ParamResolver) ResolveArgument(p *Parameter, req *Request) (reflect.Value, error) {
	if p.Name == "" {
		return reflect.Value{}, fmt.Errorf("%w for type %s", ErrNoNamedValue, p.Type)
	}
	if err := req.ParamsErr(); err != nil {
		return reflect.Value{}, riverrors.WithStatus(err, http.StatusBadRequest)
	}

	values := req.ParamValues(p.Name)

	switch {
	case p.Type.Kind() == reflect.Slice && !isSimpleType(p.Type):
		return convertSlice(p, values)
	case p.Optional:
		if len(values) == 0 || absent(values[0], p.Nested) {
			return reflect.Zero(p.Type), nil
		}
		v, err := convertParam(p, values[0], p.Nested)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(p.Nested)
		ptr.Elem().Set(v)

		return ptr, nil
	default:
		if len(values) == 0 || absent(values[0], p.Type) {
			return reflect.Zero(p.Type), nil
		}

		return convertParam(p, values[0], p.Type)
	}
}

func convertSlice(p *Parameter, values []string) (reflect.Value, error) {
	if len(values) == 0 {
		return reflect.Zero(p.Type), nil
	}

	out := reflect.MakeSlice(p.Type, 0, len(values))
	for _, s := range values {
		if absent(s, p.Nested) {
			continue
		}
		v, err := convertParam(p, s, p.Nested)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, v)
	}

	return out, nil
}

func convertParam(p *Parameter, value string, t reflect.Type) (reflect.Value, error) {
	v, err := convertString(value, t)
	if err != nil {
		return reflect.Value{}, &ConversionError{Name: p.Name, Value: value, Type: p.Type, Err: err}
	}

	return v, nil
}

func absent(value string, t reflect.Type) bool {
	return value == "" && t.Kind() != reflect.String
}
