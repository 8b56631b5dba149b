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
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

var errorType = reflect.TypeFor[error]()

// Parameter describes one declared parameter of a bound handler. Resolver
// lookups are cached by the identity of the *Parameter, so a binding hands
// out the same pointers for its whole lifetime.
type Parameter struct {
	// Index is the position of the parameter, starting at 0.
	Index int

	// Name is the request parameter name, empty when none was declared.
	Name string

	// Type is the declared type.
	Type reflect.Type

	// Optional is set for pointer types; an absent value resolves to nil.
	Optional bool

	// Nested is the element type of pointer and slice parameters, and Type
	// for every other parameter.
	Nested reflect.Type
}

// ReturnType describes the result of a bound handler.
type ReturnType struct {
	// Type is the type of the value result, nil when the handler returns
	// no value besides an optional error.
	Type reflect.Type

	// Body marks the value as structured content for the body codec. It is
	// set from the method-level or type-level route info.
	Body bool

	// HasError is set when the last result is an error.
	HasError bool

	// Method is the handler signature, used in error messages.
	Method string
}

// BindingOption configures a [Binding].
type BindingOption func(*Binding)

// WithParamNames names the handler parameters in declaration order.
// Parameters beyond the list stay unnamed.
func WithParamNames(names ...string) BindingOption {
	return func(b *Binding) {
		b.names = names
	}
}

// WithResponseBody marks the handler result as structured content.
func WithResponseBody(body bool) BindingOption {
	return func(b *Binding) {
		b.ret.Body = body
	}
}

// WithContainer sets the container used to materialize a deferred target.
func WithContainer(c Container) BindingOption {
	return func(b *Binding) {
		b.container = c
	}
}

// Binding is a callable unit invoked when a route matches: a target plus
// one of its methods, a target resolved later from a [Container] by key,
// or a plain function.
type Binding struct {
	target     any
	key        string
	targetType reflect.Type
	container  Container
	methodName string
	closure    unsafe.Pointer

	names     []string
	params    []*Parameter
	ret       ReturnType
	signature string

	callable atomic.Pointer[reflect.Value]
	mu       sync.Mutex
}

// NewMethodBinding binds the exported method named method of target.
//
// Example:
//
//	b, err := dispatch.NewMethodBinding(&HelloController{}, "Index",
//	    dispatch.WithParamNames("name"),
//	    dispatch.WithResponseBody(true),
//	)
func NewMethodBinding(target any, method string, opts ...BindingOption) (*Binding, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target for method %q", ErrInvalidHandler, method)
	}

	v := reflect.ValueOf(target)
	m, ok := v.Type().MethodByName(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no exported method %q", ErrInvalidHandler, v.Type(), method)
	}

	b := &Binding{target: target, targetType: v.Type(), methodName: method}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.describe(m.Type, 1, fmt.Sprintf("(%s).%s", v.Type(), method)); err != nil {
		return nil, err
	}

	bound := v.Method(m.Index)
	b.callable.Store(&bound)

	return b, nil
}

// NewDeferredBinding binds method of the value registered under key in a
// container. targetType is the type the container produces; it is used to
// describe the method before the target exists. The target is resolved
// on first use and then reused.
func NewDeferredBinding(key string, targetType reflect.Type, method string, opts ...BindingOption) (*Binding, error) {
	if key == "" || targetType == nil {
		return nil, fmt.Errorf("%w: deferred binding needs a key and a type", ErrInvalidHandler)
	}

	m, ok := targetType.MethodByName(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no exported method %q", ErrInvalidHandler, targetType, method)
	}

	b := &Binding{key: key, targetType: targetType, methodName: method}
	for _, opt := range opts {
		opt(b)
	}
	if b.container == nil {
		return nil, fmt.Errorf("%w: key %q", ErrNoContainer, key)
	}
	if targetType.Kind() == reflect.Interface {
		// Interface method types carry no receiver.
		return b, b.describe(m.Type, 0, fmt.Sprintf("(%s).%s", targetType, method))
	}

	return b, b.describe(m.Type, 1, fmt.Sprintf("(%s).%s", targetType, method))
}

// NewFuncBinding binds a plain function. Two function bindings are equal
// when they wrap the same func value: method values on different receivers,
// or closures over different variables, are distinct handlers.
func NewFuncBinding(fn any, opts ...BindingOption) (*Binding, error) {
	v := reflect.ValueOf(fn)
	if fn == nil || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrInvalidHandler, fn)
	}

	b := &Binding{closure: closureOf(v)}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.describe(v.Type(), 0, funcName(v)); err != nil {
		return nil, err
	}
	b.callable.Store(&v)

	return b, nil
}

// describe validates the function type and builds the parameter and return
// descriptors. skip is the number of leading receiver inputs.
func (b *Binding) describe(ft reflect.Type, skip int, name string) error {
	if ft.IsVariadic() {
		return fmt.Errorf("%w: %s is variadic", ErrInvalidHandler, name)
	}

	ret := ReturnType{Body: b.ret.Body}
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			ret.HasError = true
		} else {
			ret.Type = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("%w: second result of %s must be error", ErrInvalidHandler, name)
		}
		ret.Type = ft.Out(0)
		ret.HasError = true
	default:
		return fmt.Errorf("%w: %s returns more than two values", ErrInvalidHandler, name)
	}

	n := ft.NumIn() - skip
	b.params = make([]*Parameter, n)
	types := make([]string, n)
	for i := range n {
		t := ft.In(i + skip)
		p := &Parameter{Index: i, Type: t, Nested: t}
		if i < len(b.names) {
			p.Name = b.names[i]
		}
		switch t.Kind() {
		case reflect.Pointer:
			p.Optional = true
			p.Nested = t.Elem()
		case reflect.Slice:
			p.Nested = t.Elem()
		}
		b.params[i] = p
		types[i] = t.String()
	}

	b.signature = name + "(" + strings.Join(types, ", ") + ")"
	if ret.Type != nil {
		b.signature += " " + ret.Type.String()
	}
	ret.Method = b.signature
	b.ret = ret

	return nil
}

// closureOf returns the func value pointer of v. Unlike the code pointer
// from [reflect.Value.Pointer] it differs between method values bound to
// different receivers.
func closureOf(v reflect.Value) unsafe.Pointer {
	holder := reflect.New(v.Type())
	holder.Elem().Set(v)

	return *(*unsafe.Pointer)(holder.UnsafePointer())
}

func funcName(v reflect.Value) string {
	if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
		return fn.Name()
	}

	return v.Type().String()
}

// Parameters returns the parameter descriptors.
func (b *Binding) Parameters() []*Parameter { return b.params }

// ReturnType returns the result descriptor.
func (b *Binding) ReturnType() ReturnType { return b.ret }

// Method returns the handler signature.
func (b *Binding) Method() string { return b.signature }

// Key returns the container key of a deferred binding.
func (b *Binding) Key() string { return b.key }

// Deferred reports whether the target is resolved from a container.
func (b *Binding) Deferred() bool { return b.key != "" }

// String returns the handler signature.
func (b *Binding) String() string { return b.signature }

// Equal reports whether b and o invoke the same method on the same target.
func (b *Binding) Equal(o *Binding) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil {
		return false
	}
	if b.closure != nil || o.closure != nil {
		return b.closure == o.closure
	}
	if b.methodName != o.methodName {
		return false
	}
	if b.key != "" || o.key != "" {
		return b.key == o.key
	}

	return sameTarget(b.target, o.target)
}

func sameTarget(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Func:
		return closureOf(va) == closureOf(vb)
	case reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}

// Materialize returns the callable for b, resolving a deferred target on
// first use. A failed resolution is not cached.
func (b *Binding) Materialize() (reflect.Value, error) {
	if fn := b.callable.Load(); fn != nil {
		return *fn, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if fn := b.callable.Load(); fn != nil {
		return *fn, nil
	}

	target, err := b.container.Resolve(b.key)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %q: %w", ErrTargetUnavailable, b.key, err)
	}
	v := reflect.ValueOf(target)
	if target == nil || !v.Type().AssignableTo(b.targetType) {
		return reflect.Value{}, fmt.Errorf("%w: %q resolved to %T, want %s", ErrTargetUnavailable, b.key, target, b.targetType)
	}

	fn := v.MethodByName(b.methodName)
	if !fn.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %T has no method %q", ErrTargetUnavailable, target, b.methodName)
	}
	b.callable.Store(&fn)

	return fn, nil
}

// Invoke calls the handler with args. A returned error or a panic is
// reported as an [*InvocationError].
func (b *Binding) Invoke(args []reflect.Value) (result any, err error) {
	fn, err := b.Materialize()
	if err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &InvocationError{Method: b.signature, Err: panicError(p), Panic: p}
		}
	}()

	out := fn.Call(args)

	if b.ret.HasError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return nil, &InvocationError{Method: b.signature, Err: e}
		}
	}
	if b.ret.Type == nil {
		return nil, nil
	}

	return out[0].Interface(), nil
}
