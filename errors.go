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
	"net/http"
	"reflect"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/route"
)

var (
	// ErrNotFound is reported when no route exists for the request path.
	ErrNotFound = riverrors.WithStatus(errors.New("Not Found"), http.StatusNotFound)

	// ErrTableFrozen is returned by [Table.Register] after [Table.Freeze].
	ErrTableFrozen = errors.New("dispatch: routing table is frozen")

	// ErrInvalidHandler indicates a handler whose signature cannot be bound.
	ErrInvalidHandler = errors.New("dispatch: invalid handler")

	// ErrNoContainer indicates a deferred binding without a [Container].
	ErrNoContainer = errors.New("dispatch: deferred binding requires a container")

	// ErrTargetUnavailable indicates that a container could not materialize
	// the target of a deferred binding.
	ErrTargetUnavailable = errors.New("dispatch: handler target unavailable")

	// ErrNoNamedValue indicates a named-value parameter without a name.
	ErrNoNamedValue = errors.New("dispatch: parameter name not specified")

	// ErrNoResolver indicates that no argument resolver supports a parameter.
	ErrNoResolver = errors.New("dispatch: no suitable resolver")
)

// MethodNotAllowedError is returned when a route exists for the request
// path but its method set excludes the request method.
type MethodNotAllowedError struct {
	Method  string
	Path    string
	Allowed route.MethodSet
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("Request method '%s' not supported", e.Method)
}

func (e *MethodNotAllowedError) HTTPStatus() int { return http.StatusMethodNotAllowed }
func (e *MethodNotAllowedError) Code() string    { return "method_not_allowed" }

// Details lists the allowed methods.
func (e *MethodNotAllowedError) Details() any {
	return map[string]any{"allowed": e.Allowed.Strings()}
}

// Headers returns the Allow header for the response.
func (e *MethodNotAllowedError) Headers() http.Header {
	return http.Header{"Allow": []string{e.Allowed.String()}}
}

// AmbiguousMappingError is returned when a second, different binding is
// registered for a path that is already mapped.
type AmbiguousMappingError struct {
	Descriptor route.Descriptor
	Binding    *Binding
	Existing   *Binding
}

func (e *AmbiguousMappingError) Error() string {
	return fmt.Sprintf("Ambiguous mapping. Cannot map '%s' to %s: there is already '%s' mapped",
		e.Binding, e.Descriptor, e.Existing)
}

// UnresolvableParameterError is returned when an argument for a handler
// parameter cannot be produced, either because no resolver supports it
// or because the supporting resolver failed.
type UnresolvableParameterError struct {
	Index  int
	Method string
	Err    error
}

func (e *UnresolvableParameterError) Error() string {
	return fmt.Sprintf("Could not resolve parameter [%d] in %s: %v", e.Index, e.Method, e.Err)
}

func (e *UnresolvableParameterError) Unwrap() error { return e.Err }

// HTTPStatus is 400 for conversion failures, the client error status
// declared by the cause (such as a malformed query or form body), and 500
// otherwise.
func (e *UnresolvableParameterError) HTTPStatus() int {
	var conv *ConversionError
	if errors.As(e.Err, &conv) {
		return http.StatusBadRequest
	}
	if s := riverrors.StatusOf(e.Err); s >= 400 && s < 500 {
		return s
	}

	return http.StatusInternalServerError
}

func (e *UnresolvableParameterError) Code() string { return "unresolvable_parameter" }

func (e *UnresolvableParameterError) Details() any {
	return map[string]any{"index": e.Index, "method": e.Method}
}

// ConversionError is returned when a request parameter cannot be converted
// to the declared parameter type.
type ConversionError struct {
	Name  string
	Value string
	Type  reflect.Type
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert value %q of parameter %q to %s: %v", e.Value, e.Name, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error   { return e.Err }
func (e *ConversionError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ConversionError) Code() string    { return "conversion_failed" }

// UnsupportedReturnTypeError is returned when no return value handler
// supports a handler's result.
type UnsupportedReturnTypeError struct {
	Type   reflect.Type
	Method string
}

func (e *UnsupportedReturnTypeError) Error() string {
	name := "no value"
	if e.Type != nil {
		name = e.Type.String()
	}

	return fmt.Sprintf("Unexpected return type: %s in method: %s", name, e.Method)
}

func (e *UnsupportedReturnTypeError) HTTPStatus() int { return http.StatusInternalServerError }
func (e *UnsupportedReturnTypeError) Code() string    { return "unsupported_return_type" }

// InvocationError wraps a failure raised by a handler, either as a returned
// error or as a panic. Its message is the message of the failure.
type InvocationError struct {
	Method string
	Err    error

	// Panic holds the recovered value when the handler panicked.
	Panic any
}

func (e *InvocationError) Error() string { return e.Err.Error() }
func (e *InvocationError) Unwrap() error { return e.Err }

// HTTPStatus is the status declared by the wrapped error, or 500.
func (e *InvocationError) HTTPStatus() int {
	return riverrors.StatusOf(e.Err)
}

// InterceptorError wraps a failure raised by an interceptor hook.
type InterceptorError struct {
	Phase string
	Err   error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("interceptor %s failed: %v", e.Phase, e.Err)
}

func (e *InterceptorError) Unwrap() error { return e.Err }

func (e *InterceptorError) HTTPStatus() int {
	return riverrors.StatusOf(e.Err)
}

// panicError turns a recovered value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}

	return fmt.Errorf("%v", v)
}
