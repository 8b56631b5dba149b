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
	"log/slog"

	"rivaas.dev/dispatch/codec"
	riverrors "rivaas.dev/dispatch/errors"
)

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithInterceptors appends interceptors. Registration order is PreHandle
// order.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(d *Dispatcher) {
		d.interceptors = append(d.interceptors, interceptors...)
	}
}

// WithArgumentResolvers adds resolvers consulted before the built-in ones.
func WithArgumentResolvers(resolvers ...ArgumentResolver) Option {
	return func(d *Dispatcher) {
		d.customResolvers = append(d.customResolvers, resolvers...)
	}
}

// WithReturnValueHandlers adds return value handlers consulted before the
// built-in ones.
func WithReturnValueHandlers(handlers ...ReturnValueHandler) Option {
	return func(d *Dispatcher) {
		d.customHandlers = append(d.customHandlers, handlers...)
	}
}

// WithErrorFormatter sets the formatter rendering dispatch errors.
// The default writes the error message as text/plain.
//
// Example:
//
//	d := dispatch.MustNew(table,
//	    dispatch.WithErrorFormatter(errors.NewRFC9457("https://api.example.com/problems")),
//	)
func WithErrorFormatter(f riverrors.Formatter) Option {
	return func(d *Dispatcher) {
		d.formatter = f
	}
}

// WithBodyCodec sets the codec used for structured handler results.
// The default is JSON.
func WithBodyCodec(c codec.Codec) Option {
	return func(d *Dispatcher) {
		d.bodyCodec = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithDiagnostics sets the handler receiving serving diagnostics.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(d *Dispatcher) {
		d.diagnostics = h
	}
}

// WithMaxBodyBytes bounds the request body buffered by [Dispatcher.ServeHTTP].
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) {
		d.maxBodyBytes = n
	}
}
